// 数据导入工具：读取兴趣点 GeoJSON 并写入 PostgreSQL 的 _poi_places
package main

import (
	"context"
	"os"
	"time"

	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/migrate"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/store"
	"poi-dashboard/internal/utils"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

var cli struct {
	Replace bool   `help:"Delete existing rows before importing."`
	Input   string `arg:"" type:"existingfile" help:"GeoJSON FeatureCollection of places."`
}

func main() {
	_ = godotenv.Load(".env")
	kctx := kong.Parse(&cli,
		kong.Name("poi-import"),
		kong.Description("Import a place collection into Postgres (PG_* environment variables)."),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	l := logger.Setup()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	ds, err := poi.FileSource{Path: cli.Input}.Load(ctx)
	if err != nil {
		return err
	}
	l.Info("import_parsed", "features", ds.Len(), "categories", len(ds.Categories))

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := migrate.EnsureSchema(db); err != nil {
		return err
	}
	n, err := store.AttachDB(db).InsertFeatures(ctx, ds.Features, cli.Replace)
	if err != nil {
		return err
	}
	l.Info("import_done", "rows", n, "replace", cli.Replace)
	if n == 0 {
		os.Exit(2)
	}
	return nil
}
