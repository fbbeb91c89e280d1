// 数据合并工具：合并多个兴趣点 GeoJSON，只保留数量前 N 的分类，输出单个 FeatureCollection
package main

import (
	"fmt"
	"os"

	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/poi"

	"github.com/alecthomas/kong"
	"github.com/paulmach/orb/geojson"
)

var cli struct {
	Top    int      `short:"n" default:"10" help:"Number of top categories to keep."`
	Output string   `short:"o" default:"combined.geojson" help:"Output file."`
	Inputs []string `arg:"" type:"existingfile" help:"Input GeoJSON files."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("poi-combine"),
		kong.Description("Merge place collections and keep the most common categories."),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	l := logger.Setup()
	colls := make([]*geojson.FeatureCollection, 0, len(cli.Inputs))
	for _, p := range cli.Inputs {
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		fc, err := geojson.UnmarshalFeatureCollection(b)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		l.Info("combine_input", "path", p, "features", len(fc.Features))
		colls = append(colls, fc)
	}
	out, top := poi.Combine(colls, cli.Top)
	for i, cc := range top {
		l.Info("combine_top_category", "rank", i+1, "category", cc.Category, "count", cc.Count)
	}
	b, err := out.MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(cli.Output, b, 0o644); err != nil {
		return err
	}
	l.Info("combine_done", "output", cli.Output, "features", len(out.Features))
	return nil
}
