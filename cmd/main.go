// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"poi-dashboard/internal/api"
	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/catchment"
	"poi-dashboard/internal/config"
	"poi-dashboard/internal/filter"
	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/metrics"
	"poi-dashboard/internal/middleware"
	"poi-dashboard/internal/migrate"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/spatial"
	"poi-dashboard/internal/store"
	"poi-dashboard/internal/utils"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	// 日志初始化
	l := logger.Setup()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	l.Debug("config_api_base", "base", cfg.APIBase)
	l.Debug("config_ui_dir", "dir", cfg.UIDist)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := featureSource(cfg)
	if err != nil {
		l.Error("feature_source_error", "source", cfg.FeatureSource, "err", err)
		os.Exit(1)
	}
	defer closeSrc()

	var bsrc boundary.Source = boundary.DirSource{Dir: cfg.BoundaryDir}
	if cfg.BoundaryBaseURL != "" {
		bsrc = boundary.HTTPSource{BaseURL: cfg.BoundaryBaseURL, Client: &http.Client{Timeout: 30 * time.Second}}
	}
	loader := boundary.NewLoader(bsrc)

	ctrl := filter.NewController(filter.Options{
		CellSize:     cfg.CellSize,
		TopLimit:     cfg.TopLimit,
		Scope:        cfg.RadiusScope,
		Radius:       cfg.Radius,
		Loader:       loader,
		InitialLevel: cfg.InitialLevel,
	})
	ctrl.Subscribe(func(s filter.Snapshot) {
		l.Debug("state_changed", "version", s.Version, "phase", s.Phase.String(), "visible", len(s.Filtered), "radius_total", s.RadiusSummary.Total)
	})

	// 背景：数据加载在后台进行，期间 /state 返回 idle，其余视图接口返回 503
	go func() {
		if _, err := ctrl.LoadFeatures(ctx, src); err != nil {
			return
		}
		if _, _, err := ctrl.ShowBoundaryLevel(ctx, cfg.InitialLevel); err != nil {
			l.Warn("initial_boundary_level_error", "level", cfg.InitialLevel, "err", err)
		}
	}()

	var rc *redis.Client
	if cfg.RedisEnabled {
		rc = utils.OpenRedisFromEnv()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
	} else {
		l.Info("redis_disabled")
	}
	data := func() (*poi.Dataset, *spatial.Index, int64) {
		ds, idx, loadedAt := ctrl.Generation()
		return ds, idx, loadedAt.UnixNano()
	}
	catch := catchment.NewService(data, cfg.Radius, cfg.TopLimit,
		catchment.NewLRU(cfg.CatchmentCacheSize, cfg.CatchmentCacheTTL), rc, cfg.CatchmentCacheTTL)

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(api.Deps{Ctrl: ctrl, Catchment: catch, Source: src, AdminToken: os.Getenv("ADMIN_TOKEN")})
	allow := middleware.AllowlistFromEnv()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle("POST "+cfg.APIBase+"/reload", allow.Guard(http.StripPrefix(cfg.APIBase, apiMux)))
	mux.Handle(cfg.APIBase+"/metrics", allow.Guard(metrics.Handler()))
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDist)))

	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
	})

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler, cfg.RateLimitEnabled, cfg.RateLimitQPS)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if cfg.TLSEnabled {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "poi-dashboard.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

// featureSource 按 FEATURE_SOURCE 构造要素数据源；postgres 时同时确保表结构
func featureSource(cfg *config.Config) (poi.Source, func(), error) {
	l := logger.L()
	switch cfg.FeatureSource {
	case config.SourceHTTP:
		return poi.HTTPSource{URL: cfg.FeaturesURL, Client: &http.Client{Timeout: time.Minute}}, func() {}, nil
	case config.SourcePostgres:
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			return nil, nil, err
		}
		l.Info("db_open_ok")
		if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		st := store.AttachDB(db)
		return st, func() { _ = st.Close() }, nil
	}
	l.Debug("config_features_path", "path", filepath.Clean(cfg.FeaturesPath))
	return poi.FileSource{Path: cfg.FeaturesPath}, func() {}, nil
}
