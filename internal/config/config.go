// 包 config：集中读取环境变量配置，每项都有默认值；.env 文件中的取值不会覆盖已存在的环境变量
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/filter"
	"poi-dashboard/internal/radius"
	"poi-dashboard/internal/spatial"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
)

// FeatureSource 要素数据来源类型
type FeatureSource string

const (
	SourceFile     FeatureSource = "file"
	SourceHTTP     FeatureSource = "http"
	SourcePostgres FeatureSource = "postgres"
)

// Config 服务运行配置
type Config struct {
	Addr    string
	APIBase string
	UIDist  string

	FeatureSource FeatureSource
	FeaturesPath  string
	FeaturesURL   string

	BoundaryDir     string
	BoundaryBaseURL string
	InitialLevel    boundary.Level

	CellSize    float64
	Radius      radius.Config
	TopLimit    int
	RadiusScope filter.RadiusScope

	CatchmentCacheTTL  time.Duration
	CatchmentCacheSize int
	RedisEnabled       bool

	RateLimitEnabled bool
	RateLimitQPS     int

	TLSEnabled  bool
	TLSCertPath string
	TLSKeyPath  string
}

// Load 先加载 .env 与 data/env/.env，再读取环境变量
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	return FromEnv()
}

// 文档注释：从环境变量构建配置
// 约束：数值解析失败返回错误而非静默回退；半径默认值会被钳制到 [RADIUS_MIN, RADIUS_MAX]。
func FromEnv() (*Config, error) {
	var errs []string
	num := func(key string, def float64) float64 {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q", key, v))
			return def
		}
		return f
	}
	integer := func(key string, def int) int {
		v := os.Getenv(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q", key, v))
			return def
		}
		return n
	}

	c := &Config{
		Addr:               str("ADDR", ":8080"),
		APIBase:            strings.TrimRight(str("API_BASE", "/api"), "/"),
		UIDist:             str("UI_DIST", filepath.Join("ui", "dist")),
		FeatureSource:      FeatureSource(strings.ToLower(str("FEATURE_SOURCE", string(SourceFile)))),
		FeaturesPath:       str("FEATURES_PATH", filepath.Join("data", "places.geojson")),
		FeaturesURL:        os.Getenv("FEATURES_URL"),
		BoundaryDir:        str("BOUNDARY_DIR", filepath.Join("data", "boundaries")),
		BoundaryBaseURL:    os.Getenv("BOUNDARY_BASE_URL"),
		CellSize:           num("INDEX_CELL_SIZE", spatial.DenseCellSize),
		TopLimit:           integer("RADIUS_TOP_LIMIT", radius.DefaultTop),
		CatchmentCacheTTL:  time.Duration(integer("CATCHMENT_CACHE_TTL_S", 3600)) * time.Second,
		CatchmentCacheSize: integer("CATCHMENT_CACHE_SIZE", 4096),
		RedisEnabled:       os.Getenv("REDIS_ENABLED") == "true",
		RateLimitEnabled:   os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:       integer("RATE_LIMIT_QPS", 200),
		TLSEnabled:         os.Getenv("TLS_ENABLE") == "true",
		TLSCertPath:        str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:         str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
	}
	c.Radius = radius.Config{
		Center: orb.Point{num("RADIUS_CENTER_LNG", radius.DefaultCenterLng), num("RADIUS_CENTER_LAT", radius.DefaultCenterLat)},
		Min:    num("RADIUS_MIN", radius.DefaultMin),
		Max:    num("RADIUS_MAX", radius.DefaultMax),
		Step:   num("RADIUS_STEP", radius.DefaultStep),
	}
	c.Radius = c.Radius.WithMeters(num("RADIUS_DEFAULT", radius.DefaultMeters))
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid config values: %s", strings.Join(errs, ", "))
	}

	switch c.FeatureSource {
	case SourceFile, SourcePostgres:
	case SourceHTTP:
		if c.FeaturesURL == "" {
			return nil, fmt.Errorf("FEATURE_SOURCE=http requires FEATURES_URL")
		}
	default:
		return nil, fmt.Errorf("unknown FEATURE_SOURCE %q", c.FeatureSource)
	}
	if c.APIBase == "" || !strings.HasPrefix(c.APIBase, "/") {
		return nil, fmt.Errorf("API_BASE must be a non-root path starting with /, got %q", c.APIBase)
	}
	if c.Radius.Min <= 0 || c.Radius.Min > c.Radius.Max {
		return nil, fmt.Errorf("invalid radius range %v..%v", c.Radius.Min, c.Radius.Max)
	}
	scope, err := filter.ParseRadiusScope(os.Getenv("RADIUS_SCOPE"))
	if err != nil {
		return nil, err
	}
	c.RadiusScope = scope
	level, err := boundary.ParseLevel(str("INITIAL_BOUNDARY_LEVEL", string(boundary.Adm3)))
	if err != nil {
		return nil, err
	}
	c.InitialLevel = level
	return c, nil
}

func str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
