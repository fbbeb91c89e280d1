// 包 catchment：按需的集水区（半径）查询，不改变筛选状态；结果按本地 LRU 与可选 Redis 两级缓存
package catchment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"poi-dashboard/internal/geo"
	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/metrics"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/radius"
	"poi-dashboard/internal/spatial"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
)

// Precision 缓存键 geohash 精度
const Precision = 8

var (
	ErrNoData       = errors.New("data not loaded")
	ErrInvalidPoint = errors.New("invalid center")
)

// Result 集水区查询结果
type Result struct {
	Lat    float64             `json:"lat"`
	Lng    float64             `json:"lng"`
	Meters float64             `json:"meters"`
	Total  int                 `json:"total"`
	Top    []poi.CategoryCount `json:"top"`
	Cache  string              `json:"cache,omitempty"`
}

// Data 当前数据集；generation 在每次重新加载后变化
type Data func() (ds *poi.Dataset, idx *spatial.Index, generation int64)

// Service 集水区查询服务
type Service struct {
	data  Data
	cfg   radius.Config
	limit int
	local *LRU
	rc    *redis.Client
	ttl   time.Duration
}

// NewService rc 可为 nil；cfg 只取半径范围用于钳制
func NewService(data Data, cfg radius.Config, limit int, local *LRU, rc *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{data: data, cfg: cfg, limit: limit, local: local, rc: rc, ttl: ttl}
}

// 文档注释：查询某点周边半径内的分类汇总
// 背景：中心先吸附到 geohash 单元中心、半径钳制并取整到米，保证同一缓存键对应同一计算输入。
// 约束：缓存键包含数据集代号，重新加载数据后旧结果自然失效；Redis 读写失败只记录日志，不影响返回。
func (s *Service) Query(ctx context.Context, lat, lng, meters float64) (Result, error) {
	metrics.CatchmentRequestsTotal.Inc()
	if !geo.ValidLngLat(lng, lat) {
		return Result{}, fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidPoint, lat, lng)
	}
	ds, idx, gen := s.data()
	if ds == nil {
		return Result{}, ErrNoData
	}
	hash := Encode(lat, lng, Precision)
	clat, clng, _ := Decode(hash)
	m := math.Round(radius.Clamp(meters, s.cfg.Min, s.cfg.Max))
	key := fmt.Sprintf("catchment:%d:%s:%d:%d", gen, hash, int(m), s.limit)

	if s.local != nil {
		if r, ok := s.local.Get(key); ok {
			metrics.CatchmentCacheTotal.WithLabelValues("local", "hit").Inc()
			r.Cache = "local"
			return r, nil
		}
		metrics.CatchmentCacheTotal.WithLabelValues("local", "miss").Inc()
	}
	if s.rc != nil {
		if r, ok := s.fromRedis(ctx, key); ok {
			if s.local != nil {
				s.local.Set(key, r)
			}
			r.Cache = "redis"
			return r, nil
		}
	}

	center := orb.Point{clng, clat}
	in := radius.WithinIndexed(ds.Features, idx, center, m)
	r := Result{Lat: clat, Lng: clng, Meters: m, Total: len(in), Top: radius.TopCategories(in, s.limit)}
	if s.local != nil {
		s.local.Set(key, r)
	}
	if s.rc != nil {
		if b, err := json.Marshal(r); err == nil {
			if err := s.rc.Set(ctx, key, string(b), s.ttl).Err(); err != nil {
				logger.L().Warn("catchment_redis_set_error", "err", err)
			}
		}
	}
	logger.L().Debug("catchment_computed", "hash", hash, "meters", m, "total", r.Total)
	return r, nil
}

func (s *Service) fromRedis(ctx context.Context, key string) (Result, bool) {
	b, err := s.rc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("catchment_redis_get_error", "err", err)
		}
		metrics.CatchmentCacheTotal.WithLabelValues("redis", "miss").Inc()
		return Result{}, false
	}
	var r Result
	if err := json.Unmarshal(b, &r); err != nil {
		metrics.CatchmentCacheTotal.WithLabelValues("redis", "miss").Inc()
		return Result{}, false
	}
	metrics.CatchmentCacheTotal.WithLabelValues("redis", "hit").Inc()
	return r, true
}
