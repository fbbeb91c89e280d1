package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecomputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poi_recompute_total",
		Help: "Total recomputations by kind (view, radius)",
	}, []string{"kind"})
	RecomputeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poi_recompute_duration_ms",
		Help:    "Recompute duration in milliseconds",
		Buckets: []float64{0.5, 1, 5, 10, 20, 50, 100, 200, 500},
	}, []string{"kind"})
	VisibleFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poi_visible_features",
		Help: "Features in the current filtered view",
	})
	DatasetFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poi_dataset_features",
		Help: "Features in the loaded dataset",
	})
	DatasetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poi_dataset_loads_total",
		Help: "Feature dataset loads by status",
	}, []string{"status"})
	BoundaryLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poi_boundary_loads_total",
		Help: "Boundary collection fetches by level and status",
	}, []string{"level", "status"})
	BoundaryCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "poi_boundary_candidates",
		Help:    "Spatial index candidates per boundary filter",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	BoundaryMatches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "poi_boundary_matches",
		Help:    "Features inside the boundary after exact test",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	CatchmentRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poi_catchment_requests_total",
		Help: "Total ad-hoc catchment queries",
	})
	CatchmentCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poi_catchment_cache_total",
		Help: "Catchment cache lookups by layer (local, redis) and result (hit, miss)",
	}, []string{"layer", "result"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poi_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(RecomputeTotal)
	prometheus.MustRegister(RecomputeDurationMs)
	prometheus.MustRegister(VisibleFeatures)
	prometheus.MustRegister(DatasetFeatures)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(BoundaryLoadsTotal)
	prometheus.MustRegister(BoundaryCandidates)
	prometheus.MustRegister(BoundaryMatches)
	prometheus.MustRegister(CatchmentRequestsTotal)
	prometheus.MustRegister(CatchmentCacheTotal)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标监听器，在主入口挂载到 <API_BASE>/metrics
func Handler() http.Handler { return promhttp.Handler() }
