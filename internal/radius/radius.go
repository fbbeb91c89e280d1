// 包 radius：以中心点与半径（米）圈定集水区，并汇总区内分类排名
package radius

import (
	"math"
	"sort"

	"poi-dashboard/internal/geo"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/spatial"

	"github.com/paulmach/orb"
)

const (
	DefaultMin       = 500.0
	DefaultMax       = 5000.0
	DefaultStep      = 100.0
	DefaultMeters    = 1500.0
	DefaultTop       = 5
	DefaultCenterLat = 35.5613
	DefaultCenterLng = 45.4373
)

// Config 半径分析参数；Meters 始终落在 [Min, Max]
type Config struct {
	Center orb.Point `json:"center"`
	Meters float64   `json:"meters"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Step   float64   `json:"step"`
}

// DefaultConfig 默认中心与 1500 米半径
func DefaultConfig() Config {
	return Config{
		Center: orb.Point{DefaultCenterLng, DefaultCenterLat},
		Meters: DefaultMeters,
		Min:    DefaultMin,
		Max:    DefaultMax,
		Step:   DefaultStep,
	}
}

// WithMeters 返回钳制后的新配置
func (c Config) WithMeters(m float64) Config {
	c.Meters = Clamp(m, c.Min, c.Max)
	return c
}

// 文档注释：把半径钳制到 [min, max]
// 约束：NaN 取 min，+Inf 取 max，-Inf 取 min；不按步长取整；幂等。
func Clamp(meters, min, max float64) float64 {
	if math.IsNaN(meters) {
		return min
	}
	if meters < min {
		return min
	}
	if meters > max {
		return max
	}
	return meters
}

// EdgeToleranceMeters 边界判定容差（0.1 毫米），吸收 Haversine 与坐标推算的浮点误差
const EdgeToleranceMeters = 1e-4

// 文档注释：保留与中心大圆距离不超过 meters 的要素（含边界）
// 约束：距离在 meters+EdgeToleranceMeters 以内即视为落在边界上；恰好 1500 米处的点计入，1501 米处的点不计入。
func Within(fs []*poi.Feature, center orb.Point, meters float64) []*poi.Feature {
	out := make([]*poi.Feature, 0)
	limit := meters + EdgeToleranceMeters
	for _, f := range fs {
		if geo.Distance(center, f.Coordinates) <= limit {
			out = append(out, f)
		}
	}
	return out
}

// 文档注释：圆形范围在球面上的精确外包框
// 约束：范围触及极点或跨越 ±180° 经线时 ok=false，调用方应退回全量扫描。
func Bound(center orb.Point, meters float64) (orb.Bound, bool) {
	r := (meters + EdgeToleranceMeters) / geo.EarthRadiusMeters
	dLat := r * 180 / math.Pi
	minLat, maxLat := center[1]-dLat, center[1]+dLat
	if minLat <= -90 || maxLat >= 90 {
		return orb.Bound{}, false
	}
	s := math.Sin(r) / math.Cos(center[1]*math.Pi/180)
	if s >= 1 {
		return orb.Bound{}, false
	}
	dLng := math.Asin(s) * 180 / math.Pi
	if center[0]-dLng < -180 || center[0]+dLng > 180 {
		return orb.Bound{}, false
	}
	const eps = 1e-9
	return orb.Bound{
		Min: orb.Point{center[0] - dLng - eps, minLat - eps},
		Max: orb.Point{center[0] + dLng + eps, maxLat + eps},
	}, true
}

// 文档注释：借助网格索引圈定半径内要素
// 背景：先用外包框查询索引得到候选，再做精确距离判定；结果按要素序号排序，与全量扫描的顺序一致。
// 约束：idx 必须由 fs 构建；idx 为空或外包框不可用时退回全量扫描。
func WithinIndexed(fs []*poi.Feature, idx *spatial.Index, center orb.Point, meters float64) []*poi.Feature {
	if idx == nil {
		return Within(fs, center, meters)
	}
	b, ok := Bound(center, meters)
	if !ok {
		return Within(fs, center, meters)
	}
	out := Within(idx.QueryBound(b), center, meters)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TopCategories 分类计数降序截取前 limit 项；limit<=0 不截断
func TopCategories(fs []*poi.Feature, limit int) []poi.CategoryCount {
	cs := poi.CountCategories(fs)
	if limit > 0 && len(cs) > limit {
		cs = cs[:limit]
	}
	if cs == nil {
		cs = []poi.CategoryCount{}
	}
	return cs
}

// Summary 一次半径分析结果
type Summary struct {
	Center   orb.Point           `json:"center"`
	Meters   float64             `json:"meters"`
	Total    int                 `json:"total"`
	Top      []poi.CategoryCount `json:"top"`
	Features []*poi.Feature      `json:"-"`
}

// Analyze 按配置圈定并汇总；半径先行钳制，idx 可为空
func Analyze(fs []*poi.Feature, idx *spatial.Index, cfg Config, limit int) Summary {
	m := Clamp(cfg.Meters, cfg.Min, cfg.Max)
	in := WithinIndexed(fs, idx, cfg.Center, m)
	return Summary{
		Center:   cfg.Center,
		Meters:   m,
		Total:    len(in),
		Top:      TopCategories(in, limit),
		Features: in,
	}
}
