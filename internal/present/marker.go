// 包 present：把筛选结果转换为渲染层可直接使用的展示结构（标记点、图表、面板、弹窗）
package present

import (
	"math"

	"poi-dashboard/internal/geo"
	"poi-dashboard/internal/poi"

	"github.com/paulmach/orb"
)

// MarkerRadius 标记点半径（像素）
const MarkerRadius = 6

// DefaultMarkerColor 未登记分类的颜色
const DefaultMarkerColor = "#2c3e50"

var markerColors = map[string]string{
	"industrial_company":    "#e74c3c",
	"retail":                "#3498db",
	"professional_services": "#2ecc71",
	"construction_services": "#f39c12",
	"automotive_repair":     "#9b59b6",
	"real_estate":           "#1abc9c",
	"health_and_medical":    "#e67e22",
	"college_university":    "#34495e",
	"airport":               "#e91e63",
}

// MarkerColor 分类对应的标记颜色
func MarkerColor(category string) string {
	if c, ok := markerColors[category]; ok {
		return c
	}
	return DefaultMarkerColor
}

// Marker 单个标记点；ID 只在所属 MarkerTable 内有效
type Marker struct {
	ID       int     `json:"id"`
	Lng      float64 `json:"lng"`
	Lat      float64 `json:"lat"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
	Radius   int     `json:"radius"`
}

// 文档注释：标记点与要素的对照表
// 背景：渲染层只认标记 ID，点击后通过对照表找回要素，要素本身不携带任何渲染对象。
// 约束：每次视图重算生成新表，Version 与快照的视图版本一致；旧表的标记 ID 不再有效。
type MarkerTable struct {
	Version  uint64
	markers  []Marker
	features []*poi.Feature
}

// NewMarkerTable 按要素顺序生成标记，标记 ID 即序号
func NewMarkerTable(version uint64, fs []*poi.Feature) *MarkerTable {
	t := &MarkerTable{
		Version:  version,
		markers:  make([]Marker, len(fs)),
		features: fs,
	}
	for i, f := range fs {
		t.markers[i] = Marker{
			ID:       i,
			Lng:      f.Lng(),
			Lat:      f.Lat(),
			Category: f.Category,
			Color:    MarkerColor(f.Category),
			Radius:   MarkerRadius,
		}
	}
	return t
}

func (t *MarkerTable) Len() int { return len(t.markers) }

// Markers 全部标记
func (t *MarkerTable) Markers() []Marker { return t.markers }

// Feature 标记 ID 对应的要素
func (t *MarkerTable) Feature(markerID int) (*poi.Feature, bool) {
	if markerID < 0 || markerID >= len(t.features) {
		return nil, false
	}
	return t.features[markerID], true
}

// 文档注释：按视口裁剪标记
// 背景：大数据集一次性渲染成本高，只输出视口中心附近的标记。
// 约束：保留与视口中心距离不超过 1.5 倍视口最大跨度（度数按 111000 米/度折算）的标记。
func (t *MarkerTable) InViewport(view orb.Bound) []Marker {
	limit := ViewportReach(view)
	center := view.Center()
	out := make([]Marker, 0)
	for _, m := range t.markers {
		if geo.Distance(center, orb.Point{m.Lng, m.Lat}) <= limit {
			out = append(out, m)
		}
	}
	return out
}

// ViewportReach 视口裁剪半径（米）
func ViewportReach(view orb.Bound) float64 {
	span := math.Max(view.Max[1]-view.Min[1], view.Max[0]-view.Min[0])
	return span * 111000 * 1.5
}

// FitBounds 要素集合外包框外扩 10%；空集合返回 false
func FitBounds(fs []*poi.Feature) (orb.Bound, bool) {
	if len(fs) == 0 {
		return orb.Bound{}, false
	}
	pts := make([]orb.Point, len(fs))
	for i, f := range fs {
		pts[i] = f.Coordinates
	}
	b, ok := geo.BoundOf(pts)
	if !ok {
		return orb.Bound{}, false
	}
	return geo.Pad(b, 0.1), true
}

// ClusterSize 聚合图标尺寸档位
func ClusterSize(count int) string {
	switch {
	case count < 100:
		return "small"
	case count < 500:
		return "medium"
	}
	return "large"
}

// ClusterSettings 聚合参数
type ClusterSettings struct {
	MaxClusterRadius        int `json:"max_cluster_radius"`
	DisableClusteringAtZoom int `json:"disable_clustering_at_zoom"`
}

// ClusterSettingsFor 按缩放级别选择聚合参数
func ClusterSettingsFor(zoom float64) ClusterSettings {
	switch {
	case zoom < 10:
		return ClusterSettings{MaxClusterRadius: 120, DisableClusteringAtZoom: 18}
	case zoom < 13:
		return ClusterSettings{MaxClusterRadius: 80, DisableClusteringAtZoom: 19}
	}
	return ClusterSettings{MaxClusterRadius: 60, DisableClusteringAtZoom: 20}
}
