package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// 文档注释：计算 Polygon/MultiPolygon 的包围盒
// 背景：作为空间索引粗筛的查询范围；扫描所有子面的所有环顶点。
// 返回：不支持的几何类型或没有任何顶点时 ok=false。
func GeometryBounds(g orb.Geometry) (orb.Bound, bool) {
	var polys []orb.Polygon
	switch gg := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{gg}
	case orb.MultiPolygon:
		polys = gg
	default:
		return orb.Bound{}, false
	}
	b := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	seen := false
	for _, p := range polys {
		for _, r := range p {
			for _, pt := range r {
				b.Min[0] = math.Min(b.Min[0], pt[0])
				b.Min[1] = math.Min(b.Min[1], pt[1])
				b.Max[0] = math.Max(b.Max[0], pt[0])
				b.Max[1] = math.Max(b.Max[1], pt[1])
				seen = true
			}
		}
	}
	if !seen {
		return orb.Bound{}, false
	}
	return b, true
}

// BoundOf 返回一组点的包围盒；空输入 ok=false
func BoundOf(pts []orb.Point) (orb.Bound, bool) {
	if len(pts) == 0 {
		return orb.Bound{}, false
	}
	b := orb.Bound{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b = b.Extend(p)
	}
	return b, true
}

// Pad 按比例向四周扩展包围盒（0.1 即每侧扩展宽/高的 10%）
func Pad(b orb.Bound, ratio float64) orb.Bound {
	dx := (b.Max[0] - b.Min[0]) * ratio
	dy := (b.Max[1] - b.Min[1]) * ratio
	return orb.Bound{
		Min: orb.Point{b.Min[0] - dx, b.Min[1] - dy},
		Max: orb.Point{b.Max[0] + dx, b.Max[1] + dy},
	}
}

// ValidLngLat 校验经纬度是否落在 WGS84 合法范围内
func ValidLngLat(lng, lat float64) bool {
	if math.IsNaN(lng) || math.IsNaN(lat) {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}
