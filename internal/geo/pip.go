// 包 geo：点与多边形的基础几何判定，坐标统一为 orb.Point{lng, lat}（WGS84）
package geo

import "github.com/paulmach/orb"

// 文档注释：射线法判定点是否在环内（Even-Odd）
// 背景：边界筛选的精确阶段；环可闭合也可不闭合，末点隐式连回首点。
// 约束：顶点纵坐标相等时按 (yi > y) != (yj > y) 的非对称规则计数，避免同一顶点被两条边重复计入；不加 epsilon。
func PointInRing(pt orb.Point, ring orb.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	x, y := pt[0], pt[1]
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// 文档注释：按几何类型分派的点入面判定
// 约束：Polygon 只检查第一环（外环），MultiPolygon 任一子面外环命中即为真；洞不做扣除，洞内的点同样视为命中。
// 其他几何类型一律返回 false。
func IsPointInGeometry(pt orb.Point, g orb.Geometry) bool {
	switch gg := g.(type) {
	case orb.Polygon:
		return polygonContains(gg, pt)
	case orb.MultiPolygon:
		for _, p := range gg {
			if polygonContains(p, pt) {
				return true
			}
		}
	}
	return false
}

func polygonContains(p orb.Polygon, pt orb.Point) bool {
	if len(p) == 0 {
		return false
	}
	return PointInRing(pt, p[0])
}
