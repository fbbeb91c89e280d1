package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters 球面平均半径（米），与前端地图库的距离计算保持一致
const EarthRadiusMeters = 6371000.0

// 文档注释：球面距离（Haversine），返回米
// 背景：半径分析使用真实大圆距离而非平面近似；输入为 orb.Point{lng, lat}。
func Distance(a, b orb.Point) float64 {
	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dLat := (b[1] - a[1]) * math.Pi / 180
	dLon := (b[0] - a[0]) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// 文档注释：按方位角与距离推算目标点（球面）
// 背景：用于构造半径边界上的测试点与视口换算；bearing 以正北为 0，顺时针，单位度。
func Destination(p orb.Point, bearingDeg, meters float64) orb.Point {
	lat1 := p[1] * math.Pi / 180
	lon1 := p[0] * math.Pi / 180
	brg := bearingDeg * math.Pi / 180
	d := meters / EarthRadiusMeters
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(math.Sin(brg)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return orb.Point{lon2 * 180 / math.Pi, lat2 * 180 / math.Pi}
}
