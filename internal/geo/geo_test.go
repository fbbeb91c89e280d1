package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}
}

func rotate(r orb.Ring, k int) orb.Ring {
	// 去掉闭合点后旋转起点，再重新闭合
	open := r[:len(r)-1]
	out := make(orb.Ring, 0, len(r))
	for i := range open {
		out = append(out, open[(i+k)%len(open)])
	}
	return append(out, out[0])
}

func TestPointInRing(t *testing.T) {
	ring := square(0, 0, 10, 10)
	tri := orb.Ring{{0, 0}, {10, 0}, {5, 8}}

	tests := []struct {
		name string
		ring orb.Ring
		pt   orb.Point
		want bool
	}{
		{"centroid", ring, orb.Point{5, 5}, true},
		{"far outside", ring, orb.Point{100, -50}, false},
		{"outside right", ring, orb.Point{10.5, 5}, false},
		{"triangle centroid unclosed ring", tri, orb.Point{5, 8.0 / 3}, true},
		{"triangle outside apex", tri, orb.Point{5, 8.5}, false},
		{"vertex height ray not double counted", orb.Ring{{0, 0}, {4, 5}, {8, 0}, {8, 10}, {0, 10}}, orb.Point{2, 5}, true},
		{"degenerate ring", orb.Ring{{0, 0}, {1, 1}}, orb.Point{0.5, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInRing(tt.pt, tt.ring))
		})
	}
}

func TestPointInRingBoundaryTieRule(t *testing.T) {
	ring := square(0, 0, 10, 10)
	// 下边与左边算内，上边与右边算外：(yi > y) != (yj > y) 的非对称规则
	assert.True(t, PointInRing(orb.Point{5, 0}, ring))
	assert.False(t, PointInRing(orb.Point{5, 10}, ring))
	assert.False(t, PointInRing(orb.Point{10, 5}, ring))
}

func TestPointInRingRotationInvariant(t *testing.T) {
	ring := orb.Ring{{0, 0}, {6, -1}, {9, 4}, {5, 9}, {1, 7}, {0, 0}}
	pts := []orb.Point{{4, 4}, {8.9, 4}, {-1, 3}, {5, 9.5}, {3, 0}, {6, 2}}
	for _, p := range pts {
		want := PointInRing(p, ring)
		for k := 1; k < len(ring)-1; k++ {
			assert.Equal(t, want, PointInRing(p, rotate(ring, k)), "point %v rotation %d", p, k)
		}
	}
}

func TestIsPointInGeometry(t *testing.T) {
	withHole := orb.Polygon{square(0, 0, 10, 10), square(4, 4, 6, 6)}
	multi := orb.MultiPolygon{
		{square(0, 0, 1, 1)},
		{square(5, 5, 6, 6)},
	}

	assert.True(t, IsPointInGeometry(orb.Point{5, 5}, withHole), "holes are not subtracted")
	assert.True(t, IsPointInGeometry(orb.Point{5.5, 5.5}, multi))
	assert.False(t, IsPointInGeometry(orb.Point{3, 3}, multi))
	assert.False(t, IsPointInGeometry(orb.Point{0.5, 0.5}, orb.LineString{{0, 0}, {1, 1}}))
	assert.False(t, IsPointInGeometry(orb.Point{0.5, 0.5}, orb.Polygon{}))
	assert.False(t, IsPointInGeometry(orb.Point{0.5, 0.5}, nil))
}

func TestGeometryBounds(t *testing.T) {
	b, ok := GeometryBounds(orb.MultiPolygon{
		{square(0, 0, 1, 1)},
		{square(5, -2, 6, 6)},
	})
	require.True(t, ok)
	assert.Equal(t, orb.Point{0, -2}, b.Min)
	assert.Equal(t, orb.Point{6, 6}, b.Max)

	_, ok = GeometryBounds(orb.Point{1, 1})
	assert.False(t, ok)
	_, ok = GeometryBounds(orb.Polygon{})
	assert.False(t, ok)
}

func TestPad(t *testing.T) {
	b := Pad(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 20}}, 0.1)
	assert.InDelta(t, -1, b.Min[0], 1e-9)
	assert.InDelta(t, -2, b.Min[1], 1e-9)
	assert.InDelta(t, 11, b.Max[0], 1e-9)
	assert.InDelta(t, 22, b.Max[1], 1e-9)
}

func TestDistance(t *testing.T) {
	// 赤道上一度经度约 111.195 km
	d := Distance(orb.Point{0, 0}, orb.Point{1, 0})
	assert.InDelta(t, 111194.93, d, 1.0)
	assert.Equal(t, 0.0, Distance(orb.Point{45.4373, 35.5613}, orb.Point{45.4373, 35.5613}))
}

func TestDestinationRoundTrip(t *testing.T) {
	c := orb.Point{45.4373, 35.5613}
	for _, brg := range []float64{0, 45, 90, 180, 270, 333} {
		p := Destination(c, brg, 1500)
		assert.InDelta(t, 1500, Distance(c, p), 1e-6, "bearing %v", brg)
	}
}

func TestValidLngLat(t *testing.T) {
	assert.True(t, ValidLngLat(180, -90))
	assert.False(t, ValidLngLat(180.1, 0))
	assert.False(t, ValidLngLat(0, math.NaN()))
}
