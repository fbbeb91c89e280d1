package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poi-dashboard/internal/poi"
)

func uniform(n int, seed int64, minLng, minLat, size float64) []*poi.Feature {
	r := rand.New(rand.NewSource(seed))
	fs := make([]*poi.Feature, n)
	for i := range fs {
		fs[i] = &poi.Feature{
			ID:          i,
			Coordinates: orb.Point{minLng + r.Float64()*size, minLat + r.Float64()*size},
			Category:    "retail",
		}
	}
	return fs
}

func exactInBox(fs []*poi.Feature, minLng, maxLng, minLat, maxLat float64) int {
	n := 0
	for _, f := range fs {
		if f.Lng() >= minLng && f.Lng() <= maxLng && f.Lat() >= minLat && f.Lat() <= maxLat {
			n++
		}
	}
	return n
}

func ids(fs []*poi.Feature) map[int]bool {
	m := make(map[int]bool, len(fs))
	for _, f := range fs {
		m[f.ID] = true
	}
	return m
}

func TestBuildEmpty(t *testing.T) {
	idx := Build(nil, 0.01)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, idx.CellCount())
	assert.Empty(t, idx.QueryBounds(-180, 180, -90, 90))
	_, ok := idx.Bounds()
	assert.False(t, ok)
}

func TestBuildFallsBackOnBadCellSize(t *testing.T) {
	for _, cs := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.Equal(t, DefaultCellSize, Build(nil, cs).CellSize())
	}
}

func TestEachFeatureInOwnCell(t *testing.T) {
	fs := []*poi.Feature{
		{ID: 0, Coordinates: orb.Point{0.015, 0.015}},
		{ID: 1, Coordinates: orb.Point{-0.001, -0.001}},
		{ID: 2, Coordinates: orb.Point{0.019, 0.011}},
	}
	idx := Build(fs, 0.01)
	assert.Equal(t, 2, idx.CellCount())
	// 只查 (1,1) 单元格，不会带出邻格 (-1,-1)
	got := idx.QueryBounds(0.012, 0.013, 0.012, 0.013)
	assert.Equal(t, map[int]bool{0: true, 2: true}, ids(got))

	b, ok := idx.Bounds()
	require.True(t, ok)
	assert.Equal(t, orb.Point{-0.001, -0.001}, b.Min)
	assert.Equal(t, orb.Point{0.019, 0.015}, b.Max)
}

func TestQueryCompleteness(t *testing.T) {
	fs := uniform(500, 7, 44.0, 33.0, 0.3)
	idx := Build(fs, DenseCellSize)
	for _, f := range fs {
		got := idx.QueryBounds(f.Lng(), f.Lng(), f.Lat(), f.Lat())
		assert.True(t, ids(got)[f.ID], "feature %d missing from its own point query", f.ID)
	}
}

func TestQueryDeterministic(t *testing.T) {
	fs := uniform(300, 3, 0, 0, 1)
	a := Build(fs, 0.01).QueryBounds(0.2, 0.7, 0.1, 0.9)
	b := Build(fs, 0.01).QueryBounds(0.2, 0.7, 0.1, 0.9)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Same(t, a[i], b[i])
	}
}

func TestQueryUniformSquare(t *testing.T) {
	fs := uniform(1000, 42, 0, 0, 1)
	idx := Build(fs, 0.01)

	all := idx.QueryBounds(0, 1, 0, 1)
	assert.Len(t, all, 1000)

	exact := exactInBox(fs, 0, 0.5, 0, 0.5)
	quarter := idx.QueryBounds(0, 0.5, 0, 0.5)
	assert.GreaterOrEqual(t, len(quarter), exact)
	assert.InDelta(t, 250, len(quarter), 60)

	// 候选集合必须覆盖精确结果
	got := ids(quarter)
	for _, f := range fs {
		if f.Lng() <= 0.5 && f.Lat() <= 0.5 {
			assert.True(t, got[f.ID])
		}
	}
}

func TestQuerySparseScanMatchesRangeScan(t *testing.T) {
	fs := uniform(200, 11, 44, 33, 0.05)
	idx := Build(fs, 0.005)
	require.Greater(t, idx.CellCount(), 9)

	inCells := func(minLng, maxLng, minLat, maxLat float64) map[int]bool {
		m := make(map[int]bool)
		for _, f := range fs {
			x := math.Floor(f.Lng() / 0.005)
			y := math.Floor(f.Lat() / 0.005)
			if x >= math.Floor(minLng/0.005) && x <= math.Floor(maxLng/0.005) &&
				y >= math.Floor(minLat/0.005) && y <= math.Floor(maxLat/0.005) {
				m[f.ID] = true
			}
		}
		return m
	}

	// 大范围走已占用单元格遍历
	wide := idx.QueryBounds(-180, 180, -90, 90)
	assert.Len(t, wide, 200)
	// 小范围（约 3x3 单元格）走区间遍历
	narrow := idx.QueryBounds(44.012, 44.022, 33.012, 33.022)
	assert.Equal(t, inCells(44.012, 44.022, 33.012, 33.022), ids(narrow))
}

func TestQueryInvertedBox(t *testing.T) {
	idx := Build(uniform(10, 1, 0, 0, 1), 0.1)
	assert.Empty(t, idx.QueryBounds(1, 0, 0, 1))
}
