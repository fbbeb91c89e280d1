package radius

import (
	"math"
	"math/rand"
	"testing"

	"poi-dashboard/internal/geo"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/spatial"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{100, 500},
		{500, 500},
		{1234.5, 1234.5},
		{5000, 5000},
		{9000, 5000},
		{math.NaN(), 500},
		{math.Inf(1), 5000},
		{math.Inf(-1), 500},
	}
	for _, c := range cases {
		got := Clamp(c.in, DefaultMin, DefaultMax)
		assert.Equal(t, c.want, got, "in=%v", c.in)
		assert.Equal(t, got, Clamp(got, DefaultMin, DefaultMax), "idempotent in=%v", c.in)
	}
}

func TestWithinInclusiveEdge(t *testing.T) {
	center := DefaultConfig().Center
	p1500 := geo.Destination(center, 90, 1500)
	p1501 := geo.Destination(center, 90, 1501)
	fs := []*poi.Feature{
		{ID: 0, Coordinates: p1500, Category: "retail"},
		{ID: 1, Coordinates: p1501, Category: "retail"},
	}

	got := Within(fs, center, 1500)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].ID)
}

func TestWithinEdgeEveryBearing(t *testing.T) {
	center := DefaultConfig().Center
	fs := make([]*poi.Feature, 0, 720)
	for b := 0; b < 360; b++ {
		fs = append(fs,
			&poi.Feature{ID: 2 * b, Coordinates: geo.Destination(center, float64(b), 1500), Category: "in"},
			&poi.Feature{ID: 2*b + 1, Coordinates: geo.Destination(center, float64(b), 1501), Category: "out"},
		)
	}
	idx := spatial.Build(fs, spatial.DenseCellSize)
	for _, got := range [][]*poi.Feature{Within(fs, center, 1500), WithinIndexed(fs, idx, center, 1500)} {
		require.Len(t, got, 360)
		for _, f := range got {
			assert.Equal(t, "in", f.Category, "id=%d", f.ID)
		}
	}
}

func TestWithinMonotone(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	center := DefaultConfig().Center
	fs := make([]*poi.Feature, 500)
	for i := range fs {
		fs[i] = &poi.Feature{ID: i, Coordinates: orb.Point{center[0] + (r.Float64()-0.5)*0.12, center[1] + (r.Float64()-0.5)*0.12}}
	}
	prev := map[int]bool{}
	for m := DefaultMin; m <= DefaultMax; m += 250 {
		cur := map[int]bool{}
		for _, f := range Within(fs, center, m) {
			cur[f.ID] = true
		}
		for id := range prev {
			assert.True(t, cur[id], "feature %d lost when radius grew to %v", id, m)
		}
		prev = cur
	}
	assert.NotEmpty(t, prev)
}

func TestTopCategories(t *testing.T) {
	var fs []*poi.Feature
	for i, c := range []string{"a", "b", "b", "c", "c", "c", "d", "e", "f", "g"} {
		fs = append(fs, &poi.Feature{ID: i, Category: c})
	}
	top := TopCategories(fs, DefaultTop)
	require.Len(t, top, 5)
	assert.Equal(t, poi.CategoryCount{Category: "c", Count: 3}, top[0])
	assert.Equal(t, poi.CategoryCount{Category: "b", Count: 2}, top[1])
	assert.Equal(t, "a", top[2].Category)
	assert.Equal(t, "d", top[3].Category)

	assert.Len(t, TopCategories(fs, 0), 7)
	assert.NotNil(t, TopCategories(nil, 5))
	assert.Empty(t, TopCategories(nil, 5))
}

func TestAnalyze(t *testing.T) {
	cfg := DefaultConfig()
	fs := []*poi.Feature{
		{ID: 0, Coordinates: cfg.Center, Category: "retail"},
		{ID: 1, Coordinates: geo.Destination(cfg.Center, 0, 1000), Category: "airport"},
		{ID: 2, Coordinates: geo.Destination(cfg.Center, 0, 3000), Category: "retail"},
	}
	s := Analyze(fs, nil, cfg, DefaultTop)
	assert.Equal(t, 2, s.Total)
	assert.Len(t, s.Features, 2)
	assert.Equal(t, 1500.0, s.Meters)

	s = Analyze(fs, spatial.Build(fs, spatial.DenseCellSize), cfg.WithMeters(99999), DefaultTop)
	assert.Equal(t, DefaultMax, s.Meters)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, poi.CategoryCount{Category: "retail", Count: 2}, s.Top[0])
}

func TestWithinIndexedMatchesScan(t *testing.T) {
	r := rand.New(rand.NewSource(21))
	center := DefaultConfig().Center
	fs := make([]*poi.Feature, 4000)
	for i := range fs {
		fs[i] = &poi.Feature{ID: i, Coordinates: orb.Point{center[0] + (r.Float64()-0.5)*0.15, center[1] + (r.Float64()-0.5)*0.15}}
	}
	idx := spatial.Build(fs, spatial.DenseCellSize)
	for _, m := range []float64{DefaultMin, DefaultMeters, DefaultMax} {
		assert.Equal(t, Within(fs, center, m), WithinIndexed(fs, idx, center, m), "meters=%v", m)
	}
}

func TestBound(t *testing.T) {
	center := DefaultConfig().Center
	b, ok := Bound(center, 1500)
	require.True(t, ok)
	for _, bearing := range []float64{0, 45, 90, 135, 180, 225, 270, 315} {
		p := geo.Destination(center, bearing, 1500)
		assert.True(t, b.Contains(p), "bearing %v", bearing)
	}
	_, ok = Bound(orb.Point{179.99, 0}, 5000)
	assert.False(t, ok)
	_, ok = Bound(orb.Point{0, 89.99}, 5000)
	assert.False(t, ok)
}
