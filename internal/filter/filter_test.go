package filter

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/geo"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/radius"
	"poi-dashboard/internal/spatial"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var categories = []string{"retail", "airport", "real_estate", "unknown"}

func makeFeatures(n int, seed int64) []*poi.Feature {
	r := rand.New(rand.NewSource(seed))
	c := radius.DefaultConfig().Center
	fs := make([]*poi.Feature, n)
	for i := range fs {
		fs[i] = &poi.Feature{
			ID:          i,
			Coordinates: orb.Point{c[0] + (r.Float64()-0.5)*0.2, c[1] + (r.Float64()-0.5)*0.2},
			Category:    categories[r.Intn(len(categories))],
		}
	}
	return fs
}

func box(code string, minX, minY, maxX, maxY float64) *boundary.Boundary {
	return &boundary.Boundary{
		Level:      boundary.Adm3,
		Geometry:   orb.Polygon{{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}},
		Properties: geojson.Properties{"ADM3_PCODE": code, "ADM3_EN": "Box " + code},
	}
}

func ids(fs []*poi.Feature) map[int]bool {
	m := make(map[int]bool, len(fs))
	for _, f := range fs {
		m[f.ID] = true
	}
	return m
}

type sliceSource struct {
	fs  []*poi.Feature
	err error
}

func (s sliceSource) Load(ctx context.Context) (*poi.Dataset, error) {
	if s.err != nil {
		return nil, s.err
	}
	return poi.NewDataset(s.fs), nil
}

func TestRecomputeCommutative(t *testing.T) {
	fs := makeFeatures(3000, 11)
	idx := spatial.Build(fs, spatial.DenseCellSize)
	c := radius.DefaultConfig().Center
	b := box("X", c[0]-0.04, c[1]-0.03, c[0]+0.05, c[1]+0.02)
	sel := Selection{Categories: []string{"retail", "airport"}, Boundary: b}

	got := Recompute(fs, idx, sel)
	other := boundary.FilterWithin(poi.FilterCategories(fs, sel.Categories), nil, b.Geometry)

	assert.NotEmpty(t, got)
	assert.Equal(t, ids(other), ids(got))
	for _, f := range got {
		assert.True(t, geo.IsPointInGeometry(f.Coordinates, b.Geometry))
		assert.Contains(t, sel.Categories, f.Category)
	}
}

func TestRecomputeNoSelectionReturnsCopy(t *testing.T) {
	fs := makeFeatures(10, 1)
	got := Recompute(fs, nil, Selection{})
	require.Len(t, got, 10)
	got[0] = nil
	assert.NotNil(t, fs[0])
}

func TestRadiusDataset(t *testing.T) {
	fs := makeFeatures(500, 5)
	c := radius.DefaultConfig().Center
	b := box("X", c[0], c[1], c[0]+0.1, c[1]+0.1)
	assert.Len(t, RadiusDataset(fs, nil, b, ScopeFull), 500)
	assert.Len(t, RadiusDataset(fs, nil, nil, ScopeBoundary), 500)
	in := RadiusDataset(fs, nil, b, ScopeBoundary)
	assert.Less(t, len(in), 500)
	assert.NotEmpty(t, in)
}

func TestParseRadiusScope(t *testing.T) {
	s, err := ParseRadiusScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeFull, s)
	s, err = ParseRadiusScope("Boundary")
	require.NoError(t, err)
	assert.Equal(t, ScopeBoundary, s)
	_, err = ParseRadiusScope("viewport")
	assert.Error(t, err)
}

type ControllerSuite struct {
	suite.Suite
	fs   []*poi.Feature
	ctrl *Controller
}

func (s *ControllerSuite) SetupTest() {
	s.fs = makeFeatures(2000, 42)
	s.ctrl = NewController(Options{})
	_, err := s.ctrl.LoadFeatures(context.Background(), sliceSource{fs: s.fs})
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestIdleRejectsCommands() {
	c := NewController(Options{})
	snap, err := c.Dispatch(ToggleCategory{Category: "retail"})
	s.True(errors.Is(err, ErrNotLoaded))
	s.Equal(Idle, snap.Phase)
}

func (s *ControllerSuite) TestLoadedPhase() {
	snap := s.ctrl.Snapshot()
	s.Equal(Loaded, snap.Phase)
	s.Equal(2000, snap.Total)
	s.Len(snap.Filtered, 2000)
	s.ElementsMatch(categories, snap.AllCategories)
	s.Equal(radius.DefaultMeters, snap.RadiusSummary.Meters)
	s.Positive(snap.RadiusSummary.Total)
}

func (s *ControllerSuite) TestToggleCategory() {
	snap, err := s.ctrl.Dispatch(ToggleCategory{Category: "retail"})
	s.Require().NoError(err)
	s.Equal(Filtered, snap.Phase)
	s.Equal([]string{"retail"}, snap.Categories)
	for _, f := range snap.Filtered {
		s.Equal("retail", f.Category)
	}

	snap, err = s.ctrl.Dispatch(ToggleCategory{Category: "airport"})
	s.Require().NoError(err)
	s.Equal([]string{"retail", "airport"}, snap.Categories)

	s.ctrl.Dispatch(ToggleCategory{Category: "airport"})
	snap, err = s.ctrl.Dispatch(ToggleCategory{Category: "retail"})
	s.Require().NoError(err)
	s.Empty(snap.Categories)
	s.Equal(Loaded, snap.Phase)
	s.Len(snap.Filtered, 2000)
}

func (s *ControllerSuite) TestSetCategoriesDedup() {
	snap, err := s.ctrl.Dispatch(SetCategories{Categories: []string{"retail", "retail", "airport"}})
	s.Require().NoError(err)
	s.Equal([]string{"retail", "airport"}, snap.Categories)

	_, err = s.ctrl.Dispatch(SetCategories{Categories: []string{""}})
	s.True(errors.Is(err, ErrInvalidCommand))
	s.Equal([]string{"retail", "airport"}, s.ctrl.Snapshot().Categories)
}

func (s *ControllerSuite) TestSelectBoundaryToggles() {
	c := radius.DefaultConfig().Center
	b := box("A", c[0]-0.05, c[1]-0.05, c[0], c[1])
	snap, err := s.ctrl.Dispatch(SelectBoundary{Boundary: b})
	s.Require().NoError(err)
	s.Equal(Filtered, snap.Phase)
	s.Equal("adm3:A", snap.BoundaryKey())
	s.Less(len(snap.Filtered), 2000)
	s.NotEmpty(snap.Filtered)

	// 同一边界的另一个实例也视为同一选择
	snap, err = s.ctrl.Dispatch(SelectBoundary{Boundary: box("A", c[0]-0.05, c[1]-0.05, c[0], c[1])})
	s.Require().NoError(err)
	s.Nil(snap.Boundary)
	s.Equal(Loaded, snap.Phase)

	s.ctrl.Dispatch(SelectBoundary{Boundary: b})
	snap, _ = s.ctrl.Dispatch(SelectBoundary{Boundary: box("B", c[0], c[1], c[0]+0.05, c[1]+0.05)})
	s.Equal("adm3:B", snap.BoundaryKey())

	snap, _ = s.ctrl.Dispatch(ClearBoundary{})
	s.Nil(snap.Boundary)
}

func (s *ControllerSuite) TestClearFilters() {
	c := radius.DefaultConfig().Center
	s.ctrl.Dispatch(ToggleCategory{Category: "retail"})
	s.ctrl.Dispatch(SelectBoundary{Boundary: box("A", c[0]-0.05, c[1]-0.05, c[0], c[1])})
	snap, err := s.ctrl.Dispatch(ClearFilters{})
	s.Require().NoError(err)
	s.Empty(snap.Categories)
	s.Nil(snap.Boundary)
	s.Len(snap.Filtered, 2000)
	s.Equal(Loaded, snap.Phase)
}

func (s *ControllerSuite) TestRadiusIndependentOfView() {
	before := s.ctrl.Snapshot().RadiusSummary

	c := radius.DefaultConfig().Center
	s.ctrl.Dispatch(ToggleCategory{Category: "airport"})
	snap, _ := s.ctrl.Dispatch(SelectBoundary{Boundary: box("A", c[0]-0.05, c[1]-0.05, c[0], c[1])})
	s.Equal(before.Total, snap.RadiusSummary.Total)
	s.Equal(before.Top, snap.RadiusSummary.Top)

	view := ids(snap.Filtered)
	snap, err := s.ctrl.Dispatch(SetRadius{Meters: 4000})
	s.Require().NoError(err)
	s.Equal(view, ids(snap.Filtered))
	s.Greater(snap.RadiusSummary.Total, before.Total)
}

func (s *ControllerSuite) TestSetRadiusClampsAndMarksFiltered() {
	snap, err := s.ctrl.Dispatch(SetRadius{Meters: 1e9})
	s.Require().NoError(err)
	s.Equal(radius.DefaultMax, snap.Radius.Meters)
	s.Equal(radius.DefaultMax, snap.RadiusSummary.Meters)
	s.Equal(Filtered, snap.Phase)

	snap, _ = s.ctrl.Dispatch(SetRadius{Meters: -5})
	s.Equal(radius.DefaultMin, snap.Radius.Meters)

	snap, _ = s.ctrl.Dispatch(ClearFilters{})
	s.Equal(Filtered, snap.Phase)
}

func (s *ControllerSuite) TestSetRadiusCenter() {
	far := orb.Point{10, 10}
	snap, err := s.ctrl.Dispatch(SetRadiusCenter{Center: far})
	s.Require().NoError(err)
	s.Equal(far, snap.Radius.Center)
	s.Equal(0, snap.RadiusSummary.Total)
	s.Empty(snap.RadiusSummary.Top)

	_, err = s.ctrl.Dispatch(SetRadiusCenter{Center: orb.Point{200, 0}})
	s.True(errors.Is(err, ErrInvalidCommand))
	s.Equal(far, s.ctrl.Snapshot().Radius.Center)
}

func (s *ControllerSuite) TestLoadFailureKeepsPhase() {
	s.ctrl.Dispatch(ToggleCategory{Category: "retail"})
	snap, err := s.ctrl.LoadFeatures(context.Background(), sliceSource{err: errors.New("disk gone")})
	s.Require().Error(err)
	s.Equal(Filtered, snap.Phase)
	s.Equal("failed to load data: disk gone", snap.Error)
	s.Equal(2000, snap.Total)

	c := NewController(Options{})
	snap, err = c.LoadFeatures(context.Background(), sliceSource{err: errors.New("404")})
	s.Require().Error(err)
	s.Equal(Idle, snap.Phase)
}

func (s *ControllerSuite) TestReloadResetsRadiusMoved() {
	s.ctrl.Dispatch(SetRadius{Meters: 2000})
	snap, err := s.ctrl.LoadFeatures(context.Background(), sliceSource{fs: makeFeatures(100, 3)})
	s.Require().NoError(err)
	s.Equal(Loaded, snap.Phase)
	s.Equal(100, snap.Total)
	s.Equal(2000.0, snap.Radius.Meters)
	s.Empty(snap.Error)
}

func (s *ControllerSuite) TestSubscribe() {
	var got []uint64
	cancel := s.ctrl.Subscribe(func(snap Snapshot) { got = append(got, snap.Version) })
	s.ctrl.Dispatch(ToggleCategory{Category: "retail"})
	s.ctrl.Dispatch(SetRadius{Meters: 900})
	cancel()
	s.ctrl.Dispatch(ClearFilters{})
	s.Require().Len(got, 2)
	s.Less(got[0], got[1])
}

func (s *ControllerSuite) TestViewVersionOnlyMovesWithView() {
	start := s.ctrl.Snapshot()

	snap, err := s.ctrl.Dispatch(SetRadius{Meters: 900})
	s.Require().NoError(err)
	s.Greater(snap.Version, start.Version)
	s.Equal(start.ViewVersion, snap.ViewVersion)

	snap, err = s.ctrl.Dispatch(SetRadiusCenter{Center: orb.Point{45.44, 35.56}})
	s.Require().NoError(err)
	s.Equal(start.ViewVersion, snap.ViewVersion)

	snap, err = s.ctrl.Dispatch(ToggleCategory{Category: "retail"})
	s.Require().NoError(err)
	s.Greater(snap.ViewVersion, start.ViewVersion)

	reloaded, err := s.ctrl.LoadFeatures(context.Background(), sliceSource{fs: makeFeatures(10, 9)})
	s.Require().NoError(err)
	s.Greater(reloaded.ViewVersion, snap.ViewVersion)
}

func (s *ControllerSuite) TestGenerationMatchesSnapshot() {
	ds, idx, loadedAt := s.ctrl.Generation()
	s.Require().NotNil(ds)
	s.Equal(2000, ds.Len())
	s.Equal(2000, idx.Len())
	s.Equal(s.ctrl.Snapshot().LoadedAt, loadedAt)

	_, err := s.ctrl.LoadFeatures(context.Background(), sliceSource{fs: makeFeatures(10, 9)})
	s.Require().NoError(err)
	ds2, _, loadedAt2 := s.ctrl.Generation()
	s.Equal(10, ds2.Len())
	s.False(loadedAt2.Before(loadedAt))

	ds, idx, loadedAt = NewController(Options{}).Generation()
	s.Nil(ds)
	s.Nil(idx)
	s.True(loadedAt.IsZero())
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func TestRadiusScopeBoundary(t *testing.T) {
	fs := makeFeatures(2000, 9)
	ctrl := NewController(Options{Scope: ScopeBoundary})
	_, err := ctrl.LoadFeatures(context.Background(), sliceSource{fs: fs})
	require.NoError(t, err)
	full := ctrl.Snapshot().RadiusSummary.Total

	c := radius.DefaultConfig().Center
	snap, err := ctrl.Dispatch(SelectBoundary{Boundary: box("A", c[0], c[1], c[0]+0.05, c[1]+0.05)})
	require.NoError(t, err)
	assert.Less(t, snap.RadiusSummary.Total, full)
	for _, f := range snap.RadiusSummary.Features {
		assert.GreaterOrEqual(t, f.Coordinates[0], c[0])
		assert.GreaterOrEqual(t, f.Coordinates[1], c[1])
	}

	snap, _ = ctrl.Dispatch(ClearBoundary{})
	assert.Equal(t, full, snap.RadiusSummary.Total)
}

type levelSource map[boundary.Level]string

func (s levelSource) Fetch(ctx context.Context, level boundary.Level) ([]byte, error) {
	body, ok := s[level]
	if !ok {
		return nil, fmt.Errorf("no data for %s", level)
	}
	return []byte(body), nil
}

func TestShowBoundaryLevel(t *testing.T) {
	src := levelSource{
		boundary.Adm1: `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"ADM1_EN":"Sulaymaniyah","ADM1_PCODE":"IQG18"},"geometry":{"type":"Polygon","coordinates":[[[45,35],[46,35],[46,36],[45,36],[45,35]]]}}]}`,
	}
	ctrl := NewController(Options{Loader: boundary.NewLoader(src), InitialLevel: boundary.Adm3})
	_, err := ctrl.LoadFeatures(context.Background(), sliceSource{fs: makeFeatures(300, 2)})
	require.NoError(t, err)

	snap, bs, err := ctrl.ShowBoundaryLevel(context.Background(), boundary.Adm1)
	require.NoError(t, err)
	require.Len(t, bs, 1)
	assert.Equal(t, boundary.Adm1, snap.BoundaryLevel)

	snap, _, err = ctrl.ShowBoundaryLevel(context.Background(), boundary.Adm2)
	require.Error(t, err)
	assert.Equal(t, boundary.Adm1, snap.BoundaryLevel)
	assert.Contains(t, snap.Error, "failed to load adm2 boundary data")

	snap, err = ctrl.SelectBoundaryKey(context.Background(), "adm1:IQG18")
	require.NoError(t, err)
	assert.Equal(t, "adm1:IQG18", snap.BoundaryKey())
	assert.Len(t, snap.Filtered, 300)

	_, err = ctrl.SelectBoundaryKey(context.Background(), "adm1:NOPE")
	assert.True(t, errors.Is(err, boundary.ErrNotFound))

	_, _, err = ctrl.ShowBoundaryLevel(context.Background(), boundary.Level("adm5"))
	assert.True(t, errors.Is(err, boundary.ErrUnknownLevel))
}
