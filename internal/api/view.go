package api

import (
	"net/http"
	"strconv"
	"time"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/filter"
	"poi-dashboard/internal/present"
)

type stateResponse struct {
	Version       uint64                 `json:"version"`
	ViewVersion   uint64                 `json:"view_version"`
	Phase         string                 `json:"phase"`
	Panel         present.Panel          `json:"panel"`
	Categories    []string               `json:"categories"`
	AllCategories []string               `json:"all_categories"`
	Boundary      *present.BoundaryPopup `json:"boundary"`
	BoundaryLevel boundary.Level         `json:"boundary_level"`
	RadiusScope   filter.RadiusScope     `json:"radius_scope"`
	LoadedAt      *time.Time             `json:"loaded_at,omitempty"`
}

func newStateResponse(snap filter.Snapshot) stateResponse {
	out := stateResponse{
		Version:       snap.Version,
		ViewVersion:   snap.ViewVersion,
		Phase:         snap.Phase.String(),
		Panel:         present.BuildPanel(snap),
		Categories:    snap.Categories,
		AllCategories: snap.AllCategories,
		BoundaryLevel: snap.BoundaryLevel,
		RadiusScope:   snap.RadiusScope,
	}
	if out.AllCategories == nil {
		out.AllCategories = []string{}
	}
	if snap.Boundary != nil {
		p := present.NewBoundaryPopup(snap.Boundary)
		out.Boundary = &p
	}
	if !snap.LoadedAt.IsZero() {
		t := snap.LoadedAt
		out.LoadedAt = &t
	}
	return out
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.Ctrl.Snapshot()))
}

type markersResponse struct {
	Version     uint64                   `json:"version"`
	Total       int                      `json:"total"`
	Count       int                      `json:"count"`
	ClusterSize string                   `json:"cluster_size"`
	Cluster     *present.ClusterSettings `json:"cluster,omitempty"`
	FitBounds   []float64                `json:"fit_bounds"`
	Markers     []present.Marker         `json:"markers"`
}

// 文档注释：当前视图的标记点
// 背景：传入 bbox 时按视口裁剪，传入 zoom 时附带聚合参数；fit_bounds 始终基于完整视图集合。
func (s *server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	snap := s.Ctrl.Snapshot()
	if snap.Phase == filter.Idle {
		writeError(w, r, filter.ErrNotLoaded)
		return
	}
	tbl := s.markerTable(snap)
	ms := tbl.Markers()
	q := r.URL.Query()
	if v := q.Get("bbox"); v != "" {
		view, err := parseBBox(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ms = tbl.InViewport(view)
	}
	out := markersResponse{
		Version:     tbl.Version,
		Total:       tbl.Len(),
		Count:       len(ms),
		ClusterSize: present.ClusterSize(len(ms)),
		Markers:     ms,
	}
	if v := q.Get("zoom"); v != "" {
		z, err := parseFloat("zoom", v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cs := present.ClusterSettingsFor(z)
		out.Cluster = &cs
	}
	if b, ok := present.FitBounds(snap.Filtered); ok {
		out.FitBounds = boundsArray(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMarkers 返回的标记 ID 换取要素弹窗；可带 version 校验对照表未过期
func (s *server) handleMarker(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, r, errBadRequest)
		return
	}
	snap := s.Ctrl.Snapshot()
	if v := r.URL.Query().Get("version"); v != "" && v != strconv.FormatUint(snap.ViewVersion, 10) {
		writeJSON(w, http.StatusConflict, errorBody{Error: "marker table is stale"})
		return
	}
	f, ok := s.markerTable(snap).Feature(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "marker not found"})
		return
	}
	writeJSON(w, http.StatusOK, present.NewFeaturePopup(f))
}

func (s *server) handleChart(w http.ResponseWriter, r *http.Request) {
	snap := s.Ctrl.Snapshot()
	writeJSON(w, http.StatusOK, present.BuildChart(snap.Filtered, snap.Categories))
}

type radiusResponse struct {
	Panel present.RadiusPanel `json:"panel"`
	Chart present.Chart       `json:"chart"`
}

func (s *server) handleRadius(w http.ResponseWriter, r *http.Request) {
	snap := s.Ctrl.Snapshot()
	writeJSON(w, http.StatusOK, radiusResponse{
		Panel: present.BuildRadiusPanel(snap.Radius, snap.RadiusSummary),
		Chart: present.BuildChart(snap.RadiusSummary.Features, nil),
	})
}

func (s *server) handleCatchment(w http.ResponseWriter, r *http.Request) {
	if s.Catchment == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "catchment disabled"})
		return
	}
	q := r.URL.Query()
	lat, err := parseFloat("lat", q.Get("lat"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	lng, err := parseFloat("lng", q.Get("lng"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	meters := s.Ctrl.Snapshot().Radius.Meters
	if v := q.Get("radius"); v != "" {
		if meters, err = parseFloat("radius", v); err != nil {
			writeError(w, r, err)
			return
		}
	}
	res, err := s.Catchment.Query(r.Context(), lat, lng, meters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
