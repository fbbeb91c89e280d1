package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/filter"
	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/present"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const maxBody = 1 << 20

type boundariesResponse struct {
	Level      boundary.Level             `json:"level"`
	Title      string                     `json:"title"`
	Style      present.BoundaryStyle      `json:"style"`
	Count      int                        `json:"count"`
	Popups     []present.BoundaryPopup    `json:"popups"`
	Collection *geojson.FeatureCollection `json:"geojson"`
}

// handleBoundaries 加载（或命中缓存）某层级边界并返回几何与弹窗内容；不改变当前展示层级
func (s *server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	level, err := boundary.ParseLevel(r.PathValue("level"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	loader := s.Ctrl.Loader()
	if loader == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "boundaries disabled"})
		return
	}
	bs, err := loader.Load(r.Context(), level)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBoundariesResponse(level, bs))
}

func newBoundariesResponse(level boundary.Level, bs []*boundary.Boundary) boundariesResponse {
	fc := geojson.NewFeatureCollection()
	popups := make([]present.BoundaryPopup, 0, len(bs))
	for _, b := range bs {
		f := geojson.NewFeature(b.Geometry)
		f.ID = b.Key()
		f.Properties = b.Properties
		fc.Append(f)
		popups = append(popups, present.NewBoundaryPopup(b))
	}
	return boundariesResponse{
		Level:      level,
		Title:      level.Title(),
		Style:      present.StyleFor(level),
		Count:      len(bs),
		Popups:     popups,
		Collection: fc,
	}
}

type levelRequest struct {
	Level string `json:"level"`
}

// handleShowLevel 切换展示层级；加载失败时层级回退，并返回错误
func (s *server) handleShowLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	level, err := boundary.ParseLevel(req.Level)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	snap, _, err := s.Ctrl.ShowBoundaryLevel(r.Context(), level)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(snap))
}

// 文档注释：命令请求体
// 约束：type 决定读取哪些字段；select_boundary 的 boundary 为边界 Key（如 adm2:IQG10）。
type commandRequest struct {
	Type       string   `json:"type"`
	Category   string   `json:"category"`
	Categories []string `json:"categories"`
	Boundary   string   `json:"boundary"`
	Meters     *float64 `json:"meters"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

func (req commandRequest) command() (filter.Command, error) {
	switch req.Type {
	case "toggle_category":
		return filter.ToggleCategory{Category: req.Category}, nil
	case "set_categories":
		return filter.SetCategories{Categories: req.Categories}, nil
	case "clear_boundary":
		return filter.ClearBoundary{}, nil
	case "clear_filters":
		return filter.ClearFilters{}, nil
	case "set_radius":
		if req.Meters == nil {
			return nil, fmt.Errorf("%w: meters required", filter.ErrInvalidCommand)
		}
		return filter.SetRadius{Meters: *req.Meters}, nil
	case "set_radius_center":
		if req.Lat == nil || req.Lng == nil {
			return nil, fmt.Errorf("%w: lat and lng required", filter.ErrInvalidCommand)
		}
		return filter.SetRadiusCenter{Center: orb.Point{*req.Lng, *req.Lat}}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", filter.ErrInvalidCommand, req.Type)
}

func (s *server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var (
		snap filter.Snapshot
		err  error
	)
	if req.Type == "select_boundary" {
		if req.Boundary == "" {
			writeError(w, r, fmt.Errorf("%w: boundary required", filter.ErrInvalidCommand))
			return
		}
		snap, err = s.Ctrl.SelectBoundaryKey(r.Context(), req.Boundary)
	} else {
		cmd, cerr := req.command()
		if cerr != nil {
			writeError(w, r, cerr)
			return
		}
		snap, err = s.Ctrl.Dispatch(cmd)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(snap))
}

// handleReload 重新加载要素数据集；需要 x-admin-token
func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if s.AdminToken == "" || t != s.AdminToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if s.Source == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no feature source"})
		return
	}
	snap, err := s.Ctrl.LoadFeatures(r.Context(), s.Source)
	if err != nil {
		logger.L().Error("reload_error", "err", err)
		writeJSON(w, http.StatusBadGateway, newStateResponse(snap))
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(snap))
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
