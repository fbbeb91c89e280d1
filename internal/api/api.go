// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/catchment"
	"poi-dashboard/internal/filter"
	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/present"
)

// Deps 路由依赖；Catchment 与 Source 可为空
type Deps struct {
	Ctrl       *filter.Controller
	Catchment  *catchment.Service
	Source     poi.Source
	AdminToken string
}

type server struct {
	Deps
	mu      sync.Mutex
	markers *present.MarkerTable
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	s := &server{Deps: d}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /markers", s.handleMarkers)
	mux.HandleFunc("GET /markers/{id}", s.handleMarker)
	mux.HandleFunc("GET /chart", s.handleChart)
	mux.HandleFunc("GET /radius", s.handleRadius)
	mux.HandleFunc("GET /catchment", s.handleCatchment)
	mux.HandleFunc("GET /boundaries/{level}", s.handleBoundaries)
	mux.HandleFunc("PUT /boundaries/level", s.handleShowLevel)
	mux.HandleFunc("POST /commands", s.handleCommand)
	mux.HandleFunc("POST /reload", s.handleReload)
	return mux
}

// markerTable 视图版本变化时重建标记对照表
func (s *server) markerTable(snap filter.Snapshot) *present.MarkerTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markers == nil || s.markers.Version != snap.ViewVersion {
		s.markers = present.NewMarkerTable(snap.ViewVersion, snap.Filtered)
	}
	return s.markers
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// 文档注释：错误到状态码的映射
// 约束：参数或命令非法 400；边界不存在 404；数据未加载 503；边界数据源失败等其余错误 502。
func statusFor(err error) int {
	switch {
	case errors.Is(err, filter.ErrInvalidCommand), errors.Is(err, catchment.ErrInvalidPoint), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, boundary.ErrNotFound), errors.Is(err, boundary.ErrUnknownLevel):
		return http.StatusNotFound
	case errors.Is(err, filter.ErrNotLoaded), errors.Is(err, catchment.ErrNoData):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	lvl := logger.L().Debug
	if status >= 500 {
		lvl = logger.L().Warn
	}
	lvl("api_error", "path", r.URL.Path, "status", status, "err", err)
	writeJSON(w, status, errorBody{Error: err.Error()})
}
