package boundary

import (
	"poi-dashboard/internal/geo"
	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/metrics"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/spatial"

	"github.com/paulmach/orb"
)

// 文档注释：筛选位于边界几何内的要素
// 背景：先以几何外包框查询网格索引得到候选（粗筛），再仅对候选做射线法精判（细筛）。
// 约束：几何无外包框时返回空；idx 为空时逐个精判全部要素，结果与走索引一致。
func FilterWithin(all []*poi.Feature, idx *spatial.Index, g orb.Geometry) []*poi.Feature {
	b, ok := geo.GeometryBounds(g)
	if !ok {
		return []*poi.Feature{}
	}
	candidates := all
	if idx != nil {
		candidates = idx.QueryBound(b)
	}
	out := make([]*poi.Feature, 0, len(candidates))
	for _, f := range candidates {
		if geo.IsPointInGeometry(f.Coordinates, g) {
			out = append(out, f)
		}
	}
	metrics.BoundaryCandidates.Observe(float64(len(candidates)))
	metrics.BoundaryMatches.Observe(float64(len(out)))
	logger.L().Debug("boundary_filter", "candidates", len(candidates), "matched", len(out), "indexed", idx != nil)
	return out
}
