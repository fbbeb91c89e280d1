// 包 filter：统一持有筛选状态，按命令驱动重算，保证地图、图表与分析面板一致
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/radius"
	"poi-dashboard/internal/spatial"
)

var (
	ErrNotLoaded      = errors.New("data not loaded")
	ErrInvalidCommand = errors.New("invalid command")
)

// Phase 控制器阶段
type Phase int

const (
	Idle Phase = iota
	Loaded
	Filtered
)

func (p Phase) String() string {
	switch p {
	case Loaded:
		return "loaded"
	case Filtered:
		return "filtered"
	}
	return "idle"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// RadiusScope 半径分析使用的数据集范围
type RadiusScope string

const (
	// ScopeFull 始终使用完整原始数据集
	ScopeFull RadiusScope = "full"
	// ScopeBoundary 选中边界时只在边界内做半径分析
	ScopeBoundary RadiusScope = "boundary"
)

// ParseRadiusScope 空串取 full
func ParseRadiusScope(s string) (RadiusScope, error) {
	switch RadiusScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeFull:
		return ScopeFull, nil
	case ScopeBoundary:
		return ScopeBoundary, nil
	}
	return "", fmt.Errorf("unknown radius scope %q", s)
}

// Selection 参与视图重算的选择条件
type Selection struct {
	Categories []string
	Boundary   *boundary.Boundary
}

func (s Selection) narrowed(features []*poi.Feature, idx *spatial.Index) []*poi.Feature {
	if s.Boundary == nil {
		return features
	}
	return boundary.FilterWithin(features, idx, s.Boundary.Geometry)
}

// 文档注释：纯函数重算视图要素集
// 背景：先按边界收窄（走网格索引粗筛），再按分类成员筛选；两步互相独立，顺序不影响结果集合。
// 约束：始终返回新切片，不修改输入。
func Recompute(features []*poi.Feature, idx *spatial.Index, sel Selection) []*poi.Feature {
	out := poi.FilterCategories(sel.narrowed(features, idx), sel.Categories)
	if len(sel.Categories) == 0 && sel.Boundary == nil {
		out = append(make([]*poi.Feature, 0, len(features)), features...)
	}
	return out
}

// RadiusDataset 按范围配置选择半径分析的数据集
func RadiusDataset(all []*poi.Feature, idx *spatial.Index, b *boundary.Boundary, scope RadiusScope) []*poi.Feature {
	if scope == ScopeBoundary && b != nil {
		return boundary.FilterWithin(all, idx, b.Geometry)
	}
	return all
}

// 文档注释：一次命令或加载之后的只读视图
// 约束：Version 每次发布递增；ViewVersion 仅在视图集合 Filtered 重算时递增，半径命令不改变它。
type Snapshot struct {
	Version       uint64             `json:"version"`
	ViewVersion   uint64             `json:"view_version"`
	Phase         Phase              `json:"phase"`
	Categories    []string           `json:"categories"`
	AllCategories []string           `json:"all_categories"`
	Boundary      *boundary.Boundary `json:"-"`
	BoundaryLevel boundary.Level     `json:"boundary_level"`
	Radius        radius.Config      `json:"radius"`
	RadiusScope   RadiusScope        `json:"radius_scope"`
	Total         int                `json:"total"`
	LoadedAt      time.Time          `json:"loaded_at"`
	Filtered      []*poi.Feature     `json:"-"`
	RadiusSummary radius.Summary     `json:"radius_summary"`
	Error         string             `json:"error,omitempty"`
}

// FilteredCount 视图要素数
func (s Snapshot) FilteredCount() int { return len(s.Filtered) }

// BoundaryKey 未选中边界时为空串
func (s Snapshot) BoundaryKey() string {
	if s.Boundary == nil {
		return ""
	}
	return s.Boundary.Key()
}
