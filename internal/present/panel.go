package present

import (
	"strings"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/filter"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/radius"
)

// AllCategories 未选择分类时的筛选描述
const AllCategories = "All Categories"

// FilterText 当前筛选条件的描述文字
func FilterText(categories []string, b *boundary.Boundary) string {
	text := AllCategories
	if len(categories) > 0 {
		parts := make([]string, len(categories))
		for i, c := range categories {
			parts[i] = DisplayCategory(c)
		}
		text = strings.Join(parts, ", ")
	}
	if b != nil {
		name := b.NameEN()
		if name == "" {
			name = b.Level.Title()
		}
		text += " in " + name
	}
	return text
}

// Panel 信息面板
type Panel struct {
	Phase         string         `json:"phase"`
	LocationCount int            `json:"location_count"`
	Total         int            `json:"total"`
	ActiveFilter  string         `json:"active_filter"`
	Boundary      string         `json:"boundary,omitempty"`
	BoundaryLevel boundary.Level `json:"boundary_level,omitempty"`
	Radius        RadiusPanel    `json:"radius"`
	Error         string         `json:"error,omitempty"`
}

// RadiusPanel 半径分析面板
type RadiusPanel struct {
	Lat    float64    `json:"lat"`
	Lng    float64    `json:"lng"`
	Meters float64    `json:"meters"`
	Min    float64    `json:"min"`
	Max    float64    `json:"max"`
	Step   float64    `json:"step"`
	Total  int        `json:"total"`
	Top    []TopEntry `json:"top"`
}

// TopEntry 半径内分类排名项
type TopEntry struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Color    string `json:"color"`
}

// BuildRadiusPanel 半径分析面板
func BuildRadiusPanel(cfg radius.Config, s radius.Summary) RadiusPanel {
	top := make([]TopEntry, len(s.Top))
	for i, cc := range s.Top {
		top[i] = topEntry(cc)
	}
	return RadiusPanel{
		Lat:    s.Center[1],
		Lng:    s.Center[0],
		Meters: s.Meters,
		Min:    cfg.Min,
		Max:    cfg.Max,
		Step:   cfg.Step,
		Total:  s.Total,
		Top:    top,
	}
}

func topEntry(cc poi.CategoryCount) TopEntry {
	return TopEntry{Category: cc.Category, Name: DisplayCategory(cc.Category), Count: cc.Count, Color: MarkerColor(cc.Category)}
}

// BuildPanel 由快照生成信息面板
func BuildPanel(s filter.Snapshot) Panel {
	p := Panel{
		Phase:         s.Phase.String(),
		LocationCount: len(s.Filtered),
		Total:         s.Total,
		ActiveFilter:  FilterText(s.Categories, s.Boundary),
		BoundaryLevel: s.BoundaryLevel,
		Radius:        BuildRadiusPanel(s.Radius, s.RadiusSummary),
		Error:         s.Error,
	}
	if s.Boundary != nil {
		p.Boundary = s.Boundary.Key()
	}
	return p
}
