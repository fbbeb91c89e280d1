package present

import (
	"strings"

	"poi-dashboard/internal/poi"
)

// ChartPalette 按排名循环取色
var ChartPalette = []string{
	"#2c3e50", "#34495e", "#95a5a6", "#7f8c8d", "#3498db",
	"#2980b9", "#27ae60", "#2ecc71", "#f39c12", "#e67e22",
	"#e74c3c", "#c0392b", "#9b59b6", "#8e44ad", "#1abc9c",
	"#16a085", "#f1c40f", "#f39c12", "#e91e63", "#34495e",
}

// Slice 饼图扇区
type Slice struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Value    int     `json:"value"`
	Selected bool    `json:"selected"`
	Opacity  float64 `json:"opacity"`
	Color    string  `json:"color"`
}

// Chart 饼图数据与中心总数
type Chart struct {
	Slices []Slice `json:"slices"`
	Total  int     `json:"total"`
}

// DisplayCategory 下划线转空格并转大写
func DisplayCategory(c string) string {
	return strings.ToUpper(strings.ReplaceAll(c, "_", " "))
}

// 文档注释：由要素集合生成饼图
// 约束：扇区按数量降序，数量相同按首次出现顺序；无选择或被选中时不透明，否则透明度 0.3。
func BuildChart(fs []*poi.Feature, selected []string) Chart {
	sel := make(map[string]struct{}, len(selected))
	for _, c := range selected {
		sel[c] = struct{}{}
	}
	counts := poi.CountCategories(fs)
	slices := make([]Slice, 0, len(counts))
	for i, cc := range counts {
		_, isSel := sel[cc.Category]
		opacity := 0.3
		if len(selected) == 0 || isSel {
			opacity = 1
		}
		slices = append(slices, Slice{
			Name:     DisplayCategory(cc.Category),
			Category: cc.Category,
			Value:    cc.Count,
			Selected: isSel,
			Opacity:  opacity,
			Color:    ChartPalette[i%len(ChartPalette)],
		})
	}
	return Chart{Slices: slices, Total: len(fs)}
}
