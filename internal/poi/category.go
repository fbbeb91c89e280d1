package poi

import "sort"

// CategoryCount 分类计数
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// 文档注释：按分类计数并按数量降序排列
// 约束：数量相同按首次出现顺序（稳定排序），图表展示顺序与半径分析排名共用此规则。
func CountCategories(fs []*Feature) []CategoryCount {
	idx := make(map[string]int)
	var out []CategoryCount
	for _, f := range fs {
		if i, ok := idx[f.Category]; ok {
			out[i].Count++
			continue
		}
		idx[f.Category] = len(out)
		out = append(out, CategoryCount{Category: f.Category, Count: 1})
	}
	sortByCount(out)
	return out
}

func sortByCount(cs []CategoryCount) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Count > cs[j].Count })
}

// FilterCategories 分类成员筛选；selected 为空表示不限制，原样返回输入
func FilterCategories(fs []*Feature, selected []string) []*Feature {
	if len(selected) == 0 {
		return fs
	}
	set := make(map[string]struct{}, len(selected))
	for _, c := range selected {
		set[c] = struct{}{}
	}
	out := make([]*Feature, 0, len(fs))
	for _, f := range fs {
		if _, ok := set[f.Category]; ok {
			out = append(out, f)
		}
	}
	return out
}
