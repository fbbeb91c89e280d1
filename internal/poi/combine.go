package poi

import "github.com/paulmach/orb/geojson"

// DefaultCombineTop 合并时保留的分类数
const DefaultCombineTop = 10

// 文档注释：合并多个城市的地点集合，仅保留出现最多的 top 个分类
// 背景：原始数据按城市分文件，仪表盘只加载合并后的单一文件以减少请求与分类噪声。
// 约束：没有 categories.primary 的要素既不计数也不保留；并列按首次出现顺序；top<=0 时保留全部分类。
func Combine(colls []*geojson.FeatureCollection, top int) (*geojson.FeatureCollection, []CategoryCount) {
	var all []*geojson.Feature
	idx := make(map[string]int)
	var counts []CategoryCount
	for _, fc := range colls {
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			all = append(all, f)
			c, ok := PrimaryCategory(f.Properties)
			if !ok {
				continue
			}
			if i, seen := idx[c]; seen {
				counts[i].Count++
				continue
			}
			idx[c] = len(counts)
			counts = append(counts, CategoryCount{Category: c, Count: 1})
		}
	}
	sortByCount(counts)
	if top > 0 && len(counts) > top {
		counts = counts[:top]
	}
	keep := make(map[string]struct{}, len(counts))
	for _, c := range counts {
		keep[c.Category] = struct{}{}
	}
	out := geojson.NewFeatureCollection()
	for _, f := range all {
		c, ok := PrimaryCategory(f.Properties)
		if !ok {
			continue
		}
		if _, k := keep[c]; k {
			out.Append(f)
		}
	}
	return out, counts
}
