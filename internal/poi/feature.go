// 包 poi：兴趣点要素模型与数据集；加载后只读，筛选结果始终是指向原始要素的新切片
package poi

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// UnknownCategory 缺失分类时的归一化取值
const UnknownCategory = "unknown"

// Feature 单个兴趣点；ID 为其在原始数据集中的序号
type Feature struct {
	ID          int
	Coordinates orb.Point // [lng, lat]
	Category    string
	Properties  geojson.Properties
}

func (f *Feature) Lng() float64 { return f.Coordinates[0] }
func (f *Feature) Lat() float64 { return f.Coordinates[1] }

// Dataset 一次加载得到的完整要素集合
// 约束：Features 与 Categories 在构建后不再修改；Categories 按首次出现顺序排列
type Dataset struct {
	Features   []*Feature
	Categories []string
}

// NewDataset 以切片顺序重新编号要素并收集分类
func NewDataset(fs []*Feature) *Dataset {
	ds := &Dataset{Features: fs}
	seen := make(map[string]struct{})
	for i, f := range fs {
		f.ID = i
		if _, ok := seen[f.Category]; !ok {
			seen[f.Category] = struct{}{}
			ds.Categories = append(ds.Categories, f.Category)
		}
	}
	return ds
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Features)
}

// NormalizeCategory 空分类归一为 unknown
func NormalizeCategory(c string) string {
	if c == "" {
		return UnknownCategory
	}
	return c
}

// PrimaryCategory 读取 properties.categories.primary
func PrimaryCategory(props geojson.Properties) (string, bool) {
	cats, ok := props["categories"].(map[string]interface{})
	if !ok {
		return "", false
	}
	s, ok := cats["primary"].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
