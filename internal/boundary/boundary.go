// 包 boundary：行政边界要素的模型、按需加载与点在面内筛选
package boundary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Level 行政层级 adm0（国家）..adm3（分区）
type Level string

const (
	Adm0 Level = "adm0"
	Adm1 Level = "adm1"
	Adm2 Level = "adm2"
	Adm3 Level = "adm3"
)

// Levels 全部层级，按由粗到细排列
var Levels = []Level{Adm0, Adm1, Adm2, Adm3}

var (
	ErrUnknownLevel = errors.New("unknown boundary level")
	ErrNotFound     = errors.New("boundary not found")
)

// ParseLevel 大小写不敏感；非法取值返回 ErrUnknownLevel
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return l, nil
}

func (l Level) Valid() bool {
	switch l {
	case Adm0, Adm1, Adm2, Adm3:
		return true
	}
	return false
}

// Title 弹窗标题
func (l Level) Title() string {
	switch l {
	case Adm0:
		return "Country"
	case Adm1:
		return "Governorate"
	case Adm2:
		return "District"
	case Adm3:
		return "Sub-district"
	}
	return ""
}

// field 拼接层级相关的属性名，如 ADM2_EN
func (l Level) field(suffix string) string {
	return strings.ToUpper(string(l)) + "_" + suffix
}

// 文档注释：单个行政边界要素
// 背景：几何沿用 GeoJSON 约定，第一环为外环；判定只看外环，洞不参与扣除。
// 约束：非 Polygon/MultiPolygon 的几何保留在集合中，但永不命中任何点。
type Boundary struct {
	Level      Level
	Index      int
	Geometry   orb.Geometry
	Properties geojson.Properties
}

// Key 优先 "<level>:<PCODE>"，无编码时回退 "<level>#<index>"
func (b *Boundary) Key() string {
	if pc := b.PCode(); pc != "" {
		return string(b.Level) + ":" + pc
	}
	return string(b.Level) + "#" + strconv.Itoa(b.Index)
}

func (b *Boundary) NameEN() string { return b.str(b.Level.field("EN")) }
func (b *Boundary) NameAR() string { return b.str(b.Level.field("AR")) }
func (b *Boundary) PCode() string  { return b.str(b.Level.field("PCODE")) }

// ShapeArea 读取 Shape_Area；缺失或非数值时返回 0
func (b *Boundary) ShapeArea() float64 {
	switch v := b.Properties["Shape_Area"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func (b *Boundary) str(key string) string {
	s, _ := b.Properties[key].(string)
	return s
}

// Parse 解析某一层级的边界 FeatureCollection
func Parse(level Level, data []byte) ([]*Boundary, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s boundaries: %w", level, err)
	}
	out := make([]*Boundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		props := f.Properties
		if props == nil {
			props = geojson.Properties{}
		}
		out = append(out, &Boundary{Level: level, Index: i, Geometry: f.Geometry, Properties: props})
	}
	return out, nil
}

// LevelOfKey 从 Key() 形式的字符串中取出层级
func LevelOfKey(key string) (Level, error) {
	i := strings.IndexAny(key, ":#")
	if i <= 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, key)
	}
	return ParseLevel(key[:i])
}

// Find 在集合中按 Key 查找
func Find(bs []*Boundary, key string) (*Boundary, bool) {
	for _, b := range bs {
		if b.Key() == key {
			return b, true
		}
	}
	return nil, false
}
