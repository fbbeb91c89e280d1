package present

import (
	"fmt"
	"strings"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/poi"

	"github.com/paulmach/orb/geojson"
)

// FeaturePopup 兴趣点弹窗内容
type FeaturePopup struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	City       string `json:"city"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Confidence string `json:"confidence"`
}

// 文档注释：生成兴趣点弹窗
// 约束：缺失字段使用固定占位文案；置信度按百分比保留一位小数，缺失时视为 0。
func NewFeaturePopup(f *poi.Feature) FeaturePopup {
	p := f.Properties
	category := "Unknown Category"
	if c, ok := poi.PrimaryCategory(p); ok {
		category = c
	}
	conf, _ := p["confidence"].(float64)
	return FeaturePopup{
		ID:         f.ID,
		Name:       orDefault(nested(p, "names", "primary"), "Unknown Location"),
		Category:   strings.ReplaceAll(category, "_", " "),
		City:       orDefault(str(p["city"]), "Unknown City"),
		Phone:      orDefault(firstString(p["phones"]), "No phone"),
		Address:    orDefault(firstAddress(p["addresses"]), "No address"),
		Confidence: fmt.Sprintf("%.1f%%", conf*100),
	}
}

// BoundaryPopup 行政边界弹窗内容
type BoundaryPopup struct {
	Key    string         `json:"key"`
	Level  boundary.Level `json:"level"`
	Title  string         `json:"title"`
	NameEN string         `json:"name_en"`
	NameAR string         `json:"name_ar"`
	PCode  string         `json:"pcode"`
	Area   string         `json:"area"`
}

// NewBoundaryPopup 生成边界弹窗；面积取 Shape_Area 保留两位小数
func NewBoundaryPopup(b *boundary.Boundary) BoundaryPopup {
	return BoundaryPopup{
		Key:    b.Key(),
		Level:  b.Level,
		Title:  b.Level.Title(),
		NameEN: orDefault(b.NameEN(), "Unknown"),
		NameAR: b.NameAR(),
		PCode:  b.PCode(),
		Area:   fmt.Sprintf("%.2f km²", b.ShapeArea()),
	}
}

// BoundaryStyle 各层级边界样式
type BoundaryStyle struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillColor   string  `json:"fill_color"`
	FillOpacity float64 `json:"fill_opacity"`
	ZIndex      int     `json:"z_index"`
}

var boundaryStyles = map[boundary.Level]BoundaryStyle{
	boundary.Adm0: {Color: "#2c3e50", Weight: 3, Opacity: 0.8, FillColor: "#3498db", FillOpacity: 0.1, ZIndex: 100},
	boundary.Adm1: {Color: "#e74c3c", Weight: 2, Opacity: 0.7, FillColor: "#e74c3c", FillOpacity: 0.1, ZIndex: 200},
	boundary.Adm2: {Color: "#f39c12", Weight: 1.5, Opacity: 0.6, FillColor: "#f39c12", FillOpacity: 0.08, ZIndex: 300},
	boundary.Adm3: {Color: "#9b59b6", Weight: 1, Opacity: 0.5, FillColor: "#9b59b6", FillOpacity: 0.06, ZIndex: 400},
}

// StyleFor 未知层级按 adm1 样式
func StyleFor(level boundary.Level) BoundaryStyle {
	if s, ok := boundaryStyles[level]; ok {
		return s
	}
	return boundaryStyles[boundary.Adm1]
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nested(p geojson.Properties, key, field string) string {
	m, _ := p[key].(map[string]interface{})
	return str(m[field])
}

func firstString(v interface{}) string {
	arr, _ := v.([]interface{})
	if len(arr) == 0 {
		return ""
	}
	return str(arr[0])
}

func firstAddress(v interface{}) string {
	arr, _ := v.([]interface{})
	if len(arr) == 0 {
		return ""
	}
	m, _ := arr[0].(map[string]interface{})
	if s := str(m["freeform"]); s != "" {
		return s
	}
	return str(m["locality"])
}
