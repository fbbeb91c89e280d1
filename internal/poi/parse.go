package poi

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"poi-dashboard/internal/geo"
)

var (
	ErrNotFeatureCollection = errors.New("not a feature collection")
	ErrEmptyCollection      = errors.New("no features found")
	ErrMissingGeometry      = errors.New("feature has no geometry")
	ErrNotPoint             = errors.New("feature geometry is not a point")
	ErrCoordinateRange      = errors.New("coordinate out of range")
)

// 文档注释：解析 GeoJSON FeatureCollection 为数据集
// 背景：数据源一次性加载；形状错误（非集合、缺几何、非点、坐标越界、空集合）作为加载失败返回，不静默吞掉。
// 约束：分类缺失归一为 unknown；properties 原样透传。
func Parse(data []byte) (*Dataset, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFeatureCollection, err)
	}
	return FromCollection(fc)
}

// FromCollection 从已解析的集合构建数据集
func FromCollection(fc *geojson.FeatureCollection) (*Dataset, error) {
	if fc == nil || fc.Type != "FeatureCollection" {
		return nil, ErrNotFeatureCollection
	}
	if len(fc.Features) == 0 {
		return nil, ErrEmptyCollection
	}
	fs := make([]*Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		f, err := featureFrom(gf)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		fs = append(fs, f)
	}
	return NewDataset(fs), nil
}

func featureFrom(gf *geojson.Feature) (*Feature, error) {
	if gf == nil || gf.Geometry == nil {
		return nil, ErrMissingGeometry
	}
	pt, ok := gf.Geometry.(orb.Point)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPoint, gf.Geometry.GeoJSONType())
	}
	if !geo.ValidLngLat(pt[0], pt[1]) {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrCoordinateRange, pt[0], pt[1])
	}
	cat, _ := PrimaryCategory(gf.Properties)
	props := gf.Properties
	if props == nil {
		props = geojson.Properties{}
	}
	return &Feature{
		Coordinates: pt,
		Category:    NormalizeCategory(cat),
		Properties:  props,
	}, nil
}

// ToGeoJSON 将要素还原为 GeoJSON（导入工具与调试输出使用）
func (f *Feature) ToGeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Coordinates)
	gf.Properties = f.Properties
	return gf
}
