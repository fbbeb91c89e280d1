// 包 spatial：均匀网格空间索引，为边界筛选提供包围盒粗筛
package spatial

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"poi-dashboard/internal/poi"
)

const (
	// DefaultCellSize 约 1km（赤道）
	DefaultCellSize = 0.01
	// DenseCellSize 约 500m，用于城市级稠密数据
	DenseCellSize = 0.005
)

type cellKey struct{ x, y int64 }

func lessKey(a, b cellKey) bool {
	if a.x != b.x {
		return a.x < b.x
	}
	return a.y < b.y
}

// 文档注释：网格索引（坐标截断到单元格）
// 背景：按 floor(lng/cs), floor(lat/cs) 分桶；每个要素只落在自身坐标所在的单元格。
// 约束：构建后只读，不支持增量更新；重建即整体替换。查询返回候选超集，调用方需做精确二次判定。
type Index struct {
	cellSize float64
	grid     map[cellKey][]*poi.Feature
	keys     []cellKey // 已占用单元格，按 x、y 升序
	bounds   orb.Bound
	n        int
}

// 文档注释：由要素构建索引
// 约束：cellSize 非正或非有限时回退到 DefaultCellSize；空输入得到空索引。
func Build(features []*poi.Feature, cellSize float64) *Index {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}
	idx := &Index{cellSize: cellSize, grid: make(map[cellKey][]*poi.Feature)}
	for _, f := range features {
		idx.insert(f)
	}
	idx.keys = make([]cellKey, 0, len(idx.grid))
	for k := range idx.grid {
		idx.keys = append(idx.keys, k)
	}
	sort.Slice(idx.keys, func(i, j int) bool { return lessKey(idx.keys[i], idx.keys[j]) })
	return idx
}

func (idx *Index) cell(lng, lat float64) cellKey {
	return cellKey{
		x: int64(math.Floor(lng / idx.cellSize)),
		y: int64(math.Floor(lat / idx.cellSize)),
	}
}

func (idx *Index) insert(f *poi.Feature) {
	lng, lat := f.Lng(), f.Lat()
	k := idx.cell(lng, lat)
	idx.grid[k] = append(idx.grid[k], f)
	if idx.n == 0 {
		idx.bounds = orb.Bound{Min: f.Coordinates, Max: f.Coordinates}
	} else {
		idx.bounds = idx.bounds.Extend(f.Coordinates)
	}
	idx.n++
}

// 文档注释：包围盒查询（闭区间单元格范围）
// 背景：返回与 [floor(minLng/cs), floor(maxLng/cs)] × [floor(minLat/cs), floor(maxLat/cs)] 相交的所有单元格内要素；
// 单元格粒度粗于包围盒边缘，因此结果可能包含盒外要素。每个要素只属于一个单元格，无需去重。
// 约束：范围内单元格数多于已占用单元格数时改为遍历已占用单元格，结果集合与顺序不变。
func (idx *Index) QueryBounds(minLng, maxLng, minLat, maxLat float64) []*poi.Feature {
	if idx == nil || idx.n == 0 {
		return nil
	}
	if minLng > maxLng || minLat > maxLat {
		return nil
	}
	lo := idx.cell(minLng, minLat)
	hi := idx.cell(maxLng, maxLat)
	var out []*poi.Feature
	span := float64(hi.x-lo.x+1) * float64(hi.y-lo.y+1)
	if span > float64(len(idx.keys)) {
		for _, k := range idx.keys {
			if k.x >= lo.x && k.x <= hi.x && k.y >= lo.y && k.y <= hi.y {
				out = append(out, idx.grid[k]...)
			}
		}
		return out
	}
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			out = append(out, idx.grid[cellKey{x, y}]...)
		}
	}
	return out
}

// QueryBound 以 orb.Bound 查询
func (idx *Index) QueryBound(b orb.Bound) []*poi.Feature {
	return idx.QueryBounds(b.Min[0], b.Max[0], b.Min[1], b.Max[1])
}

// Bounds 已索引要素的最小外包；空索引 ok=false
func (idx *Index) Bounds() (orb.Bound, bool) {
	if idx == nil || idx.n == 0 {
		return orb.Bound{}, false
	}
	return idx.bounds, true
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.n
}

func (idx *Index) CellCount() int {
	if idx == nil {
		return 0
	}
	return len(idx.grid)
}

func (idx *Index) CellSize() float64 { return idx.cellSize }
