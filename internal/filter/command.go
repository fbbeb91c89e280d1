package filter

import (
	"fmt"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/geo"

	"github.com/paulmach/orb"
)

// effect 命令需要触发的重算范围
type effect struct {
	view   bool
	radius bool
}

// Command 显式派发到控制器的状态变更
type Command interface {
	Name() string
	apply(c *Controller) (effect, error)
}

// SetCategories 整体替换分类选择
type SetCategories struct{ Categories []string }

// ToggleCategory 增删单个分类（图表点击）
type ToggleCategory struct{ Category string }

// SelectBoundary 选中边界；再次选中当前边界即取消
type SelectBoundary struct{ Boundary *boundary.Boundary }

// ClearBoundary 取消边界选择
type ClearBoundary struct{}

// SetRadius 调整半径，只重算半径分析
type SetRadius struct{ Meters float64 }

// SetRadiusCenter 移动半径中心，只重算半径分析
type SetRadiusCenter struct{ Center orb.Point }

// ClearFilters 清空分类与边界选择
type ClearFilters struct{}

func (SetCategories) Name() string   { return "set_categories" }
func (ToggleCategory) Name() string  { return "toggle_category" }
func (SelectBoundary) Name() string  { return "select_boundary" }
func (ClearBoundary) Name() string   { return "clear_boundary" }
func (SetRadius) Name() string       { return "set_radius" }
func (SetRadiusCenter) Name() string { return "set_radius_center" }
func (ClearFilters) Name() string    { return "clear_filters" }

func (cmd SetCategories) apply(c *Controller) (effect, error) {
	seen := make(map[string]struct{}, len(cmd.Categories))
	next := make([]string, 0, len(cmd.Categories))
	for _, cat := range cmd.Categories {
		if cat == "" {
			return effect{}, fmt.Errorf("%w: empty category", ErrInvalidCommand)
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		next = append(next, cat)
	}
	c.state.Categories = next
	return effect{view: true}, nil
}

func (cmd ToggleCategory) apply(c *Controller) (effect, error) {
	if cmd.Category == "" {
		return effect{}, fmt.Errorf("%w: empty category", ErrInvalidCommand)
	}
	cur := c.state.Categories
	next := make([]string, 0, len(cur)+1)
	removed := false
	for _, cat := range cur {
		if cat == cmd.Category {
			removed = true
			continue
		}
		next = append(next, cat)
	}
	if !removed {
		next = append(next, cmd.Category)
	}
	c.state.Categories = next
	return effect{view: true}, nil
}

func (cmd SelectBoundary) apply(c *Controller) (effect, error) {
	if cmd.Boundary == nil {
		return effect{}, fmt.Errorf("%w: nil boundary", ErrInvalidCommand)
	}
	if c.state.Boundary != nil && c.state.Boundary.Key() == cmd.Boundary.Key() {
		c.state.Boundary = nil
	} else {
		c.state.Boundary = cmd.Boundary
	}
	return effect{view: true, radius: c.scope == ScopeBoundary}, nil
}

func (ClearBoundary) apply(c *Controller) (effect, error) {
	c.state.Boundary = nil
	return effect{view: true, radius: c.scope == ScopeBoundary}, nil
}

func (cmd SetRadius) apply(c *Controller) (effect, error) {
	c.state.Radius = c.state.Radius.WithMeters(cmd.Meters)
	c.radiusMoved = true
	return effect{radius: true}, nil
}

func (cmd SetRadiusCenter) apply(c *Controller) (effect, error) {
	if !geo.ValidLngLat(cmd.Center[0], cmd.Center[1]) {
		return effect{}, fmt.Errorf("%w: center out of range", ErrInvalidCommand)
	}
	c.state.Radius.Center = cmd.Center
	c.radiusMoved = true
	return effect{radius: true}, nil
}

func (ClearFilters) apply(c *Controller) (effect, error) {
	c.state.Categories = nil
	c.state.Boundary = nil
	return effect{view: true, radius: c.scope == ScopeBoundary}, nil
}
