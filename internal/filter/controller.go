package filter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"poi-dashboard/internal/boundary"
	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/metrics"
	"poi-dashboard/internal/poi"
	"poi-dashboard/internal/radius"
	"poi-dashboard/internal/spatial"
)

// State 唯一的选择状态
type State struct {
	Categories []string
	Boundary   *boundary.Boundary
	Radius     radius.Config
}

// Options 控制器构造参数；零值字段取默认
type Options struct {
	CellSize     float64
	TopLimit     int
	Scope        RadiusScope
	Radius       radius.Config
	Loader       *boundary.Loader
	InitialLevel boundary.Level
}

// 文档注释：筛选控制器，持有数据集、索引与唯一选择状态
// 背景：HTTP 请求并发到达，命令经互斥锁串行执行，每条命令同步重算到完成后才处理下一条。
// 约束：索引在锁外完整构建后再整体替换；订阅回调在锁内同步执行，回调中不得再调用控制器。
type Controller struct {
	mu       sync.Mutex
	cellSize float64
	topLimit int
	scope    RadiusScope
	loader   *boundary.Loader

	dataset     *poi.Dataset
	loadedAt    time.Time
	idx         *spatial.Index
	state       State
	radiusMoved bool
	phase       Phase
	level       boundary.Level
	filtered    []*poi.Feature
	summary     radius.Summary
	errMsg      string
	version     uint64
	viewVersion uint64

	subs    map[int]func(Snapshot)
	nextSub int
}

func NewController(opts Options) *Controller {
	if opts.CellSize <= 0 {
		opts.CellSize = spatial.DenseCellSize
	}
	if opts.TopLimit == 0 {
		opts.TopLimit = radius.DefaultTop
	}
	if opts.Scope == "" {
		opts.Scope = ScopeFull
	}
	if opts.Radius == (radius.Config{}) {
		opts.Radius = radius.DefaultConfig()
	}
	opts.Radius = opts.Radius.WithMeters(opts.Radius.Meters)
	return &Controller{
		cellSize: opts.CellSize,
		topLimit: opts.TopLimit,
		scope:    opts.Scope,
		loader:   opts.Loader,
		state:    State{Radius: opts.Radius},
		level:    opts.InitialLevel,
		phase:    Idle,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Subscribe 注册快照回调，返回取消函数
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Snapshot 当前状态的只读视图
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Generation 当前数据集、索引与加载时间，同一把锁下读取，三者属于同一次加载；未加载时为 nil
func (c *Controller) Generation() (*poi.Dataset, *spatial.Index, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataset, c.idx, c.loadedAt
}

// Loader 边界加载器，可能为 nil
func (c *Controller) Loader() *boundary.Loader { return c.loader }

// TopLimit 半径分析排名条数
func (c *Controller) TopLimit() int { return c.topLimit }

// Dispatch 串行执行一条命令并返回新快照
func (c *Controller) Dispatch(cmd Command) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Idle {
		return c.snapshotLocked(), ErrNotLoaded
	}
	prev := c.state
	prevMoved := c.radiusMoved
	eff, err := cmd.apply(c)
	if err != nil {
		c.state = prev
		c.radiusMoved = prevMoved
		return c.snapshotLocked(), err
	}
	logger.L().Debug("filter_command", "type", cmd.Name())
	c.recomputeLocked(eff)
	return c.publishLocked(), nil
}

// 文档注释：加载要素数据集并重建索引
// 背景：读取与建索引在锁外完成，期间查询仍看到旧数据；完成后在锁内整体替换并全量重算。
// 约束：失败时记录错误文案并保持原阶段；半径“已移动”标记随新数据集重置。
func (c *Controller) LoadFeatures(ctx context.Context, src poi.Source) (Snapshot, error) {
	start := time.Now()
	ds, err := src.Load(ctx)
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("error").Inc()
		logger.L().Error("features_load_error", "err", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.errMsg = "failed to load data: " + err.Error()
		return c.publishLocked(), err
	}
	idx := spatial.Build(ds.Features, c.cellSize)
	logger.L().Info("index_built", "features", idx.Len(), "cells", idx.CellCount(), "cell_size", idx.CellSize())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataset = ds
	c.loadedAt = time.Now()
	c.idx = idx
	c.radiusMoved = false
	c.errMsg = ""
	c.phase = Loaded
	c.recomputeLocked(effect{view: true, radius: true})
	metrics.DatasetLoadsTotal.WithLabelValues("ok").Inc()
	metrics.DatasetFeatures.Set(float64(ds.Len()))
	logger.L().Info("features_loaded", "count", ds.Len(), "categories", len(ds.Categories), "ms", time.Since(start).Milliseconds())
	return c.publishLocked(), nil
}

// 文档注释：切换展示的边界层级（单选语义）
// 背景：层级数据按需加载；加载在锁外进行，不阻塞其他命令。
// 约束：加载失败时回退到原层级并记录错误文案；切换层级不影响已选中的边界。
func (c *Controller) ShowBoundaryLevel(ctx context.Context, level boundary.Level) (Snapshot, []*boundary.Boundary, error) {
	if !level.Valid() {
		return c.Snapshot(), nil, fmt.Errorf("%w: %q", boundary.ErrUnknownLevel, level)
	}
	if c.loader == nil {
		return c.Snapshot(), nil, fmt.Errorf("boundary loader not configured")
	}
	c.mu.Lock()
	prev := c.level
	c.level = level
	c.mu.Unlock()

	bs, err := c.loader.Load(ctx, level)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.level == level {
			c.level = prev
		}
		c.errMsg = fmt.Sprintf("failed to load %s boundary data: %v", level, err)
		return c.publishLocked(), nil, err
	}
	c.errMsg = ""
	return c.publishLocked(), bs, nil
}

// SelectBoundaryKey 按 Key 查找边界后派发 SelectBoundary
func (c *Controller) SelectBoundaryKey(ctx context.Context, key string) (Snapshot, error) {
	if c.loader == nil {
		return c.Snapshot(), fmt.Errorf("boundary loader not configured")
	}
	b, err := c.loader.Find(ctx, key)
	if err != nil {
		return c.Snapshot(), err
	}
	return c.Dispatch(SelectBoundary{Boundary: b})
}

func (c *Controller) recomputeLocked(eff effect) {
	if c.dataset == nil {
		return
	}
	all := c.dataset.Features
	if eff.view {
		start := time.Now()
		c.filtered = Recompute(all, c.idx, Selection{Categories: c.state.Categories, Boundary: c.state.Boundary})
		c.viewVersion++
		metrics.RecomputeTotal.WithLabelValues("view").Inc()
		metrics.RecomputeDurationMs.WithLabelValues("view").Observe(float64(time.Since(start).Microseconds()) / 1000)
		metrics.VisibleFeatures.Set(float64(len(c.filtered)))
	}
	if eff.radius {
		start := time.Now()
		ds := RadiusDataset(all, c.idx, c.state.Boundary, c.scope)
		idx := c.idx
		if c.scope == ScopeBoundary && c.state.Boundary != nil {
			idx = nil
		}
		c.summary = radius.Analyze(ds, idx, c.state.Radius, c.topLimit)
		metrics.RecomputeTotal.WithLabelValues("radius").Inc()
		metrics.RecomputeDurationMs.WithLabelValues("radius").Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
	if len(c.state.Categories) > 0 || c.state.Boundary != nil || c.radiusMoved {
		c.phase = Filtered
	} else {
		c.phase = Loaded
	}
}

func (c *Controller) publishLocked() Snapshot {
	c.version++
	s := c.snapshotLocked()
	for _, fn := range c.subs {
		fn(s)
	}
	return s
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Version:       c.version,
		ViewVersion:   c.viewVersion,
		Phase:         c.phase,
		Categories:    append([]string{}, c.state.Categories...),
		Boundary:      c.state.Boundary,
		BoundaryLevel: c.level,
		Radius:        c.state.Radius,
		RadiusScope:   c.scope,
		Filtered:      c.filtered,
		RadiusSummary: c.summary,
		Error:         c.errMsg,
	}
	if c.dataset != nil {
		s.Total = c.dataset.Len()
		s.LoadedAt = c.loadedAt
		s.AllCategories = c.dataset.Categories
	}
	if s.RadiusSummary.Top == nil {
		s.RadiusSummary.Top = []poi.CategoryCount{}
		s.RadiusSummary.Center = c.state.Radius.Center
		s.RadiusSummary.Meters = c.state.Radius.Meters
	}
	return s
}
