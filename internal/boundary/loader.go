package boundary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"poi-dashboard/internal/logger"
	"poi-dashboard/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// 文档注释：按层级懒加载并常驻缓存边界集合
// 背景：边界文件较大且内容不变，首次请求时拉取解析，之后整个进程生命周期复用。
// 约束：同一未缓存层级的并发请求合并为一次拉取；失败结果不入缓存，下次请求重新拉取。
// 合并后的拉取不随任一调用方取消而中断，只受 FetchTimeout 限制；调用方各自按自身 ctx 放弃等待。
type Loader struct {
	src          Source
	group        singleflight.Group
	FetchTimeout time.Duration

	mu    sync.RWMutex
	cache map[Level][]*Boundary
}

// DefaultFetchTimeout 单次层级拉取的上限
const DefaultFetchTimeout = 2 * time.Minute

func NewLoader(src Source) *Loader {
	return &Loader{src: src, cache: make(map[Level][]*Boundary), FetchTimeout: DefaultFetchTimeout}
}

// Cached 仅查缓存，不触发加载
func (l *Loader) Cached(level Level) ([]*Boundary, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bs, ok := l.cache[level]
	return bs, ok
}

// Load 返回该层级全部边界
func (l *Loader) Load(ctx context.Context, level Level) ([]*Boundary, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	if bs, ok := l.Cached(level); ok {
		return bs, nil
	}
	ch := l.group.DoChan(string(level), func() (interface{}, error) {
		if bs, ok := l.Cached(level); ok {
			return bs, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.FetchTimeout)
		defer cancel()
		start := time.Now()
		data, err := l.src.Fetch(fctx, level)
		if err != nil {
			metrics.BoundaryLoadsTotal.WithLabelValues(string(level), "error").Inc()
			logger.L().Error("boundary_load_error", "level", level, "err", err)
			return nil, err
		}
		bs, err := Parse(level, data)
		if err != nil {
			metrics.BoundaryLoadsTotal.WithLabelValues(string(level), "error").Inc()
			logger.L().Error("boundary_parse_error", "level", level, "err", err)
			return nil, err
		}
		l.mu.Lock()
		l.cache[level] = bs
		l.mu.Unlock()
		metrics.BoundaryLoadsTotal.WithLabelValues(string(level), "ok").Inc()
		logger.L().Info("boundary_loaded", "level", level, "count", len(bs), "ms", time.Since(start).Milliseconds())
		return bs, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.L().Debug("boundary_load_shared", "level", level)
		}
		return res.Val.([]*Boundary), nil
	}
}

// Find 按 Key 查找边界，必要时先加载其层级
func (l *Loader) Find(ctx context.Context, key string) (*Boundary, error) {
	level, err := LevelOfKey(key)
	if err != nil {
		return nil, err
	}
	bs, err := l.Load(ctx, level)
	if err != nil {
		return nil, err
	}
	b, ok := Find(bs, key)
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}
