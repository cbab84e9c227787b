package trader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cryptocj520/mading2/internal/logger"
)

// 价格来源（按优先级）
type PriceSource string

const (
	SourcePush          PriceSource = "push"           // 推送回调写入的缓存
	SourcePollMonitor   PriceSource = "poll-monitor"   // 轮询兜底组件的缓存
	SourcePollTransport PriceSource = "poll-transport" // 行情连接自身的缓存
	SourceAPI           PriceSource = "api"            // 异步按需拉取（供下一次解析）
)

// PriceInfo 一次解析出的现价：带来源与时间戳；有均价时附带相对均价的偏离。
// 整体替换、从不半更新。
type PriceInfo struct {
	Price       float64
	Symbol      string
	Source      PriceSource
	UpdateTime  time.Time
	Increase    float64 // 相对均价的偏离（%）
	HasIncrease bool
}

// SnapshotFunc 一个价格来源的只读探测：返回缓存值与时间戳。
type SnapshotFunc func() (price float64, updated time.Time, ok bool)

type rankedSource struct {
	source PriceSource
	peek   SnapshotFunc
}

// Resolver 价格解析链：按固定优先级逐个探测来源，先命中者胜；
// 高优先级有数据时绝不等待低优先级。非正的价格视为“无数据”而非错误。
// 最后一级是异步按需拉取——结果只喂给下一次解析，永不阻塞本次。
type Resolver struct {
	symbol string
	chain  []rankedSource

	avgFn func() (float64, bool)
	fetch func(ctx context.Context, symbol string) (float64, error)

	mu        sync.RWMutex
	pushPrice float64
	pushTime  time.Time
	apiPrice  float64
	apiTime   time.Time

	fetching atomic.Bool
}

// NewResolver 组装解析链。monitor/transport 传各自缓存的探测函数；
// fetch 为异步兜底拉取；avgFn 提供当前均价（无成交时 ok=false）。
func NewResolver(symbol string, monitor, transport SnapshotFunc, fetch func(ctx context.Context, symbol string) (float64, error), avgFn func() (float64, bool)) *Resolver {
	r := &Resolver{symbol: symbol, avgFn: avgFn, fetch: fetch}
	r.chain = []rankedSource{
		{SourcePush, r.peekPush},
		{SourcePollMonitor, monitor},
		{SourcePollTransport, transport},
		{SourceAPI, r.peekAPI},
	}
	return r
}

// SetPush 推送回调写入最高优先级缓存。
func (r *Resolver) SetPush(price float64, updated time.Time) {
	if price <= 0 {
		return
	}
	r.mu.Lock()
	r.pushPrice = price
	r.pushTime = updated
	r.mu.Unlock()
}

func (r *Resolver) peekPush() (float64, time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pushPrice <= 0 {
		return 0, time.Time{}, false
	}
	return r.pushPrice, r.pushTime, true
}

func (r *Resolver) peekAPI() (float64, time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.apiPrice <= 0 {
		return 0, time.Time{}, false
	}
	return r.apiPrice, r.apiTime, true
}

// Resolve 解析一次现价。全部来源都没数据时触发异步拉取并返回 ok=false；
// 命中 api 缓存时同样触发刷新，保证下一次解析更新鲜。
func (r *Resolver) Resolve(ctx context.Context) (PriceInfo, bool) {
	for _, s := range r.chain {
		if s.peek == nil {
			continue
		}
		price, ts, ok := s.peek()
		if !ok || price <= 0 {
			continue
		}
		if s.source == SourceAPI {
			r.kickFetch(ctx)
		}
		return r.build(price, ts, s.source), true
	}
	r.kickFetch(ctx)
	return PriceInfo{}, false
}

func (r *Resolver) build(price float64, ts time.Time, src PriceSource) PriceInfo {
	info := PriceInfo{Price: price, Symbol: r.symbol, Source: src, UpdateTime: ts}
	if r.avgFn != nil {
		if avg, ok := r.avgFn(); ok && avg > 0 {
			info.Increase = (price - avg) / avg * 100
			info.HasIncrease = true
		}
	}
	return info
}

// kickFetch 异步拉取：同一时间只有一个在途请求；结果写入 api 缓存。
func (r *Resolver) kickFetch(ctx context.Context) {
	if r.fetch == nil || !r.fetching.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer r.fetching.Store(false)
		price, err := r.fetch(ctx, r.symbol)
		if err != nil {
			logger.Debugf("按需取价失败: %v", err)
			return
		}
		if price <= 0 {
			return
		}
		r.mu.Lock()
		r.apiPrice = price
		r.apiTime = time.Now()
		r.mu.Unlock()
	}()
}

// SeedAPI 启动时的一次性预热：把同步拉到的初始价写入 api 缓存，
// 让推送建立之前的第一批解析就有数据可用。
func (r *Resolver) SeedAPI(price float64, updated time.Time) {
	if price <= 0 {
		return
	}
	r.mu.Lock()
	r.apiPrice = price
	r.apiTime = updated
	r.mu.Unlock()
}

// Reset 清空自有缓存（push/api）；周期边界调用。
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.pushPrice, r.pushTime = 0, time.Time{}
	r.apiPrice, r.apiTime = 0, time.Time{}
	r.mu.Unlock()
}
