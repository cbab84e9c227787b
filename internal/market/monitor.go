package market

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cryptocj520/mading2/internal/logger"
)

// PriceSource 轮询用的最小取价接口（交易所网关实现）。
type PriceSource interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// Monitor 轮询兜底：独立于推送流，按固定周期拉 ticker 并缓存，
// 推送断开时价格解析链会落到这里。
type Monitor struct {
	symbol   string
	interval time.Duration
	src      PriceSource

	mu      sync.RWMutex
	price   float64
	updated time.Time

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewMonitor(src PriceSource, symbol string, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		interval: interval,
		src:      src,
	}
}

// Start 启动轮询；重复调用是 no-op。
func (m *Monitor) Start(ctx context.Context) {
	if m.src == nil || !m.running.CompareAndSwap(false, true) {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(runCtx)
}

// Stop 停止轮询并等待退出；幂等。
func (m *Monitor) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	if m.done != nil {
		<-m.done
	}
}

// Snapshot 返回最近一次轮询到的价格。
func (m *Monitor) Snapshot() (price float64, updated time.Time, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.price <= 0 {
		return 0, time.Time{}, false
	}
	return m.price, m.updated, true
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price, err := m.src.LastPrice(ctx, m.symbol)
			if err != nil {
				logger.Debugf("轮询取价失败: %v", err)
				continue
			}
			if price <= 0 {
				continue
			}
			m.mu.Lock()
			m.price = price
			m.updated = time.Now()
			m.mu.Unlock()
		}
	}
}
