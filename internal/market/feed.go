package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"

	"github.com/cryptocj520/mading2/internal/logger"
)

// 中文说明：
// 行情推送：订阅单交易对的逐笔成交流，断线按指数退避自动重连。
// 自身缓存最新价与原始消息，供价格解析链作为兜底来源。

// Tick 一次推送的最新价。
type Tick struct {
	Symbol string
	Price  float64
	Time   time.Time
}

// FeedStats 连接统计，心跳日志用。
type FeedStats struct {
	Connected  bool
	Reconnects int
	LastError  string
}

type Feed struct {
	symbol string

	mu      sync.RWMutex
	onTick  func(Tick)
	price   float64
	updated time.Time
	lastRaw string

	connected  atomic.Bool
	monitoring atomic.Bool
	reconnects atomic.Int64
	lastErr    atomic.Value // string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewFeed(symbol string) *Feed {
	return &Feed{symbol: strings.ToUpper(strings.TrimSpace(symbol))}
}

// OnTick 注册推送回调；必须在 Start 之前调用。
func (f *Feed) OnTick(fn func(Tick)) {
	f.mu.Lock()
	f.onTick = fn
	f.mu.Unlock()
}

// StartMonitoring 启动订阅；已在监控中则拒绝。
func (f *Feed) StartMonitoring(ctx context.Context) error {
	if f.symbol == "" {
		return fmt.Errorf("feed symbol 不能为空")
	}
	if !f.monitoring.CompareAndSwap(false, true) {
		return fmt.Errorf("feed 已在监控中")
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.loop(runCtx)
	return nil
}

// StopMonitoring 停止订阅并等待连接退出；幂等。
func (f *Feed) StopMonitoring() {
	if !f.monitoring.CompareAndSwap(true, false) {
		return
	}
	if f.cancel != nil {
		f.cancel()
	}
	if f.done != nil {
		<-f.done
	}
	f.connected.Store(false)
}

func (f *Feed) IsMonitoring() bool { return f.monitoring.Load() }

// Snapshot 返回缓存的最新价；没有数据时 ok=false。
func (f *Feed) Snapshot() (price float64, updated time.Time, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price <= 0 {
		return 0, time.Time{}, false
	}
	return f.price, f.updated, true
}

// LastRaw 最近一条原始消息（排查用）。
func (f *Feed) LastRaw() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastRaw
}

func (f *Feed) Stats() FeedStats {
	last, _ := f.lastErr.Load().(string)
	return FeedStats{
		Connected:  f.connected.Load(),
		Reconnects: int(f.reconnects.Load()),
		LastError:  last,
	}
}

// loop 带退避的重连循环；ctx 取消后退出。
func (f *Feed) loop(ctx context.Context) {
	defer close(f.done)
	b := &backoff.Backoff{Min: time.Second, Max: 30 * time.Second, Factor: 2, Jitter: true}
	for {
		if ctx.Err() != nil {
			return
		}
		doneC, stopC, err := gobinance.WsTradeServe(f.symbol, f.handleEvent, f.handleErr)
		if err != nil {
			f.lastErr.Store(err.Error())
			f.reconnects.Add(1)
			wait := b.Duration()
			logger.Warnf("行情订阅失败，%s 后重连: %v", wait, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		b.Reset()
		f.connected.Store(true)
		logger.Infof("✓ 行情推送已连接: %s", f.symbol)
		select {
		case <-ctx.Done():
			close(stopC)
			<-doneC
			f.connected.Store(false)
			return
		case <-doneC:
			f.connected.Store(false)
			f.reconnects.Add(1)
			wait := b.Duration()
			logger.Warnf("行情推送断开，%s 后重连", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

func (f *Feed) handleEvent(ev *gobinance.WsTradeEvent) {
	if ev == nil {
		return
	}
	price, err := strconv.ParseFloat(ev.Price, 64)
	if err != nil || price <= 0 {
		return
	}
	t := time.UnixMilli(ev.TradeTime)
	f.mu.Lock()
	f.price = price
	f.updated = t
	f.lastRaw = fmt.Sprintf("%s@%s t=%d", ev.Symbol, ev.Price, ev.TradeTime)
	fn := f.onTick
	f.mu.Unlock()
	if fn != nil {
		fn(Tick{Symbol: ev.Symbol, Price: price, Time: t})
	}
}

func (f *Feed) handleErr(err error) {
	if err == nil {
		return
	}
	f.lastErr.Store(err.Error())
	logger.Debugf("行情推送错误: %v", err)
}
