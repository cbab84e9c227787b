package market

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type scriptedSource struct {
	price atomic.Value // float64
	err   atomic.Value // error
}

func (s *scriptedSource) LastPrice(_ context.Context, _ string) (float64, error) {
	if e, ok := s.err.Load().(error); ok && e != nil {
		return 0, e
	}
	p, _ := s.price.Load().(float64)
	return p, nil
}

func TestMonitorCachesPolledPrice(t *testing.T) {
	src := &scriptedSource{}
	src.price.Store(101.5)
	m := NewMonitor(src, "btcusdt", 10*time.Millisecond)
	m.Start(context.Background())
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if price, _, ok := m.Snapshot(); ok {
			if price != 101.5 {
				t.Fatalf("缓存价格不符: %v", price)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("等待轮询缓存超时")
}

func TestMonitorKeepsLastPriceOnError(t *testing.T) {
	src := &scriptedSource{}
	src.price.Store(100.0)
	m := NewMonitor(src, "BTCUSDT", 10*time.Millisecond)
	m.Start(context.Background())
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, ok := m.Snapshot(); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	// 之后取价报错：缓存保留旧值而不是清空
	src.err.Store(errors.New("rate limited"))
	time.Sleep(50 * time.Millisecond)
	price, _, ok := m.Snapshot()
	if !ok || price != 100.0 {
		t.Fatalf("取价失败时应保留旧缓存: price=%v ok=%v", price, ok)
	}
}

func TestMonitorStopIdempotent(t *testing.T) {
	src := &scriptedSource{}
	src.price.Store(100.0)
	m := NewMonitor(src, "BTCUSDT", 10*time.Millisecond)
	m.Start(context.Background())
	m.Stop()
	m.Stop() // 第二次必须无害

	if _, _, ok := (&Monitor{}).Snapshot(); ok {
		t.Fatal("零值监视器不应有缓存")
	}
}

func TestMonitorWithoutSourceIsNoop(t *testing.T) {
	m := NewMonitor(nil, "BTCUSDT", time.Millisecond)
	m.Start(context.Background()) // 不应 panic
	m.Stop()
}
