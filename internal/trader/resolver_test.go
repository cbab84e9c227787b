package trader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func staticSource(price float64) SnapshotFunc {
	if price <= 0 {
		return func() (float64, time.Time, bool) { return 0, time.Time{}, false }
	}
	return func() (float64, time.Time, bool) { return price, time.Now(), true }
}

func TestResolverPushWins(t *testing.T) {
	r := NewResolver("BTCUSDT", staticSource(99), staticSource(98), nil, nil)
	r.SetPush(100, time.Now())
	info, ok := r.Resolve(context.Background())
	if !ok || info.Source != SourcePush || info.Price != 100 {
		t.Fatalf("推送缓存应最先命中: %+v (ok=%v)", info, ok)
	}
}

func TestResolverFallsThroughRankedChain(t *testing.T) {
	// 无推送 → 轮询兜底命中
	r := NewResolver("BTCUSDT", staticSource(99), staticSource(98), nil, nil)
	info, ok := r.Resolve(context.Background())
	if !ok || info.Source != SourcePollMonitor || info.Price != 99 {
		t.Fatalf("应命中轮询兜底: %+v", info)
	}
	// 轮询兜底也没有 → 行情连接缓存
	r = NewResolver("BTCUSDT", staticSource(0), staticSource(98), nil, nil)
	info, ok = r.Resolve(context.Background())
	if !ok || info.Source != SourcePollTransport || info.Price != 98 {
		t.Fatalf("应命中连接缓存: %+v", info)
	}
}

func TestResolverAsyncFetchFeedsNextResolve(t *testing.T) {
	var calls atomic.Int32
	fetch := func(_ context.Context, _ string) (float64, error) {
		calls.Add(1)
		return 97, nil
	}
	r := NewResolver("BTCUSDT", staticSource(0), staticSource(0), fetch, nil)

	// 全链无数据：本次失败，但要踢一脚异步拉取
	if _, ok := r.Resolve(context.Background()); ok {
		t.Fatal("全链无数据应返回 ok=false")
	}
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if calls.Load() == 0 {
		t.Fatal("应触发异步拉取")
	}
	// 拉取结果写入 api 缓存，喂给下一次解析
	var info PriceInfo
	var ok bool
	for time.Now().Before(deadline) {
		if info, ok = r.Resolve(context.Background()); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !ok || info.Source != SourceAPI || info.Price != 97 {
		t.Fatalf("下一次解析应命中 api 缓存: %+v (ok=%v)", info, ok)
	}
}

func TestResolverFetchErrorLeavesCacheEmpty(t *testing.T) {
	fetch := func(_ context.Context, _ string) (float64, error) {
		return 0, errors.New("rate limited")
	}
	r := NewResolver("BTCUSDT", staticSource(0), staticSource(0), fetch, nil)
	if _, ok := r.Resolve(context.Background()); ok {
		t.Fatal("应返回 ok=false")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := r.Resolve(context.Background()); ok {
		t.Fatal("拉取失败不应产生缓存")
	}
}

func TestResolverIncreaseFromAverage(t *testing.T) {
	avg := func() (float64, bool) { return 100, true }
	r := NewResolver("BTCUSDT", staticSource(0), staticSource(0), nil, avg)
	r.SetPush(110, time.Now())
	info, ok := r.Resolve(context.Background())
	if !ok || !info.HasIncrease {
		t.Fatalf("有均价时应附带偏离: %+v", info)
	}
	if info.Increase < 9.99 || info.Increase > 10.01 {
		t.Fatalf("偏离应约为 10%%，实际 %v", info.Increase)
	}
}

func TestResolverReset(t *testing.T) {
	r := NewResolver("BTCUSDT", staticSource(0), staticSource(0), nil, nil)
	r.SetPush(100, time.Now())
	r.SeedAPI(95, time.Now())
	r.Reset()
	if _, ok := r.Resolve(context.Background()); ok {
		t.Fatal("重置后自有缓存应清空")
	}
}
