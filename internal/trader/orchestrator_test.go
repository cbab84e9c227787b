package trader

import (
	"context"
	"testing"
	"time"

	"github.com/cryptocj520/mading2/internal/config"
	"github.com/cryptocj520/mading2/internal/market"
)

func pushTick(o *Orchestrator, price float64) {
	o.onPush(market.Tick{Symbol: "BTCUSDT", Price: price, Time: time.Now()})
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	t := &cfg.Trading
	t.Symbol = "BTCUSDT"
	t.Coin = "BTC"
	t.BudgetUSDT = 1000
	t.OrderCount = 3
	t.MaxDropPct = 5
	t.IncrementPct = 20
	t.MinNotionalUSD = 10
	t.TakeProfitPct = 2
	t.NoFillRestartMinutes = 60
	t.PollIntervalSeconds = 1
	t.MonitorIntervalSeconds = 1
	t.HeartbeatIntervalSeconds = 60
	t.StatusIntervalSeconds = 15
	t.OptimalSellDiscountPct = 0.15
	t.FallbackSellDiscountPct = 0.5
	return cfg
}

func waitPhase(t *testing.T, o *Orchestrator, want Phase) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if o.Phase() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("等待相位 %s 超时，当前 %s", want, o.Phase())
}

func TestOrchestratorStartPlacesLadderAndRefusesDouble(t *testing.T) {
	gw := newFakeGateway()
	o := NewOrchestrator(testConfig(), gw, &fakeFeed{}, nil, nil, nil)
	defer o.Stop()

	if err := o.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if o.Phase() != PhaseRunning {
		t.Fatalf("启动后应为 running，实际 %s", o.Phase())
	}
	if got := gw.buyCount(); got != 3 {
		t.Fatalf("应铺出 3 档买单，实际 %d", got)
	}
	if err := o.Start(context.Background()); err == nil {
		t.Fatal("运行中再次启动应被拒绝")
	}
}

func TestOrchestratorStopIdempotent(t *testing.T) {
	gw := newFakeGateway()
	o := NewOrchestrator(testConfig(), gw, &fakeFeed{}, nil, nil, nil)

	if err := o.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	o.Stop()
	if o.Phase() != PhaseStopped {
		t.Fatalf("停止后应为 stopped，实际 %s", o.Phase())
	}
	cancels := gw.cancelAllCount()
	o.Stop() // 第二次必须是 no-op
	if gw.cancelAllCount() != cancels {
		t.Fatal("重复停止不应再撤单")
	}
}

func TestOrchestratorTakeProfitOneShot(t *testing.T) {
	gw := newFakeGateway()
	gw.price = 100
	feed := &fakeFeed{}
	o := NewOrchestrator(testConfig(), gw, feed, nil, nil, nil)

	if err := o.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	cancelsAfterStart := gw.cancelAllCount()

	// 模拟一笔成交后现价穿越止盈阈值；连发多次 tick 验证只触发一次
	o.stats.Update(filled(1, 1.0, 100))
	for i := 0; i < 5; i++ {
		pushTick(o, 103)
	}
	waitPhase(t, o, PhaseStopped) // 未开自动重启，止盈后终态为 stopped

	if got := gw.cancelAllCount() - cancelsAfterStart; got != 1 {
		t.Fatalf("止盈收尾只应撤单一次，实际 %d 次", got)
	}
	if feed.IsMonitoring() {
		t.Fatal("收尾后应停掉行情任务")
	}
}

func TestOrchestratorTakeProfitBelowThresholdNoTrigger(t *testing.T) {
	gw := newFakeGateway()
	o := NewOrchestrator(testConfig(), gw, &fakeFeed{}, nil, nil, nil)
	defer o.Stop()

	if err := o.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	o.stats.Update(filled(1, 1.0, 100))
	pushTick(o, 101.9) // 阈值 2%，未到
	time.Sleep(50 * time.Millisecond)
	if o.Phase() != PhaseRunning {
		t.Fatalf("未到阈值不应触发止盈，实际 %s", o.Phase())
	}
}

func TestOrchestratorNoFillLatchAfterFill(t *testing.T) {
	gw := newFakeGateway()
	o := NewOrchestrator(testConfig(), gw, &fakeFeed{}, nil, nil, nil)
	defer o.Stop()

	if err := o.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	// 已有成交：定时器到期也不能动手
	o.stats.Update(filled(1, 1.0, 100))
	o.tryNoFillRestart()
	time.Sleep(50 * time.Millisecond)
	if o.Phase() != PhaseRunning {
		t.Fatalf("有成交后无成交重启应永久失效，实际 %s", o.Phase())
	}
}

func TestOrchestratorNoFillRestartsCycle(t *testing.T) {
	gw := newFakeGateway()
	o := NewOrchestrator(testConfig(), gw, &fakeFeed{}, nil, nil, nil)
	defer o.Stop()

	if err := o.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	o.tryNoFillRestart() // 零成交：收尾并自动开启下一周期

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if o.Phase() == PhaseRunning && gw.buyCount() == 6 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("应重启并再铺 3 档（共 6 单），实际 phase=%s buys=%d", o.Phase(), gw.buyCount())
}

func TestOrchestratorStatusSnapshot(t *testing.T) {
	gw := newFakeGateway()
	o := NewOrchestrator(testConfig(), gw, &fakeFeed{}, nil, nil, nil)
	defer o.Stop()

	if err := o.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := o.StatusSnapshot()
	if s.Symbol != "BTCUSDT" || s.Phase != "running" {
		t.Fatalf("快照不符: %+v", s)
	}
	if s.OrdersPlaced != 3 {
		t.Fatalf("快照应含挂单数 3，实际 %d", s.OrdersPlaced)
	}
	if s.CycleID == "" {
		t.Fatal("快照应含周期 ID")
	}
	if len(s.Orders) != 3 {
		t.Fatalf("快照应列出 3 档订单，实际 %d", len(s.Orders))
	}
	for i := 1; i < len(s.Orders); i++ {
		if s.Orders[i].Price >= s.Orders[i-1].Price {
			t.Fatalf("订单应按价格从高到低: %+v", s.Orders)
		}
	}
	if s.Orders[0].Status != "new" {
		t.Fatalf("新铺单状态应为 new，实际 %s", s.Orders[0].Status)
	}
}

// HTTP 状态接口会在任意时刻取快照，周期重启时会替换内部组件，
// 两者并发必须安全（-race 验证）。
func TestOrchestratorStatusSnapshotDuringRestart(t *testing.T) {
	gw := newFakeGateway()
	o := NewOrchestrator(testConfig(), gw, &fakeFeed{}, nil, nil, nil)
	defer o.Stop()

	if err := o.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			_ = o.StatusSnapshot()
			if o.Phase() == PhaseRunning && gw.buyCount() >= 6 {
				return
			}
		}
	}()

	o.tryNoFillRestart() // 零成交收尾并自动重启，期间持续取快照
	<-done

	if o.Phase() != PhaseRunning {
		t.Fatalf("重启后应回到 running，实际 %s", o.Phase())
	}
	if s := o.StatusSnapshot(); s.OrdersPlaced != 3 {
		t.Fatalf("新周期快照应含挂单数 3，实际 %d", s.OrdersPlaced)
	}
}
