package trader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cryptocj520/mading2/internal/config"
	bngw "github.com/cryptocj520/mading2/internal/gateway/binance"
	"github.com/cryptocj520/mading2/internal/gateway/database"
	"github.com/cryptocj520/mading2/internal/logger"
	"github.com/cryptocj520/mading2/internal/market"
	"github.com/cryptocj520/mading2/internal/metrics"
	"github.com/cryptocj520/mading2/internal/pkg/format"
	"github.com/cryptocj520/mading2/internal/pricing"
)

// 中文说明：
// 周期编排器：状态机驱动一个连续的交易周期——启动铺阶梯买单、
// 看行情、对账确认成交、涨过阈值一次性触发止盈清仓、长时间无成交
// 自动重启。全部定时任务挂在同一个取消域上，stop 即“取消域 + 等待退出”。

// Phase 周期所处阶段。显式枚举取代一对独立布尔位：
// 止盈与无成交重启都要先从 Running 原子迁移到各自的终态，
// 天然互斥，同一轮快照不可能两者都动手。
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInitializing
	PhaseRunning
	PhaseTakeProfit
	PhaseNoFillRestart
	PhaseResetting
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitializing:
		return "initializing"
	case PhaseRunning:
		return "running"
	case PhaseTakeProfit:
		return "take_profit"
	case PhaseNoFillRestart:
		return "no_fill_restart"
	case PhaseResetting:
		return "resetting"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// 周期结束原因
const (
	ReasonTakeProfit = "take_profit"
	ReasonNoFill     = "no_fill_restart"
	ReasonStop       = "stop"
)

type Orchestrator struct {
	cfg      *config.Config
	gw       ExchangeGateway
	feed     PriceFeed
	monitor  *market.Monitor
	notifier TextNotifier  // 可为 nil
	recorder CycleRecorder // 可为 nil

	// lifecycleMu 串行化 收尾/停止/重启，避免两条收尾流程交错
	lifecycleMu sync.Mutex

	mu          sync.Mutex
	phase       Phase
	cycleID     string
	cycleStart  time.Time
	scriptStart time.Time
	lastPrice   *PriceInfo
	rule        bngw.SymbolRule

	ledger     *Ledger
	stats      *Stats
	resolver   *Resolver
	reconciler *Reconciler
	liquidator *Liquidator
	status     *statusRenderer

	parentCtx context.Context
	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewOrchestrator(cfg *config.Config, gw ExchangeGateway, feed PriceFeed, monitor *market.Monitor, notifier TextNotifier, recorder CycleRecorder) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		gw:          gw,
		feed:        feed,
		monitor:     monitor,
		notifier:    notifier,
		recorder:    recorder,
		phase:       PhaseIdle,
		scriptStart: time.Now(),
		ledger:      NewLedger(),
		stats:       NewStats(),
		status:      newStatusRenderer(time.Duration(cfg.Trading.StatusIntervalSeconds) * time.Second),
	}
}

// Start 开启一个交易周期；已在运行则拒绝。
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.phase == PhaseRunning || o.phase == PhaseInitializing {
		o.mu.Unlock()
		return fmt.Errorf("交易循环已在运行中")
	}
	o.phase = PhaseInitializing
	o.parentCtx = ctx
	runCtx, cancel := context.WithCancel(ctx)
	o.runCtx, o.cancel = runCtx, cancel
	o.mu.Unlock()

	o.initialize(runCtx)

	// 行情推送 + 轮询兜底都挂在周期取消域上
	o.feed.OnTick(o.onPush)
	if err := o.feed.StartMonitoring(runCtx); err != nil {
		logger.Warnf("启动行情推送失败（轮询兜底仍可用）: %v", err)
	}
	if o.monitor != nil {
		o.monitor.Start(runCtx)
	}

	o.placeLadder(runCtx)

	o.mu.Lock()
	o.phase = PhaseRunning
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(runCtx)

	t := o.cfg.Trading
	logger.Infof("✓ 周期已启动 %s 预算=%.2f 止盈=%.2f%% 无成交窗口=%dmin",
		t.Symbol, t.BudgetUSDT, t.TakeProfitPct, t.NoFillRestartMinutes)
	if o.notifier != nil {
		_ = o.notifier.SendText(fmt.Sprintf("*周期启动* ✅\n标的: %s\n预算: %.2f USDT\n止盈: %.2f%%",
			t.Symbol, t.BudgetUSDT, t.TakeProfitPct))
	}
	return nil
}

// initialize 构建本周期的全套组件；初始取价尽力而为，失败不致命。
func (o *Orchestrator) initialize(ctx context.Context) {
	t := o.cfg.Trading
	symbol := strings.ToUpper(t.Symbol)

	ledger := NewLedger()
	stats := NewStats()
	resolver := NewResolver(symbol,
		o.monitorSnapshot,
		o.feed.Snapshot,
		o.gw.LastPrice,
		stats.AveragePrice,
	)
	reconciler := NewReconciler(o.gw, ledger, stats, symbol)
	liquidator := NewLiquidator(o.gw, o.notifier,
		time.Duration(t.LiquidateSettleSeconds)*time.Second,
		t.OptimalSellDiscountPct, t.FallbackSellDiscountPct)

	rule, err := o.gw.SymbolRule(ctx, symbol)
	if err != nil {
		logger.Warnf("获取交易规则失败（跳过精度量化）: %v", err)
		rule = bngw.SymbolRule{}
	}

	o.mu.Lock()
	o.cycleID = uuid.NewString()
	o.cycleStart = time.Now()
	o.ledger = ledger
	o.stats = stats
	o.resolver = resolver
	o.reconciler = reconciler
	o.liquidator = liquidator
	o.rule = rule
	o.lastPrice = nil
	o.mu.Unlock()

	// 初始取价预热：失败只记日志
	if price, err := o.gw.LastPrice(ctx, symbol); err == nil && price > 0 {
		resolver.SeedAPI(price, time.Now())
		logger.Infof("初始价格 %s = %s", symbol, format.Float(price, 8))
	} else if err != nil {
		logger.Debugf("初始取价失败（不致命）: %v", err)
	}
}

func (o *Orchestrator) monitorSnapshot() (float64, time.Time, bool) {
	if o.monitor == nil {
		return 0, time.Time{}, false
	}
	return o.monitor.Snapshot()
}

// placeLadder 铺阶梯买单。参数缺失只中止本次挂单，不影响循环存活；
// 即使 0 档成功也进入止盈监控。
func (o *Orchestrator) placeLadder(ctx context.Context) {
	t := o.cfg.Trading
	if strings.TrimSpace(t.Symbol) == "" || t.BudgetUSDT <= 0 || t.OrderCount <= 0 {
		logger.Errorf("交易参数缺失/非法，本次挂单中止: symbol=%q budget=%v count=%d",
			t.Symbol, t.BudgetUSDT, t.OrderCount)
		return
	}
	symbol := strings.ToUpper(t.Symbol)

	// 启动前清掉历史挂单：失败不致命
	if err := o.gw.CancelAllOrders(ctx, symbol); err != nil {
		logger.Warnf("挂单前撤单失败（忽略）: %v", err)
	}

	price := o.placementPrice(ctx)
	if price <= 0 {
		logger.Warnf("无法获取现价，跳过本次挂单")
		return
	}

	o.mu.Lock()
	rule := o.rule
	o.mu.Unlock()
	legs, err := pricing.Ladder(price, pricing.LadderParams{
		Budget:       t.BudgetUSDT,
		OrderCount:   t.OrderCount,
		MaxDropPct:   t.MaxDropPct,
		IncrementPct: t.IncrementPct,
		MinNotional:  t.MinNotionalUSD,
		LotStep:      rule.LotStep,
		TickSize:     rule.TickSize,
	})
	if err != nil {
		logger.Errorf("阶梯计算失败: %v", err)
		return
	}

	placed := 0
	for _, leg := range legs {
		sig := NewSignature(symbol, leg.Price, leg.Quantity)
		if o.ledger.HasSignature(sig) {
			logger.Debugf("跳过重复档位: %s", sig)
			continue
		}
		ack, err := o.gw.CreateLimitBuy(ctx, symbol, leg.Price, leg.Quantity)
		if err != nil {
			logger.Warnf("挂单失败 price=%s qty=%s: %v",
				format.Float(leg.Price, 8), format.Float(leg.Quantity, 8), err)
			continue
		}
		o.ledger.Add(Order{
			ID:        ack.ID,
			Symbol:    symbol,
			Side:      SideBuy,
			Price:     leg.Price,
			Quantity:  leg.Quantity,
			Status:    StatusNew,
			Signature: sig,
		})
		metrics.Orders.WithLabelValues("buy").Inc()
		placed++
		logger.Infof("✓ 挂单 id=%d price=%s qty=%s", ack.ID,
			format.Float(leg.Price, 8), format.Float(leg.Quantity, 8))
	}
	o.stats.RecordPlaced(placed)
	logger.Infof("阶梯挂单完成: %d/%d 档", placed, len(legs))

	if o.recorder != nil {
		o.mu.Lock()
		rec := database.CycleRecord{
			CycleID:      o.cycleID,
			Symbol:       symbol,
			Budget:       t.BudgetUSDT,
			StartTime:    o.cycleStart,
			OrdersPlaced: placed,
		}
		o.mu.Unlock()
		if err := o.recorder.InsertCycle(ctx, rec); err != nil {
			logger.Warnf("周期落盘失败（忽略）: %v", err)
		}
	}
}

// placementPrice 挂单基准价：先走解析链，链上没数据再直接请求。
func (o *Orchestrator) placementPrice(ctx context.Context) float64 {
	if info, ok := o.resolver.Resolve(ctx); ok {
		return info.Price
	}
	price, err := o.gw.LastPrice(ctx, strings.ToUpper(o.cfg.Trading.Symbol))
	if err != nil {
		logger.Warnf("取价失败: %v", err)
		return 0
	}
	return price
}

// run 周期主循环：轮询、对账+止盈、心跳、无成交重启，共用一个取消域。
func (o *Orchestrator) run(ctx context.Context) {
	defer o.wg.Done()
	t := o.cfg.Trading
	pollT := time.NewTicker(time.Duration(t.PollIntervalSeconds) * time.Second)
	monitorT := time.NewTicker(time.Duration(t.MonitorIntervalSeconds) * time.Second)
	heartbeatT := time.NewTicker(time.Duration(t.HeartbeatIntervalSeconds) * time.Second)
	noFill := time.NewTimer(time.Duration(t.NoFillRestartMinutes) * time.Minute)
	defer pollT.Stop()
	defer monitorT.Stop()
	defer heartbeatT.Stop()
	defer noFill.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollT.C:
			o.pollTick(ctx)
		case <-monitorT.C:
			o.monitorTick(ctx)
		case <-heartbeatT.C:
			o.heartbeat()
		case <-noFill.C:
			// 闩锁：一旦有成交，无成交重启在本周期内永久失效
			o.tryNoFillRestart()
		}
	}
}

// onPush 行情推送回调：刷新最高优先级缓存并即时做止盈检查。
// 不在运行态时结果直接丢弃。
func (o *Orchestrator) onPush(tick market.Tick) {
	if !o.isRunning() {
		return
	}
	o.resolver.SetPush(tick.Price, tick.Time)
	o.tryTakeProfit(tick.Price)
}

// pollTick 固定周期从最新鲜的缓存来源重建 PriceInfo 并渲染状态。
func (o *Orchestrator) pollTick(ctx context.Context) {
	if !o.isRunning() {
		return
	}
	info, ok := o.resolver.Resolve(ctx)
	if !ok {
		return
	}
	o.observePrice(info)
	o.status.maybeRender(o.statusSnapshot())
}

// monitorTick 对账确认成交，然后用解析到的现价做止盈检查。
func (o *Orchestrator) monitorTick(ctx context.Context) {
	if !o.isRunning() {
		return
	}
	newly := o.reconciler.Reconcile(ctx)
	for _, ord := range newly {
		if !o.stats.Update(ord) {
			continue
		}
		src := "history"
		if ord.Inferred {
			src = "inferred"
		}
		metrics.Fills.WithLabelValues(src).Inc()
		logger.Infof("✓ 订单成交 id=%d price=%s qty=%s amount=%s (%s)",
			ord.ID, format.Float(ord.Price, 8),
			format.Float(ord.FilledQuantity, 8), format.Float(ord.FilledAmount, 4), src)
		o.recordFill(ctx, ord)
	}
	if info, ok := o.resolver.Resolve(ctx); ok {
		o.observePrice(info)
		o.tryTakeProfit(info.Price)
	}
}

func (o *Orchestrator) observePrice(info PriceInfo) {
	o.mu.Lock()
	cp := info
	o.lastPrice = &cp
	o.mu.Unlock()
	metrics.Ticks.WithLabelValues(string(info.Source)).Inc()
	metrics.CurrentPrice.Set(info.Price)
	if avg, ok := o.stats.AveragePrice(); ok {
		metrics.AveragePrice.Set(avg)
		metrics.TakeProfitProgress.Set(TakeProfitProgress(info.Price, avg, o.cfg.Trading.TakeProfitPct))
	}
}

func (o *Orchestrator) heartbeat() {
	fs := o.feed.Stats()
	_, updated, _ := o.feed.Snapshot()
	logger.Debugf("心跳: 推送连接=%v 重连=%d 数据龄=%s 最后错误=%q",
		fs.Connected, fs.Reconnects, format.Age(updated), fs.LastError)
}

// tryTakeProfit 一次性触发：必须在锁内完成“检查 + 置相位”，
// 阈值穿越后无论再来多少 tick 都只清仓一次；清零要等 reset。
func (o *Orchestrator) tryTakeProfit(current float64) {
	o.mu.Lock()
	if o.phase != PhaseRunning {
		o.mu.Unlock()
		return
	}
	avg, ok := o.stats.AveragePrice() // 有成交才有均价
	if !ok || !TakeProfitTriggered(current, avg, o.cfg.Trading.TakeProfitPct) {
		o.mu.Unlock()
		return
	}
	o.phase = PhaseTakeProfit // 先置位再做任何异步动作
	o.mu.Unlock()

	logger.Infof("🎯 止盈触发: 现价=%s 均价=%s 阈值=%.2f%%",
		format.Float(current, 8), format.Float(avg, 8), o.cfg.Trading.TakeProfitPct)
	go o.finishCycle(ReasonTakeProfit)
}

// tryNoFillRestart 无成交重启：同样从 Running 原子迁移，和止盈互斥。
func (o *Orchestrator) tryNoFillRestart() {
	o.mu.Lock()
	if o.phase != PhaseRunning {
		o.mu.Unlock()
		return
	}
	if o.stats.FilledOrders() > 0 {
		o.mu.Unlock()
		logger.Debugf("无成交重启定时器到期，但已有成交，闩锁失效")
		return
	}
	o.phase = PhaseNoFillRestart
	o.mu.Unlock()

	logger.Infof("⏲ 窗口内无任何成交，自动重启周期")
	go o.finishCycle(ReasonNoFill)
}

// finishCycle 周期收尾：撤单 → 清仓 → 停任务 → 落盘/通知 → 重置 →
// 视配置重启。每一步独立尽力而为。
func (o *Orchestrator) finishCycle(reason string) {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	ctx, cancelFn := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelFn()
	t := o.cfg.Trading
	symbol := strings.ToUpper(t.Symbol)
	logger.Infof("周期收尾开始: reason=%s", reason)

	if err := o.gw.CancelAllOrders(ctx, symbol); err != nil {
		logger.Warnf("收尾撤单失败（继续）: %v", err)
	}
	o.ledger.MarkCancelledAll()

	res, err := o.liquidator.Liquidate(ctx, t.Coin, symbol)
	if err != nil {
		logger.Warnf("清仓失败（继续收尾）: %v", err)
	}

	o.stopCycleTasks()

	snap := o.stats.Snapshot()
	o.recordCycleEnd(ctx, reason, snap, res)
	metrics.Cycles.WithLabelValues(reason).Inc()
	o.notifyCycleEnd(reason, snap, res)

	o.reset()

	restart := reason == ReasonNoFill || (reason == ReasonTakeProfit && t.AutoRestartAfterTP)
	if restart && o.parentCtx != nil && o.parentCtx.Err() == nil {
		logger.Infof("开启下一周期 (%s)", reason)
		if err := o.Start(o.parentCtx); err != nil {
			logger.Errorf("重启周期失败: %v", err)
		}
		return
	}
	o.mu.Lock()
	o.phase = PhaseStopped
	o.mu.Unlock()
	logger.Infof("交易循环已停止 (reason=%s)", reason)
}

// Stop 显式停止：未运行时第二次调用是 no-op，永不 panic。
// 各清理步骤互相独立，最后无条件置为 stopped。
func (o *Orchestrator) Stop() {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	o.mu.Lock()
	switch o.phase {
	case PhaseStopped:
		o.mu.Unlock()
		return
	case PhaseIdle:
		o.phase = PhaseStopped
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	ctx, cancelFn := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelFn()
	if err := o.gw.CancelAllOrders(ctx, strings.ToUpper(o.cfg.Trading.Symbol)); err != nil {
		logger.Warnf("停止时撤单失败（继续）: %v", err)
	}
	o.stopCycleTasks()

	o.mu.Lock()
	o.phase = PhaseStopped // 无条件置停，前面哪步失败都一样
	o.mu.Unlock()
	logger.Infof("✓ 交易循环已停止: %s", o.cfg.Trading.Symbol)
}

// stopCycleTasks 取消周期取消域并等待全部定时任务退出，再停行情。
func (o *Orchestrator) stopCycleTasks() {
	o.mu.Lock()
	cancelFn := o.cancel
	o.mu.Unlock()
	if cancelFn != nil {
		cancelFn()
	}
	o.wg.Wait()
	if o.feed != nil {
		o.feed.StopMonitoring()
	}
	if o.monitor != nil {
		o.monitor.Stop()
	}
}

// reset 清空周期态：汇总、账本、价格缓存、止盈相位，重打周期起点。
// 只允许在定时任务已停的前提下调用。
func (o *Orchestrator) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = PhaseResetting
	o.stats.Reset()
	o.ledger.Reset()
	if o.resolver != nil {
		o.resolver.Reset()
	}
	o.lastPrice = nil
	o.cycleStart = time.Now()
	o.phase = PhaseIdle
}

func (o *Orchestrator) isRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase == PhaseRunning
}

// Phase 当前相位（测试/状态接口用）。
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

func (o *Orchestrator) recordFill(ctx context.Context, ord Order) {
	if o.recorder == nil {
		return
	}
	o.mu.Lock()
	cycleID := o.cycleID
	o.mu.Unlock()
	rec := database.FillRecord{
		CycleID:   cycleID,
		OrderID:   ord.ID,
		Symbol:    ord.Symbol,
		Side:      string(ord.Side),
		Price:     ord.Price,
		Quantity:  ord.FilledQuantity,
		Amount:    ord.FilledAmount,
		Inferred:  ord.Inferred,
		Timestamp: time.Now(),
	}
	if err := o.recorder.AppendFill(ctx, rec); err != nil {
		logger.Warnf("成交流水落盘失败（忽略）: %v", err)
	}
}

func (o *Orchestrator) recordCycleEnd(ctx context.Context, reason string, snap StatsSnapshot, res *LiquidateResult) {
	if o.recorder == nil {
		return
	}
	o.mu.Lock()
	cycleID := o.cycleID
	start := o.cycleStart
	o.mu.Unlock()
	now := time.Now()
	rec := database.CycleRecord{
		CycleID:      cycleID,
		Symbol:       strings.ToUpper(o.cfg.Trading.Symbol),
		Budget:       o.cfg.Trading.BudgetUSDT,
		StartTime:    start,
		EndTime:      &now,
		EndReason:    reason,
		OrdersPlaced: snap.TotalOrders,
		OrdersFilled: snap.FilledOrders,
		FilledQty:    snap.FilledQuantity,
		FilledAmount: snap.FilledAmount,
		AveragePrice: snap.AveragePrice,
	}
	if res != nil {
		rec.SellQty = res.SoldQuantity
		rec.SellAmount = res.SoldAmount
	}
	if err := o.recorder.FinishCycle(ctx, rec); err != nil {
		logger.Warnf("周期收尾落盘失败（忽略）: %v", err)
	}
}

func (o *Orchestrator) notifyCycleEnd(reason string, snap StatsSnapshot, res *LiquidateResult) {
	if o.notifier == nil {
		return
	}
	var b strings.Builder
	title := "周期结束"
	if reason == ReasonTakeProfit {
		title = "止盈清仓 🎯"
	} else if reason == ReasonNoFill {
		title = "无成交重启 ⏲"
	}
	fmt.Fprintf(&b, "*%s*\n标的: %s\n", title, strings.ToUpper(o.cfg.Trading.Symbol))
	fmt.Fprintf(&b, "成交: %d 笔 / 量 %s / 额 %s\n",
		snap.FilledOrders, format.Float(snap.FilledQuantity, 8), format.Float(snap.FilledAmount, 4))
	if snap.HasAverage {
		fmt.Fprintf(&b, "均价: %s\n", format.Float(snap.AveragePrice, 8))
	}
	if res != nil {
		fmt.Fprintf(&b, "卖出: 量 %s / 额 %s\n",
			format.Float(res.SoldQuantity, 8), format.Float(res.SoldAmount, 4))
		if res.Remainder > 0 {
			fmt.Fprintf(&b, "残留: %s ⚠️\n", format.Float(res.Remainder, 8))
		}
	}
	if err := o.notifier.SendText(b.String()); err != nil {
		logger.Warnf("Telegram 推送失败: %v", err)
	}
}

// StatusSnapshot 对外状态快照（HTTP 接口与节流渲染共用）。
func (o *Orchestrator) StatusSnapshot() StatusSnapshot {
	return o.statusSnapshot()
}

func (o *Orchestrator) statusSnapshot() StatusSnapshot {
	// 周期重启会在 o.mu 内替换 stats 指针，必须在同一临界区内取走。
	o.mu.Lock()
	phase := o.phase
	cycleID := o.cycleID
	cycleStart := o.cycleStart
	scriptStart := o.scriptStart
	last := o.lastPrice
	stats := o.stats
	ledger := o.ledger
	o.mu.Unlock()

	t := o.cfg.Trading
	snap := stats.Snapshot()
	fs := o.feed.Stats()

	s := StatusSnapshot{
		Symbol:         strings.ToUpper(t.Symbol),
		Phase:          phase.String(),
		CycleID:        cycleID,
		CycleElapsed:   format.Duration(time.Since(cycleStart)),
		ScriptElapsed:  format.Duration(time.Since(scriptStart)),
		FeedConnected:  fs.Connected,
		FeedReconnects: fs.Reconnects,
		AveragePrice:   snap.AveragePrice,
		HasAverage:     snap.HasAverage,
		OrdersPlaced:   snap.TotalOrders,
		OrdersFilled:   snap.FilledOrders,
		FilledQuantity: snap.FilledQuantity,
		FilledAmount:   snap.FilledAmount,
	}
	if ledger != nil {
		orders := ledger.Orders()
		sort.Slice(orders, func(i, j int) bool { return orders[i].Price > orders[j].Price })
		s.Orders = make([]OrderBrief, 0, len(orders))
		for _, ord := range orders {
			s.Orders = append(s.Orders, OrderBrief{
				ID:       ord.ID,
				Price:    ord.Price,
				Quantity: ord.Quantity,
				Status:   ord.Status.String(),
			})
		}
	}
	if last != nil {
		s.Price = last.Price
		s.PriceSource = string(last.Source)
		s.PriceAge = format.Age(last.UpdateTime)
		if last.HasIncrease {
			s.IncreasePct = last.Increase
		}
		if snap.HasAverage {
			s.ProgressPct = TakeProfitProgress(last.Price, snap.AveragePrice, t.TakeProfitPct)
			s.UnrealizedPnL = (last.Price - snap.AveragePrice) * snap.FilledQuantity
		}
	}
	return s
}
