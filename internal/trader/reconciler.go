package trader

import (
	"context"

	"github.com/cryptocj520/mading2/internal/logger"
)

// Reconciler 对账：把本地账本的订单状态校准到交易所侧真相。
// 两阶段互不依赖、各自容错：
//   - Phase A（权威）：订单历史里报告 Filled 的订单，照抄成交数量/金额；
//   - Phase B（推断兜底，无论 A 成败都执行）：账本里不在当前挂单集合中
//     且未处理过的订单推断为已成交；A 没给出数量时按全额成交近似。
//
// 历史接口可能慢、被限流或暂不可用，差集推断是它的韧性兜底。
type Reconciler struct {
	gw     ExchangeGateway
	ledger *Ledger
	stats  *Stats
	symbol string
}

func NewReconciler(gw ExchangeGateway, ledger *Ledger, stats *Stats, symbol string) *Reconciler {
	return &Reconciler{gw: gw, ledger: ledger, stats: stats, symbol: symbol}
}

// Reconcile 跑一轮对账，返回本轮新确认成交的订单（已写回账本）。
func (r *Reconciler) Reconcile(ctx context.Context) []Order {
	var newly []Order
	seen := make(map[int64]struct{})

	// Phase A：订单历史是成交数量/金额的权威来源
	history, err := r.gw.OrderHistory(ctx, r.symbol)
	if err != nil {
		logger.Debugf("订单历史拉取失败，退回挂单差集推断: %v", err)
	} else {
		for _, rep := range history {
			if !rep.Filled {
				continue
			}
			o, ok := r.ledger.Get(rep.ID)
			if !ok || o.Status != StatusNew {
				continue
			}
			if r.stats.Processed(rep.ID) {
				continue
			}
			qty, amt := rep.ExecutedQuantity, rep.QuoteAmount
			if qty <= 0 {
				qty = o.Quantity
			}
			if amt <= 0 {
				amt = o.Price * qty
			}
			if updated, ok := r.ledger.MarkFilled(rep.ID, qty, amt, false); ok {
				newly = append(newly, updated)
				seen[rep.ID] = struct{}{}
			}
		}
	}

	// Phase B：挂单差集推断；挂单拉取失败则本轮放弃推断（不能凭空判成交）
	open, err := r.gw.OpenOrders(ctx, r.symbol)
	if err != nil {
		logger.Debugf("挂单拉取失败，本轮跳过差集推断: %v", err)
		return newly
	}
	openSet := make(map[int64]struct{}, len(open))
	for _, rep := range open {
		openSet[rep.ID] = struct{}{}
	}
	for _, id := range r.ledger.CreatedIDs() {
		if _, pending := openSet[id]; pending {
			continue
		}
		if _, done := seen[id]; done {
			continue
		}
		if r.stats.Processed(id) {
			continue
		}
		o, ok := r.ledger.Get(id)
		if !ok || o.Status != StatusNew {
			continue
		}
		// 差集推断拿不到真实成交量，按全额成交近似
		if updated, ok := r.ledger.MarkFilled(id, o.Quantity, o.Price*o.Quantity, true); ok {
			newly = append(newly, updated)
		}
	}
	r.ledger.UpdatePendingIDs(openSet)
	return newly
}
