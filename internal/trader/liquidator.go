package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/cryptocj520/mading2/internal/logger"
	"github.com/cryptocj520/mading2/internal/pricing"
)

// LiquidateResult 清仓结果汇总。
type LiquidateResult struct {
	PrimaryOrderID int64
	RetryOrderID   int64
	SoldQuantity   float64
	SoldAmount     float64
	Remainder      float64 // 两次挂卖后仍未卖出的残留（估算）
}

// Liquidator 持仓清算：先按小幅折让挂卖；只部分成交时等盘口消化后
// 复查持仓，用更低的保底价对剩余部分再挂一次。最多重试一次，
// 之后的残留通过日志/通知上报，绝不静默丢弃。
type Liquidator struct {
	gw       ExchangeGateway
	notifier TextNotifier // 可为 nil

	settleDelay         time.Duration
	optimalDiscountPct  float64
	fallbackDiscountPct float64
}

func NewLiquidator(gw ExchangeGateway, notifier TextNotifier, settleDelay time.Duration, optimalDiscountPct, fallbackDiscountPct float64) *Liquidator {
	if settleDelay <= 0 {
		settleDelay = 3 * time.Second
	}
	return &Liquidator{
		gw:                  gw,
		notifier:            notifier,
		settleDelay:         settleDelay,
		optimalDiscountPct:  optimalDiscountPct,
		fallbackDiscountPct: fallbackDiscountPct,
	}
}

// Liquidate 卖出累计持仓。无可卖持仓时返回 (nil, nil)——“没东西可卖”
// 是正常终态，不是错误。
func (l *Liquidator) Liquidate(ctx context.Context, coin, symbol string) (*LiquidateResult, error) {
	pos, err := l.gw.Position(ctx, coin)
	if err != nil {
		return nil, fmt.Errorf("读取持仓失败: %w", err)
	}
	if pos.Available <= 0 {
		logger.Infof("无可卖持仓（%s），跳过清仓", coin)
		return nil, nil
	}

	market, err := l.gw.LastPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("清仓取价失败: %w", err)
	}

	rule, err := l.gw.SymbolRule(ctx, symbol)
	if err != nil {
		logger.Debugf("取交易规则失败，跳过精度量化: %v", err)
	}

	price := pricing.AdjustToStep(pricing.OptimalSellPrice(market, l.optimalDiscountPct), rule.TickSize)
	qty := pricing.AdjustToStep(pos.Available, rule.LotStep)
	if qty <= 0 || price <= 0 {
		logger.Infof("持仓 %.8f 低于数量步长，无法挂卖", pos.Available)
		return nil, nil
	}

	ack, err := l.gw.CreateLimitSell(ctx, symbol, price, qty)
	if err != nil {
		return nil, fmt.Errorf("首次挂卖失败: %w", err)
	}
	logger.Infof("✓ 清仓挂卖 id=%d price=%.8f qty=%.8f status=%s", ack.ID, price, qty, ack.Status)
	res := &LiquidateResult{
		PrimaryOrderID: ack.ID,
		SoldQuantity:   ack.ExecutedQuantity,
		SoldAmount:     ack.QuoteAmount,
	}
	if ack.FullyFilled() {
		res.SoldQuantity = qty
		return res, nil
	}

	// 等盘口消化后复查剩余持仓
	select {
	case <-ctx.Done():
		return res, ctx.Err()
	case <-time.After(l.settleDelay):
	}

	pos2, err := l.gw.Position(ctx, coin)
	if err != nil {
		l.reportRemainder(symbol, -1, fmt.Sprintf("复查持仓失败: %v", err))
		return res, nil
	}
	remainder := pricing.AdjustToStep(pos2.Available, rule.LotStep)
	if remainder <= 0 {
		return res, nil
	}

	// 二次挂卖：更低的保底价，只试一次
	market2, err := l.gw.LastPrice(ctx, symbol)
	if err != nil || market2 <= 0 {
		market2 = market
	}
	fbPrice := pricing.AdjustToStep(pricing.FallbackSellPrice(market2, l.fallbackDiscountPct), rule.TickSize)
	ack2, err := l.gw.CreateLimitSell(ctx, symbol, fbPrice, remainder)
	if err != nil {
		l.reportRemainder(symbol, remainder, fmt.Sprintf("二次挂卖失败: %v", err))
		res.Remainder = remainder
		return res, nil
	}
	logger.Infof("✓ 残余清仓挂卖 id=%d price=%.8f qty=%.8f status=%s", ack2.ID, fbPrice, remainder, ack2.Status)
	res.RetryOrderID = ack2.ID
	res.SoldQuantity += ack2.ExecutedQuantity
	res.SoldAmount += ack2.QuoteAmount
	if !ack2.FullyFilled() {
		left := remainder - ack2.ExecutedQuantity
		if left > 0 {
			res.Remainder = left
			l.reportRemainder(symbol, left, "二次挂卖仍未全部成交")
		}
	}
	return res, nil
}

// reportRemainder 残留必须上报：日志一定打，通知尽力而为。
func (l *Liquidator) reportRemainder(symbol string, qty float64, reason string) {
	if qty >= 0 {
		logger.Warnf("⚠️ 清仓残留 %s qty=%.8f（%s），需人工处理", symbol, qty, reason)
	} else {
		logger.Warnf("⚠️ 清仓残留数量未知 %s（%s），需人工处理", symbol, reason)
	}
	if l.notifier != nil {
		_ = l.notifier.SendText(fmt.Sprintf("清仓残留 ⚠️\n标的: %s\n数量: %.8f\n原因: %s", symbol, qty, reason))
	}
}
