package pricing

// 卖出定价（纯函数）：清仓时先按小幅折让挂出（尽快成交又不砸穿盘口），
// 部分成交后剩余部分用更低的保底价再挂一次。

// OptimalSellPrice 首次卖出价：市价下浮 discountPct%。
func OptimalSellPrice(market, discountPct float64) float64 {
	if market <= 0 {
		return 0
	}
	return market * (1 - discountPct/100)
}

// FallbackSellPrice 二次卖出价：比首次更低的保底折让。
func FallbackSellPrice(market, discountPct float64) float64 {
	if market <= 0 {
		return 0
	}
	return market * (1 - discountPct/100)
}
