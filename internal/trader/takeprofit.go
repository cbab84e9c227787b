package trader

// 止盈判定（无状态纯函数）。

// TakeProfitTriggered 现价相对均价的涨幅是否达到阈值（%）。
// 均价未知（<=0）永不触发。
func TakeProfitTriggered(current, average, thresholdPct float64) bool {
	if average <= 0 || current <= 0 || thresholdPct <= 0 {
		return false
	}
	return (current-average)/average*100 >= thresholdPct
}

// TakeProfitProgress 距止盈目标的进度，限幅在 [0,100]；
// 仅在涨幅为正时有意义。
func TakeProfitProgress(current, average, thresholdPct float64) float64 {
	if average <= 0 || current <= 0 || thresholdPct <= 0 {
		return 0
	}
	inc := (current - average) / average * 100
	if inc <= 0 {
		return 0
	}
	p := inc / thresholdPct * 100
	if p > 100 {
		return 100
	}
	return p
}
