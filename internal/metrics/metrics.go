// Package metrics —— 交易循环的 Prometheus 指标。
//
//   - mading_orders_total{side}       挂单次数（buy|sell）
//   - mading_fills_total{source}      对账确认的成交（history|inferred）
//   - mading_ticks_total{source}      价格解析次数（按来源）
//   - mading_cycles_total{reason}     周期结束次数（take_profit|no_fill_restart|stop）
//   - mading_current_price            最新解析价格
//   - mading_average_price            本周期已成交均价
//   - mading_take_profit_progress     距止盈目标的进度（0-100）
//
// 由 gin 状态服务在 /metrics 以 Prometheus 文本格式暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mading_orders_total",
			Help: "Orders placed",
		},
		[]string{"side"},
	)

	Fills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mading_fills_total",
			Help: "Fills confirmed by reconciliation",
		},
		[]string{"source"}, // history | inferred
	)

	Ticks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mading_ticks_total",
			Help: "Price resolutions by source",
		},
		[]string{"source"},
	)

	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mading_cycles_total",
			Help: "Finished trading cycles by end reason",
		},
		[]string{"reason"},
	)

	CurrentPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mading_current_price",
			Help: "Last resolved price",
		},
	)

	AveragePrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mading_average_price",
			Help: "Average fill price of the running cycle",
		},
	)

	TakeProfitProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mading_take_profit_progress",
			Help: "Progress toward the take-profit target (0-100)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Orders, Fills, Ticks, Cycles,
		CurrentPrice, AveragePrice, TakeProfitProgress,
	)
}
