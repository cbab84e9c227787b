package trader

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cryptocj520/mading2/internal/logger"
	"github.com/cryptocj520/mading2/internal/pkg/format"
)

// OrderBrief 状态视图里的单档订单（按价格从高到低）。
type OrderBrief struct {
	ID       int64   `json:"id"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Status   string  `json:"status"`
}

// StatusSnapshot 对外状态快照：日志渲染与 HTTP 接口共用。
type StatusSnapshot struct {
	Symbol         string  `json:"symbol"`
	Phase          string  `json:"phase"`
	CycleID        string  `json:"cycle_id"`
	CycleElapsed   string  `json:"cycle_elapsed"`
	ScriptElapsed  string  `json:"script_elapsed"`
	FeedConnected  bool    `json:"feed_connected"`
	FeedReconnects int     `json:"feed_reconnects"`
	Price          float64 `json:"price"`
	PriceSource    string  `json:"price_source"`
	PriceAge       string  `json:"price_age"`
	AveragePrice   float64 `json:"average_price"`
	HasAverage     bool    `json:"has_average"`
	IncreasePct    float64 `json:"increase_pct"`
	ProgressPct    float64 `json:"progress_pct"`
	OrdersPlaced   int     `json:"orders_placed"`
	OrdersFilled   int     `json:"orders_filled"`
	FilledQuantity float64 `json:"filled_quantity"`
	FilledAmount   float64 `json:"filled_amount"`
	UnrealizedPnL  float64 `json:"unrealized_pnl"`

	Orders []OrderBrief `json:"orders,omitempty"`
}

// statusRenderer 节流渲染：无论价格 tick 多密，状态块最多每 every 打一次。
type statusRenderer struct {
	every time.Duration
	mu    sync.Mutex
	last  time.Time
}

func newStatusRenderer(every time.Duration) *statusRenderer {
	if every <= 0 {
		every = 15 * time.Second
	}
	return &statusRenderer{every: every}
}

func (r *statusRenderer) maybeRender(s StatusSnapshot) {
	now := time.Now()
	r.mu.Lock()
	if now.Sub(r.last) < r.every {
		r.mu.Unlock()
		return
	}
	r.last = now
	r.mu.Unlock()
	logger.Infof("\n%s", renderStatus(s))
}

func renderStatus(s StatusSnapshot) string {
	var b strings.Builder
	b.WriteString("---- 周期状态 ----\n")
	fmt.Fprintf(&b, "交易对   : %s (%s)\n", s.Symbol, s.Phase)
	fmt.Fprintf(&b, "运行时长 : 本周期 %s / 总计 %s\n", s.CycleElapsed, s.ScriptElapsed)
	conn := "断开"
	if s.FeedConnected {
		conn = "已连接"
	}
	fmt.Fprintf(&b, "行情推送 : %s (重连 %d 次)\n", conn, s.FeedReconnects)
	if s.Price > 0 {
		fmt.Fprintf(&b, "现价     : %s [%s] 数据龄 %s\n", format.Float(s.Price, 8), s.PriceSource, s.PriceAge)
	} else {
		b.WriteString("现价     : 暂无数据\n")
	}
	if s.HasAverage {
		fmt.Fprintf(&b, "持仓均价 : %s (偏离 %s, 止盈进度 %.1f%%)\n",
			format.Float(s.AveragePrice, 8), format.Percent(s.IncreasePct), s.ProgressPct)
		fmt.Fprintf(&b, "浮动盈亏 : %s USDT\n", format.Float(s.UnrealizedPnL, 4))
	} else {
		b.WriteString("持仓均价 : 尚无成交\n")
	}
	fmt.Fprintf(&b, "订单     : 挂出 %d / 成交 %d (量 %s, 额 %s)\n",
		s.OrdersPlaced, s.OrdersFilled, format.Float(s.FilledQuantity, 8), format.Float(s.FilledAmount, 4))
	for i, ord := range s.Orders {
		mark := " "
		if ord.Status == "filled" {
			mark = "✓"
		}
		fmt.Fprintf(&b, "  档%d %s @%s × %s [%s]\n",
			i+1, mark, format.Float(ord.Price, 8), format.Float(ord.Quantity, 8), ord.Status)
	}
	b.WriteString("------------------")
	return b.String()
}
