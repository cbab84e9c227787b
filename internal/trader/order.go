package trader

import (
	"fmt"
	"strconv"
	"strings"
)

// 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus 本地订单状态。只有对账（置为 Filled）和显式撤单（置为
// Cancelled）两条路径会改它。
type OrderStatus int

const (
	StatusNew OrderStatus = iota
	StatusFilled
	StatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Order 本周期内由账本独占持有的订单记录。
type Order struct {
	ID             int64
	Symbol         string
	Side           Side
	Price          float64
	Quantity       float64
	FilledQuantity float64
	FilledAmount   float64
	Status         OrderStatus
	Inferred       bool // 成交来自挂单差集推断（按全额近似），而非订单历史
	Signature      string
}

// NewSignature 订单去重签名：同一 (symbol, price, quantity) 在一个周期内
// 视为经济上等价的订单，不重复提交。
func NewSignature(symbol string, price, quantity float64) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + "|" +
		strconv.FormatFloat(price, 'f', -1, 64) + "|" +
		strconv.FormatFloat(quantity, 'f', -1, 64)
}
