package trader

import (
	"context"
	"time"

	bngw "github.com/cryptocj520/mading2/internal/gateway/binance"
	"github.com/cryptocj520/mading2/internal/gateway/database"
	"github.com/cryptocj520/mading2/internal/market"
)

// ExchangeGateway 交易核心消费的交易所能力面；所有调用都可能失败，
// 失败按“本步未发生”处理。
type ExchangeGateway interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
	CreateLimitBuy(ctx context.Context, symbol string, price, quantity float64) (*bngw.OrderAck, error)
	CreateLimitSell(ctx context.Context, symbol string, price, quantity float64) (*bngw.OrderAck, error)
	CancelAllOrders(ctx context.Context, symbol string) error
	OpenOrders(ctx context.Context, symbol string) ([]bngw.OrderReport, error)
	OrderHistory(ctx context.Context, symbol string) ([]bngw.OrderReport, error)
	Position(ctx context.Context, coin string) (bngw.PositionInfo, error)
	SymbolRule(ctx context.Context, symbol string) (bngw.SymbolRule, error)
}

// PriceFeed 推送行情的最小面（market.Feed 实现）。
type PriceFeed interface {
	StartMonitoring(ctx context.Context) error
	StopMonitoring()
	IsMonitoring() bool
	Snapshot() (price float64, updated time.Time, ok bool)
	Stats() market.FeedStats
	OnTick(fn func(market.Tick))
}

// TextNotifier 最小化的文本推送接口（Telegram 等）。
type TextNotifier interface {
	SendText(text string) error
}

// CycleRecorder 周期/成交流水落盘；写失败只记日志。
type CycleRecorder interface {
	InsertCycle(ctx context.Context, rec database.CycleRecord) error
	FinishCycle(ctx context.Context, rec database.CycleRecord) error
	AppendFill(ctx context.Context, rec database.FillRecord) error
}
