package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// 中文说明：
// 交易所网关：把 go-binance 的请求/响应收敛成核心需要的最小面。
// 所有调用都可能失败，调用方按“本步未发生”处理，这里不做重试。

type Config struct {
	APIKey    string
	SecretKey string
	Testnet   bool
}

// OrderAck 下单回执。
type OrderAck struct {
	ID               int64
	Status           string
	ExecutedQuantity float64
	QuoteAmount      float64
}

// FullyFilled 回执是否已全部成交。
func (a *OrderAck) FullyFilled() bool {
	return a != nil && a.Status == string(gobinance.OrderStatusTypeFilled)
}

// OrderReport 交易所侧的订单视图（历史/当前挂单共用）。
type OrderReport struct {
	ID               int64
	Symbol           string
	Side             string
	Price            float64
	Quantity         float64
	ExecutedQuantity float64
	QuoteAmount      float64
	Filled           bool
	Canceled         bool
}

// PositionInfo 现货仓位：可用 + 总量（含冻结）。
type PositionInfo struct {
	Available float64
	Total     float64
}

// SymbolRule 下单精度约束。
type SymbolRule struct {
	LotStep  float64
	TickSize float64
}

type Client struct {
	api *gobinance.Client
}

func NewClient(cfg Config) *Client {
	gobinance.UseTestnet = cfg.Testnet
	return &Client{api: gobinance.NewClient(cfg.APIKey, cfg.SecretKey)}
}

// LastPrice 拉取最新成交价。
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.api.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("获取 ticker 失败: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("ticker 返回为空: %s", symbol)
	}
	v := parseFloat(prices[0].Price)
	if v <= 0 {
		return 0, fmt.Errorf("ticker 价格非法: %q", prices[0].Price)
	}
	return v, nil
}

// CreateLimitBuy 限价买入（GTC）。
func (c *Client) CreateLimitBuy(ctx context.Context, symbol string, price, quantity float64) (*OrderAck, error) {
	return c.createLimit(ctx, symbol, gobinance.SideTypeBuy, price, quantity)
}

// CreateLimitSell 限价卖出（GTC）。
func (c *Client) CreateLimitSell(ctx context.Context, symbol string, price, quantity float64) (*OrderAck, error) {
	return c.createLimit(ctx, symbol, gobinance.SideTypeSell, price, quantity)
}

func (c *Client) createLimit(ctx context.Context, symbol string, side gobinance.SideType, price, quantity float64) (*OrderAck, error) {
	if price <= 0 || quantity <= 0 {
		return nil, fmt.Errorf("下单参数非法: price=%v quantity=%v", price, quantity)
	}
	res, err := c.api.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(gobinance.OrderTypeLimit).
		TimeInForce(gobinance.TimeInForceTypeGTC).
		Price(formatDecimal(price)).
		Quantity(formatDecimal(quantity)).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("下单失败 %s %s: %w", symbol, side, err)
	}
	return &OrderAck{
		ID:               res.OrderID,
		Status:           string(res.Status),
		ExecutedQuantity: parseFloat(res.ExecutedQuantity),
		QuoteAmount:      parseFloat(res.CummulativeQuoteQuantity),
	}, nil
}

// CancelAllOrders 撤销该交易对全部挂单；无挂单时交易所会报错，调用方按非致命处理。
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	if _, err := c.api.NewCancelOpenOrdersService().Symbol(symbol).Do(ctx); err != nil {
		return fmt.Errorf("撤单失败 %s: %w", symbol, err)
	}
	return nil
}

// OpenOrders 当前挂单列表。
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]OrderReport, error) {
	orders, err := c.api.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取挂单失败: %w", err)
	}
	out := make([]OrderReport, 0, len(orders))
	for _, o := range orders {
		out = append(out, convertOrder(o))
	}
	return out, nil
}

// OrderHistory 订单历史（交易所权威成交信息来源）。
func (c *Client) OrderHistory(ctx context.Context, symbol string) ([]OrderReport, error) {
	orders, err := c.api.NewListOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取订单历史失败: %w", err)
	}
	out := make([]OrderReport, 0, len(orders))
	for _, o := range orders {
		out = append(out, convertOrder(o))
	}
	return out, nil
}

// Position 从账户余额读取该币的持仓。
func (c *Client) Position(ctx context.Context, coin string) (PositionInfo, error) {
	acct, err := c.api.NewGetAccountService().Do(ctx)
	if err != nil {
		return PositionInfo{}, fmt.Errorf("获取账户失败: %w", err)
	}
	coin = strings.ToUpper(strings.TrimSpace(coin))
	for _, b := range acct.Balances {
		if strings.ToUpper(b.Asset) != coin {
			continue
		}
		free := parseFloat(b.Free)
		locked := parseFloat(b.Locked)
		return PositionInfo{Available: free, Total: free + locked}, nil
	}
	return PositionInfo{}, nil
}

// SymbolRule 查询数量步长与价格最小变动。
func (c *Client) SymbolRule(ctx context.Context, symbol string) (SymbolRule, error) {
	info, err := c.api.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return SymbolRule{}, fmt.Errorf("获取交易规则失败: %w", err)
	}
	for _, s := range info.Symbols {
		if !strings.EqualFold(s.Symbol, symbol) {
			continue
		}
		rule := SymbolRule{}
		if f := s.LotSizeFilter(); f != nil {
			rule.LotStep = parseFloat(f.StepSize)
		}
		if f := s.PriceFilter(); f != nil {
			rule.TickSize = parseFloat(f.TickSize)
		}
		return rule, nil
	}
	return SymbolRule{}, fmt.Errorf("交易规则未包含 %s", symbol)
}

func convertOrder(o *gobinance.Order) OrderReport {
	return OrderReport{
		ID:               o.OrderID,
		Symbol:           o.Symbol,
		Side:             string(o.Side),
		Price:            parseFloat(o.Price),
		Quantity:         parseFloat(o.OrigQuantity),
		ExecutedQuantity: parseFloat(o.ExecutedQuantity),
		QuoteAmount:      parseFloat(o.CummulativeQuoteQuantity),
		Filled:           o.Status == gobinance.OrderStatusTypeFilled,
		Canceled:         o.Status == gobinance.OrderStatusTypeCanceled,
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

// formatDecimal 序列化为交易所接受的数字串（去掉多余的 0）。
func formatDecimal(v float64) string {
	return decimal.NewFromFloat(v).String()
}
