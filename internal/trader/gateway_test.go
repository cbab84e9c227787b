package trader

import (
	"context"
	"sync"
	"time"

	bngw "github.com/cryptocj520/mading2/internal/gateway/binance"
	"github.com/cryptocj520/mading2/internal/market"
)

// fakeGateway 可编程的交易所假实现，测试用。
type fakeGateway struct {
	mu sync.Mutex

	price    float64
	priceErr error

	nextID    int64
	buyAcks   []*bngw.OrderAck  // 为空则按默认 NEW 回执
	sellAcks  []*bngw.OrderAck  // 依次弹出
	positions []bngw.PositionInfo

	open       []bngw.OrderReport
	openErr    error
	history    []bngw.OrderReport
	historyErr error

	rule bngw.SymbolRule

	buys       []placedOrder
	sells      []placedOrder
	cancelAlls int
}

type placedOrder struct {
	Symbol   string
	Price    float64
	Quantity float64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{price: 100, nextID: 1000}
}

func (f *fakeGateway) LastPrice(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price, f.priceErr
}

func (f *fakeGateway) CreateLimitBuy(_ context.Context, symbol string, price, qty float64) (*bngw.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buys = append(f.buys, placedOrder{symbol, price, qty})
	if len(f.buyAcks) > 0 {
		ack := f.buyAcks[0]
		f.buyAcks = f.buyAcks[1:]
		return ack, nil
	}
	f.nextID++
	return &bngw.OrderAck{ID: f.nextID, Status: "NEW"}, nil
}

func (f *fakeGateway) CreateLimitSell(_ context.Context, symbol string, price, qty float64) (*bngw.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sells = append(f.sells, placedOrder{symbol, price, qty})
	if len(f.sellAcks) > 0 {
		ack := f.sellAcks[0]
		f.sellAcks = f.sellAcks[1:]
		return ack, nil
	}
	f.nextID++
	return &bngw.OrderAck{ID: f.nextID, Status: "NEW"}, nil
}

func (f *fakeGateway) CancelAllOrders(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelAlls++
	return nil
}

func (f *fakeGateway) OpenOrders(_ context.Context, _ string) ([]bngw.OrderReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open, f.openErr
}

func (f *fakeGateway) OrderHistory(_ context.Context, _ string) ([]bngw.OrderReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, f.historyErr
}

func (f *fakeGateway) Position(_ context.Context, _ string) (bngw.PositionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.positions) > 0 {
		pos := f.positions[0]
		if len(f.positions) > 1 {
			f.positions = f.positions[1:]
		}
		return pos, nil
	}
	return bngw.PositionInfo{}, nil
}

func (f *fakeGateway) SymbolRule(_ context.Context, _ string) (bngw.SymbolRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rule, nil
}

func (f *fakeGateway) buyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buys)
}

func (f *fakeGateway) sellOrders() []placedOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]placedOrder, len(f.sells))
	copy(out, f.sells)
	return out
}

func (f *fakeGateway) cancelAllCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelAlls
}

// fakeFeed 不连外网的推送假实现。
type fakeFeed struct {
	mu         sync.Mutex
	monitoring bool
	price      float64
	updated    time.Time
	cb         func(market.Tick)
}

func (f *fakeFeed) StartMonitoring(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monitoring = true
	return nil
}

func (f *fakeFeed) StopMonitoring() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monitoring = false
}

func (f *fakeFeed) IsMonitoring() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monitoring
}

func (f *fakeFeed) Snapshot() (float64, time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.price <= 0 {
		return 0, time.Time{}, false
	}
	return f.price, f.updated, true
}

func (f *fakeFeed) Stats() market.FeedStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return market.FeedStats{Connected: f.monitoring}
}

func (f *fakeFeed) OnTick(fn func(market.Tick)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = fn
}
