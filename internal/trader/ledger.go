package trader

import (
	"sync"
)

// Ledger 本周期订单账本：按 ID 存订单、按签名去重、记录挂单中的 ID 集。
// 签名检查与下单之间隔着一次外部请求，去重责任在调用方
// （先 HasSignature 再下单）；Add 遇到重复签名静默丢弃。
type Ledger struct {
	mu         sync.RWMutex
	orders     map[int64]*Order
	signatures map[string]int64
	pending    map[int64]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		orders:     make(map[int64]*Order),
		signatures: make(map[string]int64),
		pending:    make(map[int64]struct{}),
	}
}

// Add 记录一笔新订单；重复签名时不写入（返回 false 仅供测试断言）。
func (l *Ledger) Add(o Order) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o.Signature == "" {
		o.Signature = NewSignature(o.Symbol, o.Price, o.Quantity)
	}
	if _, dup := l.signatures[o.Signature]; dup {
		return false
	}
	cp := o
	l.orders[o.ID] = &cp
	l.signatures[o.Signature] = o.ID
	l.pending[o.ID] = struct{}{}
	return true
}

// Get 按 ID 取订单快照。
func (l *Ledger) Get(id int64) (Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	o, ok := l.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

func (l *Ledger) HasSignature(sig string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.signatures[sig]
	return ok
}

// CreatedIDs 本周期创建的全部订单 ID。
func (l *Ledger) CreatedIDs() []int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]int64, 0, len(l.orders))
	for id := range l.orders {
		out = append(out, id)
	}
	return out
}

// Orders 全量快照（状态渲染用）。
func (l *Ledger) Orders() []Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, *o)
	}
	return out
}

// UpdatePendingIDs 用最新观察到的挂单 ID 集覆盖本地记录。
func (l *Ledger) UpdatePendingIDs(ids map[int64]struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = make(map[int64]struct{}, len(ids))
	for id := range ids {
		l.pending[id] = struct{}{}
	}
}

// PendingIDs 最近一次观察到的挂单 ID 集（拷贝）。
func (l *Ledger) PendingIDs() map[int64]struct{} {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int64]struct{}, len(l.pending))
	for id := range l.pending {
		out[id] = struct{}{}
	}
	return out
}

// MarkFilled 对账写回：记录成交数量/金额并置为 Filled，返回更新后的快照。
// 已撤销的订单不再改动。
func (l *Ledger) MarkFilled(id int64, quantity, amount float64, inferred bool) (Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok || o.Status == StatusCancelled {
		return Order{}, false
	}
	o.FilledQuantity = quantity
	o.FilledAmount = amount
	o.Status = StatusFilled
	o.Inferred = inferred
	delete(l.pending, id)
	return *o, true
}

// MarkCancelledAll 把所有未成交订单置为 Cancelled（显式撤单后调用），
// 避免后续对账把撤掉的单误推断成成交。
func (l *Ledger) MarkCancelledAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, o := range l.orders {
		if o.Status == StatusNew {
			o.Status = StatusCancelled
			n++
		}
	}
	l.pending = make(map[int64]struct{})
	return n
}

func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}

// Reset 清空账本；仅在周期边界调用。
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = make(map[int64]*Order)
	l.signatures = make(map[string]int64)
	l.pending = make(map[int64]struct{})
}
