package trader

import "testing"

func newBuy(id int64, price, qty float64) Order {
	return Order{
		ID:        id,
		Symbol:    "BTCUSDT",
		Side:      SideBuy,
		Price:     price,
		Quantity:  qty,
		Status:    StatusNew,
		Signature: NewSignature("BTCUSDT", price, qty),
	}
}

func TestLedgerDuplicateSignatureDropped(t *testing.T) {
	l := NewLedger()
	if !l.Add(newBuy(1, 100, 0.5)) {
		t.Fatal("首单应入账")
	}
	// 同价同量、不同订单号：签名重复，静默丢弃
	if l.Add(newBuy(2, 100, 0.5)) {
		t.Fatal("重复签名不应入账")
	}
	if l.Size() != 1 {
		t.Fatalf("账本应只有 1 单，实际 %d", l.Size())
	}
	// 价格不同则签名不同
	if !l.Add(newBuy(3, 99, 0.5)) {
		t.Fatal("不同价位应入账")
	}
	if !l.HasSignature(NewSignature("BTCUSDT", 99, 0.5)) {
		t.Fatal("签名索引丢失")
	}
}

func TestLedgerMarkFilled(t *testing.T) {
	l := NewLedger()
	l.Add(newBuy(1, 100, 0.5))

	got, ok := l.MarkFilled(1, 0.5, 50, false)
	if !ok {
		t.Fatal("应标记成功")
	}
	if got.Status != StatusFilled || got.FilledQuantity != 0.5 || got.FilledAmount != 50 {
		t.Fatalf("成交字段不符: %+v", got)
	}
	if got.Inferred {
		t.Fatal("历史来源不应标记为推断")
	}
	// 不存在的订单
	if _, ok := l.MarkFilled(99, 1, 1, false); ok {
		t.Fatal("未入账订单不应标记成功")
	}
}

func TestLedgerCancelledNotFillable(t *testing.T) {
	l := NewLedger()
	l.Add(newBuy(1, 100, 0.5))
	l.Add(newBuy(2, 99, 0.6))
	if n := l.MarkCancelledAll(); n != 2 {
		t.Fatalf("应撤销 2 单，实际 %d", n)
	}
	// 撤销后的订单不允许再判成交（撤单与差集推断的竞态防护）
	if _, ok := l.MarkFilled(1, 0.5, 50, true); ok {
		t.Fatal("已撤销订单不应再标记成交")
	}
}

func TestLedgerPendingIDs(t *testing.T) {
	l := NewLedger()
	l.Add(newBuy(1, 100, 0.5))
	l.Add(newBuy(2, 99, 0.6))
	l.UpdatePendingIDs(map[int64]struct{}{2: {}})
	pending := l.PendingIDs()
	if _, ok := pending[1]; ok {
		t.Fatal("订单 1 不应在挂单集合")
	}
	if _, ok := pending[2]; !ok {
		t.Fatal("订单 2 应在挂单集合")
	}
}

func TestLedgerReset(t *testing.T) {
	l := NewLedger()
	l.Add(newBuy(1, 100, 0.5))
	l.Reset()
	if l.Size() != 0 {
		t.Fatal("重置后账本应为空")
	}
	if l.HasSignature(NewSignature("BTCUSDT", 100, 0.5)) {
		t.Fatal("重置后签名索引应清空")
	}
}
