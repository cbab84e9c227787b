package trader

import (
	"sync"
	"time"
)

// StatsSnapshot 汇总视图；AveragePrice 是派生值，filledOrders=0 时无定义。
type StatsSnapshot struct {
	TotalOrders    int
	FilledOrders   int
	FilledQuantity float64
	FilledAmount   float64
	AveragePrice   float64
	HasAverage     bool
	LastUpdate     time.Time
}

// Stats 本周期成交汇总。按订单 ID 幂等：同一订单重复喂入不会二次累加。
// 均价永远现算（totalFilledAmount / totalFilledQuantity），不单独存储，避免漂移。
type Stats struct {
	mu           sync.RWMutex
	totalOrders  int
	filledOrders int
	filledQty    float64
	filledAmt    float64
	processed    map[int64]struct{}
	lastUpdate   time.Time
}

func NewStats() *Stats {
	return &Stats{processed: make(map[int64]struct{})}
}

// RecordPlaced 记录本周期挂出的订单数。
func (s *Stats) RecordPlaced(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.totalOrders += n
	s.lastUpdate = time.Now()
	s.mu.Unlock()
}

// Update 喂入一笔已成交订单；返回 true 表示本次调用改变了汇总状态。
func (s *Stats) Update(o Order) bool {
	if o.Status != StatusFilled {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.processed[o.ID]; done {
		return false
	}
	s.processed[o.ID] = struct{}{}
	s.filledOrders++
	s.filledQty += o.FilledQuantity
	s.filledAmt += o.FilledAmount
	s.lastUpdate = time.Now()
	return true
}

// Processed 该订单 ID 是否已计入汇总。
func (s *Stats) Processed(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processed[id]
	return ok
}

// AveragePrice 已成交均价；尚无成交时 ok=false。
func (s *Stats) AveragePrice() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.averageLocked()
}

func (s *Stats) averageLocked() (float64, bool) {
	if s.filledOrders == 0 || s.filledQty <= 0 {
		return 0, false
	}
	return s.filledAmt / s.filledQty, true
}

func (s *Stats) FilledOrders() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filledOrders
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	avg, ok := s.averageLocked()
	return StatsSnapshot{
		TotalOrders:    s.totalOrders,
		FilledOrders:   s.filledOrders,
		FilledQuantity: s.filledQty,
		FilledAmount:   s.filledAmt,
		AveragePrice:   avg,
		HasAverage:     ok,
		LastUpdate:     s.lastUpdate,
	}
}

// Reset 清空汇总与已处理集合；仅在周期边界调用。
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalOrders = 0
	s.filledOrders = 0
	s.filledQty = 0
	s.filledAmt = 0
	s.processed = make(map[int64]struct{})
	s.lastUpdate = time.Time{}
}
