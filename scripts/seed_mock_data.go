package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cryptocj520/mading2/internal/gateway/database"
)

// 往 SQLite 流水库灌一批模拟周期/成交数据，便于调试 /cycles 接口。
// 用法: go run scripts/seed_mock_data.go [db_path]
// 默认 db_path: data/trades.db
func main() {
	dbPath := "data/trades.db"
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) != "" {
		dbPath = strings.TrimSpace(os.Args[1])
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		panic(err)
	}

	store, err := database.NewTradeLogStore(dbPath)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	reasons := []string{"take_profit", "take_profit", "no_fill_restart", "stop"}

	for i := 0; i < 12; i++ {
		cycleID := uuid.NewString()
		start := time.Now().Add(-time.Duration(12-i) * 6 * time.Hour)
		base := 100 + rng.Float64()*20
		filled := rng.Intn(4)

		rec := database.CycleRecord{
			CycleID:      cycleID,
			Symbol:       "BTCUSDT",
			Budget:       1000,
			StartTime:    start,
			OrdersPlaced: 5,
		}
		if err := store.InsertCycle(ctx, rec); err != nil {
			panic(err)
		}

		var qty, amt float64
		for j := 0; j < filled; j++ {
			price := base * (1 - 0.01*float64(j+1))
			q := 0.4 + rng.Float64()*0.4
			fill := database.FillRecord{
				CycleID:   cycleID,
				OrderID:   int64(1000*i + j + 1),
				Symbol:    "BTCUSDT",
				Side:      "BUY",
				Price:     price,
				Quantity:  q,
				Amount:    price * q,
				Inferred:  j%3 == 2,
				Timestamp: start.Add(time.Duration(j+1) * 10 * time.Minute),
			}
			if err := store.AppendFill(ctx, fill); err != nil {
				panic(err)
			}
			qty += q
			amt += price * q
		}

		end := start.Add(time.Duration(1+rng.Intn(5)) * time.Hour)
		reason := reasons[rng.Intn(len(reasons))]
		if filled == 0 {
			reason = "no_fill_restart"
		}
		rec.EndTime = &end
		rec.EndReason = reason
		rec.OrdersFilled = filled
		rec.FilledQty = qty
		rec.FilledAmount = amt
		if qty > 0 {
			rec.AveragePrice = amt / qty
			rec.SellQty = qty
			rec.SellAmount = amt * 1.02
		}
		if err := store.FinishCycle(ctx, rec); err != nil {
			panic(err)
		}
	}
	fmt.Printf("已写入 12 个模拟周期到 %s\n", dbPath)
}
