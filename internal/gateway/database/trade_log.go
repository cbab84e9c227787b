package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// 中文说明：
// 周期/成交流水落盘（sqlite）。仅用于事后复盘与 HTTP 查询，
// 不参与交易核心的正确性：写入失败只记日志。

// CycleRecord 一个交易周期的快照。
type CycleRecord struct {
	CycleID      string
	Symbol       string
	Budget       float64
	StartTime    time.Time
	EndTime      *time.Time
	EndReason    string // take_profit / no_fill_restart / stop
	OrdersPlaced int
	OrdersFilled int
	FilledQty    float64
	FilledAmount float64
	AveragePrice float64
	SellQty      float64
	SellAmount   float64
}

// FillRecord 一笔订单成交（对账时写入）。
type FillRecord struct {
	CycleID   string
	OrderID   int64
	Symbol    string
	Side      string
	Price     float64
	Quantity  float64
	Amount    float64
	Inferred  bool // true 表示来自挂单差集推断（按全额成交近似）
	Timestamp time.Time
}

type TradeLogStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewTradeLogStore 打开（或创建）sqlite 库并建表。
func NewTradeLogStore(path string) (*TradeLogStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite 路径不能为空")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开 sqlite 失败: %w", err)
	}
	s := &TradeLogStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *TradeLogStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cycles (
			cycle_id      TEXT PRIMARY KEY,
			symbol        TEXT NOT NULL,
			budget        REAL NOT NULL,
			start_ts      INTEGER NOT NULL,
			end_ts        INTEGER,
			end_reason    TEXT,
			orders_placed INTEGER DEFAULT 0,
			orders_filled INTEGER DEFAULT 0,
			filled_qty    REAL DEFAULT 0,
			filled_amount REAL DEFAULT 0,
			average_price REAL DEFAULT 0,
			sell_qty      REAL DEFAULT 0,
			sell_amount   REAL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS fills (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id  TEXT NOT NULL,
			order_id  INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			side      TEXT NOT NULL,
			price     REAL NOT NULL,
			quantity  REAL NOT NULL,
			amount    REAL NOT NULL,
			inferred  INTEGER NOT NULL DEFAULT 0,
			ts        INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_fills_cycle ON fills(cycle_id);
	`)
	if err != nil {
		return fmt.Errorf("初始化 sqlite 表失败: %w", err)
	}
	return nil
}

func (s *TradeLogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// InsertCycle 周期开始时写入一行。
func (s *TradeLogStore) InsertCycle(ctx context.Context, rec CycleRecord) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return fmt.Errorf("trade log store 未初始化")
	}
	if rec.CycleID == "" {
		return fmt.Errorf("cycle_id 必填")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO cycles (cycle_id, symbol, budget, start_ts, orders_placed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cycle_id) DO UPDATE SET
			orders_placed=excluded.orders_placed;
	`, rec.CycleID, strings.ToUpper(rec.Symbol), rec.Budget, rec.StartTime.UnixMilli(), rec.OrdersPlaced)
	return err
}

// FinishCycle 周期结束时补写结束原因与汇总。
func (s *TradeLogStore) FinishCycle(ctx context.Context, rec CycleRecord) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return fmt.Errorf("trade log store 未初始化")
	}
	var endTs any
	if rec.EndTime != nil {
		endTs = rec.EndTime.UnixMilli()
	}
	_, err := db.ExecContext(ctx, `
		UPDATE cycles SET
			end_ts=?, end_reason=?, orders_placed=?, orders_filled=?,
			filled_qty=?, filled_amount=?, average_price=?, sell_qty=?, sell_amount=?
		WHERE cycle_id=?;
	`, endTs, rec.EndReason, rec.OrdersPlaced, rec.OrdersFilled,
		rec.FilledQty, rec.FilledAmount, rec.AveragePrice, rec.SellQty, rec.SellAmount,
		rec.CycleID)
	return err
}

// AppendFill 追加一笔成交流水。
func (s *TradeLogStore) AppendFill(ctx context.Context, rec FillRecord) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return fmt.Errorf("trade log store 未初始化")
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO fills (cycle_id, order_id, symbol, side, price, quantity, amount, inferred, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, rec.CycleID, rec.OrderID, strings.ToUpper(rec.Symbol), rec.Side,
		rec.Price, rec.Quantity, rec.Amount, boolToInt(rec.Inferred), ts.UnixMilli())
	return err
}

// RecentCycles 按开始时间倒序返回最近的周期。
func (s *TradeLogStore) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("trade log store 未初始化")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT cycle_id, symbol, budget, start_ts, end_ts, COALESCE(end_reason,''),
			orders_placed, orders_filled, filled_qty, filled_amount, average_price, sell_qty, sell_amount
		FROM cycles ORDER BY start_ts DESC LIMIT ?;
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var startTs int64
		var endTs sql.NullInt64
		if err := rows.Scan(&rec.CycleID, &rec.Symbol, &rec.Budget, &startTs, &endTs, &rec.EndReason,
			&rec.OrdersPlaced, &rec.OrdersFilled, &rec.FilledQty, &rec.FilledAmount,
			&rec.AveragePrice, &rec.SellQty, &rec.SellAmount); err != nil {
			return nil, err
		}
		rec.StartTime = time.UnixMilli(startTs)
		if endTs.Valid {
			t := time.UnixMilli(endTs.Int64)
			rec.EndTime = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
