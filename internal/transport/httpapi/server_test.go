package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cryptocj520/mading2/internal/gateway/database"
	"github.com/cryptocj520/mading2/internal/trader"
)

type fakeStatus struct{ snap trader.StatusSnapshot }

func (f *fakeStatus) StatusSnapshot() trader.StatusSnapshot { return f.snap }

type fakeCycles struct {
	recs []database.CycleRecord
	err  error
}

func (f *fakeCycles) RecentCycles(_ context.Context, limit int) ([]database.CycleRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recs) {
		return f.recs[:limit], nil
	}
	return f.recs, nil
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.router().ServeHTTP(w, req)
	return w
}

func TestStatusEndpoint(t *testing.T) {
	st := &fakeStatus{snap: trader.StatusSnapshot{Symbol: "BTCUSDT", Phase: "running", OrdersPlaced: 5}}
	s := NewServer("127.0.0.1:0", st, nil)

	w := serve(t, s, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("状态码 %d", w.Code)
	}
	var got trader.StatusSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Symbol != "BTCUSDT" || got.Phase != "running" || got.OrdersPlaced != 5 {
		t.Fatalf("响应不符: %+v", got)
	}
}

func TestStatsEndpoint(t *testing.T) {
	st := &fakeStatus{snap: trader.StatusSnapshot{Symbol: "BTCUSDT", OrdersFilled: 2, FilledAmount: 199.8}}
	s := NewServer("127.0.0.1:0", st, nil)

	w := serve(t, s, "/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("状态码 %d", w.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["symbol"] != "BTCUSDT" || got["orders_filled"].(float64) != 2 {
		t.Fatalf("响应不符: %v", got)
	}
}

func TestCyclesEndpoint(t *testing.T) {
	now := time.Now()
	fc := &fakeCycles{recs: []database.CycleRecord{
		{CycleID: "c-2", Symbol: "BTCUSDT", StartTime: now},
		{CycleID: "c-1", Symbol: "BTCUSDT", StartTime: now.Add(-time.Hour)},
	}}
	s := NewServer("127.0.0.1:0", &fakeStatus{}, fc)

	w := serve(t, s, "/cycles?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("状态码 %d", w.Code)
	}
	var got struct {
		Cycles []database.CycleRecord `json:"cycles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Cycles) != 1 || got.Cycles[0].CycleID != "c-2" {
		t.Fatalf("响应不符: %+v", got.Cycles)
	}
}

func TestCyclesEndpointWithoutStore(t *testing.T) {
	s := NewServer("127.0.0.1:0", &fakeStatus{}, nil)
	w := serve(t, s, "/cycles")
	if w.Code != http.StatusOK {
		t.Fatalf("未配置落盘时应返回空列表，状态码 %d", w.Code)
	}
}

func TestCyclesEndpointError(t *testing.T) {
	s := NewServer("127.0.0.1:0", &fakeStatus{}, &fakeCycles{err: errors.New("db closed")})
	w := serve(t, s, "/cycles")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("查询失败应返回 500，实际 %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil, nil)
	if w := serve(t, s, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("状态码 %d", w.Code)
	}
}
