package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cryptocj520/mading2/internal/gateway/database"
	"github.com/cryptocj520/mading2/internal/logger"
	"github.com/cryptocj520/mading2/internal/trader"
)

// StatusProvider 状态快照来源（周期编排器实现）。
type StatusProvider interface {
	StatusSnapshot() trader.StatusSnapshot
}

// CycleReader 历史周期查询；可为 nil（未配置落盘时）。
type CycleReader interface {
	RecentCycles(ctx context.Context, limit int) ([]database.CycleRecord, error)
}

// Server 只读状态接口：周期状态、历史周期与 Prometheus 指标。
type Server struct {
	addr   string
	status StatusProvider
	cycles CycleReader
}

func NewServer(addr string, status StatusProvider, cycles CycleReader) *Server {
	return &Server{addr: addr, status: status, cycles: cycles}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/status", s.handleStatus)
	r.GET("/stats", s.handleStats)
	r.GET("/cycles", s.handleCycles)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Start 启动 HTTP 服务并阻塞到 ctx 取消；addr 为空则直接返回。
func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.addr == "" {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Infof("状态接口已启动: http://%s/status", s.addr)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	if s.status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "状态来源未就绪"})
		return
	}
	c.JSON(http.StatusOK, s.status.StatusSnapshot())
}

// handleStats 只回吐成交汇总子集，便于脚本采集。
func (s *Server) handleStats(c *gin.Context) {
	if s.status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "状态来源未就绪"})
		return
	}
	snap := s.status.StatusSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"symbol":          snap.Symbol,
		"orders_placed":   snap.OrdersPlaced,
		"orders_filled":   snap.OrdersFilled,
		"filled_quantity": snap.FilledQuantity,
		"filled_amount":   snap.FilledAmount,
		"average_price":   snap.AveragePrice,
		"has_average":     snap.HasAverage,
		"progress_pct":    snap.ProgressPct,
		"unrealized_pnl":  snap.UnrealizedPnL,
	})
}

func (s *Server) handleCycles(c *gin.Context) {
	if s.cycles == nil {
		c.JSON(http.StatusOK, gin.H{"cycles": []database.CycleRecord{}})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	recs, err := s.cycles.RecentCycles(c.Request.Context(), limit)
	if err != nil {
		logger.Warnf("历史周期查询失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycles": recs})
}
