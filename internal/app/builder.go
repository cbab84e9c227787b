package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cryptocj520/mading2/internal/config"
	bngw "github.com/cryptocj520/mading2/internal/gateway/binance"
	"github.com/cryptocj520/mading2/internal/gateway/database"
	"github.com/cryptocj520/mading2/internal/gateway/notifier"
	"github.com/cryptocj520/mading2/internal/logger"
	"github.com/cryptocj520/mading2/internal/market"
	"github.com/cryptocj520/mading2/internal/trader"
	"github.com/cryptocj520/mading2/internal/transport/httpapi"
)

// AppBuilder 把配置装配成可运行的 App。
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// Build 构建全部依赖。可选组件（落盘、通知、状态接口）缺配置时为 nil。
func (b *AppBuilder) Build(_ context.Context) (*App, error) {
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	gw := bngw.NewClient(bngw.Config{
		APIKey:    cfg.Exchange.APIKey,
		SecretKey: cfg.Exchange.SecretKey,
		Testnet:   cfg.Exchange.Testnet,
	})
	if cfg.Exchange.Testnet {
		logger.Warnf("⚠️ 当前连接测试网")
	}

	feed := market.NewFeed(cfg.Trading.Symbol)
	monitor := market.NewMonitor(gw, cfg.Trading.Symbol,
		time.Duration(cfg.Trading.PollIntervalSeconds)*time.Second)

	var store *database.TradeLogStore
	if cfg.Storage.SQLitePath != "" {
		s, err := database.NewTradeLogStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("打开流水库失败: %w", err)
		}
		store = s
	}

	tg := newTelegram(cfg)

	// 接口参数不能塞 typed-nil，可选依赖要显式留空
	var rec trader.CycleRecorder
	if store != nil {
		rec = store
	}
	var txt trader.TextNotifier
	if tg != nil {
		txt = tg
	}

	orch := trader.NewOrchestrator(cfg, gw, feed, monitor, txt, rec)

	var httpSrv *httpapi.Server
	if cfg.App.HTTPAddr != "" {
		var cycles httpapi.CycleReader
		if store != nil {
			cycles = store
		}
		httpSrv = httpapi.NewServer(cfg.App.HTTPAddr, orch, cycles)
	}

	return &App{cfg: cfg, orch: orch, httpSrv: httpSrv, store: store}, nil
}

func newTelegram(cfg *config.Config) *notifier.Telegram {
	if !cfg.Notify.Telegram.Enabled {
		return nil
	}
	return notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
}
