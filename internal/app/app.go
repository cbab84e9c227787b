package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cryptocj520/mading2/internal/config"
	"github.com/cryptocj520/mading2/internal/gateway/database"
	"github.com/cryptocj520/mading2/internal/logger"
	"github.com/cryptocj520/mading2/internal/trader"
	"github.com/cryptocj520/mading2/internal/transport/httpapi"
)

// App 负责应用级编排：加载配置→初始化依赖→启动交易循环与状态接口。
type App struct {
	cfg     *config.Config
	orch    *trader.Orchestrator
	httpSrv *httpapi.Server
	store   *database.TradeLogStore
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动交易循环与状态接口，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.orch == nil {
		return fmt.Errorf("orchestrator not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	if a.httpSrv != nil {
		group.Go(func() error {
			if err := a.httpSrv.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Warnf("状态接口停止: %v", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		if err := a.orch.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		a.orch.Stop()
		return nil
	})

	err := group.Wait()
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			logger.Warnf("关闭流水库失败: %v", cerr)
		}
	}
	return err
}
