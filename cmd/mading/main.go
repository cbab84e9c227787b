package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryptocj520/mading2/internal/app"
	"github.com/cryptocj520/mading2/internal/config"
	"github.com/cryptocj520/mading2/internal/logger"
)

// 入口程序：
// 1) 加载 TOML 配置
// 2) 装配交易所网关、行情推送、周期编排器与状态接口
// 3) 启动交易循环，Ctrl+C / SIGTERM 优雅退出（撤单后停止）
func main() {
	cfgPath := os.Getenv("MADING_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，交易对=%s，预算=%.2f USDT）",
		cfg.App.Env, cfg.Trading.Symbol, cfg.Trading.BudgetUSDT)

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("运行失败: %v", err)
	}
	logger.Infof("✓ 已退出")
}
