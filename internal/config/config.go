package config

import (
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// 配置结构体（单交易对马丁网格：阶梯买入 + 止盈清仓 + 无成交自动重启）
type Config struct {
	App struct {
		Env      string `toml:"env"`
		LogLevel string `toml:"log_level"`
		HTTPAddr string `toml:"http_addr"` // 状态接口监听地址，空则不启动
	} `toml:"app"`

	Exchange struct {
		APIKey    string `toml:"api_key"`
		SecretKey string `toml:"secret_key"`
		Testnet   bool   `toml:"testnet"`
	} `toml:"exchange"`

	Trading struct {
		Symbol     string  `toml:"symbol"`      // 交易对，如 BTCUSDT
		Coin       string  `toml:"coin"`        // 基础币，如 BTC
		BudgetUSDT float64 `toml:"budget_usdt"` // 本周期总预算

		OrderCount     int     `toml:"order_count"`       // 阶梯挂单数量
		MaxDropPct     float64 `toml:"max_drop_pct"`      // 最大下跌幅度（%），阶梯最低价 = 现价*(1-max_drop/100)
		IncrementPct   float64 `toml:"increment_pct"`     // 逐档加仓幅度（%），越低的档位分到越多预算
		MinNotionalUSD float64 `toml:"min_notional_usdt"` // 单笔最小名义金额，低于则并入上一档

		TakeProfitPct             float64 `toml:"take_profit_pct"`                // 止盈阈值（%），相对已成交均价
		AutoRestartAfterTP        bool    `toml:"auto_restart_after_take_profit"` // 止盈后是否自动开启下一周期
		NoFillRestartMinutes      int     `toml:"no_fill_restart_minutes"`        // 无成交自动重启窗口（分钟）
		PollIntervalSeconds       int     `toml:"poll_interval_seconds"`          // 价格轮询/状态渲染周期
		MonitorIntervalSeconds    int     `toml:"monitor_interval_seconds"`       // 对账+止盈检查周期
		HeartbeatIntervalSeconds  int     `toml:"heartbeat_interval_seconds"`     // 连接心跳日志周期
		StatusIntervalSeconds     int     `toml:"status_interval_seconds"`        // 状态渲染节流间隔
		LiquidateSettleSeconds    int     `toml:"liquidate_settle_seconds"`       // 清仓部分成交后的等待时间
		OptimalSellDiscountPct    float64 `toml:"optimal_sell_discount_pct"`      // 首次卖出相对市价的折让（%）
		FallbackSellDiscountPct   float64 `toml:"fallback_sell_discount_pct"`     // 二次卖出相对市价的折让（%）
	} `toml:"trading"`

	Storage struct {
		SQLitePath string `toml:"sqlite_path"` // 周期/成交流水存储，空则不落盘
	} `toml:"storage"`

	Notify struct {
		Telegram struct {
			Enabled  bool   `toml:"enabled"`
			BotToken string `toml:"bot_token"`
			ChatID   string `toml:"chat_id"`
		} `toml:"telegram"`
	} `toml:"notify"`
}

// Load 读取并解析 TOML 配置文件，并设置缺省值与基本校验
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析 TOML 失败: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// 默认值设置
func applyDefaults(c *Config) {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	t := &c.Trading
	if t.OrderCount <= 0 {
		t.OrderCount = 5
	}
	if t.MaxDropPct <= 0 {
		t.MaxDropPct = 5
	}
	if t.IncrementPct <= 0 {
		t.IncrementPct = 20
	}
	if t.MinNotionalUSD <= 0 {
		t.MinNotionalUSD = 10
	}
	if t.TakeProfitPct <= 0 {
		t.TakeProfitPct = 1.5
	}
	if t.NoFillRestartMinutes <= 0 {
		t.NoFillRestartMinutes = 60
	}
	if t.PollIntervalSeconds <= 0 {
		t.PollIntervalSeconds = 5
	}
	if t.MonitorIntervalSeconds <= 0 {
		t.MonitorIntervalSeconds = 10
	}
	if t.HeartbeatIntervalSeconds <= 0 {
		t.HeartbeatIntervalSeconds = 60
	}
	if t.StatusIntervalSeconds <= 0 {
		t.StatusIntervalSeconds = 15
	}
	if t.LiquidateSettleSeconds <= 0 {
		t.LiquidateSettleSeconds = 3
	}
	if t.OptimalSellDiscountPct <= 0 {
		t.OptimalSellDiscountPct = 0.15
	}
	if t.FallbackSellDiscountPct <= 0 {
		t.FallbackSellDiscountPct = 0.5
	}
	// 币名缺省时从交易对推导（BTCUSDT -> BTC）
	if t.Coin == "" && t.Symbol != "" {
		t.Coin = deriveCoin(t.Symbol)
	}
}

// 基础校验
func validate(c *Config) error {
	t := &c.Trading
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("trading.symbol 不能为空")
	}
	if strings.TrimSpace(t.Coin) == "" {
		return fmt.Errorf("trading.coin 不能为空（无法从 %s 推导基础币）", t.Symbol)
	}
	if t.BudgetUSDT <= 0 {
		return fmt.Errorf("trading.budget_usdt 必须大于 0")
	}
	if t.MaxDropPct >= 100 {
		return fmt.Errorf("trading.max_drop_pct 需小于 100")
	}
	if t.OrderCount > 50 {
		return fmt.Errorf("trading.order_count 需在 [1,50]")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("已启用 Telegram 通知，请提供 bot_token 与 chat_id")
		}
	}
	return nil
}

var quoteSuffixes = []string{"USDT", "USDC", "FDUSD", "TUSD", "BUSD", "DAI", "BTC", "ETH", "BNB"}

// deriveCoin 从交易对推导基础币：优先匹配常见计价币后缀。
func deriveCoin(symbol string) string {
	up := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suf := range quoteSuffixes {
		if strings.HasSuffix(up, suf) && len(up) > len(suf) {
			return up[:len(up)-len(suf)]
		}
	}
	return ""
}
