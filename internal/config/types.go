package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Config 聚合了交易引擎运行所需的全部配置项。
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Binance     BinanceConfig     `mapstructure:"binance"`
	Hyperliquid HyperliquidConfig `mapstructure:"hyperliquid"`
	Signal      SignalConfig      `mapstructure:"signal"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// BinanceConfig 描述 Binance 现货接入信息。
// NotionalOverrides 以资产符号为键，覆盖交易所默认的最小名义金额，
// 值为十进制字符串以避免浮点误差。
type BinanceConfig struct {
	BaseURL           string            `mapstructure:"base_url"`
	APIKey            string            `mapstructure:"api_key"`
	APISecret         string            `mapstructure:"api_secret"`
	RecvWindow        int64             `mapstructure:"recv_window"`
	HTTPTimeout       time.Duration     `mapstructure:"http_timeout"`
	NotionalOverrides map[string]string `mapstructure:"notional_overrides"`
}

// HyperliquidConfig 描述备选平台的 ccxt 接入配置。
type HyperliquidConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	Wallet     string `mapstructure:"wallet_address"`
	PrivateKey string `mapstructure:"private_key"`
	UseSandbox bool   `mapstructure:"use_sandbox"`
}

// SignalConfig 选择自动驾驶订单使用的信号源。
type SignalConfig struct {
	Source     string       `mapstructure:"source"` // sma | openai
	FastPeriod int          `mapstructure:"fast_period"`
	SlowPeriod int          `mapstructure:"slow_period"`
	OpenAI     OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig 描述大模型信号源的调用参数。
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig 管理订单与交易历史文档的存放位置。
type StorageConfig struct {
	OrdersPath  string `mapstructure:"orders_path"`
	HistoryPath string `mapstructure:"history_path"`
}

// DatabaseConfig 管理事件日志数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SchedulerConfig 控制订单处理主循环。
// AutopilotInterval 是自动驾驶订单评估信号所用的K线周期，比图表默认
// 的 ChartInterval 更细。
type SchedulerConfig struct {
	LoopInterval      time.Duration `mapstructure:"loop_interval"`
	ProcessTimeout    time.Duration `mapstructure:"process_timeout"`
	ChartInterval     string        `mapstructure:"chart_interval"`
	AutopilotInterval string        `mapstructure:"autopilot_interval"`
	CandleLimit       int           `mapstructure:"candle_limit"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Binance.BaseURL == "" {
		err = multierr.Append(err, errors.New("binance.base_url 不能为空"))
	}
	if c.Binance.RecvWindow <= 0 || c.Binance.RecvWindow > 60000 {
		err = multierr.Append(err, errors.New("binance.recv_window 必须位于(0,60000]毫秒"))
	}
	if c.Binance.HTTPTimeout <= 0 {
		err = multierr.Append(err, errors.New("binance.http_timeout 必须大于0"))
	}
	for asset, value := range c.Binance.NotionalOverrides {
		if asset == "" {
			err = multierr.Append(err, errors.New("binance.notional_overrides 的资产符号不能为空"))
			continue
		}
		if _, parseErr := decimal.NewFromString(value); parseErr != nil {
			err = multierr.Append(err, fmt.Errorf("binance.notional_overrides[%s] 不是合法的十进制数: %q", asset, value))
		}
	}
	switch c.Signal.Source {
	case "sma":
		if c.Signal.FastPeriod <= 0 || c.Signal.SlowPeriod <= 0 {
			err = multierr.Append(err, errors.New("signal.fast_period 与 slow_period 必须大于0"))
		}
		if c.Signal.FastPeriod >= c.Signal.SlowPeriod {
			err = multierr.Append(err, errors.New("signal.fast_period 必须小于 slow_period"))
		}
	case "openai":
		if c.Signal.OpenAI.APIKey == "" {
			err = multierr.Append(err, errors.New("signal.openai.api_key 不能为空"))
		}
		if c.Signal.OpenAI.Model == "" {
			err = multierr.Append(err, errors.New("signal.openai.model 不能为空"))
		}
		if c.Signal.OpenAI.Timeout <= 0 {
			err = multierr.Append(err, errors.New("signal.openai.timeout 必须大于0"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("signal.source 不支持: %q", c.Signal.Source))
	}
	if c.Storage.OrdersPath == "" {
		err = multierr.Append(err, errors.New("storage.orders_path 不能为空"))
	}
	if c.Storage.HistoryPath == "" {
		err = multierr.Append(err, errors.New("storage.history_path 不能为空"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Scheduler.LoopInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler.loop_interval 必须大于0"))
	}
	if c.Scheduler.ProcessTimeout <= 0 {
		err = multierr.Append(err, errors.New("scheduler.process_timeout 必须大于0"))
	}
	if c.Scheduler.ChartInterval == "" {
		err = multierr.Append(err, errors.New("scheduler.chart_interval 不能为空"))
	}
	if c.Scheduler.AutopilotInterval == "" {
		err = multierr.Append(err, errors.New("scheduler.autopilot_interval 不能为空"))
	}
	if c.Scheduler.CandleLimit <= 0 {
		err = multierr.Append(err, errors.New("scheduler.candle_limit 必须大于0"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
