package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "nightowl"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("binance.base_url", "https://api.binance.com")
	v.SetDefault("binance.recv_window", 10000)
	v.SetDefault("binance.http_timeout", "15s")
	// 目前唯一已知的平台侧特例：AST 的最小名义金额被放宽到 5 USDT。
	v.SetDefault("binance.notional_overrides", map[string]string{"AST": "5"})

	v.SetDefault("hyperliquid.use_sandbox", false)

	v.SetDefault("signal.source", "sma")
	v.SetDefault("signal.fast_period", 7)
	v.SetDefault("signal.slow_period", 25)
	v.SetDefault("signal.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("signal.openai.model", "gpt-4.1")
	v.SetDefault("signal.openai.timeout", "15s")

	v.SetDefault("storage.orders_path", "data/orders.json")
	v.SetDefault("storage.history_path", "data/history.json")

	v.SetDefault("database.path", "data/nightowl.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("scheduler.loop_interval", "20s")
	v.SetDefault("scheduler.process_timeout", "30s")
	v.SetDefault("scheduler.chart_interval", "1d")
	v.SetDefault("scheduler.autopilot_interval", "4h")
	v.SetDefault("scheduler.candle_limit", 500)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
