package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"coinwatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	History   HistoryConfig   `mapstructure:"history"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Web       WebConfig       `mapstructure:"web"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// WatchConfig governs the polling loop.
type WatchConfig struct {
	Symbol       string        `mapstructure:"symbol"`
	Quote        string        `mapstructure:"quote"`
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	LogFile      string        `mapstructure:"log_file"`
}

// ProvidersConfig selects and tunes the price sources.
type ProvidersConfig struct {
	Enabled        []string        `mapstructure:"enabled"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout"`
	UserAgent      string          `mapstructure:"user_agent"`
	CoinGecko      EndpointConfig  `mapstructure:"coingecko"`
	Binance        EndpointConfig  `mapstructure:"binance"`
	Coinbase       EndpointConfig  `mapstructure:"coinbase"`
	Kraken         EndpointConfig  `mapstructure:"kraken"`
	Chainlink      ChainlinkConfig `mapstructure:"chainlink"`
}

// EndpointConfig overrides a single HTTP provider endpoint.
type EndpointConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ChainlinkConfig covers on-chain feed access.
type ChainlinkConfig struct {
	RPCURL         string            `mapstructure:"rpc_url"`
	Feeds          map[string]string `mapstructure:"feeds"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout"`
}

// AlertsConfig defines alert thresholds and routing.
type AlertsConfig struct {
	SpreadThresholdPct float64        `mapstructure:"spread_threshold_pct"`
	PriceAbove         float64        `mapstructure:"price_above"`
	PriceBelow         float64        `mapstructure:"price_below"`
	ChangeThresholdPct float64        `mapstructure:"change_threshold_pct"`
	ChangeWindow       time.Duration  `mapstructure:"change_window"`
	Cooldown           time.Duration  `mapstructure:"cooldown"`
	StatusInterval     time.Duration  `mapstructure:"status_interval"`
	FeePct             float64        `mapstructure:"fee_pct"`
	Telegram           TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// HistoryConfig bounds the in-memory rolling store.
type HistoryConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// CacheConfig covers the optional Redis mirror.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// WebConfig covers the optional read-only API.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COINWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "coinwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("watch.symbol", "btc")
	v.SetDefault("watch.quote", "usd")
	v.SetDefault("watch.interval", "15s")
	v.SetDefault("watch.startup_delay", "0s")
	v.SetDefault("watch.request_delay", "200ms")
	v.SetDefault("watch.log_file", "")

	v.SetDefault("providers.enabled", []string{"coingecko", "binance", "coinbase"})
	v.SetDefault("providers.request_timeout", "10s")
	v.SetDefault("providers.user_agent", "coinwatch/1.0")
	v.SetDefault("providers.coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("providers.binance.base_url", "https://api.binance.com")
	v.SetDefault("providers.coinbase.base_url", "https://api.coinbase.com")
	v.SetDefault("providers.kraken.base_url", "https://api.kraken.com")
	v.SetDefault("providers.chainlink.request_timeout", "10s")

	v.SetDefault("alerts.spread_threshold_pct", 0.3)
	v.SetDefault("alerts.change_threshold_pct", 2.0)
	v.SetDefault("alerts.change_window", "5m")
	v.SetDefault("alerts.cooldown", "5m")
	v.SetDefault("alerts.status_interval", "0s")
	v.SetDefault("alerts.fee_pct", 0.1)
	v.SetDefault("alerts.telegram.enabled", false)
	v.SetDefault("alerts.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("history.max_entries", 2000)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("web.enabled", false)
	v.SetDefault("web.addr", ":8080")

	v.SetDefault("export.max_data_points", 100000)
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

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be greater than zero")
	}
	if len(c.Providers.Enabled) == 0 {
		return fmt.Errorf("providers.enabled must name at least one source")
	}
	if c.Alerts.SpreadThresholdPct < 0 {
		return fmt.Errorf("alerts.spread_threshold_pct cannot be negative")
	}
	if c.Alerts.Cooldown < 0 {
		return fmt.Errorf("alerts.cooldown cannot be negative")
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerts.Telegram.Enabled {
		if c.Alerts.Telegram.BotToken == "" {
			return fmt.Errorf("alerts.telegram.bot_token 必须配置")
		}
		if c.Alerts.Telegram.ChatID == "" {
			return fmt.Errorf("alerts.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
