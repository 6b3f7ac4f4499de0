package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/alert"
	"coinwatch/internal/cache"
	"coinwatch/internal/config"
	"coinwatch/internal/provider"
	"coinwatch/internal/recorder"
	"coinwatch/internal/symbols"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newProviders() ([]provider.Provider, error) {
	table := symbols.DefaultTable()
	pc := a.Config.Providers

	providers := make([]provider.Provider, 0, len(pc.Enabled))
	for _, name := range pc.Enabled {
		switch strings.ToLower(name) {
		case "coingecko":
			providers = append(providers, provider.NewCoinGecko(provider.CoinGeckoOptions{
				BaseURL:   pc.CoinGecko.BaseURL,
				Timeout:   pc.RequestTimeout,
				UserAgent: pc.UserAgent,
			}, table, a.Logger))
		case "binance":
			providers = append(providers, provider.NewBinance(provider.BinanceOptions{
				BaseURL:   pc.Binance.BaseURL,
				Timeout:   pc.RequestTimeout,
				UserAgent: pc.UserAgent,
			}, table, a.Logger))
		case "coinbase":
			providers = append(providers, provider.NewCoinbase(provider.CoinbaseOptions{
				BaseURL:   pc.Coinbase.BaseURL,
				Timeout:   pc.RequestTimeout,
				UserAgent: pc.UserAgent,
			}, table, a.Logger))
		case "kraken":
			providers = append(providers, provider.NewKraken(provider.KrakenOptions{
				BaseURL:   pc.Kraken.BaseURL,
				Timeout:   pc.RequestTimeout,
				UserAgent: pc.UserAgent,
			}, table, a.Logger))
		case "chainlink":
			if pc.Chainlink.RPCURL == "" {
				return nil, fmt.Errorf("providers.chainlink.rpc_url is required when chainlink is enabled")
			}
			providers = append(providers, provider.NewChainlink(provider.ChainlinkOptions{
				RPCURL:  pc.Chainlink.RPCURL,
				Feeds:   pc.Chainlink.Feeds,
				Timeout: pc.Chainlink.RequestTimeout,
			}, a.Logger))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}
	return providers, nil
}

func providerNames(providers []provider.Provider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}

func (a *App) newNotifier() alert.Notifier {
	if a.Config.Alerts.Telegram.Enabled {
		cfg := a.Config.Alerts.Telegram
		return alert.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) alertConfig() alert.Config {
	ac := a.Config.Alerts
	cfg := alert.Config{
		SpreadThresholdPct: decimal.NewFromFloat(ac.SpreadThresholdPct),
		ChangeThresholdPct: decimal.NewFromFloat(ac.ChangeThresholdPct),
		ChangeWindow:       ac.ChangeWindow,
		Cooldown:           ac.Cooldown,
		StatusInterval:     ac.StatusInterval,
		FeePct:             decimal.NewFromFloat(ac.FeePct),
	}
	if ac.PriceAbove > 0 {
		cfg.PriceAbove = decimal.NewNullDecimal(decimal.NewFromFloat(ac.PriceAbove))
	}
	if ac.PriceBelow > 0 {
		cfg.PriceBelow = decimal.NewNullDecimal(decimal.NewFromFloat(ac.PriceBelow))
	}
	return cfg
}

func (a *App) newRecorder(providers []provider.Provider) *recorder.CSVRecorder {
	if a.Config.Watch.LogFile == "" {
		return nil
	}
	return recorder.NewCSV(a.Config.Watch.LogFile, providerNames(providers), a.Logger)
}

func (a *App) newCache(ctx context.Context) (*cache.RedisPublisher, error) {
	if !a.Config.Cache.Enabled {
		return nil, nil
	}
	return cache.NewRedisPublisher(ctx, cache.Options{
		Addr:     a.Config.Cache.Addr,
		Password: a.Config.Cache.Password,
		DB:       a.Config.Cache.DB,
		TTL:      a.Config.Cache.TTL,
	}, a.Logger)
}
