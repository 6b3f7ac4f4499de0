package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"coinwatch/internal/aggregate"
	"coinwatch/internal/alert"
	"coinwatch/internal/provider"
)

// TestAlert 用给定的模拟价格走一遍完整告警流程，验证 Telegram 配置。
func (a *App) TestAlert(ctx context.Context, prices []decimal.Decimal) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	providers := make([]provider.Provider, len(prices))
	for i, price := range prices {
		providers[i] = &staticProvider{name: simulatedName(i), price: price}
	}

	cfg := a.alertConfig()
	// 模拟时压低阈值并取消冷却，保证规则必然触发。
	cfg.SpreadThresholdPct = decimal.NewFromFloat(0.0001)
	cfg.Cooldown = 0

	engine := alert.NewEngine(cfg, notifier, a.Logger)
	agg := aggregate.New(providers, 0, a.Logger)

	snap := agg.Aggregate(ctx, a.Config.Watch.Symbol, a.Config.Watch.Quote)
	if engine.Evaluate(ctx, snap) == 0 {
		return errors.New("未触发任何告警，请检查模拟价格")
	}
	return nil
}

func simulatedName(i int) string {
	names := []string{"SimulatedA", "SimulatedB", "SimulatedC", "SimulatedD", "SimulatedE"}
	if i < len(names) {
		return names[i]
	}
	return "Simulated"
}

type staticProvider struct {
	name  string
	price decimal.Decimal
}

func (s *staticProvider) Name() string { return s.name }

func (s *staticProvider) Fetch(ctx context.Context, symbol, quote string) (decimal.Decimal, error) {
	return s.price, nil
}

var _ provider.Provider = (*staticProvider)(nil)
