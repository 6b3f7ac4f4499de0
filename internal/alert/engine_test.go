package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"coinwatch/internal/aggregate"
)

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(cfg Config, notifier Notifier) (*Engine, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)}
	engine := NewEngine(cfg, notifier, zerolog.Nop())
	engine.now = clock.now
	return engine, clock
}

func snapshotWithPrices(prices map[string]float64) aggregate.Snapshot {
	quotes := make([]aggregate.PriceQuote, 0, len(prices))
	for _, name := range []string{"CoinGecko", "Binance", "Coinbase"} {
		price, ok := prices[name]
		if !ok {
			quotes = append(quotes, aggregate.PriceQuote{Provider: name, Reason: "network_error"})
			continue
		}
		quotes = append(quotes, aggregate.PriceQuote{
			Provider: name,
			Price:    decimal.NewNullDecimal(decimal.NewFromFloat(price)),
		})
	}
	average, spread, spreadPct := aggregate.Compute(quotes)
	return aggregate.Snapshot{
		Timestamp:     time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		Symbol:        "btc",
		QuoteCurrency: "usd",
		Quotes:        quotes,
		Average:       average,
		Spread:        spread,
		SpreadPct:     spreadPct,
	}
}

func baseConfig() Config {
	return Config{
		SpreadThresholdPct: decimal.NewFromFloat(0.3),
		ChangeThresholdPct: decimal.NewFromFloat(2.0),
		ChangeWindow:       5 * time.Minute,
		Cooldown:           5 * time.Minute,
		FeePct:             decimal.NewFromFloat(0.1),
	}
}

func TestSpreadRuleThreshold(t *testing.T) {
	// {100000, 100200, 99800}: spread 400, spread_pct 0.4%.
	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 100000, "Binance": 100200, "Coinbase": 99800})

	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(baseConfig(), notifier)

	require.Equal(t, 1, engine.Evaluate(context.Background(), snap))
	require.Len(t, notifier.sent, 1)
	require.Contains(t, notifier.sent[0], "SPREAD ALERT")
	require.Contains(t, notifier.sent[0], "Buy on Coinbase")
	require.Contains(t, notifier.sent[0], "Sell on Binance")

	// Threshold 0.5%: same snapshot must not fire.
	cfg := baseConfig()
	cfg.SpreadThresholdPct = decimal.NewFromFloat(0.5)
	notifier2 := &fakeNotifier{}
	engine2, _ := newTestEngine(cfg, notifier2)

	require.Equal(t, 0, engine2.Evaluate(context.Background(), snap))
	require.Empty(t, notifier2.sent)
}

func TestSpreadRuleSkippedWithSingleProvider(t *testing.T) {
	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 100000})
	require.False(t, snap.SpreadPct.Valid)

	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(baseConfig(), notifier)

	require.Equal(t, 0, engine.Evaluate(context.Background(), snap))
	require.Empty(t, notifier.sent)
}

func TestCooldownBoundary(t *testing.T) {
	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 100000, "Binance": 100200, "Coinbase": 99800})

	notifier := &fakeNotifier{}
	engine, clock := newTestEngine(baseConfig(), notifier)

	require.Equal(t, 1, engine.Evaluate(context.Background(), snap))

	// T0+C-1: still cooling down.
	clock.advance(5*time.Minute - time.Second)
	require.Equal(t, 0, engine.Evaluate(context.Background(), snap))

	// T0+C: eligible again.
	clock.advance(time.Second)
	require.Equal(t, 1, engine.Evaluate(context.Background(), snap))
	require.Len(t, notifier.sent, 2)
}

func TestPriceAboveFiresOncePerCooldown(t *testing.T) {
	cfg := baseConfig()
	cfg.SpreadThresholdPct = decimal.Zero // isolate the price rule
	cfg.PriceAbove = decimal.NewNullDecimal(decimal.NewFromInt(100000))

	notifier := &fakeNotifier{}
	engine, clock := newTestEngine(cfg, notifier)

	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 100050})
	require.Equal(t, 1, engine.Evaluate(context.Background(), snap))

	clock.advance(15 * time.Second)
	higher := snapshotWithPrices(map[string]float64{"CoinGecko": 100060})
	require.Equal(t, 0, engine.Evaluate(context.Background(), higher))
	require.Len(t, notifier.sent, 1)
}

func TestPriceRulesIndependentOfSpreadRule(t *testing.T) {
	cfg := baseConfig()
	cfg.PriceAbove = decimal.NewNullDecimal(decimal.NewFromInt(99000))

	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(cfg, notifier)

	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 100000, "Binance": 100200, "Coinbase": 99800})
	require.Equal(t, 2, engine.Evaluate(context.Background(), snap))
	require.Len(t, notifier.sent, 2)
}

func TestPriceBelowRule(t *testing.T) {
	cfg := baseConfig()
	cfg.SpreadThresholdPct = decimal.Zero
	cfg.PriceBelow = decimal.NewNullDecimal(decimal.NewFromInt(100000))

	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(cfg, notifier)

	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 99500})
	require.Equal(t, 1, engine.Evaluate(context.Background(), snap))
	require.Contains(t, notifier.sent[0], "PRICE BELOW")
}

func TestChangeRuleWindowedBaseline(t *testing.T) {
	cfg := baseConfig()
	cfg.SpreadThresholdPct = decimal.Zero
	cfg.ChangeThresholdPct = decimal.NewFromFloat(2.0)
	cfg.ChangeWindow = 90 * time.Second

	notifier := &fakeNotifier{}
	engine, clock := newTestEngine(cfg, notifier)

	// Baseline 100000 at T0.
	require.Equal(t, 0, engine.Evaluate(context.Background(), snapshotWithPrices(map[string]float64{"CoinGecko": 100000})))

	// +30s, +1.5%: under threshold.
	clock.advance(30 * time.Second)
	require.Equal(t, 0, engine.Evaluate(context.Background(), snapshotWithPrices(map[string]float64{"CoinGecko": 101500})))

	// +30s more, +2.5% vs T0 baseline: fires.
	clock.advance(30 * time.Second)
	require.Equal(t, 1, engine.Evaluate(context.Background(), snapshotWithPrices(map[string]float64{"CoinGecko": 102500})))
	require.Contains(t, notifier.sent[0], "UP")
}

func TestChangeRuleBaselineDriftsForward(t *testing.T) {
	cfg := baseConfig()
	cfg.SpreadThresholdPct = decimal.Zero
	cfg.ChangeThresholdPct = decimal.NewFromFloat(2.0)
	cfg.ChangeWindow = time.Minute
	cfg.Cooldown = time.Hour

	notifier := &fakeNotifier{}
	engine, clock := newTestEngine(cfg, notifier)

	require.Equal(t, 0, engine.Evaluate(context.Background(), snapshotWithPrices(map[string]float64{"CoinGecko": 100000})))

	// Two minutes later the T0 sample has aged out; the 102500 sample becomes
	// the new baseline, so a further +1% move does not reach the threshold.
	clock.advance(2 * time.Minute)
	require.Equal(t, 0, engine.Evaluate(context.Background(), snapshotWithPrices(map[string]float64{"CoinGecko": 102500})))

	clock.advance(30 * time.Second)
	require.Equal(t, 0, engine.Evaluate(context.Background(), snapshotWithPrices(map[string]float64{"CoinGecko": 103500})))
	require.Empty(t, notifier.sent)
}

func TestDeliveryFailureDoesNotAdvanceCooldown(t *testing.T) {
	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 100000, "Binance": 100200, "Coinbase": 99800})

	notifier := &fakeNotifier{err: errors.New("telegram unreachable")}
	engine, clock := newTestEngine(baseConfig(), notifier)

	require.Equal(t, 0, engine.Evaluate(context.Background(), snap))

	// Delivery recovers on the next cycle; the alert goes out immediately,
	// no cooldown was recorded for the failed attempt.
	notifier.err = nil
	clock.advance(15 * time.Second)
	require.Equal(t, 1, engine.Evaluate(context.Background(), snap))
	require.Len(t, notifier.sent, 1)
}

func TestStatusHeartbeat(t *testing.T) {
	cfg := baseConfig()
	cfg.SpreadThresholdPct = decimal.Zero
	cfg.StatusInterval = time.Minute

	notifier := &fakeNotifier{}
	engine, clock := newTestEngine(cfg, notifier)

	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 100000})

	// Heartbeat is not a threshold alert: Evaluate reports zero but sends.
	require.Equal(t, 0, engine.Evaluate(context.Background(), snap))
	require.Len(t, notifier.sent, 1)
	require.Contains(t, notifier.sent[0], "Status")

	clock.advance(30 * time.Second)
	engine.Evaluate(context.Background(), snap)
	require.Len(t, notifier.sent, 1)

	clock.advance(30 * time.Second)
	engine.Evaluate(context.Background(), snap)
	require.Len(t, notifier.sent, 2)
}

func TestStatusDisabledByDefault(t *testing.T) {
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(baseConfig(), notifier)

	engine.Evaluate(context.Background(), snapshotWithPrices(map[string]float64{"CoinGecko": 100000}))
	require.Empty(t, notifier.sent)
}

func TestUpdateConfigTakesEffectNextCycle(t *testing.T) {
	snap := snapshotWithPrices(map[string]float64{"CoinGecko": 100000, "Binance": 100200, "Coinbase": 99800})

	cfg := baseConfig()
	cfg.SpreadThresholdPct = decimal.NewFromFloat(0.5)
	notifier := &fakeNotifier{}
	engine, clock := newTestEngine(cfg, notifier)

	require.Equal(t, 0, engine.Evaluate(context.Background(), snap))

	cfg.SpreadThresholdPct = decimal.NewFromFloat(0.3)
	engine.UpdateConfig(cfg)
	clock.advance(15 * time.Second)
	require.Equal(t, 1, engine.Evaluate(context.Background(), snap))
}
