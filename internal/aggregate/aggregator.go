package aggregate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/provider"
)

// Aggregator fans a price lookup out to the configured providers and folds
// the results into a Snapshot. Provider failures become null quotes; nothing
// aborts the cycle.
type Aggregator struct {
	providers []provider.Provider
	delay     time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// New constructs an Aggregator. A positive delay selects sequential fetching
// with a courtesy pause between providers (rate-limit politeness, not a
// correctness requirement); a zero delay selects concurrent fan-out.
func New(providers []provider.Provider, delay time.Duration, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		providers: providers,
		delay:     delay,
		logger:    logger.With().Str("component", "aggregator").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Aggregate performs one polling cycle for a symbol/quote pair.
func (a *Aggregator) Aggregate(ctx context.Context, symbol, quote string) Snapshot {
	quotes := make([]PriceQuote, len(a.providers))

	if a.delay > 0 {
		a.fetchSequential(ctx, symbol, quote, quotes)
	} else {
		a.fetchConcurrent(ctx, symbol, quote, quotes)
	}

	average, spread, spreadPct := Compute(quotes)
	return Snapshot{
		Timestamp:     a.now(),
		Symbol:        symbol,
		QuoteCurrency: quote,
		Quotes:        quotes,
		Average:       average,
		Spread:        spread,
		SpreadPct:     spreadPct,
	}
}

func (a *Aggregator) fetchSequential(ctx context.Context, symbol, quote string, quotes []PriceQuote) {
	for i, p := range a.providers {
		quotes[i] = a.fetchOne(ctx, p, symbol, quote)
		if i < len(a.providers)-1 {
			if !sleepCtx(ctx, a.delay) {
				// Cancelled mid-delay; remaining providers fail fast on ctx.
				continue
			}
		}
	}
}

func (a *Aggregator) fetchConcurrent(ctx context.Context, symbol, quote string, quotes []PriceQuote) {
	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			quotes[i] = a.fetchOne(ctx, p, symbol, quote)
		}(i, p)
	}
	wg.Wait()
}

func (a *Aggregator) fetchOne(ctx context.Context, p provider.Provider, symbol, quote string) PriceQuote {
	price, err := p.Fetch(ctx, symbol, quote)
	observed := a.now()
	if err != nil {
		reason := provider.Reason(err)
		a.logger.Debug().Err(err).
			Str("provider", p.Name()).
			Str("reason", reason).
			Msg("provider fetch failed")
		return PriceQuote{Provider: p.Name(), Reason: reason, ObservedAt: observed}
	}
	return PriceQuote{
		Provider:   p.Name(),
		Price:      decimal.NewNullDecimal(price),
		ObservedAt: observed,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
