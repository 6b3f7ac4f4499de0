package alert

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/aggregate"
)

// Config holds the alert thresholds for one monitoring session. All rule
// types share a single cooldown; the status heartbeat runs on its own
// interval, independent of the cooldown.
type Config struct {
	SpreadThresholdPct decimal.Decimal
	PriceAbove         decimal.NullDecimal
	PriceBelow         decimal.NullDecimal
	ChangeThresholdPct decimal.Decimal
	ChangeWindow       time.Duration
	Cooldown           time.Duration
	StatusInterval     time.Duration // zero disables the heartbeat
	FeePct             decimal.Decimal
}

type pricePoint struct {
	at    time.Time
	price decimal.Decimal
}

// Engine evaluates the alert rules against each new snapshot. All state is
// mutated only by the single monitoring loop between cycles; the engine is
// not safe for concurrent use.
type Engine struct {
	cfg      Config
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time

	lastSpread time.Time
	lastAbove  time.Time
	lastBelow  time.Time
	lastChange time.Time
	lastStatus time.Time

	changeHistory []pricePoint
	alertsSent    int
}

// NewEngine constructs the rule engine.
func NewEngine(cfg Config, notifier Notifier, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		notifier: notifier,
		logger:   logger.With().Str("component", "alert_engine").Logger(),
		now:      time.Now,
	}
}

// UpdateConfig swaps thresholds between cycles. In-flight rule state
// (cooldowns, change-window history) is preserved.
func (e *Engine) UpdateConfig(cfg Config) {
	e.cfg = cfg
}

// Config returns the active thresholds.
func (e *Engine) Config() Config {
	return e.cfg
}

// AlertsSent reports the number of threshold alerts dispatched so far
// (status heartbeats excluded).
func (e *Engine) AlertsSent() int {
	return e.alertsSent
}

// Evaluate runs every rule against the snapshot, independently: several rules
// may fire in the same cycle. Returns the number of threshold alerts sent.
func (e *Engine) Evaluate(ctx context.Context, snap aggregate.Snapshot) int {
	now := e.now()
	fired := 0

	if e.checkSpread(ctx, now, snap) {
		fired++
	}
	if e.checkPriceAbove(ctx, now, snap) {
		fired++
	}
	if e.checkPriceBelow(ctx, now, snap) {
		fired++
	}
	if e.checkChange(ctx, now, snap) {
		fired++
	}
	e.checkStatus(ctx, now, snap)

	e.alertsSent += fired
	return fired
}

func (e *Engine) checkSpread(ctx context.Context, now time.Time, snap aggregate.Snapshot) bool {
	if !e.cfg.SpreadThresholdPct.IsPositive() || !snap.SpreadPct.Valid {
		return false
	}
	if snap.SpreadPct.Decimal.LessThan(e.cfg.SpreadThresholdPct) {
		return false
	}
	if !e.cooled(e.lastSpread, now) {
		return false
	}

	lowest, highest, ok := snap.Extremes()
	if !ok {
		return false
	}

	text := renderSpreadAlert(snap, lowest, highest, e.cfg, now)
	if !e.dispatch(ctx, text) {
		return false
	}

	e.lastSpread = now
	e.logger.Info().
		Str("spread_pct", snap.SpreadPct.Decimal.StringFixed(3)).
		Msg("spread alert sent")
	return true
}

func (e *Engine) checkPriceAbove(ctx context.Context, now time.Time, snap aggregate.Snapshot) bool {
	if !e.cfg.PriceAbove.Valid || !snap.Average.Valid {
		return false
	}
	if !snap.Average.Decimal.GreaterThan(e.cfg.PriceAbove.Decimal) {
		return false
	}
	if !e.cooled(e.lastAbove, now) {
		return false
	}

	text := renderThresholdAlert(snap, e.cfg.PriceAbove.Decimal, true, now)
	if !e.dispatch(ctx, text) {
		return false
	}

	e.lastAbove = now
	e.logger.Info().
		Str("average", snap.Average.Decimal.StringFixed(2)).
		Str("threshold", e.cfg.PriceAbove.Decimal.StringFixed(2)).
		Msg("price-above alert sent")
	return true
}

func (e *Engine) checkPriceBelow(ctx context.Context, now time.Time, snap aggregate.Snapshot) bool {
	if !e.cfg.PriceBelow.Valid || !snap.Average.Valid {
		return false
	}
	if !snap.Average.Decimal.LessThan(e.cfg.PriceBelow.Decimal) {
		return false
	}
	if !e.cooled(e.lastBelow, now) {
		return false
	}

	text := renderThresholdAlert(snap, e.cfg.PriceBelow.Decimal, false, now)
	if !e.dispatch(ctx, text) {
		return false
	}

	e.lastBelow = now
	e.logger.Info().
		Str("average", snap.Average.Decimal.StringFixed(2)).
		Str("threshold", e.cfg.PriceBelow.Decimal.StringFixed(2)).
		Msg("price-below alert sent")
	return true
}

// checkChange maintains a (timestamp, price) history trimmed to the change
// window and compares the newest price against the oldest retained sample.
// The baseline therefore drifts forward as samples age out of the window;
// that behaviour is intentional and relied upon by callers.
func (e *Engine) checkChange(ctx context.Context, now time.Time, snap aggregate.Snapshot) bool {
	if e.cfg.ChangeWindow <= 0 || !e.cfg.ChangeThresholdPct.IsPositive() {
		return false
	}
	if !snap.Average.Valid {
		return false
	}

	e.changeHistory = append(e.changeHistory, pricePoint{at: now, price: snap.Average.Decimal})

	cutoff := now.Add(-e.cfg.ChangeWindow)
	trimmed := e.changeHistory[:0]
	for _, p := range e.changeHistory {
		if p.at.After(cutoff) {
			trimmed = append(trimmed, p)
		}
	}
	e.changeHistory = trimmed

	if len(e.changeHistory) < 2 {
		return false
	}

	oldest := e.changeHistory[0]
	if oldest.price.IsZero() {
		return false
	}
	change := snap.Average.Decimal.Sub(oldest.price).Div(oldest.price).Mul(decimal.NewFromInt(100))

	if change.Abs().LessThan(e.cfg.ChangeThresholdPct) {
		return false
	}
	if !e.cooled(e.lastChange, now) {
		return false
	}

	text := renderChangeAlert(snap, oldest.price, change, e.cfg.ChangeWindow, now)
	if !e.dispatch(ctx, text) {
		return false
	}

	e.lastChange = now
	e.logger.Info().
		Str("change_pct", change.StringFixed(2)).
		Msg("price-change alert sent")
	return true
}

// checkStatus is the heartbeat: it fires on elapsed time alone, never on a
// threshold, and its interval is independent of the alert cooldown.
func (e *Engine) checkStatus(ctx context.Context, now time.Time, snap aggregate.Snapshot) bool {
	if e.cfg.StatusInterval <= 0 {
		return false
	}
	if !e.lastStatus.IsZero() && now.Sub(e.lastStatus) < e.cfg.StatusInterval {
		return false
	}

	text := renderStatusUpdate(snap, now)
	if !e.dispatch(ctx, text) {
		return false
	}

	e.lastStatus = now
	return true
}

func (e *Engine) cooled(lastFired, now time.Time) bool {
	if lastFired.IsZero() {
		return true
	}
	return now.Sub(lastFired) >= e.cfg.Cooldown
}

func (e *Engine) dispatch(ctx context.Context, text string) bool {
	if e.notifier == nil {
		return false
	}
	if err := e.notifier.Send(ctx, text); err != nil {
		// Delivery failure must not suppress future attempts: the cooldown
		// is only advanced after a successful send.
		e.logger.Error().Err(err).Msg("alert delivery failed")
		return false
	}
	return true
}
