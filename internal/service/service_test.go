package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"coinwatch/internal/aggregate"
	"coinwatch/internal/alert"
	"coinwatch/internal/history"
	"coinwatch/internal/provider"
	"coinwatch/internal/scheduler"
)

type stubProvider struct {
	name  string
	price decimal.Decimal
	err   error
}

func (p stubProvider) Name() string { return p.name }

func (p stubProvider) Fetch(ctx context.Context, symbol, quote string) (decimal.Decimal, error) {
	if p.err != nil {
		return decimal.Decimal{}, p.err
	}
	return p.price, nil
}

type recordingSink struct {
	appended []aggregate.Snapshot
	err      error
}

func (r *recordingSink) Append(snap aggregate.Snapshot) error {
	if r.err != nil {
		return r.err
	}
	r.appended = append(r.appended, snap)
	return nil
}

type captureNotifier struct {
	sent []string
}

func (n *captureNotifier) Send(ctx context.Context, text string) error {
	n.sent = append(n.sent, text)
	return nil
}

func newTestService(rec Recorder, notifier alert.Notifier, engine *alert.Engine) (*Service, *history.Store) {
	providers := []provider.Provider{
		stubProvider{name: "CoinGecko", price: decimal.NewFromInt(100000)},
		stubProvider{name: "Binance", price: decimal.NewFromInt(100200)},
	}
	store := history.New(100)
	svc := New(Options{
		Aggregator: aggregate.New(providers, 0, zerolog.Nop()),
		History:    store,
		Recorder:   rec,
		Engine:     engine,
		Notifier:   notifier,
		Symbol:     "btc",
		Quote:      "usd",
		Interval:   15 * time.Second,
		Announce:   notifier != nil,
	}, zerolog.Nop())
	return svc, store
}

func TestProcessCyclePipeline(t *testing.T) {
	rec := &recordingSink{}
	svc, store := newTestService(rec, nil, nil)

	require.NoError(t, svc.ProcessCycle(context.Background(), time.Now()))

	require.Equal(t, 1, svc.Cycles())
	require.Equal(t, 1, store.Len())
	require.Len(t, rec.appended, 1)

	latest, ok := store.Latest()
	require.True(t, ok)
	require.True(t, latest.Average.Decimal.Equal(decimal.NewFromInt(100100)))
}

func TestProcessCycleSurvivesRecorderFailure(t *testing.T) {
	rec := &recordingSink{err: errors.New("disk full")}
	svc, store := newTestService(rec, nil, nil)

	require.NoError(t, svc.ProcessCycle(context.Background(), time.Now()))
	require.Equal(t, 1, store.Len())
}

func TestRunAnnouncesStartupAndShutdown(t *testing.T) {
	notifier := &captureNotifier{}
	engine := alert.NewEngine(alert.Config{Cooldown: 5 * time.Minute}, notifier, zerolog.Nop())
	svc, _ := newTestService(nil, notifier, engine)
	svc.scheduler = scheduler.New(scheduler.Options{Interval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.GreaterOrEqual(t, len(notifier.sent), 2)
	require.Contains(t, notifier.sent[0], "Started")
	require.Contains(t, notifier.sent[len(notifier.sent)-1], "Stopped")
}

func TestRunRequiresScheduler(t *testing.T) {
	svc, _ := newTestService(nil, nil, nil)
	require.Error(t, svc.Run(context.Background()))
}
