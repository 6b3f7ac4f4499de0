package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"coinwatch/internal/aggregate"
	"coinwatch/internal/alert"
	"coinwatch/internal/history"
	"coinwatch/internal/scheduler"
)

// Recorder persists one snapshot per cycle to the flat price log.
type Recorder interface {
	Append(snap aggregate.Snapshot) error
}

// Publisher mirrors the latest snapshot into an external cache.
type Publisher interface {
	Publish(ctx context.Context, snap aggregate.Snapshot) error
}

// Service orchestrates polling, history, persistence and alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	agg       *aggregate.Aggregator
	store     *history.Store
	recorder  Recorder
	publisher Publisher
	engine    *alert.Engine
	notifier  alert.Notifier
	logger    zerolog.Logger

	symbol   string
	quote    string
	interval time.Duration
	announce bool

	cycles int
}

// Options wire the service dependencies. Recorder, Publisher, Engine and
// Notifier may be nil; the corresponding step is skipped.
type Options struct {
	Scheduler  *scheduler.Scheduler
	Aggregator *aggregate.Aggregator
	History    *history.Store
	Recorder   Recorder
	Publisher  Publisher
	Engine     *alert.Engine
	Notifier   alert.Notifier
	Symbol     string
	Quote      string
	Interval   time.Duration
	Announce   bool
}

// New constructs the monitoring service.
func New(opts Options, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: opts.Scheduler,
		agg:       opts.Aggregator,
		store:     opts.History,
		recorder:  opts.Recorder,
		publisher: opts.Publisher,
		engine:    opts.Engine,
		notifier:  opts.Notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		symbol:    opts.Symbol,
		quote:     opts.Quote,
		interval:  opts.Interval,
		announce:  opts.Announce,
	}
}

// Cycles reports the number of completed poll cycles.
func (s *Service) Cycles() int {
	return s.cycles
}

// Run begins the polling loop and blocks until ctx is cancelled. Startup and
// shutdown announcements go through the notifier when one is configured.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	if s.agg == nil {
		return fmt.Errorf("aggregator not configured")
	}

	s.announceStartup(ctx)
	err := s.scheduler.Run(ctx, s.ProcessCycle)
	s.announceShutdown()
	return err
}

// ProcessCycle 执行单轮采样：聚合、入历史、落盘、发布缓存、评估告警。
func (s *Service) ProcessCycle(ctx context.Context, at time.Time) error {
	snap := s.agg.Aggregate(ctx, s.symbol, s.quote)
	s.cycles++

	if s.store != nil {
		s.store.Append(snap)
	}

	if s.recorder != nil {
		if err := s.recorder.Append(snap); err != nil {
			s.logger.Error().Err(err).Msg("failed to record snapshot")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, snap); err != nil {
			s.logger.Error().Err(err).Msg("failed to publish snapshot")
		}
	}

	event := s.logger.Info().
		Str("symbol", s.symbol).
		Str("quote", s.quote).
		Int("sources", len(snap.ValidQuotes()))
	if snap.Average.Valid {
		event = event.Str("average", snap.Average.Decimal.StringFixed(2))
	}
	if snap.SpreadPct.Valid {
		event = event.Str("spread_pct", snap.SpreadPct.Decimal.StringFixed(3))
	}
	event.Msg("cycle complete")

	if s.engine != nil {
		s.engine.Evaluate(ctx, snap)
	}
	return nil
}

func (s *Service) announceStartup(ctx context.Context) {
	if !s.announce || s.notifier == nil || s.engine == nil {
		return
	}
	text := alert.StartupMessage(s.symbol, s.quote, s.interval, s.engine.Config())
	if err := s.notifier.Send(ctx, text); err != nil {
		s.logger.Warn().Err(err).Msg("startup announcement failed")
	}
}

func (s *Service) announceShutdown() {
	if !s.announce || s.notifier == nil {
		return
	}

	// The run context is already cancelled at this point; the farewell gets
	// its own short deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alerts := 0
	if s.engine != nil {
		alerts = s.engine.AlertsSent()
	}
	text := alert.ShutdownMessage(s.symbol, s.cycles, alerts)
	if err := s.notifier.Send(ctx, text); err != nil {
		s.logger.Warn().Err(err).Msg("shutdown announcement failed")
	}
}
