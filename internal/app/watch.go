package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"coinwatch/internal/aggregate"
	"coinwatch/internal/alert"
	"coinwatch/internal/history"
	"coinwatch/internal/scheduler"
	"coinwatch/internal/service"
	"coinwatch/internal/web"
)

// Watch executes the long-running monitoring loop, plus the optional web API.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providers, err := a.newProviders()
	if err != nil {
		return err
	}

	publisher, err := a.newCache(ctx)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}

	store := history.New(a.Config.History.MaxEntries)
	notifier := a.newNotifier()

	var engine *alert.Engine
	if notifier != nil {
		engine = alert.NewEngine(a.alertConfig(), notifier, a.Logger)
	} else {
		a.Logger.Warn().Msg("telegram not configured; alerting disabled")
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		StartupDelay: a.Config.Watch.StartupDelay,
	}, a.Logger)

	opts := service.Options{
		Scheduler:  sched,
		Aggregator: aggregate.New(providers, a.Config.Watch.RequestDelay, a.Logger),
		History:    store,
		Engine:     engine,
		Notifier:   notifier,
		Symbol:     a.Config.Watch.Symbol,
		Quote:      a.Config.Watch.Quote,
		Interval:   a.Config.Watch.Interval,
		Announce:   notifier != nil,
	}
	if rec := a.newRecorder(providers); rec != nil {
		opts.Recorder = rec
	}
	if publisher != nil {
		opts.Publisher = publisher
	}

	svc := service.New(opts, a.Logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return svc.Run(groupCtx)
	})
	if a.Config.Web.Enabled {
		server := web.New(a.Config.Web.Addr, store, a.Logger)
		group.Go(func() error {
			return server.Run(groupCtx)
		})
	}

	a.Logger.Info().
		Str("symbol", a.Config.Watch.Symbol).
		Str("quote", a.Config.Watch.Quote).
		Dur("interval", a.Config.Watch.Interval).
		Msg("starting monitoring service")

	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}
