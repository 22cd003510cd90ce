package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/IvanBrykalov/dashcache/cache"
	"github.com/IvanBrykalov/dashcache/dashboard"
	"github.com/IvanBrykalov/dashcache/internal/config"
	"github.com/IvanBrykalov/dashcache/internal/logging"
	"github.com/IvanBrykalov/dashcache/internal/telemetry"
	"github.com/IvanBrykalov/dashcache/source"
)

// app bundles what every command builds from the configuration.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	tp      *telemetry.Provider
	store   *cache.Store
	src     source.Source
	writer  source.Writer
	closers []func() error
}

// newApp loads the configuration and builds the logger, tracer provider and
// store. The source is opened separately by openSource.
func newApp(ctx context.Context, m cache.Metrics) (*app, error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, err
	}

	log := logging.NewFromConfigValues(cfg.Log.Level, cfg.Log.Format)
	a := &app{cfg: cfg, log: log}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:   cfg.Telemetry.Endpoint,
		SampleRate: cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tp = tp
	a.log.Debug().Bool("tracing", tp.Enabled()).Str("endpoint", cfg.Telemetry.Endpoint).Msg("telemetry initialised")
	a.closers = append(a.closers, func() error { return tp.Shutdown(context.Background()) })

	a.store = cache.New(cache.Options{
		Capacity:      cfg.Cache.Capacity,
		Resolver:      cfg.Cache.Resolver(),
		SweepInterval: cfg.Cache.SweepInterval,
		Metrics:       m,
		Tracer:        tp.Tracer(),
	})
	a.closers = append(a.closers, a.store.Close)
	return a, nil
}

// openSource connects the configured backend.
func (a *app) openSource(ctx context.Context) error {
	switch a.cfg.Source.Backend {
	case config.BackendPostgres:
		pg, err := source.NewPostgres(ctx, a.cfg.Source.DSN)
		if err != nil {
			return err
		}
		a.src, a.writer = pg, pg
		a.closers = append(a.closers, pg.Close)
	case config.BackendRedis:
		r, err := source.DialRedis(ctx, a.cfg.Source.RedisAddr)
		if err != nil {
			return err
		}
		a.src, a.writer = r, r
		a.closers = append(a.closers, r.Close)
	default:
		mem := source.NewMemory()
		a.src, a.writer = mem, mem
	}
	a.log.Debug().Str("backend", a.cfg.Source.Backend).Msg("source opened")
	return nil
}

// withLogger attaches the app logger to ctx; the loader logs through it.
func (a *app) withLogger(ctx context.Context) context.Context {
	return logging.WithContext(ctx, a.log)
}

// loader builds a dashboard loader over the app's store and source.
func (a *app) loader(ctxp dashboard.ContextProvider, m dashboard.Metrics) *dashboard.Loader {
	l := dashboard.New(dashboard.Options{
		Store:   a.store,
		Fetcher: dashboard.NewSourceFetcher(a.src),
		Context: ctxp,
		Metrics: m,
		Tracer:  a.tp.Tracer(),
	})
	a.closers = append(a.closers, l.Close)
	return l
}

// Close releases everything in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
