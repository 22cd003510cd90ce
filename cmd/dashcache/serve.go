package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/IvanBrykalov/dashcache/dashboard"
	"github.com/IvanBrykalov/dashcache/internal/config"
	pmet "github.com/IvanBrykalov/dashcache/metrics/prom"
	"github.com/IvanBrykalov/dashcache/source"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
		role     string
		orgID    string
		userID   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose /metrics and /debug/pprof while reloading a demo dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := pmet.New(reg, "dashcache", "", nil)

			a, err := newApp(ctx, metrics)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			ctx = a.withLogger(ctx)
			if cmd.Flags().Changed("addr") {
				a.cfg.Metrics.Addr = addr
			}

			if err := a.openSource(ctx); err != nil {
				return err
			}
			if a.cfg.Source.Backend == config.BackendMemory {
				if err := source.Seed(ctx, a.writer, orgID); err != nil {
					return err
				}
			}

			l := a.loader(dashboard.NewStaticContext(
				&dashboard.Organization{ID: orgID},
				&dashboard.User{ID: userID},
			), metrics)

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			mux.HandleFunc("/debug/pprof/", pprof.Index)
			mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
			mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
			mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
			mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				if !l.Ready() {
					http.Error(w, "not ready", http.StatusServiceUnavailable)
					return
				}
				_, _ = w.Write([]byte("ok\n"))
			})

			srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			errc := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", srv.Addr).Msg("serving metrics")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
			}()

			if err := l.Load(ctx, dashboard.Role(role)); err != nil {
				a.log.Error().Err(err).Msg("initial load failed")
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				case err := <-errc:
					return err
				case <-ticker.C:
					if err := l.Refresh(ctx); err != nil {
						a.log.Warn().Err(err).Msg("refresh failed")
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":2112", "Listen address (overrides metrics.addr)")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Dashboard refresh interval")
	cmd.Flags().StringVar(&role, "role", string(dashboard.RoleHROperator), "Role to load")
	cmd.Flags().StringVar(&orgID, "org", "acme", "Organization ID")
	cmd.Flags().StringVar(&userID, "user", "u-lead", "User ID")
	return cmd
}
