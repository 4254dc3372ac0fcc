// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LearnHooks Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/learnhooks/learnhooks/internal/observability"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Wire all services, load plugins and serve metrics until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}
}

// runServe runs until ctx is done or the observability server fails.
func runServe(ctx context.Context, cmd *cobra.Command, opts *globalOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	var (
		ready   atomic.Bool
		srv     *observability.Server
		metrics *observability.Metrics
	)
	if cfg.MetricsAddr != "" {
		srv = observability.NewServer(cfg.MetricsAddr, ready.Load)
		metrics = srv.Metrics()
	}

	a, err := newApp(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	g, gctx := errgroup.WithContext(ctx)
	if srv != nil {
		errCh, err := srv.Start(ctx)
		if err != nil {
			return oops.In("serve").Wrapf(err, "start observability server")
		}
		g.Go(func() error {
			select {
			case err, ok := <-errCh:
				if ok && err != nil {
					return oops.In("serve").Wrapf(err, "observability server")
				}
				return nil
			case <-gctx.Done():
				return nil
			}
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return srv.Stop(shutdownCtx)
		})
	}

	ready.Store(true)
	slog.Info("learnhooks ready",
		"metrics_addr", cfg.MetricsAddr,
		"hooks", len(a.hooks.Hooks()),
		"plugins", a.loadedPlugins())
	cmd.Println("learnhooks serving; press Ctrl+C to stop")

	<-gctx.Done()
	ready.Store(false)
	slog.Info("shutting down")

	return g.Wait()
}
