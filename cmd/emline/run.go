// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/emline/internal/handler"
	"github.com/holomush/emline/internal/logging"
	"github.com/holomush/emline/internal/observability"
	"github.com/holomush/emline/internal/script"
	"github.com/holomush/emline/internal/session"
	"github.com/holomush/emline/pkg/errutil"
)

// shutdownTimeout bounds observability server shutdown.
const shutdownTimeout = 5 * time.Second

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the event manager against a host",
		Long: `Load script bundles and process EVENT and REQUEST lines from the host
until it disconnects or the process receives SIGINT or SIGTERM.

Without --socket the protocol is spoken on stdin and stdout, and logs go
to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd.Flags(), configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runEventManager(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	registerRunFlags(cmd.Flags())
	return cmd
}

// runEventManager wires registries, bundles and the session loop. in and out
// carry the protocol when no socket is configured.
func runEventManager(ctx context.Context, cfg *runConfig, in io.Reader, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.SetDefault("emline", version, cfg.LogFormat, level)

	slog.Info("starting event manager",
		"socket", cfg.Socket,
		"script_dirs", cfg.ScriptDirs,
		"scripts", cfg.Scripts,
		"log_format", cfg.LogFormat)

	if cfg.Socket != "" {
		conn, err := session.Dial(ctx, "unix", cfg.Socket, cfg.DialAttempts, cfg.DialBackoff)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()
		in, out = conn, conn
	}

	outbox := session.NewOutbox(out)
	events := handler.NewEventRegistry()
	requests := handler.NewRequestRegistry(outbox)

	var ready atomic.Bool
	if cfg.MetricsAddr != "" {
		stopMetrics, err := startObservability(cfg.MetricsAddr, ready.Load)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	host := script.NewHost(events, requests, outbox,
		script.WithDataDir(cfg.DataDir),
		script.WithConfigDir(cfg.BundleConfig))
	defer func() { _ = host.Close(context.Background()) }()

	if err := loadBundles(ctx, host, cfg); err != nil {
		return err
	}

	sess := session.New(in, events, requests, session.WithMaxLineBytes(cfg.MaxLineBytes))
	ready.Store(true)
	defer ready.Store(false)

	err = sess.Run(ctx)
	if errors.Is(err, context.Canceled) {
		slog.Info("shutdown requested")
		return nil
	}
	return err
}

// loadBundles discovers and loads bundles. A bundle that fails to load is
// logged and skipped.
func loadBundles(ctx context.Context, host *script.Host, cfg *runConfig) error {
	bundles, err := script.Discover(cfg.ScriptDirs, cfg.Scripts)
	if err != nil {
		return err
	}

	for _, b := range bundles {
		if err := host.Load(ctx, b); err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "failed to load bundle", err)
		}
	}

	slog.Info("bundles loaded", "discovered", len(bundles), "loaded", len(host.Bundles()))
	return nil
}

func startObservability(addr string, readiness observability.ReadinessChecker) (func(), error) {
	server := observability.NewServer(addr, readiness,
		observability.WithRegistrars(
			handler.RegisterMetrics,
			session.RegisterMetrics,
			script.RegisterMetrics,
		),
		observability.WithBuildInfo(version, commit))

	errCh, err := server.Start()
	if err != nil {
		return nil, fmt.Errorf("failed to start observability server: %w", err)
	}

	go func() {
		for err := range errCh {
			errutil.LogError(slog.Default(), "observability server failed", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			errutil.LogError(slog.Default(), "failed to stop observability server", err)
		}
	}, nil
}
