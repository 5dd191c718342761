// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/doorkeep/doorkeep/internal/config"
	"github.com/doorkeep/doorkeep/internal/logging"
	"github.com/doorkeep/doorkeep/internal/observability"
	"github.com/doorkeep/doorkeep/internal/store"
)

const serveShutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics and health probes",
		Long: `Runs the observability endpoint: Prometheus metrics on /metrics and
Kubernetes-style probes on /healthz. Readiness reflects database reachability.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:9100", "metrics listen address")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	cmd.Flags().String("log-format", "", "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, metricsAddr string) error {
	cfg, err := config.Load(configPath(), cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (config file or --database-url)")
	}

	logging.SetDefault("doorkeep", version, cfg.Log.Format)

	ctx := cmd.Context()
	st, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer st.Close()

	ready := func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return st.Pool().Ping(pingCtx) == nil
	}

	server := observability.NewServer(metricsAddr, ready)
	errCh, err := server.Start()
	if err != nil {
		return err
	}
	cmd.Println("serving metrics on", server.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		cmd.Println("received signal", sig.String(), "- shutting down")
	case serveErr := <-errCh:
		if serveErr != nil {
			return oops.Code("SERVE_FAILED").Wrap(serveErr)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
}
