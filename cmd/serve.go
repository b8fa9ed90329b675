package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mythosai/mythos/api"
	"github.com/mythosai/mythos/internal/app"
	"github.com/mythosai/mythos/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("closing storage", "error", closeErr)
		}
	}()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr
	}

	server := api.NewServer(a.Sessions, a.History, a.Pipeline, a.Store, logger)
	logger.Info("server ready",
		"addr", addr,
		"providers_configured", a.Chain.Configured(),
	)
	return server.Run(ctx, addr)
}
