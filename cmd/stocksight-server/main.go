package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/stocksight/internal/app"
	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/server"
)

func main() {
	configPath := os.Getenv("STOCKSIGHT_CONFIG")

	a, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	common.PrintBanner(a.Config, a.Logger)

	// Load the portfolio, sync with the cloud ledger, and kick off
	// background re-resolution of tracked assets.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := a.Startup(startupCtx); err != nil {
		startupCancel()
		a.Logger.Fatal().Err(err).Msg("Startup failed")
	}
	startupCancel()

	srv := server.NewServer(a)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	port := a.Config.Server.Port
	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", port)).
		Str("mcp", fmt.Sprintf("http://localhost:%d/mcp", port)).
		Msg("Server ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.Close()

	common.PrintShutdownBanner(a.Logger)
}
