// Package app wires clients, services, storage, and the MCP server into
// one initialized application core shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stocksight/internal/clients/gfinance"
	"github.com/bobmcallan/stocksight/internal/clients/ledger"
	"github.com/bobmcallan/stocksight/internal/clients/mfapi"
	"github.com/bobmcallan/stocksight/internal/clients/relay"
	"github.com/bobmcallan/stocksight/internal/clients/screener"
	"github.com/bobmcallan/stocksight/internal/clients/yahoo"
	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/resolver"
	"github.com/bobmcallan/stocksight/internal/scoring"
	"github.com/bobmcallan/stocksight/internal/services/portfolio"
	"github.com/bobmcallan/stocksight/internal/services/stocky"
	"github.com/bobmcallan/stocksight/internal/storage/portfoliodb"
)

// App holds all initialized services, clients, and the MCP server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Store            interfaces.PortfolioStore
	Resolver         interfaces.AssetResolver
	Scorer           interfaces.Scorer
	PortfolioService interfaces.PortfolioService
	ChatService      interfaces.ChatService
	MCPServer        *server.MCPServer
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes clients, services, storage, and the MCP server.
// configPath may be empty, in which case the default resolution is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("STOCKSIGHT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "stocksight.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stocksight.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := portfoliodb.Open(config.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open portfolio store: %w", err)
	}

	relayClient := relay.NewClient(
		relay.WithLogger(logger),
		relay.WithRateLimit(config.Clients.Relay.RateLimit),
		relay.WithTimeout(config.Clients.Relay.GetTimeout()),
	)

	assetResolver := resolver.New(resolver.Clients{
		MFAPI: mfapi.NewClient(relayClient,
			mfapi.WithBaseURL(config.Clients.MFAPI.BaseURL),
			mfapi.WithTimeout(config.Clients.MFAPI.GetTimeout()),
			mfapi.WithLogger(logger),
		),
		Screener: screener.NewClient(relayClient,
			screener.WithBaseURL(config.Clients.Screener.BaseURL),
			screener.WithLogger(logger),
		),
		GFinance: gfinance.NewClient(relayClient,
			gfinance.WithBaseURL(config.Clients.GFinance.BaseURL),
			gfinance.WithLogger(logger),
		),
		Yahoo: yahoo.NewClient(relayClient,
			yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
			yahoo.WithLogger(logger),
		),
	}, logger)

	scorer := scoring.NewEngine(logger)

	portfolioOpts := []portfolio.ServiceOption{
		portfolio.WithSaveDelay(config.Storage.GetSaveDelay()),
		portfolio.WithLogger(logger),
	}
	if config.Clients.Ledger.URL != "" {
		portfolioOpts = append(portfolioOpts, portfolio.WithLedger(
			ledger.NewClient(config.Clients.Ledger.URL,
				ledger.WithTimeout(config.Clients.Ledger.GetTimeout()),
				ledger.WithLogger(logger),
			),
		))
	} else {
		logger.Warn().Msg("Ledger URL not configured, cloud sync disabled")
	}

	portfolioService := portfolio.NewService(store, assetResolver, scorer, portfolioOpts...)

	chatService := stocky.NewService(portfolioService, scorer,
		stocky.WithPacingDelay(config.Chat.GetPacingDelay()),
		stocky.WithLogger(logger),
	)

	mcpServer := server.NewMCPServer(
		"stocksight",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Store:            store,
		Resolver:         assetResolver,
		Scorer:           scorer,
		PortfolioService: portfolioService,
		ChatService:      chatService,
		MCPServer:        mcpServer,
		StartupTime:      startupStart,
	}

	a.registerTools()

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Startup loads the persisted record, runs the initial cloud sync, and
// kicks off background re-resolution of every held asset.
func (a *App) Startup(ctx context.Context) error {
	if err := a.PortfolioService.Load(ctx); err != nil {
		return fmt.Errorf("failed to load portfolio: %w", err)
	}

	if err := a.PortfolioService.SyncFromCloud(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Startup cloud sync failed")
	}

	for _, id := range a.PortfolioService.AnalysisOrder(ctx) {
		go func(identifier string) {
			if _, err := a.PortfolioService.ResolveAsset(context.Background(), identifier); err != nil {
				a.Logger.Warn().
					Str("identifier", identifier).
					Err(err).
					Msg("Startup resolution failed")
			}
		}(id)
	}
	return nil
}

// Close releases all resources held by the App. The portfolio service
// flushes pending state before the store closes.
func (a *App) Close() {
	if a.PortfolioService != nil {
		if err := a.PortfolioService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Portfolio service close failed")
		}
		a.PortfolioService = nil
	}
	if a.Store != nil {
		a.Store.Close()
		a.Store = nil
	}
}
