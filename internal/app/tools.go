package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
)

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createAskStockyTool(), handleAskStocky(a.ChatService, logger))
	s.AddTool(createResolveAssetTool(), handleResolveAsset(a.PortfolioService, logger))
	s.AddTool(createPortfolioSummaryTool(), handlePortfolioSummary(a.PortfolioService, logger))
}

func textResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

func errorResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultError(text)
}

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the StockSight server version and status. Use this to verify connectivity."),
	)
}

func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("StockSight Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// createAskStockyTool returns the ask_stocky tool definition
func createAskStockyTool() mcp.Tool {
	return mcp.NewTool("ask_stocky",
		mcp.WithDescription("Ask Stocky, the portfolio assistant, a free-text question: portfolio health, risk, asset analysis, comparisons, or allocation simulations (e.g. 'invest 50k')."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to ask, in plain language"),
		),
	)
}

func handleAskStocky(chat interfaces.ChatService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return errorResult("Error: query parameter is required"), nil
		}

		reply, err := chat.Ask(ctx, query)
		if err != nil {
			logger.Error().Err(err).Msg("Chat turn failed")
			return errorResult(fmt.Sprintf("Chat error: %v", err)), nil
		}
		return textResult(reply), nil
	}
}

// createResolveAssetTool returns the resolve_asset tool definition
func createResolveAssetTool() mcp.Tool {
	return mcp.NewTool("resolve_asset",
		mcp.WithDescription("Resolve one asset identifier (NSE/BSE ticker or numeric mutual fund code) through the source chain and return its live record."),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("Ticker symbol (e.g. 'RELIANCE', 'GOLDBEES') or AMFI scheme code (e.g. '122639')"),
		),
	)
}

func handleResolveAsset(portfolio interfaces.PortfolioService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		identifier, err := request.RequireString("identifier")
		if err != nil || identifier == "" {
			return errorResult("Error: identifier parameter is required"), nil
		}

		record, err := portfolio.ResolveAsset(ctx, identifier)
		if err != nil {
			logger.Warn().Str("identifier", identifier).Err(err).Msg("Resolution failed")
			return errorResult(fmt.Sprintf("Resolution error: %v", err)), nil
		}

		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("Encoding error: %v", err)), nil
		}
		return textResult(string(data)), nil
	}
}

// createPortfolioSummaryTool returns the portfolio_summary tool definition
func createPortfolioSummaryTool() mcp.Tool {
	return mcp.NewTool("portfolio_summary",
		mcp.WithDescription("Get the portfolio's totals, health score, risk posture, and capital efficiency flags as JSON."),
	)
}

func handlePortfolioSummary(portfolio interfaces.PortfolioService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary := struct {
			Totals     any  `json:"totals"`
			Aggregates any  `json:"aggregates"`
			Offline    bool `json:"offline"`
		}{
			Totals:     portfolio.Totals(ctx),
			Aggregates: portfolio.Aggregates(ctx),
			Offline:    portfolio.Offline(),
		}

		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			logger.Error().Err(err).Msg("Summary encoding failed")
			return errorResult(fmt.Sprintf("Encoding error: %v", err)), nil
		}
		return textResult(string(data)), nil
	}
}
