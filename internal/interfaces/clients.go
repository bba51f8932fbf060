// Package interfaces defines service contracts for StockSight
package interfaces

import (
	"context"

	"github.com/bobmcallan/stocksight/internal/models"
)

// RelayClient fetches arbitrary URLs through an ordered list of network
// relays, falling back on failure and surfacing the last error only after
// the full list is exhausted.
type RelayClient interface {
	// FetchText fetches the target URL and returns the raw payload.
	FetchText(ctx context.Context, targetURL string) (string, error)

	// FetchFinance fetches a financial chart/quote payload and additionally
	// rejects payloads that carry none of the known structural markers and
	// do not parse as JSON.
	FetchFinance(ctx context.Context, targetURL string) (string, error)
}

// LedgerClient syncs the sanitized holdings map with the remote ledger.
type LedgerClient interface {
	// Pull fetches the remote holdings map. An empty map is a valid result.
	Pull(ctx context.Context) (map[string]models.Holding, error)

	// Push uploads the holdings map. On failure it performs exactly one
	// best-effort resend whose response is ignored, then reports a degraded
	// (non-fatal) error.
	Push(ctx context.Context, holdings map[string]models.Holding) error
}
