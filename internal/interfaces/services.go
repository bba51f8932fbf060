package interfaces

import (
	"context"

	"github.com/bobmcallan/stocksight/internal/models"
)

// Adapter is one source-specific fetch+parse routine producing a common
// AssetRecord. Adapters never panic; they return a typed failure instead.
type Adapter interface {
	// Name identifies the adapter for provenance tagging and logs
	Name() string

	// Resolve fetches and parses one asset from this adapter's provider
	Resolve(ctx context.Context, identifier string) (*models.AssetRecord, error)
}

// AssetResolver classifies identifiers and runs the ordered adapter chain.
type AssetResolver interface {
	// Resolve returns the first successful record from the adapter chain,
	// or a terminal not-found failure for this asset only.
	Resolve(ctx context.Context, identifier string) (*models.AssetRecord, error)

	// InFlight reports the number of outstanding resolutions (observability only)
	InFlight() int64
}

// Scorer turns a raw asset record into a bounded, industry-weighted score.
// Returns nil when the record's fundamentals are insufficient to score.
type Scorer interface {
	Score(record *models.AssetRecord) *models.FundamentalScore

	// SignalFor derives the conviction label ("BUY NOW" / "HOLD" / "AVOID")
	SignalFor(record *models.AssetRecord) string
}

// PortfolioService owns the shared portfolio record: holdings, the analysis
// set, derived analytics, persistence, and cloud sync.
type PortfolioService interface {
	// Load reads the persisted record, defaulting to empty structures when
	// the stored state fails basic shape checks.
	Load(ctx context.Context) error

	// AddAssets parses comma-separated identifiers, registers new holdings,
	// and starts background resolution for each. Returns the accepted
	// normalized identifiers.
	AddAssets(ctx context.Context, input string) ([]string, error)

	// RemoveAsset removes a holding and its analysis
	RemoveAsset(ctx context.Context, identifier string) error

	// UpdateHolding sets quantity and average cost for a holding
	UpdateHolding(ctx context.Context, identifier string, quantity, averageCost float64) error

	// ResolveAsset synchronously resolves one asset and stores the result
	ResolveAsset(ctx context.Context, identifier string) (*models.AssetRecord, error)

	// StoreAnalysis replaces the analysis record for an identifier. Writes
	// for identifiers no longer held become no-ops.
	StoreAnalysis(ctx context.Context, identifier string, record *models.AssetRecord)

	// Record returns a snapshot of the current portfolio record
	Record(ctx context.Context) *models.PortfolioRecord

	// Analysis returns the analysis record for one identifier
	Analysis(ctx context.Context, identifier string) (*models.AssetRecord, bool)

	// AnalysisOrder returns identifiers in analysis-set insertion order
	AnalysisOrder(ctx context.Context) []string

	// Totals aggregates invested capital and current value
	Totals(ctx context.Context) models.PortfolioTotals

	// Aggregates computes health, risk, and efficiency analytics
	Aggregates(ctx context.Context) *models.PortfolioAggregates

	// SyncFromCloud pulls the remote record; a non-empty remote wins.
	// Pull failure switches the service to offline mode (non-fatal).
	SyncFromCloud(ctx context.Context) error

	// Offline reports whether the last cloud sync failed
	Offline() bool

	// Flush persists the current record immediately, bypassing the debounce
	Flush(ctx context.Context) error

	// Close stops the debounced writer and flushes pending state
	Close() error
}

// ChatService is the conversational engine: free text in, free text out.
type ChatService interface {
	Ask(ctx context.Context, query string) (string, error)
}
