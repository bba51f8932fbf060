package interfaces

import (
	"context"

	"github.com/bobmcallan/stocksight/internal/models"
)

// PortfolioStore persists the portfolio record.
type PortfolioStore interface {
	// Load returns the stored record, or an empty record when nothing was
	// persisted yet or the stored state is corrupt.
	Load(ctx context.Context) (*models.PortfolioRecord, error)

	// Save replaces the stored record
	Save(ctx context.Context, record *models.PortfolioRecord) error

	Close() error
}
