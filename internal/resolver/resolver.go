// Package resolver classifies asset identifiers and runs each through an
// ordered chain of source adapters. The first adapter producing a record
// with a positive price wins; adapter failures are recovered by advancing
// down the chain, and only full exhaustion surfaces as a terminal
// not-found failure scoped to that asset.
package resolver

import (
	"context"
	"sync/atomic"

	"github.com/bobmcallan/stocksight/internal/clients/gfinance"
	"github.com/bobmcallan/stocksight/internal/clients/mfapi"
	"github.com/bobmcallan/stocksight/internal/clients/screener"
	"github.com/bobmcallan/stocksight/internal/clients/yahoo"
	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

// Clients bundles the source clients the adapter chain is built from.
type Clients struct {
	MFAPI    *mfapi.Client
	Screener *screener.Client
	GFinance *gfinance.Client
	Yahoo    *yahoo.Client
}

// Resolver implements interfaces.AssetResolver.
type Resolver struct {
	fund     interfaces.Adapter
	screener interfaces.Adapter
	gfinance interfaces.Adapter
	yahoo    interfaces.Adapter
	logger   *common.Logger
	inFlight atomic.Int64
}

// New builds the resolver over the given source clients.
func New(clients Clients, logger *common.Logger) *Resolver {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Resolver{
		fund:     &fundAdapter{client: clients.MFAPI},
		screener: &screenerAdapter{client: clients.Screener, yahoo: clients.Yahoo, logger: logger},
		gfinance: &gfinanceAdapter{client: clients.GFinance},
		yahoo:    &yahooAdapter{client: clients.Yahoo, logger: logger},
		logger:   logger,
	}
}

// chainFor selects the adapter order for an identifier. Fund codes go
// straight to mfapi; ETF-looking symbols skip screener.in, which has no
// pages for them.
func (r *Resolver) chainFor(identifier string) []interfaces.Adapter {
	switch {
	case models.IsFundCode(identifier):
		return []interfaces.Adapter{r.fund}
	case models.IsETFLikely(identifier):
		return []interfaces.Adapter{r.gfinance, r.yahoo}
	default:
		return []interfaces.Adapter{r.screener, r.gfinance, r.yahoo}
	}
}

// Resolve runs the identifier through its adapter chain.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)

	identifier = models.NormalizeIdentifier(identifier)
	if identifier == "" {
		return nil, &common.NotFoundError{Identifier: identifier}
	}

	var lastErr error
	for _, adapter := range r.chainFor(identifier) {
		record, err := adapter.Resolve(ctx, identifier)
		if err != nil {
			r.logger.Debug().
				Str("identifier", identifier).
				Str("adapter", adapter.Name()).
				Err(err).
				Msg("Adapter failed, advancing chain")
			lastErr = err
			continue
		}
		if record == nil || record.Price <= 0 {
			r.logger.Debug().
				Str("identifier", identifier).
				Str("adapter", adapter.Name()).
				Msg("Adapter returned no usable price, advancing chain")
			continue
		}

		record.Identifier = identifier
		r.logger.Info().
			Str("identifier", identifier).
			Str("source", record.Source).
			Float64("price", record.Price).
			Msg("Asset resolved")
		return record, nil
	}

	return nil, &common.NotFoundError{Identifier: identifier, Last: lastErr}
}

// InFlight reports the number of resolutions currently running.
func (r *Resolver) InFlight() int64 {
	return r.inFlight.Load()
}

// Ensure Resolver implements AssetResolver
var _ interfaces.AssetResolver = (*Resolver)(nil)
