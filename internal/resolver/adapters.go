package resolver

import (
	"context"
	"strings"

	"github.com/bobmcallan/stocksight/internal/clients/gfinance"
	"github.com/bobmcallan/stocksight/internal/clients/mfapi"
	"github.com/bobmcallan/stocksight/internal/clients/screener"
	"github.com/bobmcallan/stocksight/internal/clients/yahoo"
	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/models"
)

// fundAdapter resolves mutual fund scheme codes via mfapi.in.
type fundAdapter struct {
	client *mfapi.Client
}

func (a *fundAdapter) Name() string { return "mfapi" }

func (a *fundAdapter) Resolve(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	return a.client.Resolve(ctx, identifier)
}

// screenerAdapter resolves stock symbols via screener.in fundamentals,
// enriching the record with beta and trailing returns from Yahoo when
// available. Enrichment is best effort and never fails the resolution.
type screenerAdapter struct {
	client *screener.Client
	yahoo  *yahoo.Client
	logger *common.Logger
}

func (a *screenerAdapter) Name() string { return "screener" }

func (a *screenerAdapter) Resolve(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	record, err := a.client.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if record.Fundamentals != nil {
		beta, err := a.yahoo.Beta(ctx, yahooSymbol(identifier))
		if err != nil {
			a.logger.Debug().
				Str("identifier", identifier).
				Err(err).
				Msg("Beta enrichment failed, using default")
			beta = 1.0
		}
		record.Fundamentals.Beta = beta
	}

	if chart, err := a.yahoo.Chart(ctx, yahooSymbol(identifier)); err == nil {
		record.Returns = chart.Returns
		if record.Technicals == nil {
			record.Technicals = chart.Technicals
		}
	}

	return record, nil
}

// gfinanceAdapter resolves symbols via Google Finance quote pages.
type gfinanceAdapter struct {
	client *gfinance.Client
}

func (a *gfinanceAdapter) Name() string { return "gfinance" }

func (a *gfinanceAdapter) Resolve(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	return a.client.Resolve(ctx, identifier)
}

// yahooAdapter resolves symbols via the Yahoo chart endpoint, falling back
// to the quote endpoint, and retrying the BSE listing for unsuffixed
// symbols before giving up.
type yahooAdapter struct {
	client *yahoo.Client
	logger *common.Logger
}

func (a *yahooAdapter) Name() string { return "yahoo" }

func (a *yahooAdapter) Resolve(ctx context.Context, identifier string) (*models.AssetRecord, error) {
	symbols := []string{yahooSymbol(identifier)}
	if !strings.Contains(identifier, ".") {
		symbols = append(symbols, identifier+".BO")
	}

	var lastErr error
	for _, symbol := range symbols {
		if record, err := a.client.Chart(ctx, symbol); err == nil {
			return record, nil
		} else {
			lastErr = err
		}

		if record, err := a.client.Quote(ctx, symbol); err == nil {
			return record, nil
		} else {
			a.logger.Debug().
				Str("symbol", symbol).
				Err(err).
				Msg("Yahoo quote fallback failed")
			lastErr = err
		}
	}
	return nil, lastErr
}

// yahooSymbol suffixes an identifier for the NSE unless it already carries
// an exchange suffix.
func yahooSymbol(identifier string) string {
	if strings.Contains(identifier, ".") {
		return identifier
	}
	return identifier + ".NS"
}
