// Package yahoo fetches price history and quotes from the public Yahoo
// Finance chart and quote endpoints through the relay chain. Symbols are
// suffixed for the Indian exchanges (.NS, falling back to .BO).
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches Yahoo Finance chart and quote data.
type Client struct {
	baseURL string
	relay   interfaces.RelayClient
	logger  *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the API base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Yahoo Finance client.
func NewClient(relay interfaces.RelayClient, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		relay:   relay,
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// chartResponse mirrors the v8 chart payload, keeping only what the
// record needs. Close values are nullable on holidays.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
				FiftyDayAverage    float64 `json:"fiftyDayAverage"`
				TwoHundredDayAvg   float64 `json:"twoHundredDayAverage"`
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// quoteResponse mirrors the v7 quote payload.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			ShortName          string  `json:"shortName"`
			LongName           string  `json:"longName"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			TrailingPE         float64 `json:"trailingPE"`
			Beta               float64 `json:"beta"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// Chart fetches five years of monthly candles for an already-suffixed
// symbol and derives trailing returns plus technicals from the series.
func (c *Client) Chart(ctx context.Context, symbol string) (*models.AssetRecord, error) {
	targetURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1mo&range=5y", c.baseURL, url.PathEscape(symbol))

	payload, err := c.relay.FetchFinance(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, &common.ParseError{Source: "yahoo chart", Field: "body"}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, &common.ParseError{Source: "yahoo chart", Field: "chart.result"}
	}

	result := resp.Chart.Result[0]
	if result.Meta.RegularMarketPrice <= 0 {
		return nil, &common.ParseError{Source: "yahoo chart", Field: "meta.regularMarketPrice"}
	}

	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	name := result.Meta.ShortName
	if name == "" {
		name = result.Meta.LongName
	}
	if name == "" {
		name = trimSuffix(symbol)
	}

	record := &models.AssetRecord{
		Identifier: trimSuffix(symbol),
		Name:       name,
		Price:      result.Meta.RegularMarketPrice,
		Kind:       models.AssetKindETF,
		Returns: &models.Returns{
			R1Y: monthlyReturn(closes, result.Meta.RegularMarketPrice, 12),
			R3Y: monthlyReturn(closes, result.Meta.RegularMarketPrice, 36),
			R5Y: monthlyReturn(closes, result.Meta.RegularMarketPrice, 60),
		},
		Technicals: &models.Technicals{
			High52: result.Meta.FiftyTwoWeekHigh,
			Low52:  result.Meta.FiftyTwoWeekLow,
			MA50:   result.Meta.FiftyDayAverage,
			MA200:  result.Meta.TwoHundredDayAvg,
		},
		Source:     "yahoo",
		ResolvedAt: time.Now(),
	}
	return record, nil
}

// Quote fetches a single v7 quote for an already-suffixed symbol. Records
// carrying a trailing P/E are classed as stocks, everything else as ETFs.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.AssetRecord, error) {
	targetURL := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	payload, err := c.relay.FetchFinance(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, &common.ParseError{Source: "yahoo quote", Field: "body"}
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, &common.ParseError{Source: "yahoo quote", Field: "quoteResponse.result"}
	}

	result := resp.QuoteResponse.Result[0]
	if result.RegularMarketPrice <= 0 {
		return nil, &common.ParseError{Source: "yahoo quote", Field: "regularMarketPrice"}
	}

	name := result.ShortName
	if name == "" {
		name = result.LongName
	}
	if name == "" {
		name = trimSuffix(symbol)
	}

	kind := models.AssetKindETF
	var fundamentals *models.Fundamentals
	if result.TrailingPE > 0 {
		kind = models.AssetKindStock
		fundamentals = &models.Fundamentals{
			PE:   result.TrailingPE,
			Beta: result.Beta,
		}
	}

	record := &models.AssetRecord{
		Identifier:   trimSuffix(symbol),
		Name:         name,
		Price:        result.RegularMarketPrice,
		Kind:         kind,
		Fundamentals: fundamentals,
		Returns:      &models.Returns{},
		Source:       "yahoo",
		ResolvedAt:   time.Now(),
	}
	return record, nil
}

// Beta fetches just the beta figure for a symbol, defaulting to 1.0 when
// the quote has none.
func (c *Client) Beta(ctx context.Context, symbol string) (float64, error) {
	record, err := c.Quote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if record.Fundamentals == nil || record.Fundamentals.Beta <= 0 {
		return 1.0, nil
	}
	return record.Fundamentals.Beta, nil
}

// monthlyReturn computes the trailing return over a month count from a
// monthly close series. One year is a simple percentage, longer windows
// are annualized. Returns zero when the series is too short.
func monthlyReturn(closes []*float64, latest float64, months int) float64 {
	if latest <= 0 || len(closes) <= months {
		return 0
	}

	// Walk back from the target index to skip null closes.
	idx := len(closes) - 1 - months
	var old float64
	for i := idx; i >= 0; i-- {
		if closes[i] != nil && *closes[i] > 0 {
			old = *closes[i]
			break
		}
	}
	if old <= 0 {
		return 0
	}

	if months <= 12 {
		return (latest/old - 1) * 100
	}
	return (math.Pow(latest/old, 12.0/float64(months)) - 1) * 100
}

// trimSuffix strips the exchange suffix from a Yahoo symbol.
func trimSuffix(symbol string) string {
	symbol = strings.TrimSuffix(symbol, ".NS")
	symbol = strings.TrimSuffix(symbol, ".BO")
	return symbol
}
