// Package gfinance scrapes quote pages from Google Finance through the
// relay chain. It serves ETF-like symbols that have no screener.in page,
// trying the NSE listing first and falling back to BSE when Google reports
// the symbol unknown.
package gfinance

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

const DefaultBaseURL = "https://www.google.com/finance"

// notFoundMarker appears on Google's placeholder page for unknown symbols
const notFoundMarker = "Couldn't find"

// priceRes are tried in priority order; markup classes shift between page
// revisions, so older patterns stay as fallbacks.
var priceRes = []*regexp.Regexp{
	regexp.MustCompile(`class="YMlKec fxKbKc">₹?([0-9,.]+)`),
	regexp.MustCompile(`class="AHmHk"[^>]*>₹?([0-9,.]+)<`),
	regexp.MustCompile(`class="zzDege"[^>]*>₹([0-9,.]+)`),
	regexp.MustCompile(`>₹\s?([0-9,.]+)<(?:/span|/div)>`),
}

var (
	nameDivRe   = regexp.MustCompile(`class="zzDege"[^>]*>([^<₹][^<]*)<`)
	nameH1Re    = regexp.MustCompile(`<h1[^>]*>([^<]+)<`)
	yearRangeRe = regexp.MustCompile(`Year range[\s\S]{0,200}?<div[^>]*>₹?([0-9,.]+)\s*-\s*₹?([0-9,.]+)`)
)

// Client scrapes Google Finance quote pages.
type Client struct {
	baseURL string
	relay   interfaces.RelayClient
	logger  *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the site base URL
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

// NewClient creates a Google Finance scraping client.
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

// Resolve fetches the symbol's NSE quote page, retrying the BSE listing
// when Google reports the symbol unknown.
func (c *Client) Resolve(ctx context.Context, symbol string) (*models.AssetRecord, error) {
	page, err := c.fetchPage(ctx, symbol, "NSE")
	if err != nil {
		return nil, err
	}

	if strings.Contains(page, notFoundMarker) {
		c.logger.Debug().
			Str("symbol", symbol).
			Msg("Symbol unknown on NSE, retrying BSE listing")
		page, err = c.fetchPage(ctx, symbol, "BSE")
		if err != nil {
			return nil, err
		}
		if strings.Contains(page, notFoundMarker) {
			return nil, &common.ParseError{Source: "gfinance", Field: "symbol"}
		}
	}

	price := extractPrice(page)
	if price <= 0 {
		return nil, &common.ParseError{Source: "gfinance", Field: "price"}
	}

	low, high, ok := extractYearRange(page)
	if !ok {
		// No published range; synthesize a band around the live price.
		low, high = price*0.95, price*1.05
	}

	record := &models.AssetRecord{
		Identifier: symbol,
		Name:       extractName(page, symbol),
		Price:      price,
		Kind:       models.AssetKindETF,
		Technicals: &models.Technicals{
			High52: high,
			Low52:  low,
		},
		Source:     "gfinance",
		ResolvedAt: time.Now(),
	}
	return record, nil
}

func (c *Client) fetchPage(ctx context.Context, symbol, exchange string) (string, error) {
	targetURL := fmt.Sprintf("%s/quote/%s:%s", c.baseURL, symbol, exchange)
	return c.relay.FetchText(ctx, targetURL)
}

// extractPrice tries the price patterns in priority order.
func extractPrice(page string) float64 {
	for _, re := range priceRes {
		if m := re.FindStringSubmatch(page); m != nil {
			value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
			if err == nil && value > 0 {
				return value
			}
		}
	}
	return 0
}

// extractName prefers the quote header div, then the page h1, then the
// symbol itself.
func extractName(page, symbol string) string {
	if m := nameDivRe.FindStringSubmatch(page); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	if m := nameH1Re.FindStringSubmatch(page); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return symbol
}

// extractYearRange reads the published 52 week low/high pair.
func extractYearRange(page string) (low, high float64, ok bool) {
	m := yearRangeRe.FindStringSubmatch(page)
	if m == nil {
		return 0, 0, false
	}
	low, err1 := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	high, err2 := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err1 != nil || err2 != nil || low <= 0 || high <= 0 {
		return 0, 0, false
	}
	return low, high, true
}
