// Package screener scrapes stock fundamentals from screener.in company
// pages. Pages are fetched through the relay chain since the site blocks
// unattended direct requests.
package screener

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

const (
	DefaultBaseURL = "https://www.screener.in"

	// growthWindow bounds the scan after a growth block heading
	growthWindow = 1500
)

var (
	nameRe       = regexp.MustCompile(`<h1[^>]*>([^<]+)<`)
	numberRe     = regexp.MustCompile(`class="number">\s*([0-9,.\-]+)`)
	threeYearsRe = regexp.MustCompile(`3 Years:[\s\S]*?([0-9.\-]+)\s?%`)
)

// Client scrapes fundamentals from screener.in.
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

// NewClient creates a screener.in scraping client.
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

// Resolve fetches the consolidated company page and extracts price, name,
// and the fundamental ratio set. A page without a positive current price is
// treated as unparseable.
func (c *Client) Resolve(ctx context.Context, symbol string) (*models.AssetRecord, error) {
	targetURL := fmt.Sprintf("%s/company/%s/consolidated/", c.baseURL, symbol)

	page, err := c.relay.FetchText(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	price := ratioValue(page, "Current Price")
	if price <= 0 {
		return nil, &common.ParseError{Source: "screener", Field: "Current Price"}
	}

	name := symbol
	if m := nameRe.FindStringSubmatch(page); m != nil {
		if trimmed := strings.TrimSpace(m[1]); trimmed != "" {
			name = trimmed
		}
	}

	record := &models.AssetRecord{
		Identifier: symbol,
		Name:       name,
		Price:      price,
		Kind:       models.AssetKindStock,
		Fundamentals: &models.Fundamentals{
			PE:              ratioValue(page, "Stock P/E"),
			ROE:             ratioValue(page, "ROE"),
			ROCE:            ratioValue(page, "ROCE"),
			MarketCap:       ratioValue(page, "Market Cap"),
			OperatingMargin: ratioValue(page, "OPM %"),
			SalesGrowth3Y:   growthValue(page, "Compounded Sales Growth"),
			ProfitGrowth3Y:  growthValue(page, "Compounded Profit Growth"),
		},
		Source:     "screener",
		ResolvedAt: time.Now(),
	}
	return record, nil
}

// ratioValue extracts a labelled ratio from the top-ratios list. The scan
// is bounded to the list markup so stray matches elsewhere on the page
// cannot leak in.
func ratioValue(page, label string) float64 {
	section := topRatiosSection(page)
	if section == "" {
		return 0
	}

	lower := strings.ToLower(section)
	idx := strings.Index(lower, strings.ToLower(label))
	if idx < 0 {
		return 0
	}

	m := numberRe.FindStringSubmatch(section[idx:])
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return value
}

// topRatiosSection slices the page from the top-ratios anchor to the end of
// its list.
func topRatiosSection(page string) string {
	start := strings.Index(page, `id="top-ratios"`)
	if start < 0 {
		return ""
	}
	rest := page[start:]
	end := strings.Index(rest, "</ul>")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// growthValue reads the 3 year figure from a compounded growth table. The
// heading anchors a bounded forward window so the regex cannot wander into
// an unrelated table.
func growthValue(page, heading string) float64 {
	idx := strings.Index(page, heading)
	if idx < 0 {
		return 0
	}

	end := idx + growthWindow
	if end > len(page) {
		end = len(page)
	}

	m := threeYearsRe.FindStringSubmatch(page[idx:end])
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return value
}
