// Package mfapi resolves Indian mutual fund schemes by numeric code using
// the public mfapi.in NAV history endpoint. The endpoint is tried directly
// first; when the direct request fails the same URL is retried through the
// relay chain.
package mfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

const (
	DefaultBaseURL = "https://api.mfapi.in"
	DefaultTimeout = 20 * time.Second

	// navDateLayout matches mfapi.in's DD-MM-YYYY history dates
	navDateLayout = "02-01-2006"
)

// Client fetches fund NAV history from mfapi.in.
type Client struct {
	baseURL    string
	httpClient *http.Client
	relay      interfaces.RelayClient
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the API base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates an mfapi.in client. The relay client is used as a
// fallback transport when direct requests fail.
func NewClient(relay interfaces.RelayClient, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		relay:  relay,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// navResponse mirrors the mfapi.in scheme payload.
type navResponse struct {
	Meta struct {
		SchemeName string `json:"scheme_name"`
		FundHouse  string `json:"fund_house"`
	} `json:"meta"`
	Data []navEntry `json:"data"`
}

// navEntry is one NAV observation; both fields arrive as strings.
type navEntry struct {
	Date string `json:"date"`
	NAV  string `json:"nav"`
}

// Resolve fetches the scheme's NAV history and builds an asset record with
// trailing 1/3/5 year returns computed from the series.
func (c *Client) Resolve(ctx context.Context, code string) (*models.AssetRecord, error) {
	targetURL := fmt.Sprintf("%s/mf/%s", c.baseURL, code)

	payload, err := c.fetchDirect(ctx, targetURL)
	if err != nil {
		c.logger.Debug().
			Str("code", code).
			Err(err).
			Msg("Direct fund fetch failed, retrying through relay")
		payload, err = c.relay.FetchText(ctx, targetURL)
		if err != nil {
			return nil, err
		}
	}

	var resp navResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, &common.ParseError{Source: "mfapi", Field: "body"}
	}
	if len(resp.Data) == 0 {
		return nil, &common.ParseError{Source: "mfapi", Field: "data"}
	}
	if resp.Meta.SchemeName == "" {
		return nil, &common.ParseError{Source: "mfapi", Field: "meta.scheme_name"}
	}

	latestNAV, err := strconv.ParseFloat(resp.Data[0].NAV, 64)
	if err != nil || latestNAV <= 0 {
		return nil, &common.ParseError{Source: "mfapi", Field: "nav"}
	}

	record := &models.AssetRecord{
		Identifier: code,
		Name:       resp.Meta.SchemeName,
		Price:      latestNAV,
		Kind:       models.AssetKindFund,
		FundHouse:  resp.Meta.FundHouse,
		Returns:    trailingReturns(resp.Data),
		Source:     "mfapi",
		ResolvedAt: time.Now(),
	}
	return record, nil
}

// fetchDirect performs the unproxied request.
func (c *Client) fetchDirect(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", &common.TransportError{URL: targetURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &common.TransportError{URL: targetURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &common.TransportError{URL: targetURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &common.TransportError{URL: targetURL, Err: err}
	}
	return string(body), nil
}

// trailingReturns computes 1/3/5 year trailing returns from a newest-first
// NAV series. For each window the anchor is the newest entry dated at or
// before latest minus N years; windows without enough history stay zero.
// The 1 year figure is a simple percentage change, 3 and 5 years are
// annualized.
func trailingReturns(series []navEntry) *models.Returns {
	latestDate, err := time.Parse(navDateLayout, series[0].Date)
	if err != nil {
		return &models.Returns{}
	}
	latestNAV, err := strconv.ParseFloat(series[0].NAV, 64)
	if err != nil || latestNAV <= 0 {
		return &models.Returns{}
	}

	returns := &models.Returns{}
	if nav, ok := navAtOrBefore(series, latestDate.AddDate(-1, 0, 0)); ok {
		returns.R1Y = (latestNAV/nav - 1) * 100
	}
	if nav, ok := navAtOrBefore(series, latestDate.AddDate(-3, 0, 0)); ok {
		returns.R3Y = (math.Pow(latestNAV/nav, 1.0/3.0) - 1) * 100
	}
	if nav, ok := navAtOrBefore(series, latestDate.AddDate(-5, 0, 0)); ok {
		returns.R5Y = (math.Pow(latestNAV/nav, 1.0/5.0) - 1) * 100
	}
	return returns
}

// navAtOrBefore returns the NAV of the newest entry dated at or before the
// cutoff. The series arrives newest-first, so the first qualifying entry is
// the anchor.
func navAtOrBefore(series []navEntry, cutoff time.Time) (float64, bool) {
	for _, entry := range series {
		date, err := time.Parse(navDateLayout, entry.Date)
		if err != nil {
			continue
		}
		if !date.After(cutoff) {
			nav, err := strconv.ParseFloat(entry.NAV, 64)
			if err != nil || nav <= 0 {
				return 0, false
			}
			return nav, true
		}
	}
	return 0, false
}
