// Package relay fetches arbitrary URLs through an ordered list of public
// network relays, used to reach data sources that block direct access.
// Each relay either returns the payload as raw text or wraps it in a JSON
// envelope field. Failures advance to the next relay; the last error is
// surfaced only after the full list is exhausted.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	// minPayloadLength rejects empty or blocked-page responses
	minPayloadLength = 50
)

// financeMarkers are structural strings one of which must appear in a
// financial chart/quote payload, unless the payload parses as JSON.
var financeMarkers = []string{"Chart", "quoteResponse", "QuoteSummaryStore"}

// Relay describes one intermediary endpoint.
type Relay struct {
	Name     string
	Build    func(target string) string // transforms the target URL into a relay request URL
	Envelope string                     // JSON field holding the payload, empty for raw text
}

// DefaultRelays returns the fixed ordered relay list.
func DefaultRelays() []Relay {
	return []Relay{
		{
			Name: "codetabs",
			Build: func(target string) string {
				return "https://api.codetabs.com/v1/proxy?quest=" + url.QueryEscape(target)
			},
		},
		{
			Name: "allorigins",
			Build: func(target string) string {
				return fmt.Sprintf("https://api.allorigins.win/get?url=%s&t=%d",
					url.QueryEscape(target), time.Now().UnixMilli())
			},
			Envelope: "contents",
		},
		{
			Name: "corsproxy",
			Build: func(target string) string {
				return "https://corsproxy.io/?" + url.QueryEscape(target)
			},
		},
		{
			Name: "thingproxy",
			Build: func(target string) string {
				return "https://thingproxy.freeboard.io/fetch/" + url.QueryEscape(target)
			},
		},
	}
}

// Client implements interfaces.RelayClient.
type Client struct {
	relays     []Relay
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithRelays replaces the relay list
func WithRelays(relays []Relay) ClientOption {
	return func(c *Client) {
		c.relays = relays
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a relay client over the default relay list.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		relays: DefaultRelays(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchText fetches the target URL through the relay list.
func (c *Client) FetchText(ctx context.Context, targetURL string) (string, error) {
	return c.fetch(ctx, targetURL, false)
}

// FetchFinance fetches a financial chart/quote payload, additionally
// requiring a structural marker or valid JSON.
func (c *Client) FetchFinance(ctx context.Context, targetURL string) (string, error) {
	return c.fetch(ctx, targetURL, true)
}

func (c *Client) fetch(ctx context.Context, targetURL string, finance bool) (string, error) {
	var lastErr error

	for _, r := range c.relays {
		payload, err := c.attempt(ctx, r, targetURL, finance)
		if err != nil {
			c.logger.Debug().
				Str("relay", r.Name).
				Str("target", targetURL).
				Err(err).
				Msg("Relay attempt failed")
			lastErr = err
			continue
		}
		c.logger.Debug().
			Str("relay", r.Name).
			Str("target", targetURL).
			Int("bytes", len(payload)).
			Msg("Relay fetch succeeded")
		return payload, nil
	}

	if lastErr == nil {
		lastErr = &common.ValidationError{Reason: "no relays configured"}
	}
	return "", lastErr
}

// attempt performs a single relay request and validates the payload.
func (c *Client) attempt(ctx context.Context, r Relay, targetURL string, finance bool) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &common.TransportError{URL: targetURL, Err: err}
	}

	reqURL := r.Build(targetURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &common.TransportError{URL: reqURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &common.TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &common.TransportError{URL: reqURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &common.TransportError{URL: reqURL, Err: err}
	}

	payload := string(body)
	if r.Envelope != "" {
		payload, err = unwrapEnvelope(body, r.Envelope)
		if err != nil {
			return "", err
		}
	}

	if len(payload) < minPayloadLength {
		return "", &common.ValidationError{Reason: fmt.Sprintf("payload too short (%d bytes)", len(payload))}
	}

	if finance && !validFinancePayload(payload) {
		return "", &common.ValidationError{Reason: "payload missing financial structure markers"}
	}

	return payload, nil
}

// unwrapEnvelope extracts the payload from a JSON envelope field.
func unwrapEnvelope(body []byte, field string) (string, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &common.ValidationError{Reason: "envelope is not valid JSON"}
	}
	raw, ok := envelope[field]
	if !ok {
		return "", &common.ParseError{Source: "relay envelope", Field: field}
	}
	var payload string
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Some relays return the payload as a nested JSON value rather
		// than an encoded string.
		return string(raw), nil
	}
	return payload, nil
}

// validFinancePayload accepts payloads carrying a known structural marker
// or parsing as a JSON object/array.
func validFinancePayload(payload string) bool {
	for _, marker := range financeMarkers {
		if strings.Contains(payload, marker) {
			return true
		}
	}
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return json.Valid([]byte(trimmed))
	}
	return false
}

// Ensure Client implements RelayClient
var _ interfaces.RelayClient = (*Client)(nil)
