// Package ledger syncs the holdings map with the remote ledger endpoint.
// The ledger is best-effort cloud backup, never the source of truth, so
// push failures degrade rather than fail the caller's operation.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/interfaces"
	"github.com/bobmcallan/stocksight/internal/models"
)

const DefaultTimeout = 15 * time.Second

// Client implements interfaces.LedgerClient over a single JSON endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

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

// NewClient creates a ledger client for the given endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// syncResponse is the ledger's acknowledgement envelope.
type syncResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Pull fetches the remote holdings map. Blacklisted and malformed keys are
// dropped rather than failing the pull.
func (c *Client) Pull(ctx context.Context) (map[string]models.Holding, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, &common.TransportError{URL: c.endpoint, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.TransportError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &common.TransportError{URL: c.endpoint, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.TransportError{URL: c.endpoint, Err: err}
	}

	var status syncResponse
	if err := json.Unmarshal(body, &status); err == nil && status.Status == "error" {
		return nil, fmt.Errorf("ledger pull rejected: %s", status.Message)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &common.ParseError{Source: "ledger", Field: "body"}
	}

	holdings := make(map[string]models.Holding)
	for key, value := range raw {
		if models.IsBlacklistedKey(key) {
			continue
		}
		var holding models.Holding
		if err := json.Unmarshal(value, &holding); err != nil {
			continue
		}
		holdings[models.NormalizeIdentifier(key)] = holding
	}
	return holdings, nil
}

// Push uploads the holdings map. On any failure it performs exactly one
// blind resend whose response is ignored, then reports a degraded error so
// the caller can mark the sync offline without aborting.
func (c *Client) Push(ctx context.Context, holdings map[string]models.Holding) error {
	body, err := json.Marshal(holdings)
	if err != nil {
		return &common.ValidationError{Reason: "holdings not serializable"}
	}

	if err := c.send(ctx, body); err != nil {
		c.logger.Debug().
			Err(err).
			Msg("Ledger push failed, attempting one blind resend")
		// Fire-and-forget retry; its outcome does not change the result.
		c.send(ctx, body)
		return fmt.Errorf("ledger push degraded: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &common.TransportError{URL: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &common.TransportError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &common.TransportError{URL: c.endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &common.TransportError{URL: c.endpoint, Status: resp.StatusCode}
	}

	var ack syncResponse
	if err := json.Unmarshal(respBody, &ack); err != nil {
		return &common.ParseError{Source: "ledger", Field: "body"}
	}
	if ack.Status != "success" {
		return fmt.Errorf("ledger push rejected: %s", ack.Message)
	}
	return nil
}

// Ensure Client implements LedgerClient
var _ interfaces.LedgerClient = (*Client)(nil)
