package mfapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocksight/internal/common"
	"github.com/bobmcallan/stocksight/internal/models"
)

// stubRelay returns a canned payload or error for every fetch.
type stubRelay struct {
	payload string
	err     error
	calls   int
}

func (s *stubRelay) FetchText(ctx context.Context, targetURL string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.payload, nil
}

func (s *stubRelay) FetchFinance(ctx context.Context, targetURL string) (string, error) {
	return s.FetchText(ctx, targetURL)
}

const fundPayload = `{
	"meta": {"scheme_name": "Parag Parikh Flexi Cap Fund - Direct Growth", "fund_house": "PPFAS Mutual Fund"},
	"data": [
		{"date": "28-06-2024", "nav": "80.00"},
		{"date": "27-06-2024", "nav": "79.50"},
		{"date": "28-06-2023", "nav": "64.00"},
		{"date": "28-06-2021", "nav": "50.00"},
		{"date": "28-06-2019", "nav": "40.00"}
	]
}`

func TestResolveDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mf/122639", r.URL.Path)
		fmt.Fprint(w, fundPayload)
	}))
	defer srv.Close()

	relay := &stubRelay{}
	client := NewClient(relay, WithBaseURL(srv.URL))

	record, err := client.Resolve(context.Background(), "122639")
	require.NoError(t, err)

	assert.Equal(t, "Parag Parikh Flexi Cap Fund - Direct Growth", record.Name)
	assert.Equal(t, "PPFAS Mutual Fund", record.FundHouse)
	assert.Equal(t, models.AssetKindFund, record.Kind)
	assert.Equal(t, 80.0, record.Price)
	assert.Equal(t, "mfapi", record.Source)
	assert.Zero(t, relay.calls)
}

func TestResolveFallsBackToRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	relay := &stubRelay{payload: fundPayload}
	client := NewClient(relay, WithBaseURL(srv.URL))

	record, err := client.Resolve(context.Background(), "122639")
	require.NoError(t, err)
	assert.Equal(t, 1, relay.calls)
	assert.Equal(t, 80.0, record.Price)
}

func TestResolveRejectsEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta": {"scheme_name": "X", "fund_house": "Y"}, "data": []}`)
	}))
	defer srv.Close()

	client := NewClient(&stubRelay{}, WithBaseURL(srv.URL))

	_, err := client.Resolve(context.Background(), "100001")
	require.Error(t, err)

	var pe *common.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestResolveRejectsMissingSchemeName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta": {"fund_house": "Y"}, "data": [{"date": "28-06-2024", "nav": "10.0"}]}`)
	}))
	defer srv.Close()

	client := NewClient(&stubRelay{}, WithBaseURL(srv.URL))

	_, err := client.Resolve(context.Background(), "100001")
	require.Error(t, err)

	var pe *common.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestTrailingReturnsAnchorsAtOrBeforeCutoff(t *testing.T) {
	series := []navEntry{
		{Date: "28-06-2024", NAV: "80.00"},
		{Date: "30-06-2023", NAV: "99.00"}, // after the 1y cutoff, skipped
		{Date: "28-06-2023", NAV: "64.00"},
		{Date: "28-06-2021", NAV: "50.00"},
		{Date: "28-06-2019", NAV: "40.00"},
	}

	returns := trailingReturns(series)

	// 1y: 80/64 - 1 = 25% simple
	assert.InDelta(t, 25.0, returns.R1Y, 0.01)
	// 3y: (80/50)^(1/3) - 1 annualized
	assert.InDelta(t, 16.96, returns.R3Y, 0.05)
	// 5y: (80/40)^(1/5) - 1 annualized
	assert.InDelta(t, 14.87, returns.R5Y, 0.05)
}

func TestTrailingReturnsOmitsShortWindows(t *testing.T) {
	series := []navEntry{
		{Date: "28-06-2024", NAV: "80.00"},
		{Date: "28-06-2023", NAV: "64.00"},
	}

	returns := trailingReturns(series)

	assert.InDelta(t, 25.0, returns.R1Y, 0.01)
	assert.Zero(t, returns.R3Y)
	assert.Zero(t, returns.R5Y)
}
