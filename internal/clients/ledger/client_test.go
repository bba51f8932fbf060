package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocksight/internal/models"
)

func TestPullFiltersBlacklistedAndMalformedKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"reliance": {"qty": 10, "avg": 2500},
			"GOLDBEES": {"qty": 100, "avg": 52.1},
			"status": "ok",
			"sync-ts": 1719500000,
			"version": 3
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	holdings, err := client.Pull(context.Background())
	require.NoError(t, err)

	require.Len(t, holdings, 2)
	assert.Equal(t, 10.0, holdings["RELIANCE"].Quantity)
	assert.Equal(t, 52.1, holdings["GOLDBEES"].AverageCost)
}

func TestPullRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "error", "message": "quota exceeded"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	_, err := client.Pull(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestPushSucceedsOnAck(t *testing.T) {
	var got map[string]models.Holding
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"status": "success"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	holdings := map[string]models.Holding{"RELIANCE": {Quantity: 5, AverageCost: 2400}}
	require.NoError(t, client.Push(context.Background(), holdings))
	assert.Equal(t, holdings, got)
}

func TestPushResendsExactlyOnceOnFailure(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	err := client.Push(context.Background(), map[string]models.Holding{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "degraded")
	assert.Equal(t, int64(2), calls.Load())
}

func TestPushResendOutcomeIsIgnored(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"status": "success"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	// Even a successful resend leaves the push degraded.
	err := client.Push(context.Background(), map[string]models.Holding{})
	require.Error(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestPushRejectsNonSuccessAck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "error", "message": "bad payload"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	err := client.Push(context.Background(), map[string]models.Holding{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad payload")
}
