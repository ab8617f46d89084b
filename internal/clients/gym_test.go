package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/tradegym/internal/domain"
)

func TestGymClientSelect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/select", r.URL.Path)
		require.Equal(t, "Upbit", r.URL.Query().Get("exchange"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"fee_rt": "0.0005"}`)
	}))
	defer server.Close()

	client := NewGymClient(server.URL)

	feeRate, err := client.Select(context.Background(), "Upbit")
	require.NoError(t, err)
	assert.True(t, feeRate.Equal(decimal.NewFromFloat(0.0005)), "got %s", feeRate.String())
}

func TestGymClientReset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reset", r.URL.Path)
		require.Equal(t, "agent-1", r.URL.Query().Get("agent_id"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"obs": {"fee_rt": "0.0005", "cur_price": "100", "t": 0, "data": ["100"]}}`)
	}))
	defer server.Close()

	client := NewGymClient(server.URL)

	obs, err := client.Reset(context.Background(), "agent-1")
	require.NoError(t, err)

	assert.Equal(t, 0, obs.T)
	assert.True(t, obs.CurPrice.Equal(decimal.NewFromInt(100)))
	require.Len(t, obs.Window, 1)
}

func TestGymClientStep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/step", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"next_obs": {"cur_price": "101", "t": 1, "data": ["100", "101"]},
			"reward": "10",
			"rewards": {"return_amt": "10", "return_per": "1", "return_sign": 1, "fee": "0.5", "hit": 1, "real_hit": 0, "score_amt": "10", "score": "1"},
			"done": false,
			"info": {"msg": ""}
		}`)
	}))
	defer server.Close()

	client := NewGymClient(server.URL)

	result, err := client.Step(context.Background(), "agent-1", domain.TradeRequest{
		Ticker:   "BTC",
		Decision: domain.Buy,
		Price:    decimal.NewFromInt(100),
		Qty:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Observation.T)
	assert.True(t, result.Reward.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, result.Metrics)
	assert.Equal(t, 1, result.Metrics.ReturnSign)
	assert.True(t, result.Metrics.Hit)
	assert.False(t, result.Metrics.RealHit)
	assert.False(t, result.Done)
}

func TestGymClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewGymClient(server.URL)

	_, err := client.Select(context.Background(), "Upbit")
	require.Error(t, err)
}
