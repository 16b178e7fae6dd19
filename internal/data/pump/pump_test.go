package pump

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "48", q.Get("limit"))
		assert.Equal(t, "created_timestamp", q.Get("sort"))
		assert.Equal(t, "DESC", q.Get("order"))
		assert.Equal(t, "false", q.Get("includeNsfw"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"mint":"` + testMint + `","name":"Test Token","symbol":"TEST",
			 "created_timestamp":1705276800000,"usd_market_cap":52000,
			 "complete":false,"total_supply":1000000000},
			{"mint":"short","name":"Broken","symbol":"BRK"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	tokens, err := client.Fetch(context.Background(), 48)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	assert.Equal(t, testMint, tokens[0].Mint)
	assert.Equal(t, "TEST", tokens[0].Symbol)
	assert.True(t, tokens[0].Valid())
	assert.False(t, tokens[1].Valid(), "short mint must be invalid")
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(530)
		w.Write([]byte("origin is unreachable"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Fetch(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.Fetch(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFetchConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)
	_, err := client.Fetch(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestToSnapshot(t *testing.T) {
	now := time.Now()
	raw := RawToken{
		Mint:             testMint,
		Name:             "Test Token",
		Symbol:           "TEST",
		CreatedTimestamp: 1705276800000,
		UsdMarketCap:     52000,
		TotalSupply:      1000000000,
	}

	snap := raw.ToSnapshot(now)
	assert.Equal(t, testMint, snap.Mint)
	assert.InDelta(t, 0.000052, snap.PriceUsd, 1e-9)
	assert.False(t, snap.BondingComplete)
	assert.Equal(t, 75, snap.BondingPercentage)
	assert.Equal(t, time.UnixMilli(1705276800000).Unix(), snap.CreatedAt.Unix())
	assert.Equal(t, now, snap.ScrapedAt)
}

func TestToSnapshotRaydiumPoolImpliesBonded(t *testing.T) {
	raw := RawToken{
		Mint:         testMint,
		Name:         "Graduated",
		Symbol:       "GRAD",
		UsdMarketCap: 52000,
		RaydiumPool:  "pool-address",
	}

	snap := raw.ToSnapshot(time.Now())
	assert.True(t, snap.BondingComplete)
	assert.Equal(t, 100, snap.BondingPercentage)
}

func TestToSnapshotZeroSupply(t *testing.T) {
	raw := RawToken{Mint: testMint, Name: "N", Symbol: "S", UsdMarketCap: 1000}
	snap := raw.ToSnapshot(time.Now())
	assert.Zero(t, snap.PriceUsd)
}
