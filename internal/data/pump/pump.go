// Package pump implements the client for the pump.fun token listing API.
package pump

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"token-radar/internal/core"
)

// ErrSourceUnavailable wraps every upstream failure mode: network errors,
// timeouts, non-2xx responses, and unparseable bodies. Callers match it with
// errors.Is and treat the tick as having produced zero results.
var ErrSourceUnavailable = errors.New("token source unavailable")

// minMintLength filters out records without a plausible mint address.
const minMintLength = 32

// RawToken is one untrusted record from the listing endpoint. Missing fields
// decode to zero values and are handled during normalization.
type RawToken struct {
	Mint             string  `json:"mint"`
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	Description      string  `json:"description"`
	CreatedTimestamp int64   `json:"created_timestamp"`
	UsdMarketCap     float64 `json:"usd_market_cap"`
	MarketCap        float64 `json:"market_cap"`
	Complete         bool    `json:"complete"`
	TotalSupply      float64 `json:"total_supply"`
	RaydiumPool      string  `json:"raydium_pool"`
	NSFW             bool    `json:"nsfw"`
}

// Valid reports whether the record carries the minimum fields an ingestible
// token needs. Invalid records are skipped, never fatal.
func (r *RawToken) Valid() bool {
	return len(r.Mint) >= minMintLength && r.Name != "" && r.Symbol != ""
}

// ToSnapshot normalizes a raw record into the canonical snapshot.
func (r *RawToken) ToSnapshot(now time.Time) *core.TokenSnapshot {
	complete := r.Complete || r.RaydiumPool != ""

	var price float64
	if r.TotalSupply > 0 {
		price = r.UsdMarketCap / r.TotalSupply
	}

	return &core.TokenSnapshot{
		Mint:              r.Mint,
		Name:              r.Name,
		Symbol:            r.Symbol,
		MarketCapUsd:      r.UsdMarketCap,
		PriceUsd:          price,
		TotalSupply:       r.TotalSupply,
		CreatedAt:         core.NormalizeTimestamp(r.CreatedTimestamp),
		BondingComplete:   complete,
		BondingPercentage: core.BondingPercentage(r.UsdMarketCap, complete),
		RaydiumPool:       r.RaydiumPool,
		ScrapedAt:         now,
	}
}

// Client fetches token listings from the pump.fun frontend API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a listing client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves up to limit of the newest token listings, newest first.
// Any upstream failure surfaces as ErrSourceUnavailable; a successful call
// never returns partially-parsed results.
func (c *Client) Fetch(ctx context.Context, limit int) ([]RawToken, error) {
	q := url.Values{}
	q.Set("offset", "0")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "created_timestamp")
	q.Set("order", "DESC")
	q.Set("includeNsfw", "false")

	reqURL := fmt.Sprintf("%s/coins?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "token-radar/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}

	var tokens []RawToken
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("%w: parse body: %v", ErrSourceUnavailable, err)
	}

	return tokens, nil
}
