// Package market implements a client for fetching price and price-change data
// from the DexScreener API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// PriceData holds the enrichment fields DexScreener provides for one token:
// a USD price and percentage changes per lookback window. Pointer fields are
// nil when the pair does not report that window.
type PriceData struct {
	PriceUsd  *float64
	Change5m  *float64
	Change1h  *float64
	Change6h  *float64
	Change24h *float64
}

type pairResponse struct {
	Pairs []struct {
		PriceUsd    string `json:"priceUsd"`
		PriceChange struct {
			M5  *float64 `json:"m5"`
			H1  *float64 `json:"h1"`
			H6  *float64 `json:"h6"`
			H24 *float64 `json:"h24"`
		} `json:"priceChange"`
	} `json:"pairs"`
}

// Client fetches per-token market data from DexScreener.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a DexScreener client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// PriceData fetches price and change data for one token address. A token with
// no listed pairs returns (nil, nil): not yet tradeable on a DEX is a normal
// state for fresh tokens, not an error.
func (c *Client) PriceData(ctx context.Context, address string) (*PriceData, error) {
	reqURL := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "token-radar/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dexscreener data for %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener returned status %d for %s", resp.StatusCode, address)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dexscreener response for %s: %w", address, err)
	}

	var result pairResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse dexscreener response for %s: %w", address, err)
	}

	if len(result.Pairs) == 0 {
		return nil, nil
	}

	// First pair wins, matching how the dashboard picked its display data.
	pair := result.Pairs[0]
	data := &PriceData{
		Change5m:  pair.PriceChange.M5,
		Change1h:  pair.PriceChange.H1,
		Change6h:  pair.PriceChange.H6,
		Change24h: pair.PriceChange.H24,
	}
	if pair.PriceUsd != "" {
		if p, err := strconv.ParseFloat(pair.PriceUsd, 64); err == nil {
			data.PriceUsd = &p
		}
	}
	return data, nil
}
