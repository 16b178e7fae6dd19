package core

import (
	"fmt"
	"math"
	"time"
)

// BondingThresholdUSD is the market cap at which a token completes its bonding
// curve and graduates to a full liquidity pool.
const BondingThresholdUSD = 69000

// Timeframe is a lookback window for percentage-change alerts.
type Timeframe string

const (
	Timeframe5m  Timeframe = "5m"
	Timeframe1h  Timeframe = "1h"
	Timeframe6h  Timeframe = "6h"
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
)

// ValidTimeframe reports whether tf is one of the supported lookback windows.
func ValidTimeframe(tf Timeframe) bool {
	switch tf {
	case Timeframe5m, Timeframe1h, Timeframe6h, Timeframe24h, Timeframe7d:
		return true
	}
	return false
}

// TokenSnapshot is the latest observed market state of one token.
// It is overwritten in place on every ingestion cycle; the ingestion loop is
// the only writer.
type TokenSnapshot struct {
	Mint              string
	Name              string
	Symbol            string
	MarketCapUsd      float64
	PriceUsd          float64
	TotalSupply       float64
	CreatedAt         time.Time
	BondingComplete   bool
	BondingPercentage int
	RaydiumPool       string

	// Percentage changes by timeframe, filled in by market enrichment.
	// nil means no data for that window yet.
	Change5m  *float64
	Change1h  *float64
	Change6h  *float64
	Change24h *float64
	Change7d  *float64

	ScrapedAt time.Time
}

// Change returns the percentage change for the given timeframe, and whether
// any data exists for it.
func (s *TokenSnapshot) Change(tf Timeframe) (float64, bool) {
	var p *float64
	switch tf {
	case Timeframe5m:
		p = s.Change5m
	case Timeframe1h:
		p = s.Change1h
	case Timeframe6h:
		p = s.Change6h
	case Timeframe24h:
		p = s.Change24h
	case Timeframe7d:
		p = s.Change7d
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Change24hValue returns the 24h change or 0 when unknown. Trigger records
// store this value regardless of the alert's own timeframe.
func (s *TokenSnapshot) Change24hValue() float64 {
	if s.Change24h == nil {
		return 0
	}
	return *s.Change24h
}

// BondingPercentage derives the bonding progress of a token. A token only
// reports 100 when the source marks it complete (or it has a liquidity pool
// attached); market cap alone caps at 99 so rounding can never fake a bond.
func BondingPercentage(marketCapUsd float64, complete bool) int {
	if complete {
		return 100
	}
	if marketCapUsd <= 0 {
		return 0
	}
	pct := int(math.Round(marketCapUsd / BondingThresholdUSD * 100))
	if pct > 99 {
		pct = 99
	}
	return pct
}

// FormatMarketCap renders a USD market cap for display: "$123.45" below 1K,
// "$71.87K" below 1M, "$2.10M" above.
func FormatMarketCap(marketCapUsd float64) string {
	switch {
	case marketCapUsd >= 1e6:
		return fmt.Sprintf("$%.2fM", marketCapUsd/1e6)
	case marketCapUsd >= 1e3:
		return fmt.Sprintf("$%.2fK", marketCapUsd/1e3)
	default:
		return fmt.Sprintf("$%.2f", marketCapUsd)
	}
}

// NormalizeTimestamp converts a source timestamp that may be seconds or
// milliseconds since epoch into a time.Time. Values above 1e12 are treated as
// already-milliseconds.
func NormalizeTimestamp(ts int64) time.Time {
	if ts <= 0 {
		return time.Time{}
	}
	if ts > 1_000_000_000_000 {
		return time.UnixMilli(ts)
	}
	return time.Unix(ts, 0)
}
