package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"token-radar/internal/core"
	"token-radar/internal/data/market"
	"token-radar/internal/data/pump"
	"token-radar/internal/message"
	"token-radar/internal/observability"
	"token-radar/internal/store"
)

// ListingSource fetches raw token listings, newest first.
type ListingSource interface {
	Fetch(ctx context.Context, limit int) ([]pump.RawToken, error)
}

// MarketSource fetches price and change data for one token. A (nil, nil)
// return means the token has no DEX pairs yet.
type MarketSource interface {
	PriceData(ctx context.Context, address string) (*market.PriceData, error)
}

// IngestResult summarizes one ingestion tick.
type IngestResult struct {
	Fetched     int `json:"fetched"`
	Upserted    int `json:"upserted"`
	Skipped     int `json:"skipped"`
	Enriched    int `json:"enriched"`
	NewlyBonded int `json:"newly_bonded"`
}

// Ingestor is the ingestion tick body: fetch listings, normalize, enrich the
// newest slice with market data, and upsert each record independently. Safe to
// invoke concurrently with the scheduled tick — every write is an idempotent
// per-token upsert.
type Ingestor struct {
	source    ListingSource
	enricher  MarketSource // nil disables enrichment
	tokens    store.TokenStore
	publisher message.Publisher
	metrics   *observability.Metrics

	fetchLimit  int
	enrichLimit int
}

// NewIngestor wires an ingestion tick body. enricher may be nil.
func NewIngestor(source ListingSource, enricher MarketSource, tokens store.TokenStore,
	publisher message.Publisher, metrics *observability.Metrics, fetchLimit, enrichLimit int) *Ingestor {
	if fetchLimit <= 0 {
		fetchLimit = 48
	}
	return &Ingestor{
		source:      source,
		enricher:    enricher,
		tokens:      tokens,
		publisher:   publisher,
		metrics:     metrics,
		fetchLimit:  fetchLimit,
		enrichLimit: enrichLimit,
	}
}

// RunOnce executes one ingestion cycle. A source failure returns with the
// store untouched; a single record's failure never aborts the rest of the
// batch.
func (i *Ingestor) RunOnce(ctx context.Context) (IngestResult, error) {
	var result IngestResult

	raw, err := i.source.Fetch(ctx, i.fetchLimit)
	if err != nil {
		return result, fmt.Errorf("fetch listings: %w", err)
	}
	result.Fetched = len(raw)
	if i.metrics != nil {
		i.metrics.TokensFetched.Add(float64(len(raw)))
	}

	log.Printf("📊 Fetched %d tokens from listing source", len(raw))

	now := time.Now()
	for idx := range raw {
		rec := &raw[idx]
		if !rec.Valid() {
			result.Skipped++
			if i.metrics != nil {
				i.metrics.MalformedRecords.Inc()
			}
			log.Printf("⚠️  Skipping malformed record (mint=%q)", rec.Mint)
			continue
		}

		snap := rec.ToSnapshot(now)

		// Listings arrive newest first; only the head of the batch gets a
		// market data lookup to bound enrichment load per tick.
		if i.enricher != nil && result.Enriched < i.enrichLimit {
			if i.enrich(ctx, snap) {
				result.Enriched++
			}
		}

		newlyBonded, err := i.tokens.Upsert(ctx, snap)
		if err != nil {
			result.Skipped++
			log.Printf("❌ Failed to upsert token %s: %v", snap.Mint, err)
			continue
		}
		result.Upserted++
		if i.metrics != nil {
			i.metrics.TokensUpserted.Inc()
		}

		if newlyBonded {
			result.NewlyBonded++
			if i.metrics != nil {
				i.metrics.NewlyBonded.Inc()
			}
			log.Printf("🎉 NEW BONDED TOKEN: %s (%s) - market cap %s",
				snap.Name, snap.Symbol, core.FormatMarketCap(snap.MarketCapUsd))
			i.publishBonded(ctx, snap)
		}
	}

	log.Printf("💾 Ingestion cycle complete: %d upserted, %d skipped, %d enriched, %d newly bonded",
		result.Upserted, result.Skipped, result.Enriched, result.NewlyBonded)
	return result, nil
}

// enrich overlays DexScreener price data onto the snapshot. Reports whether a
// lookup was attempted against the upstream (misses still count toward the
// per-tick enrichment budget).
func (i *Ingestor) enrich(ctx context.Context, snap *core.TokenSnapshot) bool {
	data, err := i.enricher.PriceData(ctx, snap.Mint)
	if err != nil {
		if i.metrics != nil {
			i.metrics.EnrichmentErrors.Inc()
		}
		log.Printf("⚠️  Market data lookup failed for %s: %v", snap.Mint, err)
		return true
	}
	if data == nil {
		return true
	}

	if data.PriceUsd != nil {
		snap.PriceUsd = *data.PriceUsd
	}
	snap.Change5m = data.Change5m
	snap.Change1h = data.Change1h
	snap.Change6h = data.Change6h
	snap.Change24h = data.Change24h
	return true
}

func (i *Ingestor) publishBonded(ctx context.Context, snap *core.TokenSnapshot) {
	event := message.TokenBondedEvent{
		Mint:         snap.Mint,
		Name:         snap.Name,
		Symbol:       snap.Symbol,
		MarketCapUsd: snap.MarketCapUsd,
		RaydiumPool:  snap.RaydiumPool,
		BondedAt:     snap.ScrapedAt,
	}
	if err := i.publisher.PublishTokenBonded(ctx, event); err != nil {
		log.Printf("❌ Failed to publish bonded event for %s: %v", snap.Mint, err)
	}
}
