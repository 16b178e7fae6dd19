package scraper

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/data/market"
	"token-radar/internal/data/pump"
	"token-radar/internal/message"
	"token-radar/internal/store"
)

const (
	mintA = "AaaaAaaaAaaaAaaaAaaaAaaaAaaaAaaaAaaaAaaa1111"
	mintB = "BbbbBbbbBbbbBbbbBbbbBbbbBbbbBbbbBbbbBbbb2222"
)

type fakeListingSource struct {
	tokens []pump.RawToken
	err    error
	calls  int
}

func (f *fakeListingSource) Fetch(ctx context.Context, limit int) ([]pump.RawToken, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

type fakeMarketSource struct {
	data map[string]*market.PriceData
}

func (f *fakeMarketSource) PriceData(ctx context.Context, address string) (*market.PriceData, error) {
	return f.data[address], nil
}

type capturePublisher struct {
	mu        sync.Mutex
	triggered []message.AlertTriggeredEvent
	bonded    []message.TokenBondedEvent
}

func (p *capturePublisher) PublishAlertTriggered(ctx context.Context, e message.AlertTriggeredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.triggered = append(p.triggered, e)
	return nil
}

func (p *capturePublisher) PublishTokenBonded(ctx context.Context, e message.TokenBondedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bonded = append(p.bonded, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func rawToken(mint, symbol string, marketCap float64) pump.RawToken {
	return pump.RawToken{
		Mint:         mint,
		Name:         symbol + " Token",
		Symbol:       symbol,
		UsdMarketCap: marketCap,
		TotalSupply:  1_000_000_000,
	}
}

func TestIngestRunOnce(t *testing.T) {
	source := &fakeListingSource{tokens: []pump.RawToken{
		rawToken(mintA, "AAA", 52000),
		rawToken(mintB, "BBB", 1200),
	}}
	tokens := store.NewMemoryTokenStore()
	pub := &capturePublisher{}

	ing := NewIngestor(source, nil, tokens, pub, nil, 48, 0)
	result, err := ing.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Upserted)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.NewlyBonded)

	snap, err := tokens.GetByMint(context.Background(), mintA)
	require.NoError(t, err)
	assert.Equal(t, "AAA", snap.Symbol)
	assert.Equal(t, 75, snap.BondingPercentage)
}

func TestIngestIdempotent(t *testing.T) {
	source := &fakeListingSource{tokens: []pump.RawToken{rawToken(mintA, "AAA", 52000)}}
	tokens := store.NewMemoryTokenStore()
	ing := NewIngestor(source, nil, tokens, message.NopPublisher{}, nil, 48, 0)

	for i := 0; i < 2; i++ {
		result, err := ing.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Upserted)
	}

	snaps, err := tokens.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 1, "repeated ingestion of the same mint must not duplicate rows")
}

func TestIngestSkipsMalformedAndContinues(t *testing.T) {
	source := &fakeListingSource{tokens: []pump.RawToken{
		{Mint: "too-short", Name: "Bad", Symbol: "BAD"},
		rawToken(mintA, "AAA", 52000),
		{Mint: mintB, Name: "", Symbol: "NON"},
	}}
	tokens := store.NewMemoryTokenStore()
	ing := NewIngestor(source, nil, tokens, message.NopPublisher{}, nil, 48, 0)

	result, err := ing.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 1, result.Upserted)
	assert.Equal(t, 2, result.Skipped)

	_, err = tokens.GetByMint(context.Background(), mintA)
	assert.NoError(t, err, "valid record after a malformed one must still land")
}

func TestIngestSourceFailureLeavesStoreUntouched(t *testing.T) {
	source := &fakeListingSource{err: pump.ErrSourceUnavailable}
	tokens := store.NewMemoryTokenStore()
	ing := NewIngestor(source, nil, tokens, message.NopPublisher{}, nil, 48, 0)

	_, err := ing.RunOnce(context.Background())
	require.ErrorIs(t, err, pump.ErrSourceUnavailable)

	snaps, err := tokens.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestIngestPublishesNewlyBondedOnce(t *testing.T) {
	bonding := rawToken(mintA, "AAA", 52000)
	source := &fakeListingSource{tokens: []pump.RawToken{bonding}}
	tokens := store.NewMemoryTokenStore()
	pub := &capturePublisher{}
	ing := NewIngestor(source, nil, tokens, pub, nil, 48, 0)

	_, err := ing.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pub.bonded)

	// The token graduates between ticks.
	bonding.Complete = true
	bonding.UsdMarketCap = 71867
	source.tokens = []pump.RawToken{bonding}

	result, err := ing.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewlyBonded)
	require.Len(t, pub.bonded, 1)
	assert.Equal(t, mintA, pub.bonded[0].Mint)

	// A third tick with the token still bonded emits nothing new.
	result, err = ing.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewlyBonded)
	assert.Len(t, pub.bonded, 1)
}

func TestIngestEnrichmentBudget(t *testing.T) {
	change := 15.0
	price := 0.0006
	enricher := &fakeMarketSource{data: map[string]*market.PriceData{
		mintA: {PriceUsd: &price, Change24h: &change},
	}}
	source := &fakeListingSource{tokens: []pump.RawToken{
		rawToken(mintA, "AAA", 52000),
		rawToken(mintB, "BBB", 1200),
	}}
	tokens := store.NewMemoryTokenStore()

	ing := NewIngestor(source, enricher, tokens, message.NopPublisher{}, nil, 48, 1)
	result, err := ing.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Enriched, "only the head of the batch gets enriched")

	snap, err := tokens.GetByMint(context.Background(), mintA)
	require.NoError(t, err)
	assert.Equal(t, price, snap.PriceUsd)
	require.NotNil(t, snap.Change24h)
	assert.Equal(t, change, *snap.Change24h)

	other, err := tokens.GetByMint(context.Background(), mintB)
	require.NoError(t, err)
	assert.Nil(t, other.Change24h)
}
