package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/core"
	"token-radar/internal/message"
	"token-radar/internal/store"
)

// countingTokenStore counts List calls so tests can assert the sweep skips the
// snapshot read when nothing is pending.
type countingTokenStore struct {
	store.TokenStore
	listCalls int
}

func (c *countingTokenStore) List(ctx context.Context, limit int) ([]*core.TokenSnapshot, error) {
	c.listCalls++
	return c.TokenStore.List(ctx, limit)
}

func seedSnapshot(t *testing.T, tokens store.TokenStore, mint string, price float64, change24h *float64, bondPct int) {
	t.Helper()
	_, err := tokens.Upsert(context.Background(), &core.TokenSnapshot{
		Mint:              mint,
		Name:              "Token " + mint[:4],
		Symbol:            mint[:3],
		PriceUsd:          price,
		MarketCapUsd:      price * 1_000_000_000,
		BondingPercentage: bondPct,
		Change24h:         change24h,
		ScrapedAt:         time.Now(),
	})
	require.NoError(t, err)
}

func seedAlert(t *testing.T, alerts store.AlertStore, a core.Alert) int64 {
	t.Helper()
	require.NoError(t, alerts.Create(context.Background(), &a))
	return a.ID
}

func TestSweepTriggersOnce(t *testing.T) {
	ctx := context.Background()
	tokens := store.NewMemoryTokenStore()
	alerts := store.NewMemoryAlertStore()
	pub := &capturePublisher{}

	change := 12.0
	seedSnapshot(t, tokens, mintA, 0.0006, &change, 75)
	id := seedAlert(t, alerts, core.Alert{
		UserID: "user-1", TokenID: mintA, TokenSymbol: "AAA",
		Type: core.AlertTypePrice, Condition: core.ConditionAbove, Threshold: 0.0005,
	})

	sw := NewSweeper(alerts, tokens, pub, nil, 0)
	result, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pending)
	assert.Equal(t, 1, result.Triggered)

	got, err := alerts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsTriggered)
	require.NotNil(t, got.TriggeredPrice)
	assert.Equal(t, 0.0006, *got.TriggeredPrice)
	require.NotNil(t, got.TriggeredPercentage)
	assert.Equal(t, change, *got.TriggeredPercentage)
	require.NotNil(t, got.TriggeredAt)

	require.Len(t, pub.triggered, 1)
	assert.Equal(t, id, pub.triggered[0].AlertID)
	assert.Equal(t, "user-1", pub.triggered[0].UserID)

	// Second sweep: the alert is no longer pending and nothing fires again.
	result, err = sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pending)
	assert.Equal(t, 0, result.Triggered)
	assert.Len(t, pub.triggered, 1)
}

func TestSweepNoPendingSkipsSnapshotRead(t *testing.T) {
	tokens := &countingTokenStore{TokenStore: store.NewMemoryTokenStore()}
	alerts := store.NewMemoryAlertStore()

	sw := NewSweeper(alerts, tokens, message.NopPublisher{}, nil, 0)
	result, err := sw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pending)
	assert.Equal(t, 0, tokens.listCalls, "empty sweep must not read snapshots")
}

func TestSweepMissingSnapshotStaysPending(t *testing.T) {
	ctx := context.Background()
	tokens := store.NewMemoryTokenStore()
	alerts := store.NewMemoryAlertStore()

	id := seedAlert(t, alerts, core.Alert{
		UserID: "user-1", TokenID: mintB, TokenSymbol: "BBB",
		Type: core.AlertTypePrice, Condition: core.ConditionAbove, Threshold: 0.001,
	})

	sw := NewSweeper(alerts, tokens, message.NopPublisher{}, nil, 0)
	result, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pending)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Triggered)

	got, err := alerts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsTriggered)
	assert.True(t, got.IsActive, "alert must stay pending for the next tick")
}

func TestSweepPercentageWithoutDataIsSkipped(t *testing.T) {
	ctx := context.Background()
	tokens := store.NewMemoryTokenStore()
	alerts := store.NewMemoryAlertStore()

	seedSnapshot(t, tokens, mintA, 0.0006, nil, 50)
	seedAlert(t, alerts, core.Alert{
		UserID: "user-1", TokenID: mintA, TokenSymbol: "AAA",
		Type: core.AlertTypePercentage, Condition: core.ConditionIncreases,
		Threshold: 10, Timeframe: core.Timeframe24h,
	})

	sw := NewSweeper(alerts, tokens, message.NopPublisher{}, nil, 0)
	result, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Evaluated)
	assert.Equal(t, 0, result.Triggered)
}

func TestSweepBondAlert(t *testing.T) {
	ctx := context.Background()
	tokens := store.NewMemoryTokenStore()
	alerts := store.NewMemoryAlertStore()
	pub := &capturePublisher{}

	seedSnapshot(t, tokens, mintA, 0.0006, nil, 80)
	seedAlert(t, alerts, core.Alert{
		UserID: "user-1", TokenID: mintA, TokenSymbol: "AAA",
		Type: core.AlertTypeBond, Condition: core.ConditionReaches, Threshold: 80,
	})

	sw := NewSweeper(alerts, tokens, pub, nil, 0)
	result, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Triggered, "bond threshold is inclusive")
}

func TestSweepMixedBatch(t *testing.T) {
	ctx := context.Background()
	tokens := store.NewMemoryTokenStore()
	alerts := store.NewMemoryAlertStore()
	pub := &capturePublisher{}

	change := -20.0
	seedSnapshot(t, tokens, mintA, 0.002, &change, 60)

	triggering := seedAlert(t, alerts, core.Alert{
		UserID: "user-1", TokenID: mintA, TokenSymbol: "AAA",
		Type: core.AlertTypePercentage, Condition: core.ConditionDecreases,
		Threshold: 15, Timeframe: core.Timeframe24h,
	})
	dormant := seedAlert(t, alerts, core.Alert{
		UserID: "user-2", TokenID: mintA, TokenSymbol: "AAA",
		Type: core.AlertTypePrice, Condition: core.ConditionAbove, Threshold: 0.01,
	})
	orphan := seedAlert(t, alerts, core.Alert{
		UserID: "user-3", TokenID: mintB, TokenSymbol: "BBB",
		Type: core.AlertTypePrice, Condition: core.ConditionBelow, Threshold: 1,
	})

	sw := NewSweeper(alerts, tokens, pub, nil, 0)
	result, err := sw.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pending)
	assert.Equal(t, 2, result.Evaluated)
	assert.Equal(t, 1, result.Triggered)
	assert.Equal(t, 1, result.Skipped)

	got, _ := alerts.GetByID(ctx, triggering)
	assert.True(t, got.IsTriggered)
	got, _ = alerts.GetByID(ctx, dormant)
	assert.False(t, got.IsTriggered)
	got, _ = alerts.GetByID(ctx, orphan)
	assert.False(t, got.IsTriggered)
}
