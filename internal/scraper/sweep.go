package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"token-radar/internal/core"
	"token-radar/internal/message"
	"token-radar/internal/observability"
	"token-radar/internal/store"
)

// SweepResult summarizes one alert sweep.
type SweepResult struct {
	Pending   int `json:"pending"`
	Evaluated int `json:"evaluated"`
	Triggered int `json:"triggered"`
	Skipped   int `json:"skipped"`
}

// Sweeper is the alert-check tick body. One snapshot read serves the whole
// sweep; each satisfied alert is flipped with a conditional single-row update,
// so overlapping sweeps at worst repeat an idempotent write.
type Sweeper struct {
	alerts    store.AlertStore
	tokens    store.TokenStore
	publisher message.Publisher
	metrics   *observability.Metrics

	snapshotLimit int
}

// NewSweeper wires a sweep tick body.
func NewSweeper(alerts store.AlertStore, tokens store.TokenStore,
	publisher message.Publisher, metrics *observability.Metrics, snapshotLimit int) *Sweeper {
	if snapshotLimit <= 0 {
		snapshotLimit = 1000
	}
	return &Sweeper{
		alerts:        alerts,
		tokens:        tokens,
		publisher:     publisher,
		metrics:       metrics,
		snapshotLimit: snapshotLimit,
	}
}

// RunOnce executes one sweep. With no pending alerts it returns without
// touching the token store.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	pending, err := s.alerts.ListPending(ctx)
	if err != nil {
		return result, fmt.Errorf("load pending alerts: %w", err)
	}
	result.Pending = len(pending)
	if len(pending) == 0 {
		log.Println("📊 No active alerts to check")
		return result, nil
	}

	log.Printf("🔔 Checking %d active alerts...", len(pending))

	snaps, err := s.tokens.List(ctx, s.snapshotLimit)
	if err != nil {
		return result, fmt.Errorf("load snapshots: %w", err)
	}
	byMint := make(map[string]*core.TokenSnapshot, len(snaps))
	for _, snap := range snaps {
		byMint[snap.Mint] = snap
	}

	now := time.Now()
	for _, alert := range pending {
		snap, ok := byMint[alert.TokenID]
		if !ok {
			// Token not ingested yet, or a stale id. Not an error and not a
			// trigger; the alert stays pending for the next tick.
			result.Skipped++
			s.skip("no_snapshot")
			log.Printf("⚠️  No snapshot for token %s (%s), skipping alert %d",
				alert.TokenSymbol, alert.TokenID, alert.ID)
			continue
		}

		triggered, evaluable := core.EvaluateAlert(alert, snap)
		if !evaluable {
			result.Skipped++
			s.skip("not_evaluable")
			continue
		}
		result.Evaluated++
		if s.metrics != nil {
			s.metrics.AlertsEvaluated.Inc()
		}
		if !triggered {
			continue
		}

		flipped, err := s.alerts.MarkTriggered(ctx, alert.ID, now, snap.PriceUsd, snap.Change24hValue())
		if err != nil {
			log.Printf("❌ Failed to mark alert %d triggered: %v", alert.ID, err)
			continue
		}
		if !flipped {
			// Another sweep got there first.
			continue
		}

		result.Triggered++
		if s.metrics != nil {
			s.metrics.AlertsTriggered.Inc()
		}
		log.Printf("🚨 Alert triggered for %s: %s %s %g (price %g)",
			alert.TokenSymbol, alert.Type, alert.Condition, alert.Threshold, snap.PriceUsd)
		s.publishTriggered(ctx, alert, snap, now)
	}

	log.Printf("🔔 Alert check complete. %d alerts triggered.", result.Triggered)
	return result, nil
}

func (s *Sweeper) skip(reason string) {
	if s.metrics != nil {
		s.metrics.AlertsSkipped.WithLabelValues(reason).Inc()
	}
}

func (s *Sweeper) publishTriggered(ctx context.Context, alert *core.Alert, snap *core.TokenSnapshot, at time.Time) {
	event := message.AlertTriggeredEvent{
		AlertID:     alert.ID,
		UserID:      alert.UserID,
		TokenID:     alert.TokenID,
		TokenName:   alert.TokenName,
		TokenSymbol: alert.TokenSymbol,
		AlertType:   string(alert.Type),
		Condition:   string(alert.Condition),
		Threshold:   alert.Threshold,
		Timeframe:   string(alert.Timeframe),
		Price:       snap.PriceUsd,
		Change24h:   snap.Change24hValue(),
		TriggeredAt: at,
	}
	if err := s.publisher.PublishAlertTriggered(ctx, event); err != nil {
		log.Printf("❌ Failed to publish trigger event for alert %d: %v", alert.ID, err)
	}
}
