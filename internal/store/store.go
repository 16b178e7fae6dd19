// Package store persists token snapshots and alert definitions. Interfaces
// are injected into the scraper and API so tests can substitute the in-memory
// implementations.
package store

import (
	"context"
	"errors"
	"time"

	"token-radar/internal/core"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateAlert indicates an identical active alert already exists
	// for the same (user, token, type, condition, threshold, timeframe).
	ErrDuplicateAlert = errors.New("similar alert already exists")
)

// TokenStore provides access to token snapshot storage. Upserts are
// last-write-wins per mint, so replaying an unchanged batch is a no-op.
type TokenStore interface {
	// Upsert writes a snapshot keyed by mint, reporting whether this write
	// transitioned the token from not-bonded to bonded.
	Upsert(ctx context.Context, snap *core.TokenSnapshot) (newlyBonded bool, err error)

	// GetByMint retrieves one snapshot. Returns ErrNotFound if absent.
	GetByMint(ctx context.Context, mint string) (*core.TokenSnapshot, error)

	// List retrieves up to limit snapshots, most recently scraped first.
	List(ctx context.Context, limit int) ([]*core.TokenSnapshot, error)

	// ListBonded retrieves up to limit bonded snapshots, most recently
	// bonded first.
	ListBonded(ctx context.Context, limit int) ([]*core.TokenSnapshot, error)
}

// AlertFilter narrows alert listings. Nil pointer fields are not applied.
type AlertFilter struct {
	UserID      string
	Type        core.AlertType
	IsActive    *bool
	IsTriggered *bool
}

// AlertUpdate carries the user-editable alert fields. Nil fields are left
// unchanged.
type AlertUpdate struct {
	Threshold *float64
	IsActive  *bool
}

// AlertStore provides access to alert definitions and their trigger state.
type AlertStore interface {
	// Create validates duplicate suppression and inserts the alert,
	// assigning its ID. Returns ErrDuplicateAlert when an identical active
	// alert exists.
	Create(ctx context.Context, a *core.Alert) error

	// GetByID retrieves one alert. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*core.Alert, error)

	// List retrieves alerts matching the filter, newest first.
	List(ctx context.Context, f AlertFilter) ([]*core.Alert, error)

	// ListPending retrieves all alerts that are active and not yet
	// triggered, the sweep's working set.
	ListPending(ctx context.Context) ([]*core.Alert, error)

	// Update applies user edits to an alert. Returns ErrNotFound if absent.
	Update(ctx context.Context, id int64, upd AlertUpdate) error

	// Delete removes an alert. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id int64) error

	// MarkTriggered flips the alert to triggered and records the triggering
	// values, guarded by an is_triggered=false precondition. Reports whether
	// this call performed the flip; a false return means another sweep got
	// there first, which is harmless.
	MarkTriggered(ctx context.Context, id int64, at time.Time, price, change24h float64) (bool, error)
}
