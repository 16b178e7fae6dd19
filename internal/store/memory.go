package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"token-radar/internal/core"
)

// MemoryTokenStore is an in-memory TokenStore for tests and local runs
// without MySQL.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*core.TokenSnapshot
	bonded map[string]time.Time
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]*core.TokenSnapshot),
		bonded: make(map[string]time.Time),
	}
}

var _ TokenStore = (*MemoryTokenStore)(nil)

func (s *MemoryTokenStore) Upsert(_ context.Context, snap *core.TokenSnapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.tokens[snap.Mint]
	newlyBonded := snap.BondingComplete && !(existed && prev.BondingComplete)

	cp := *snap
	// Change columns only move forward, same as the SQL store.
	if existed {
		if cp.Change5m == nil {
			cp.Change5m = prev.Change5m
		}
		if cp.Change1h == nil {
			cp.Change1h = prev.Change1h
		}
		if cp.Change6h == nil {
			cp.Change6h = prev.Change6h
		}
		if cp.Change24h == nil {
			cp.Change24h = prev.Change24h
		}
		if cp.Change7d == nil {
			cp.Change7d = prev.Change7d
		}
	}
	s.tokens[snap.Mint] = &cp

	if newlyBonded {
		s.bonded[snap.Mint] = snap.ScrapedAt
	}
	return newlyBonded, nil
}

func (s *MemoryTokenStore) GetByMint(_ context.Context, mint string) (*core.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.tokens[mint]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

func (s *MemoryTokenStore) List(_ context.Context, limit int) ([]*core.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := make([]*core.TokenSnapshot, 0, len(s.tokens))
	for _, snap := range s.tokens {
		cp := *snap
		snaps = append(snaps, &cp)
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].ScrapedAt.After(snaps[j].ScrapedAt)
	})
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

func (s *MemoryTokenStore) ListBonded(_ context.Context, limit int) ([]*core.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := make([]*core.TokenSnapshot, 0)
	for _, snap := range s.tokens {
		if !snap.BondingComplete {
			continue
		}
		cp := *snap
		snaps = append(snaps, &cp)
	}
	sort.Slice(snaps, func(i, j int) bool {
		return s.bonded[snaps[i].Mint].After(s.bonded[snaps[j].Mint])
	})
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

// MemoryAlertStore is an in-memory AlertStore for tests and local runs.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[int64]*core.Alert
	nextID int64
}

// NewMemoryAlertStore creates an empty in-memory alert store.
func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{alerts: make(map[int64]*core.Alert), nextID: 1}
}

var _ AlertStore = (*MemoryAlertStore)(nil)

func (s *MemoryAlertStore) Create(_ context.Context, a *core.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.alerts {
		if existing.IsActive &&
			existing.UserID == a.UserID &&
			existing.TokenID == a.TokenID &&
			existing.Type == a.Type &&
			existing.Condition == a.Condition &&
			existing.Threshold == a.Threshold &&
			existing.Timeframe == a.Timeframe {
			return ErrDuplicateAlert
		}
	}

	now := time.Now()
	a.ID = s.nextID
	s.nextID++
	a.IsActive = true
	a.IsTriggered = false
	a.CreatedAt = now
	a.UpdatedAt = now

	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *MemoryAlertStore) GetByID(_ context.Context, id int64) (*core.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryAlertStore) List(_ context.Context, f AlertFilter) ([]*core.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var alerts []*core.Alert
	for _, a := range s.alerts {
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.IsActive != nil && a.IsActive != *f.IsActive {
			continue
		}
		if f.IsTriggered != nil && a.IsTriggered != *f.IsTriggered {
			continue
		}
		cp := *a
		alerts = append(alerts, &cp)
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	return alerts, nil
}

func (s *MemoryAlertStore) ListPending(ctx context.Context) ([]*core.Alert, error) {
	active, triggered := true, false
	return s.List(ctx, AlertFilter{IsActive: &active, IsTriggered: &triggered})
}

func (s *MemoryAlertStore) Update(_ context.Context, id int64, upd AlertUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Threshold != nil {
		a.Threshold = *upd.Threshold
	}
	if upd.IsActive != nil {
		a.IsActive = *upd.IsActive
	}
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryAlertStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[id]; !ok {
		return ErrNotFound
	}
	delete(s.alerts, id)
	return nil
}

func (s *MemoryAlertStore) MarkTriggered(_ context.Context, id int64, at time.Time, price, change24h float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return false, ErrNotFound
	}
	if a.IsTriggered {
		return false, nil
	}
	a.IsTriggered = true
	a.TriggeredAt = &at
	a.TriggeredPrice = &price
	a.TriggeredPercentage = &change24h
	a.UpdatedAt = at
	return true, nil
}
