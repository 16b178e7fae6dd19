package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"token-radar/internal/core"
)

// MySQLTokenStore implements TokenStore on the radar's tokens table.
type MySQLTokenStore struct {
	db *DB
}

// NewMySQLTokenStore creates a token store over the shared handle.
func NewMySQLTokenStore(db *DB) *MySQLTokenStore {
	return &MySQLTokenStore{db: db}
}

var _ TokenStore = (*MySQLTokenStore)(nil)

const tokenColumns = `mint, name, symbol, market_cap_usd, price_usd, total_supply,
	created_at, bonding_complete, bonding_percentage, raydium_pool,
	change_5m, change_1h, change_6h, change_24h, change_7d,
	scraped_at, first_seen, bonded_at`

// Upsert writes the snapshot keyed by mint. first_seen survives rewrites,
// change columns only move forward (a tick without enrichment keeps the last
// known changes), and bonded_at is stamped once on the bonded transition.
func (s *MySQLTokenStore) Upsert(ctx context.Context, snap *core.TokenSnapshot) (bool, error) {
	var wasBonded sql.NullBool
	err := s.db.QueryRowContext(ctx,
		`SELECT bonding_complete FROM tokens WHERE mint = ?`, snap.Mint,
	).Scan(&wasBonded)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("check existing token %s: %w", snap.Mint, err)
	}
	newlyBonded := snap.BondingComplete && !(wasBonded.Valid && wasBonded.Bool)

	var createdAt interface{}
	if !snap.CreatedAt.IsZero() {
		createdAt = snap.CreatedAt
	}

	query := `
		INSERT INTO tokens (` + tokenColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			symbol = VALUES(symbol),
			market_cap_usd = VALUES(market_cap_usd),
			price_usd = VALUES(price_usd),
			total_supply = VALUES(total_supply),
			created_at = VALUES(created_at),
			bonding_complete = VALUES(bonding_complete),
			bonding_percentage = VALUES(bonding_percentage),
			raydium_pool = VALUES(raydium_pool),
			change_5m = COALESCE(VALUES(change_5m), change_5m),
			change_1h = COALESCE(VALUES(change_1h), change_1h),
			change_6h = COALESCE(VALUES(change_6h), change_6h),
			change_24h = COALESCE(VALUES(change_24h), change_24h),
			change_7d = COALESCE(VALUES(change_7d), change_7d),
			scraped_at = VALUES(scraped_at),
			bonded_at = COALESCE(bonded_at, VALUES(bonded_at))`

	var bondedAt interface{}
	if newlyBonded {
		bondedAt = snap.ScrapedAt
	}

	_, err = s.db.ExecContext(ctx, query,
		snap.Mint, snap.Name, snap.Symbol,
		snap.MarketCapUsd, snap.PriceUsd, snap.TotalSupply,
		createdAt, snap.BondingComplete, snap.BondingPercentage, snap.RaydiumPool,
		snap.Change5m, snap.Change1h, snap.Change6h, snap.Change24h, snap.Change7d,
		snap.ScrapedAt, snap.ScrapedAt, bondedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert token %s: %w", snap.Mint, err)
	}
	return newlyBonded, nil
}

// GetByMint retrieves one snapshot. Returns ErrNotFound if absent.
func (s *MySQLTokenStore) GetByMint(ctx context.Context, mint string) (*core.TokenSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE mint = ?`, mint)
	snap, err := scanToken(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get token %s: %w", mint, err)
	}
	return snap, nil
}

// List retrieves up to limit snapshots, most recently scraped first.
func (s *MySQLTokenStore) List(ctx context.Context, limit int) ([]*core.TokenSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens ORDER BY scraped_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()
	return collectTokens(rows)
}

// ListBonded retrieves up to limit bonded snapshots, most recently bonded first.
func (s *MySQLTokenStore) ListBonded(ctx context.Context, limit int) ([]*core.TokenSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens
		 WHERE bonding_complete = TRUE
		 ORDER BY bonded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list bonded tokens: %w", err)
	}
	defer rows.Close()
	return collectTokens(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanToken(row rowScanner) (*core.TokenSnapshot, error) {
	var (
		snap      core.TokenSnapshot
		createdAt sql.NullTime
		bondedAt  sql.NullTime
		c5m, c1h  sql.NullFloat64
		c6h, c24h sql.NullFloat64
		c7d       sql.NullFloat64
	)

	err := row.Scan(
		&snap.Mint, &snap.Name, &snap.Symbol,
		&snap.MarketCapUsd, &snap.PriceUsd, &snap.TotalSupply,
		&createdAt, &snap.BondingComplete, &snap.BondingPercentage, &snap.RaydiumPool,
		&c5m, &c1h, &c6h, &c24h, &c7d,
		&snap.ScrapedAt, new(sql.NullTime), &bondedAt,
	)
	if err != nil {
		return nil, err
	}

	if createdAt.Valid {
		snap.CreatedAt = createdAt.Time
	}
	snap.Change5m = nullFloat(c5m)
	snap.Change1h = nullFloat(c1h)
	snap.Change6h = nullFloat(c6h)
	snap.Change24h = nullFloat(c24h)
	snap.Change7d = nullFloat(c7d)
	return &snap, nil
}

func collectTokens(rows *sql.Rows) ([]*core.TokenSnapshot, error) {
	var snaps []*core.TokenSnapshot
	for rows.Next() {
		snap, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
