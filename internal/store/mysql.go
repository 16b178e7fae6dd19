package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// DB wraps the MySQL handle shared by the token and alert stores.
type DB struct {
	*sql.DB
}

// OpenMySQL opens and verifies a MySQL connection for the radar database.
func OpenMySQL(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("MySQL DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}

	return &DB{DB: db}, nil
}

// EnsureSchema creates the radar tables when they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
			mint VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			symbol VARCHAR(64) NOT NULL,
			market_cap_usd DOUBLE NOT NULL DEFAULT 0,
			price_usd DOUBLE NOT NULL DEFAULT 0,
			total_supply DOUBLE NOT NULL DEFAULT 0,
			created_at DATETIME(3) NULL,
			bonding_complete TINYINT(1) NOT NULL DEFAULT 0,
			bonding_percentage INT NOT NULL DEFAULT 0,
			raydium_pool VARCHAR(128) NOT NULL DEFAULT '',
			change_5m DOUBLE NULL,
			change_1h DOUBLE NULL,
			change_6h DOUBLE NULL,
			change_24h DOUBLE NULL,
			change_7d DOUBLE NULL,
			scraped_at DATETIME(3) NOT NULL,
			first_seen DATETIME(3) NOT NULL,
			bonded_at DATETIME(3) NULL,
			PRIMARY KEY (mint),
			KEY idx_scraped_at (scraped_at),
			KEY idx_bonded_at (bonded_at)
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id BIGINT NOT NULL AUTO_INCREMENT,
			user_id VARCHAR(64) NOT NULL,
			token_id VARCHAR(64) NOT NULL,
			token_name VARCHAR(255) NOT NULL DEFAULT '',
			token_symbol VARCHAR(64) NOT NULL DEFAULT '',
			alert_type VARCHAR(16) NOT NULL,
			alert_condition VARCHAR(16) NOT NULL,
			threshold DOUBLE NOT NULL,
			timeframe VARCHAR(8) NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			is_triggered TINYINT(1) NOT NULL DEFAULT 0,
			triggered_at DATETIME(3) NULL,
			triggered_price DOUBLE NULL,
			triggered_percentage DOUBLE NULL,
			created_at DATETIME(3) NOT NULL,
			updated_at DATETIME(3) NOT NULL,
			PRIMARY KEY (id),
			KEY idx_user_active (user_id, is_active),
			KEY idx_token_active (token_id, is_active),
			KEY idx_pending (is_active, is_triggered)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// nullTime converts a nullable column into *time.Time.
func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// nullFloat converts a nullable column into *float64.
func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
