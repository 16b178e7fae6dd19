package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"token-radar/internal/core"
)

// MySQLAlertStore implements AlertStore on the radar's alerts table.
type MySQLAlertStore struct {
	db *DB
}

// NewMySQLAlertStore creates an alert store over the shared handle.
func NewMySQLAlertStore(db *DB) *MySQLAlertStore {
	return &MySQLAlertStore{db: db}
}

var _ AlertStore = (*MySQLAlertStore)(nil)

const alertColumns = `id, user_id, token_id, token_name, token_symbol,
	alert_type, alert_condition, threshold, timeframe,
	is_active, is_triggered, triggered_at, triggered_price, triggered_percentage,
	created_at, updated_at`

// Create inserts the alert after duplicate suppression: at most one active
// alert per (user, token, type, condition, threshold, timeframe) tuple.
func (s *MySQLAlertStore) Create(ctx context.Context, a *core.Alert) error {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM alerts
		 WHERE user_id = ? AND token_id = ? AND alert_type = ? AND alert_condition = ?
		   AND threshold = ? AND COALESCE(timeframe, '') = ? AND is_active = TRUE
		 LIMIT 1`,
		a.UserID, a.TokenID, string(a.Type), string(a.Condition),
		a.Threshold, string(a.Timeframe),
	).Scan(&existing)
	if err == nil {
		return ErrDuplicateAlert
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check duplicate alert: %w", err)
	}

	now := time.Now()
	var timeframe interface{}
	if a.Timeframe != "" {
		timeframe = string(a.Timeframe)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (user_id, token_id, token_name, token_symbol,
			alert_type, alert_condition, threshold, timeframe,
			is_active, is_triggered, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE, FALSE, ?, ?)`,
		a.UserID, a.TokenID, a.TokenName, a.TokenSymbol,
		string(a.Type), string(a.Condition), a.Threshold, timeframe,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("alert insert id: %w", err)
	}
	a.ID = id
	a.IsActive = true
	a.IsTriggered = false
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetByID retrieves one alert. Returns ErrNotFound if absent.
func (s *MySQLAlertStore) GetByID(ctx context.Context, id int64) (*core.Alert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get alert %d: %w", id, err)
	}
	return a, nil
}

// List retrieves alerts matching the filter, newest first.
func (s *MySQLAlertStore) List(ctx context.Context, f AlertFilter) ([]*core.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	var args []interface{}

	if f.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Type != "" {
		query += ` AND alert_type = ?`
		args = append(args, string(f.Type))
	}
	if f.IsActive != nil {
		query += ` AND is_active = ?`
		args = append(args, *f.IsActive)
	}
	if f.IsTriggered != nil {
		query += ` AND is_triggered = ?`
		args = append(args, *f.IsTriggered)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// ListPending retrieves the sweep working set: active, untriggered alerts.
func (s *MySQLAlertStore) ListPending(ctx context.Context) ([]*core.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts
		 WHERE is_active = TRUE AND is_triggered = FALSE`)
	if err != nil {
		return nil, fmt.Errorf("list pending alerts: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// Update applies user edits. Returns ErrNotFound if the alert does not exist.
func (s *MySQLAlertStore) Update(ctx context.Context, id int64, upd AlertUpdate) error {
	query := `UPDATE alerts SET updated_at = ?`
	args := []interface{}{time.Now()}

	if upd.Threshold != nil {
		query += `, threshold = ?`
		args = append(args, *upd.Threshold)
	}
	if upd.IsActive != nil {
		query += `, is_active = ?`
		args = append(args, *upd.IsActive)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update alert %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an alert. Returns ErrNotFound if absent.
func (s *MySQLAlertStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete alert %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkTriggered flips the alert once. The is_triggered = FALSE guard makes a
// second flip from an overlapping sweep a no-op rather than an overwrite.
func (s *MySQLAlertStore) MarkTriggered(ctx context.Context, id int64, at time.Time, price, change24h float64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts
		 SET is_triggered = TRUE, triggered_at = ?, triggered_price = ?,
		     triggered_percentage = ?, updated_at = ?
		 WHERE id = ? AND is_triggered = FALSE`,
		at, price, change24h, at, id,
	)
	if err != nil {
		return false, fmt.Errorf("mark alert %d triggered: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark alert %d triggered: %w", id, err)
	}
	return n > 0, nil
}

func scanAlert(row rowScanner) (*core.Alert, error) {
	var (
		a           core.Alert
		alertType   string
		condition   string
		timeframe   sql.NullString
		triggeredAt sql.NullTime
		trigPrice   sql.NullFloat64
		trigPct     sql.NullFloat64
	)

	err := row.Scan(
		&a.ID, &a.UserID, &a.TokenID, &a.TokenName, &a.TokenSymbol,
		&alertType, &condition, &a.Threshold, &timeframe,
		&a.IsActive, &a.IsTriggered, &triggeredAt, &trigPrice, &trigPct,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Type = core.AlertType(alertType)
	a.Condition = core.AlertCondition(condition)
	if timeframe.Valid {
		a.Timeframe = core.Timeframe(timeframe.String)
	}
	a.TriggeredAt = nullTime(triggeredAt)
	a.TriggeredPrice = nullFloat(trigPrice)
	a.TriggeredPercentage = nullFloat(trigPct)
	return &a, nil
}

func collectAlerts(rows *sql.Rows) ([]*core.Alert, error) {
	var alerts []*core.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
