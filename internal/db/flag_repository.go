package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chat-log-server/internal/models"
)

// AutomationRepository defines the interface for per-phone automation flags
type AutomationRepository interface {
	Get(ctx context.Context, phone string) (*models.AutomationFlag, error)
	Set(ctx context.Context, phone string, enabled bool) (*models.AutomationFlag, error)
}

// AlertRepository defines the interface for per-phone alert flags
type AlertRepository interface {
	Get(ctx context.Context, phone string) (*models.AlertFlag, error)
	Set(ctx context.Context, phone string, hasAlert bool) (*models.AlertFlag, error)
	ListActive(ctx context.Context) ([]*models.AlertFlag, error)
}

// flagTable is a phone-keyed boolean table shared by automation and alert flags.
type flagTable struct {
	db     *Database
	table  string
	column string
}

func (t *flagTable) get(ctx context.Context, phone string) (bool, time.Time, bool, error) {
	if phone == "" {
		return false, time.Time{}, false, fmt.Errorf("phone cannot be empty")
	}
	conn, err := t.db.conn()
	if err != nil {
		return false, time.Time{}, false, err
	}

	query := t.db.Rebind(fmt.Sprintf(`SELECT %s, updated_at FROM %s WHERE phone = ?`, t.column, t.table))

	var (
		value     bool
		updatedAt int64
	)
	err = conn.QueryRowContext(ctx, query, phone).Scan(&value, &updatedAt)
	if err == sql.ErrNoRows {
		return false, time.Time{}, false, nil
	}
	if err != nil {
		return false, time.Time{}, false, fmt.Errorf("failed to get %s: %w", t.table, err)
	}
	return value, fromMillis(updatedAt), true, nil
}

func (t *flagTable) set(ctx context.Context, phone string, value bool) (time.Time, error) {
	if phone == "" {
		return time.Time{}, fmt.Errorf("phone cannot be empty")
	}
	conn, err := t.db.conn()
	if err != nil {
		return time.Time{}, err
	}

	now := time.Now().UTC()
	query := t.db.Rebind(fmt.Sprintf(`
		INSERT INTO %[1]s (phone, %[2]s, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (phone) DO UPDATE SET
			%[2]s = excluded.%[2]s,
			updated_at = excluded.updated_at
	`, t.table, t.column))

	if _, err := conn.ExecContext(ctx, query, phone, value, toMillis(now)); err != nil {
		return time.Time{}, fmt.Errorf("failed to set %s: %w", t.table, err)
	}
	return fromMillis(toMillis(now)), nil
}

type automationRepository struct {
	flags flagTable
}

// NewAutomationRepository creates a new AutomationRepository
func NewAutomationRepository(db *Database) AutomationRepository {
	return &automationRepository{flags: flagTable{db: db, table: "automation_flags", column: "enabled"}}
}

// Get returns the stored flag, or nil if the phone has none
func (r *automationRepository) Get(ctx context.Context, phone string) (*models.AutomationFlag, error) {
	enabled, updatedAt, found, err := r.flags.get(ctx, phone)
	if err != nil || !found {
		return nil, err
	}
	return &models.AutomationFlag{Phone: phone, Enabled: enabled, UpdatedAt: updatedAt}, nil
}

// Set upserts the flag for phone
func (r *automationRepository) Set(ctx context.Context, phone string, enabled bool) (*models.AutomationFlag, error) {
	updatedAt, err := r.flags.set(ctx, phone, enabled)
	if err != nil {
		return nil, err
	}
	return &models.AutomationFlag{Phone: phone, Enabled: enabled, UpdatedAt: updatedAt}, nil
}

type alertRepository struct {
	flags flagTable
}

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(db *Database) AlertRepository {
	return &alertRepository{flags: flagTable{db: db, table: "alert_flags", column: "has_alert"}}
}

// Get returns the stored flag, or nil if the phone has none
func (r *alertRepository) Get(ctx context.Context, phone string) (*models.AlertFlag, error) {
	hasAlert, updatedAt, found, err := r.flags.get(ctx, phone)
	if err != nil || !found {
		return nil, err
	}
	return &models.AlertFlag{Phone: phone, HasAlert: hasAlert, UpdatedAt: updatedAt}, nil
}

// Set upserts the flag for phone
func (r *alertRepository) Set(ctx context.Context, phone string, hasAlert bool) (*models.AlertFlag, error) {
	updatedAt, err := r.flags.set(ctx, phone, hasAlert)
	if err != nil {
		return nil, err
	}
	return &models.AlertFlag{Phone: phone, HasAlert: hasAlert, UpdatedAt: updatedAt}, nil
}

// ListActive returns every phone whose alert is raised, most recent first
func (r *alertRepository) ListActive(ctx context.Context) ([]*models.AlertFlag, error) {
	conn, err := r.flags.db.conn()
	if err != nil {
		return nil, err
	}

	query := r.flags.db.Rebind(`
		SELECT phone, has_alert, updated_at
		FROM alert_flags
		WHERE has_alert = ?
		ORDER BY updated_at DESC, phone ASC
	`)
	rows, err := conn.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*models.AlertFlag{}
	for rows.Next() {
		var (
			flag      models.AlertFlag
			updatedAt int64
		)
		if err := rows.Scan(&flag.Phone, &flag.HasAlert, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		flag.UpdatedAt = fromMillis(updatedAt)
		alerts = append(alerts, &flag)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return alerts, nil
}
