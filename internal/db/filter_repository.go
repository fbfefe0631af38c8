package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"chat-log-server/internal/models"
)

// FilterRepository defines the interface for the global exclusion policy
type FilterRepository interface {
	Load(ctx context.Context) (*models.ExclusionFilters, error)
	Replace(ctx context.Context, filters *models.ExclusionFilters) error
	Clear(ctx context.Context) (int64, error)
}

type filterRepository struct {
	db *Database
}

// NewFilterRepository creates a new FilterRepository
func NewFilterRepository(db *Database) FilterRepository {
	return &filterRepository{db: db}
}

// Load returns both halves of the policy. A missing half loads as empty.
func (r *filterRepository) Load(ctx context.Context) (*models.ExclusionFilters, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, `SELECT filter_type, entries FROM exclusion_filters`)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusion filters: %w", err)
	}
	defer rows.Close()

	filters := &models.ExclusionFilters{ExcludeIDs: []string{}, ExcludeIDPatterns: []string{}}
	for rows.Next() {
		var filterType, raw string
		if err := rows.Scan(&filterType, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion filter: %w", err)
		}

		var entries []string
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filterType, err)
		}
		if entries == nil {
			entries = []string{}
		}

		switch filterType {
		case models.FilterExactIDs:
			filters.ExcludeIDs = entries
		case models.FilterIDPatterns:
			filters.ExcludeIDPatterns = entries
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exclusion filters: %w", err)
	}
	return filters, nil
}

// Replace overwrites both halves of the policy in one transaction
func (r *filterRepository) Replace(ctx context.Context, filters *models.ExclusionFilters) error {
	if filters == nil {
		return fmt.Errorf("filters cannot be nil")
	}
	conn, err := r.db.conn()
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := toMillis(time.Now().UTC())
	if err := r.put(ctx, tx, models.FilterExactIDs, filters.ExcludeIDs, now); err != nil {
		return err
	}
	if err := r.put(ctx, tx, models.FilterIDPatterns, filters.ExcludeIDPatterns, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exclusion filters: %w", err)
	}
	return nil
}

func (r *filterRepository) put(ctx context.Context, tx *sql.Tx, filterType string, entries []string, now int64) error {
	if entries == nil {
		entries = []string{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filterType, err)
	}

	query := r.db.Rebind(`
		INSERT INTO exclusion_filters (filter_type, entries, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (filter_type) DO UPDATE SET
			entries = excluded.entries,
			updated_at = excluded.updated_at
	`)
	if _, err := tx.ExecContext(ctx, query, filterType, string(raw), now); err != nil {
		return fmt.Errorf("failed to store %s: %w", filterType, err)
	}
	return nil
}

// Clear removes both halves and returns how many were stored
func (r *filterRepository) Clear(ctx context.Context) (int64, error) {
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}

	query := r.db.Rebind(`DELETE FROM exclusion_filters WHERE filter_type IN (?, ?)`)
	result, err := conn.ExecContext(ctx, query, models.FilterExactIDs, models.FilterIDPatterns)
	if err != nil {
		return 0, fmt.Errorf("failed to clear exclusion filters: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
