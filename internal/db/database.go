package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names the SQL flavour behind a Database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phone TEXT NOT NULL,
		client_name TEXT,
		direction TEXT NOT NULL,
		body TEXT NOT NULL,
		media_url TEXT,
		automation_tag TEXT,
		provider_message_id TEXT,
		sent_at INTEGER NOT NULL,
		follow_up_needed BOOLEAN NOT NULL DEFAULT 0,
		handled_by TEXT,
		notes TEXT,
		delivery_status TEXT
	);

	CREATE TABLE IF NOT EXISTS contacts (
		phone TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS automation_flags (
		phone TEXT PRIMARY KEY,
		enabled BOOLEAN NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alert_flags (
		phone TEXT PRIMARY KEY,
		has_alert BOOLEAN NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exclusion_filters (
		filter_type TEXT PRIMARY KEY,
		entries TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_phone ON messages(phone);
	CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at);
	CREATE INDEX IF NOT EXISTS idx_messages_provider_id ON messages(provider_message_id);
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		phone TEXT NOT NULL,
		client_name TEXT,
		direction TEXT NOT NULL,
		body TEXT NOT NULL,
		media_url TEXT,
		automation_tag TEXT,
		provider_message_id TEXT,
		sent_at BIGINT NOT NULL,
		follow_up_needed BOOLEAN NOT NULL DEFAULT FALSE,
		handled_by TEXT,
		notes TEXT,
		delivery_status TEXT
	);

	CREATE TABLE IF NOT EXISTS contacts (
		phone TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS automation_flags (
		phone TEXT PRIMARY KEY,
		enabled BOOLEAN NOT NULL,
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alert_flags (
		phone TEXT PRIMARY KEY,
		has_alert BOOLEAN NOT NULL,
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exclusion_filters (
		filter_type TEXT PRIMARY KEY,
		entries TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_phone ON messages(phone);
	CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at);
	CREATE INDEX IF NOT EXISTS idx_messages_provider_id ON messages(provider_message_id);
`

// Database owns the connection pool and the dialect used to render queries.
type Database struct {
	db      *sql.DB
	dialect Dialect
	closed  atomic.Bool
}

// NewDatabase opens driver ("sqlite3" or "postgres") at dsn and creates the
// schema if it does not exist.
func NewDatabase(driver, dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}

	var schema string
	dialect := Dialect(driver)
	switch dialect {
	case DialectSQLite:
		schema = sqliteSchema
	case DialectPostgres:
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite {
		// One connection serializes writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("create tables failed: %w, close failed: %v", err, closeErr)
		}
		return nil, fmt.Errorf("create tables failed: %w", err)
	}

	return &Database{db: db, dialect: dialect}, nil
}

// GetDB exposes the underlying pool.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Dialect returns the SQL flavour of the connection.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// Ping checks the connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	db, err := d.conn()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases the pool. It is safe to call while queries are running;
// later calls fail with "database is closed".
func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return errors.New("database is nil")
	}

	if d.closed.Swap(true) {
		return errors.New("database already closed")
	}
	return d.db.Close()
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
func (d *Database) Rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *Database) conn() (*sql.DB, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	if d.db == nil || d.closed.Load() {
		return nil, errors.New("database is closed")
	}
	return d.db, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
