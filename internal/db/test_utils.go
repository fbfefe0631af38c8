package db

import (
	"testing"
)

// SetupTestDB creates an in-memory SQLite database with the full schema.
func SetupTestDB(t *testing.T) *Database {
	t.Helper()

	database, err := NewDatabase(string(DialectSQLite), ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}
