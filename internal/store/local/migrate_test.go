// Package local tests for schema migrations.
package local

import (
	"database/sql"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestMigrator_Up verifies schema creation and idempotency.
func TestMigrator_Up(t *testing.T) {
	db := openMemoryDB(t)
	m := NewMigrator(db)

	if err := m.Up(); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	version, err := m.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != migrations[len(migrations)-1].Version {
		t.Errorf("Version = %d, want %d", version, migrations[len(migrations)-1].Version)
	}

	// Tables exist.
	for _, table := range []string{"document_records", "document_payloads", "collection_nodes", "mirror_credentials", "sync_state"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s missing: %v", table, err)
		}
	}

	// Second run is a no-op.
	if err := m.Up(); err != nil {
		t.Fatalf("Second Up failed: %v", err)
	}
}

// TestMigrator_ChecksumDrift verifies drift is detected, not re-run.
func TestMigrator_ChecksumDrift(t *testing.T) {
	db := openMemoryDB(t)
	m := NewMigrator(db)

	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	bogus := strings.Repeat("0", 64)
	_, err := db.Exec(`INSERT INTO schema_migrations (version, applied_at, description, checksum)
					   VALUES (1, 1, 'initial_schema', ?)`, bogus)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	err = m.Up()
	if !apperrors.Is(err, apperrors.ErrMigration) {
		t.Errorf("Expected MIGRATION_FAILED on drift, got %v", err)
	}
}
