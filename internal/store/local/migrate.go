package local

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

// migration is a single schema step, embedded in the binary so the
// store works without a migrations directory on disk.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "initial_schema",
		SQL: `
		CREATE TABLE collection_nodes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			parent_id TEXT REFERENCES collection_nodes(id),
			color TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			is_favorite INTEGER NOT NULL DEFAULT 0,
			display_order INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX idx_collection_nodes_parent ON collection_nodes(parent_id);

		CREATE TABLE document_records (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			file_type TEXT NOT NULL,
			saved_at INTEGER NOT NULL,
			total_pages INTEGER NOT NULL DEFAULT 0,
			last_read_page INTEGER NOT NULL DEFAULT 0,
			is_favorite INTEGER NOT NULL DEFAULT 0,
			page_texts TEXT,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			collection_id TEXT REFERENCES collection_nodes(id) ON DELETE SET NULL
		);
		CREATE INDEX idx_document_records_collection ON document_records(collection_id);

		CREATE TABLE document_payloads (
			record_id TEXT PRIMARY KEY REFERENCES document_records(id) ON DELETE CASCADE,
			content BLOB NOT NULL
		);

		CREATE TABLE mirror_credentials (
			id TEXT PRIMARY KEY,
			endpoint TEXT NOT NULL,
			bucket_name TEXT NOT NULL,
			region TEXT NOT NULL DEFAULT '',
			access_key_encrypted TEXT NOT NULL,
			secret_key_encrypted TEXT NOT NULL,
			is_enabled INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE sync_state (
			id INTEGER PRIMARY KEY CHECK(id = 1),
			last_sync INTEGER NOT NULL DEFAULT 0,
			enabled INTEGER NOT NULL DEFAULT 0
		);
		INSERT INTO sync_state (id, last_sync, enabled) VALUES (1, 0, 0);
		`,
	},
	{
		Version:     2,
		Description: "sync_state_mirror_health",
		SQL: `
		ALTER TABLE sync_state ADD COLUMN mirror_healthy INTEGER NOT NULL DEFAULT 1;
		ALTER TABLE sync_state ADD COLUMN last_mirror_error TEXT NOT NULL DEFAULT '';
		`,
	},
}

// Migrator handles schema migrations for the local store.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Up applies all pending migrations. An already-applied migration
// whose SQL no longer matches its recorded checksum fails the run:
// that indicates schema drift, not a pending step.
func (m *Migrator) Up() error {
	if err := m.Initialize(); err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to initialize migrations table", err)
	}

	appliedChecksums := make(map[int]string)
	rows, err := m.db.Query("SELECT version, checksum FROM schema_migrations")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to read applied migrations", err)
	}
	for rows.Next() {
		var version int
		var checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			rows.Close()
			return apperrors.Wrap(apperrors.ErrMigration, "failed to scan migration row", err)
		}
		appliedChecksums[version] = checksum
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to iterate migration rows", err)
	}

	for _, mig := range migrations {
		checksum := checksumOf(mig.SQL)
		if applied, ok := appliedChecksums[mig.Version]; ok {
			if applied != checksum {
				return apperrors.New(apperrors.ErrMigration,
					fmt.Sprintf("migration %d checksum mismatch, schema drift detected", mig.Version))
			}
			continue
		}
		if err := m.apply(mig, checksum); err != nil {
			return apperrors.Wrap(apperrors.ErrMigration,
				fmt.Sprintf("failed to apply migration %d", mig.Version), err)
		}
	}

	return nil
}

// apply runs a single migration inside a transaction.
func (m *Migrator) apply(mig migration, checksum string) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(mig.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	query := `INSERT INTO schema_migrations (version, applied_at, description, checksum)
			  VALUES (?, ?, ?, ?)`
	if _, err := tx.Exec(query, mig.Version, time.Now().Unix(), mig.Description, checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

func checksumOf(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
