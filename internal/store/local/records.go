package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/store"
)

// Store is the SQLite-backed fallback store. Failures map to
// TRANSPORT_UNAVAILABLE (besides NOT_FOUND): a broken local disk is
// never fatal to the session, only to persistence.
type Store struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries.
	// Statements are prepared on first use and reused.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// Compile-time interface checks.
var (
	_ store.RecordStore     = (*Store)(nil)
	_ store.CollectionStore = (*Store)(nil)
)

// NewStore creates a Store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// prepareStmt gets or creates a prepared statement from the cache.
func (s *Store) prepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := s.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := s.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (s *Store) Close() error {
	var firstErr error
	s.stmtCache.Range(func(key, value any) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

const recordColumns = `id, title, file_type, saved_at, total_pages, last_read_page,
	   is_favorite, page_texts, size_bytes, collection_id`

// PutRecord upserts metadata and payload in one transaction, so a
// repeated mirror write converges instead of failing on conflict.
func (s *Store) PutRecord(ctx context.Context, rec *models.DocumentRecord, payload []byte) (*models.DocumentRecord, error) {
	pageTexts, err := marshalPageTexts(rec.PageTexts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "failed to encode page texts", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, transportErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO document_records (id, title, file_type, saved_at, total_pages,
		last_read_page, is_favorite, page_texts, size_bytes, collection_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		file_type = excluded.file_type,
		saved_at = excluded.saved_at,
		total_pages = excluded.total_pages,
		last_read_page = excluded.last_read_page,
		is_favorite = excluded.is_favorite,
		page_texts = excluded.page_texts,
		size_bytes = excluded.size_bytes,
		collection_id = excluded.collection_id
	`
	_, err = tx.ExecContext(ctx, query, rec.ID, rec.Title, rec.FileType, rec.SavedAt.Unix(),
		rec.TotalPages, rec.LastReadPage, rec.IsFavorite, pageTexts, rec.SizeBytes,
		nullableUUID(rec.CollectionID))
	if err != nil {
		return nil, transportErr("failed to write document record", err)
	}

	if payload != nil {
		payloadQuery := `
		INSERT INTO document_payloads (record_id, content) VALUES (?, ?)
		ON CONFLICT(record_id) DO UPDATE SET content = excluded.content
		`
		if _, err := tx.ExecContext(ctx, payloadQuery, rec.ID, payload); err != nil {
			return nil, transportErr("failed to write document payload", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, transportErr("failed to commit document write", err)
	}

	committed := rec.Clone()
	committed.SavedAt = time.Unix(rec.SavedAt.Unix(), 0).UTC()
	return committed, nil
}

// GetRecord retrieves metadata; the payload costs a second lookup when
// requested.
func (s *Store) GetRecord(ctx context.Context, id models.UUID, opts store.GetOptions) (*models.DocumentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM document_records WHERE id = ?`
	stmt, err := s.prepareStmt(query)
	if err != nil {
		return nil, transportErr("failed to prepare record lookup", err)
	}

	rec, err := scanRecord(stmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("document record not found: %s", id))
	}
	if err != nil {
		return nil, transportErr("failed to read document record", err)
	}

	if opts.IncludePayload {
		payloadStmt, err := s.prepareStmt(`SELECT content FROM document_payloads WHERE record_id = ?`)
		if err != nil {
			return nil, transportErr("failed to prepare payload lookup", err)
		}
		var content []byte
		err = payloadStmt.QueryRowContext(ctx, id).Scan(&content)
		if err == sql.ErrNoRows {
			return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("document payload not found: %s", id))
		}
		if err != nil {
			return nil, transportErr("failed to read document payload", err)
		}
		rec.Payload = content
	}

	return rec, nil
}

// ListRecords returns a metadata-only page, newest first.
func (s *Store) ListRecords(ctx context.Context, filter store.ListFilter) ([]models.DocumentRecord, error) {
	var where []string
	var args []any

	if filter.CollectionID != nil {
		where = append(where, "collection_id = ?")
		args = append(args, *filter.CollectionID)
	}
	if filter.FavoritesOnly {
		where = append(where, "is_favorite = 1")
	}

	query := `SELECT ` + recordColumns + ` FROM document_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY saved_at DESC, id LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)

	stmt, err := s.prepareStmt(query)
	if err != nil {
		return nil, transportErr("failed to prepare record listing", err)
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, transportErr("failed to list document records", err)
	}
	defer rows.Close()

	var records []models.DocumentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, transportErr("failed to scan document record", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr("failed to iterate document records", err)
	}
	return records, nil
}

// UpdateMetadata patches only the named fields.
func (s *Store) UpdateMetadata(ctx context.Context, id models.UUID, patch store.MetadataPatch) (*models.DocumentRecord, error) {
	if patch.IsEmpty() {
		return s.GetRecord(ctx, id, store.GetOptions{})
	}

	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.IsFavorite != nil {
		sets = append(sets, "is_favorite = ?")
		args = append(args, *patch.IsFavorite)
	}
	if patch.LastReadPage != nil {
		sets = append(sets, "last_read_page = ?")
		args = append(args, *patch.LastReadPage)
	}
	if patch.TotalPages != nil {
		sets = append(sets, "total_pages = ?")
		args = append(args, *patch.TotalPages)
	}
	if patch.ClearCollection {
		sets = append(sets, "collection_id = NULL")
	} else if patch.CollectionID != nil {
		sets = append(sets, "collection_id = ?")
		args = append(args, *patch.CollectionID)
	}

	query := "UPDATE document_records SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, transportErr("failed to patch document record", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("document record not found: %s", id))
	}

	return s.GetRecord(ctx, id, store.GetOptions{})
}

// DeleteRecord deletes for good; the local store has no trash.
func (s *Store) DeleteRecord(ctx context.Context, id models.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM document_records WHERE id = ?`, id)
	if err != nil {
		return transportErr("failed to delete document record", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("document record not found: %s", id))
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.DocumentRecord, error) {
	var rec models.DocumentRecord
	var savedAt int64
	var pageTexts sql.NullString
	var collectionID sql.NullString

	err := row.Scan(&rec.ID, &rec.Title, &rec.FileType, &savedAt, &rec.TotalPages,
		&rec.LastReadPage, &rec.IsFavorite, &pageTexts, &rec.SizeBytes, &collectionID)
	if err != nil {
		return nil, err
	}

	rec.SavedAt = time.Unix(savedAt, 0).UTC()
	if pageTexts.Valid && pageTexts.String != "" {
		if err := json.Unmarshal([]byte(pageTexts.String), &rec.PageTexts); err != nil {
			return nil, fmt.Errorf("failed to decode page texts: %w", err)
		}
	}
	if collectionID.Valid {
		id := models.UUID(collectionID.String)
		rec.CollectionID = &id
	}
	return &rec, nil
}

func marshalPageTexts(texts []string) (any, error) {
	if texts == nil {
		return nil, nil
	}
	data, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableUUID(id *models.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func transportErr(message string, err error) error {
	return apperrors.Wrap(apperrors.ErrTransportUnavailable, message, err)
}
