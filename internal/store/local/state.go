package local

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/models"
)

// LoadSyncState reads the persisted sync bookkeeping row.
func (s *Store) LoadSyncState(ctx context.Context) (*models.SyncState, error) {
	var lastSync int64
	var enabled, mirrorHealthy bool
	var lastMirrorError string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_sync, enabled, mirror_healthy, last_mirror_error
		 FROM sync_state WHERE id = 1`).Scan(&lastSync, &enabled, &mirrorHealthy, &lastMirrorError)
	if err != nil {
		return nil, transportErr("failed to read sync state", err)
	}

	state := &models.SyncState{
		Enabled:         enabled,
		MirrorHealthy:   mirrorHealthy,
		LastMirrorError: lastMirrorError,
	}
	if lastSync > 0 {
		state.LastSync = time.Unix(lastSync, 0).UTC()
	}
	return state, nil
}

// SaveSyncState overwrites the persisted sync bookkeeping. Later
// writes win; there is no cross-device consistency guarantee.
func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	var lastSync int64
	if !state.LastSync.IsZero() {
		lastSync = state.LastSync.Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_state SET last_sync = ?, enabled = ?,
			mirror_healthy = ?, last_mirror_error = ? WHERE id = 1`,
		lastSync, state.Enabled, state.MirrorHealthy, state.LastMirrorError)
	if err != nil {
		return transportErr("failed to write sync state", err)
	}
	return nil
}

// SaveMirrorCredential upserts the (single) mirror credential row.
func (s *Store) SaveMirrorCredential(ctx context.Context, cred *models.MirrorCredential) error {
	now := time.Now().Unix()
	if cred.CreatedAt == 0 {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	query := `
	INSERT INTO mirror_credentials (id, endpoint, bucket_name, region,
		access_key_encrypted, secret_key_encrypted, is_enabled, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		endpoint = excluded.endpoint,
		bucket_name = excluded.bucket_name,
		region = excluded.region,
		access_key_encrypted = excluded.access_key_encrypted,
		secret_key_encrypted = excluded.secret_key_encrypted,
		is_enabled = excluded.is_enabled,
		updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, cred.ID, cred.Endpoint, cred.BucketName,
		cred.Region, cred.AccessKeyEncrypted, cred.SecretKeyEncrypted, cred.IsEnabled,
		cred.CreatedAt, cred.UpdatedAt)
	if err != nil {
		return transportErr("failed to save mirror credential", err)
	}
	return nil
}

// GetMirrorCredential returns the stored mirror credential, if any.
func (s *Store) GetMirrorCredential(ctx context.Context) (*models.MirrorCredential, error) {
	var cred models.MirrorCredential
	err := s.db.QueryRowContext(ctx, `
	SELECT id, endpoint, bucket_name, region, access_key_encrypted,
		   secret_key_encrypted, is_enabled, created_at, updated_at
	FROM mirror_credentials LIMIT 1
	`).Scan(&cred.ID, &cred.Endpoint, &cred.BucketName, &cred.Region,
		&cred.AccessKeyEncrypted, &cred.SecretKeyEncrypted, &cred.IsEnabled,
		&cred.CreatedAt, &cred.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrMirrorNotConfigured, "no mirror credential stored")
	}
	if err != nil {
		return nil, transportErr("failed to read mirror credential", err)
	}
	return &cred, nil
}
