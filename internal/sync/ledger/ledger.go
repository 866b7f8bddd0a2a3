// Package ledger implements the optimistic apply/commit/rollback
// protocol for metadata-only edits. The projection (the in-memory
// record the UI renders from) changes immediately on apply; the remote
// write happens on commit, and a failed commit restores the projection
// to its exact pre-apply value.
package ledger

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/logging"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/store"
)

// fieldOf maps an operation to the metadata field it serializes on.
func fieldOf(op models.MutationOp) (string, error) {
	switch op {
	case models.MutationFavorite:
		return "isFavorite", nil
	case models.MutationRename:
		return "title", nil
	case models.MutationDelete:
		return "record", nil
	default:
		return "", apperrors.New(apperrors.ErrInvalid, fmt.Sprintf("unknown mutation op %q", op))
	}
}

// Ledger serializes metadata mutations per (record id, field). It is
// the only serialization primitive in the engine: payload writes are
// not covered.
type Ledger struct {
	store store.RecordStore
	log   *logging.Logger

	mu       sync.Mutex
	inflight map[string]*models.MutationIntent
}

// New creates a Ledger over the authoritative store.
func New(st store.RecordStore) *Ledger {
	return &Ledger{
		store:    st,
		log:      logging.Get().WithComponent("ledger"),
		inflight: make(map[string]*models.MutationIntent),
	}
}

func key(id models.UUID, field string) string {
	return id.String() + "/" + field
}

// Apply updates the projection immediately and registers the intent as
// in flight. A second apply on a busy (record id, field) is rejected
// with CONCURRENT_MUTATION so callers can disable the affected control
// until resolution.
func (l *Ledger) Apply(doc *models.DocumentRecord, op models.MutationOp, next any) (*models.MutationIntent, error) {
	field, err := fieldOf(op)
	if err != nil {
		return nil, err
	}

	intent := &models.MutationIntent{
		Op:       op,
		TargetID: doc.ID,
		Field:    field,
		Next:     next,
		Status:   models.MutationIdle,
	}

	l.mu.Lock()
	if pending, busy := l.inflight[key(doc.ID, field)]; busy {
		l.mu.Unlock()
		return nil, apperrors.New(apperrors.ErrConcurrentMutation,
			fmt.Sprintf("mutation of %s/%s already in flight (op %s)", doc.ID, field, pending.Op))
	}
	l.inflight[key(doc.ID, field)] = intent
	l.mu.Unlock()

	if err := l.applyToProjection(doc, intent); err != nil {
		l.release(intent)
		return nil, err
	}
	intent.Status = models.MutationApplied
	return intent, nil
}

// applyToProjection flips the projection field and snapshots the value
// to restore on rollback.
func (l *Ledger) applyToProjection(doc *models.DocumentRecord, intent *models.MutationIntent) error {
	switch intent.Op {
	case models.MutationFavorite:
		next, ok := intent.Next.(bool)
		if !ok {
			return apperrors.New(apperrors.ErrInvalid, "favorite mutation needs a bool value")
		}
		intent.Previous = doc.IsFavorite
		doc.IsFavorite = next

	case models.MutationRename:
		next, ok := intent.Next.(string)
		if !ok || next == "" {
			return apperrors.New(apperrors.ErrInvalid, "rename mutation needs a non-empty title")
		}
		intent.Previous = doc.Title
		doc.Title = next

	case models.MutationDelete:
		// The projection keeps the record; dropping it from a list is
		// the caller's view concern. Rollback therefore has nothing to
		// restore.
		intent.Previous = nil
	}
	return nil
}

// Commit pushes the applied intent to the store. Success is terminal
// Committed; failure restores the pre-apply value on the projection,
// marks the intent RolledBack and returns the store failure. Either
// way the (record id, field) slot frees up.
func (l *Ledger) Commit(ctx context.Context, doc *models.DocumentRecord, intent *models.MutationIntent) error {
	if intent.Status != models.MutationApplied {
		return apperrors.New(apperrors.ErrInvalid,
			fmt.Sprintf("cannot commit intent in status %q", intent.Status))
	}
	defer l.release(intent)

	err := l.push(ctx, intent)
	if err != nil {
		l.rollback(doc, intent)
		intent.Status = models.MutationRolledBack
		l.log.Warn("mutation rolled back", map[string]any{
			"record_id": doc.ID.String(),
			"field":     intent.Field,
			"op":        string(intent.Op),
		})
		return fmt.Errorf("committing %s mutation: %w", intent.Op, err)
	}

	intent.Status = models.MutationCommitted
	return nil
}

func (l *Ledger) push(ctx context.Context, intent *models.MutationIntent) error {
	switch intent.Op {
	case models.MutationFavorite:
		next := intent.Next.(bool)
		_, err := l.store.UpdateMetadata(ctx, intent.TargetID, store.MetadataPatch{IsFavorite: &next})
		return err
	case models.MutationRename:
		next := intent.Next.(string)
		_, err := l.store.UpdateMetadata(ctx, intent.TargetID, store.MetadataPatch{Title: &next})
		return err
	case models.MutationDelete:
		return l.store.DeleteRecord(ctx, intent.TargetID)
	default:
		return apperrors.New(apperrors.ErrInvalid, fmt.Sprintf("unknown mutation op %q", intent.Op))
	}
}

func (l *Ledger) rollback(doc *models.DocumentRecord, intent *models.MutationIntent) {
	switch intent.Op {
	case models.MutationFavorite:
		doc.IsFavorite = intent.Previous.(bool)
	case models.MutationRename:
		doc.Title = intent.Previous.(string)
	case models.MutationDelete:
		// nothing applied, nothing to restore
	}
}

// release frees the (record id, field) slot.
func (l *Ledger) release(intent *models.MutationIntent) {
	l.mu.Lock()
	delete(l.inflight, key(intent.TargetID, intent.Field))
	l.mu.Unlock()
}

// Pending reports whether a mutation is in flight for the given
// record and operation.
func (l *Ledger) Pending(id models.UUID, op models.MutationOp) bool {
	field, err := fieldOf(op)
	if err != nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.inflight[key(id, field)]
	return busy
}
