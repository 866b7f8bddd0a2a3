package ledger

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/store"
	"github.com/yctsai/readnest/internal/uuid"
)

// stubStore records calls and fails on demand.
type stubStore struct {
	updateErr error
	deleteErr error

	patches  []store.MetadataPatch
	deletes  []models.UUID
	lastID   models.UUID
	lastRec  *models.DocumentRecord
}

func (s *stubStore) PutRecord(ctx context.Context, rec *models.DocumentRecord, payload []byte) (*models.DocumentRecord, error) {
	s.lastRec = rec
	return rec, nil
}

func (s *stubStore) GetRecord(ctx context.Context, id models.UUID, opts store.GetOptions) (*models.DocumentRecord, error) {
	return nil, apperrors.New(apperrors.ErrNotFound, "not found")
}

func (s *stubStore) ListRecords(ctx context.Context, filter store.ListFilter) ([]models.DocumentRecord, error) {
	return nil, nil
}

func (s *stubStore) UpdateMetadata(ctx context.Context, id models.UUID, patch store.MetadataPatch) (*models.DocumentRecord, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.lastID = id
	s.patches = append(s.patches, patch)
	return &models.DocumentRecord{ID: id}, nil
}

func (s *stubStore) DeleteRecord(ctx context.Context, id models.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletes = append(s.deletes, id)
	return nil
}

func testDoc() *models.DocumentRecord {
	return &models.DocumentRecord{
		ID:       models.UUID(uuid.New()),
		Title:    "Distributed Systems Notes",
		FileType: "pdf",
	}
}

func TestApplyFavoriteFlipsProjection(t *testing.T) {
	l := New(&stubStore{})
	doc := testDoc()

	intent, err := l.Apply(doc, models.MutationFavorite, true)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !doc.IsFavorite {
		t.Error("projection should flip immediately on apply")
	}
	if intent.Status != models.MutationApplied {
		t.Errorf("status = %q, want applied", intent.Status)
	}
	if prev, ok := intent.Previous.(bool); !ok || prev {
		t.Errorf("Previous = %v, want false", intent.Previous)
	}
}

func TestApplyRejectsConcurrentMutation(t *testing.T) {
	l := New(&stubStore{})
	doc := testDoc()

	if _, err := l.Apply(doc, models.MutationFavorite, true); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	// second toggle on the same field while the first is uncommitted
	_, err := l.Apply(doc, models.MutationFavorite, false)
	if !apperrors.Is(err, apperrors.ErrConcurrentMutation) {
		t.Fatalf("err = %v, want CONCURRENT_MUTATION", err)
	}
	if !doc.IsFavorite {
		t.Error("rejected apply must not touch the projection")
	}

	// a different field on the same record is fine
	if _, err := l.Apply(doc, models.MutationRename, "Renamed"); err != nil {
		t.Errorf("rename during favorite flight: %v", err)
	}
}

func TestCommitSuccess(t *testing.T) {
	st := &stubStore{}
	l := New(st)
	doc := testDoc()

	intent, err := l.Apply(doc, models.MutationFavorite, true)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := l.Commit(context.Background(), doc, intent); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if intent.Status != models.MutationCommitted {
		t.Errorf("status = %q, want committed", intent.Status)
	}
	if len(st.patches) != 1 || st.patches[0].IsFavorite == nil || !*st.patches[0].IsFavorite {
		t.Errorf("patch = %+v, want IsFavorite=true", st.patches)
	}
	if l.Pending(doc.ID, models.MutationFavorite) {
		t.Error("slot must free after commit")
	}

	// same field mutates again once the slot is free
	if _, err := l.Apply(doc, models.MutationFavorite, false); err != nil {
		t.Errorf("re-apply after commit: %v", err)
	}
}

func TestCommitFailureRestoresExactPreviousValue(t *testing.T) {
	st := &stubStore{updateErr: apperrors.New(apperrors.ErrTransportUnavailable, "remote down")}
	l := New(st)
	doc := testDoc()
	original := doc.Title

	intent, err := l.Apply(doc, models.MutationRename, "Better Title")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if doc.Title != "Better Title" {
		t.Fatalf("Title = %q after apply", doc.Title)
	}

	err = l.Commit(context.Background(), doc, intent)
	if err == nil {
		t.Fatal("Commit should surface the store failure")
	}
	if !apperrors.Is(err, apperrors.ErrTransportUnavailable) {
		t.Errorf("err = %v, want TRANSPORT_UNAVAILABLE in chain", err)
	}
	if doc.Title != original {
		t.Errorf("Title = %q, want exact pre-apply value %q", doc.Title, original)
	}
	if intent.Status != models.MutationRolledBack {
		t.Errorf("status = %q, want rolled_back", intent.Status)
	}
	if !intent.Terminal() {
		t.Error("rolled back intent must be terminal")
	}
	if l.Pending(doc.ID, models.MutationRename) {
		t.Error("slot must free after rollback")
	}
}

func TestCommitDeleteUsesDeleteRecord(t *testing.T) {
	st := &stubStore{}
	l := New(st)
	doc := testDoc()

	intent, err := l.Apply(doc, models.MutationDelete, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := l.Commit(context.Background(), doc, intent); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(st.deletes) != 1 || st.deletes[0] != doc.ID {
		t.Errorf("deletes = %v, want [%s]", st.deletes, doc.ID)
	}
}

func TestCommitRequiresAppliedStatus(t *testing.T) {
	l := New(&stubStore{})
	doc := testDoc()

	intent := &models.MutationIntent{Op: models.MutationFavorite, TargetID: doc.ID, Field: "isFavorite", Status: models.MutationCommitted}
	err := l.Commit(context.Background(), doc, intent)
	if !apperrors.Is(err, apperrors.ErrInvalid) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestApplyRejectsWrongValueType(t *testing.T) {
	l := New(&stubStore{})
	doc := testDoc()

	if _, err := l.Apply(doc, models.MutationFavorite, "yes"); !apperrors.Is(err, apperrors.ErrInvalid) {
		t.Errorf("favorite with string: err = %v, want INVALID_INPUT", err)
	}
	if l.Pending(doc.ID, models.MutationFavorite) {
		t.Error("failed apply must release the slot")
	}
	if _, err := l.Apply(doc, models.MutationRename, ""); !apperrors.Is(err, apperrors.ErrInvalid) {
		t.Errorf("rename with empty title: err = %v, want INVALID_INPUT", err)
	}
}

func TestRollbackPreservesLaterUnrelatedEdits(t *testing.T) {
	st := &stubStore{updateErr: errors.New("boom")}
	l := New(st)
	doc := testDoc()

	intent, err := l.Apply(doc, models.MutationFavorite, true)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// an unrelated field changes while the favorite commit is pending
	doc.LastReadPage = 42

	if err := l.Commit(context.Background(), doc, intent); err == nil {
		t.Fatal("Commit should fail")
	}
	if doc.IsFavorite {
		t.Error("favorite must roll back")
	}
	if doc.LastReadPage != 42 {
		t.Error("rollback must only touch the mutated field")
	}
}
