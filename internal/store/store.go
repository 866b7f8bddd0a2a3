// Package store defines the persistence seam the sync layer plugs
// concrete stores into. Implementations return typed AppErrors:
// NOT_FOUND, UNAUTHORIZED and TRANSPORT_UNAVAILABLE are the failure
// vocabulary callers may rely on.
package store

import (
	"context"

	"github.com/yctsai/readnest/internal/models"
)

// GetOptions controls what GetRecord fetches. Payload retrieval may
// cost an additional round trip on some stores.
type GetOptions struct {
	IncludePayload bool
}

// ListFilter narrows and pages ListRecords. Listings are metadata-only
// and finite; Offset makes the sequence restartable from any point.
type ListFilter struct {
	CollectionID  *models.UUID
	FavoritesOnly bool
	Limit         int
	Offset        int
}

// MetadataPatch names the fields UpdateMetadata may change. Nil
// pointers leave the field untouched; no payload is re-sent.
type MetadataPatch struct {
	Title        *string
	IsFavorite   *bool
	LastReadPage *int
	TotalPages   *int
	CollectionID *models.UUID
	// ClearCollection unfiles the document; it wins over CollectionID.
	ClearCollection bool
}

// IsEmpty reports whether the patch changes nothing.
func (p MetadataPatch) IsEmpty() bool {
	return p.Title == nil && p.IsFavorite == nil && p.LastReadPage == nil &&
		p.TotalPages == nil && p.CollectionID == nil && !p.ClearCollection
}

// RecordStore is the CRUD contract for document records. The remote
// implementation is authoritative and supports restorable soft delete;
// the local implementation is the fallback mirror and deletes hard.
type RecordStore interface {
	// PutRecord persists metadata plus payload and returns the
	// committed record.
	PutRecord(ctx context.Context, rec *models.DocumentRecord, payload []byte) (*models.DocumentRecord, error)

	// GetRecord retrieves metadata, optionally with payload.
	GetRecord(ctx context.Context, id models.UUID, opts GetOptions) (*models.DocumentRecord, error)

	// ListRecords returns a metadata-only page of records.
	ListRecords(ctx context.Context, filter ListFilter) ([]models.DocumentRecord, error)

	// UpdateMetadata patches only the named fields.
	UpdateMetadata(ctx context.Context, id models.UUID, patch MetadataPatch) (*models.DocumentRecord, error)

	// DeleteRecord removes a record. Remote stores trash it
	// restorably; local stores delete for good.
	DeleteRecord(ctx context.Context, id models.UUID) error
}

// CollectionStore is the contract the collection tree mutates through.
type CollectionStore interface {
	CreateNode(ctx context.Context, node *models.CollectionNode) error
	GetNode(ctx context.Context, id models.UUID) (*models.CollectionNode, error)
	UpdateNode(ctx context.Context, node *models.CollectionNode) error

	// DeleteNode removes the node only; callers own re-parenting and
	// unfiling semantics.
	DeleteNode(ctx context.Context, id models.UUID) error

	// ListChildren returns the children of parentID (nil = root),
	// ordered by display order, ties broken by creation time.
	ListChildren(ctx context.Context, parentID *models.UUID) ([]models.CollectionNode, error)

	// ListAllNodes returns every node, for export and tree walks.
	ListAllNodes(ctx context.Context) ([]models.CollectionNode, error)

	// ReorderChildren atomically rewrites display order for every
	// given child of parentID to match the slice order.
	ReorderChildren(ctx context.Context, parentID *models.UUID, orderedIDs []models.UUID) error

	// UnfileDocuments clears the collection assignment of every
	// document filed under collectionID.
	UnfileDocuments(ctx context.Context, collectionID models.UUID) error
}
