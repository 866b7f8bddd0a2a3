package sync

import (
	"context"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/logging"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/store"
)

// Collections routes collection mutations remote-first and replays
// them on the local mirror, so exports and offline reads see the same
// tree the remote holds. Replay failures degrade mirror health, never
// the caller's mutation.
type Collections struct {
	remote store.CollectionStore
	local  store.CollectionStore
	states StatePersister
	log    *logging.Logger
}

var _ store.CollectionStore = (*Collections)(nil)

// NewCollections creates the write-through collection store. remote is
// authoritative; local is the mirror replayed after each mutation.
func NewCollections(remote, local store.CollectionStore, states StatePersister) *Collections {
	return &Collections{
		remote: remote,
		local:  local,
		states: states,
		log:    logging.Get().WithComponent("sync"),
	}
}

func (c *Collections) CreateNode(ctx context.Context, node *models.CollectionNode) error {
	if err := c.remote.CreateNode(ctx, node); err != nil {
		return err
	}
	c.replay(ctx, "create", node.ID, c.local.CreateNode(ctx, node))
	return nil
}

func (c *Collections) UpdateNode(ctx context.Context, node *models.CollectionNode) error {
	if err := c.remote.UpdateNode(ctx, node); err != nil {
		return err
	}
	merr := c.local.UpdateNode(ctx, node)
	if apperrors.Is(merr, apperrors.ErrNotFound) {
		// mirror missed the create; backfill instead
		merr = c.local.CreateNode(ctx, node)
	}
	c.replay(ctx, "update", node.ID, merr)
	return nil
}

func (c *Collections) DeleteNode(ctx context.Context, id models.UUID) error {
	if err := c.remote.DeleteNode(ctx, id); err != nil {
		return err
	}
	merr := c.local.DeleteNode(ctx, id)
	if apperrors.Is(merr, apperrors.ErrNotFound) {
		merr = nil
	}
	c.replay(ctx, "delete", id, merr)
	return nil
}

func (c *Collections) ReorderChildren(ctx context.Context, parentID *models.UUID, orderedIDs []models.UUID) error {
	if err := c.remote.ReorderChildren(ctx, parentID, orderedIDs); err != nil {
		return err
	}
	var scope models.UUID
	if parentID != nil {
		scope = *parentID
	}
	c.replay(ctx, "reorder", scope, c.local.ReorderChildren(ctx, parentID, orderedIDs))
	return nil
}

func (c *Collections) UnfileDocuments(ctx context.Context, collectionID models.UUID) error {
	if err := c.remote.UnfileDocuments(ctx, collectionID); err != nil {
		return err
	}
	c.replay(ctx, "unfile", collectionID, c.local.UnfileDocuments(ctx, collectionID))
	return nil
}

// GetNode prefers the remote copy and serves the mirror only when the
// remote is unreachable.
func (c *Collections) GetNode(ctx context.Context, id models.UUID) (*models.CollectionNode, error) {
	node, err := c.remote.GetNode(ctx, id)
	if err == nil {
		return node, nil
	}
	if !apperrors.Is(err, apperrors.ErrTransportUnavailable) {
		return nil, err
	}
	return c.local.GetNode(ctx, id)
}

func (c *Collections) ListChildren(ctx context.Context, parentID *models.UUID) ([]models.CollectionNode, error) {
	nodes, err := c.remote.ListChildren(ctx, parentID)
	if err == nil {
		return nodes, nil
	}
	if !apperrors.Is(err, apperrors.ErrTransportUnavailable) {
		return nil, err
	}
	return c.local.ListChildren(ctx, parentID)
}

func (c *Collections) ListAllNodes(ctx context.Context) ([]models.CollectionNode, error) {
	nodes, err := c.remote.ListAllNodes(ctx)
	if err == nil {
		return nodes, nil
	}
	if !apperrors.Is(err, apperrors.ErrTransportUnavailable) {
		return nil, err
	}
	return c.local.ListAllNodes(ctx)
}

// replay records the outcome of a local mirror write. A failed replay
// is logged and degrades mirror health; a successful one restores it.
func (c *Collections) replay(ctx context.Context, op string, id models.UUID, err error) {
	if err != nil {
		c.log.Warn("local collection mirror write failed", map[string]any{
			"op":      op,
			"node_id": id.String(),
			"error":   err.Error(),
		})
		persistMirrorHealth(ctx, c.states, c.log, false, err.Error())
		return
	}
	persistMirrorHealth(ctx, c.states, c.log, true, "")
}
