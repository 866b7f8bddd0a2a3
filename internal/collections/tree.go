// Package collections implements the folder hierarchy documents are
// filed under. Structural rules live here; the store below only
// persists nodes and rewrites sibling order atomically.
package collections

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/logging"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/store"
	"github.com/yctsai/readnest/internal/uuid"
)

// maxDepth bounds parent-chain walks so a corrupted tree cannot spin
// the service forever.
const maxDepth = 128

// Tree provides the collection operations the UI calls. All mutations
// go through the CollectionStore; moves and deletes that touch several
// nodes rely on the store's atomic reorder for ordering but are not
// themselves transactional across nodes.
type Tree struct {
	store store.CollectionStore
	log   *logging.Logger
}

// NewTree creates a Tree over the given store.
func NewTree(st store.CollectionStore) *Tree {
	return &Tree{
		store: st,
		log:   logging.Get().WithComponent("collections"),
	}
}

func validateName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("collection name is required"),
		validation.Length(1, 120).Error("collection name must be at most 120 characters"),
		validation.By(func(v any) error {
			if strings.Contains(v.(string), "/") {
				return fmt.Errorf("collection name must not contain '/'")
			}
			return nil
		}),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "invalid collection name", err)
	}
	return nil
}

// CreateNode creates a collection under parentID (nil = root) and
// appends it to the end of its sibling list.
func (t *Tree) CreateNode(ctx context.Context, name string, parentID *models.UUID) (*models.CollectionNode, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if parentID != nil {
		if _, err := t.store.GetNode(ctx, *parentID); err != nil {
			return nil, fmt.Errorf("resolving parent collection: %w", err)
		}
	}

	siblings, err := t.store.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}

	node := &models.CollectionNode{
		ID:           models.UUID(uuid.New()),
		Name:         name,
		ParentID:     parentID,
		DisplayOrder: len(siblings),
		CreatedAt:    time.Now().Unix(),
	}
	if err := t.store.CreateNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// RenameNode changes a collection's display name.
func (t *Tree) RenameNode(ctx context.Context, id models.UUID, name string) (*models.CollectionNode, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	node, err := t.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	node.Name = name
	if err := t.store.UpdateNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// ToggleFavorite flips the favorite flag and returns the new state.
func (t *Tree) ToggleFavorite(ctx context.Context, id models.UUID) (*models.CollectionNode, error) {
	node, err := t.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	node.IsFavorite = !node.IsFavorite
	if err := t.store.UpdateNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// SetAppearance updates the color and icon shown for a collection.
func (t *Tree) SetAppearance(ctx context.Context, id models.UUID, color, icon string) (*models.CollectionNode, error) {
	node, err := t.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	node.Color = color
	node.Icon = icon
	if err := t.store.UpdateNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// DeleteNode removes a collection without cascading: child collections
// re-parent to the deleted node's parent, appended at the end of that
// sibling list, and documents filed under the node become unfiled.
func (t *Tree) DeleteNode(ctx context.Context, id models.UUID) error {
	node, err := t.store.GetNode(ctx, id)
	if err != nil {
		return err
	}

	children, err := t.store.ListChildren(ctx, &id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		newSiblings, err := t.store.ListChildren(ctx, node.ParentID)
		if err != nil {
			return err
		}
		order := len(newSiblings)
		for i := range children {
			child := children[i]
			child.ParentID = node.ParentID
			child.DisplayOrder = order
			order++
			if err := t.store.UpdateNode(ctx, &child); err != nil {
				return fmt.Errorf("re-parenting collection %s: %w", child.ID, err)
			}
		}
	}

	if err := t.store.UnfileDocuments(ctx, id); err != nil {
		return fmt.Errorf("unfiling documents of collection %s: %w", id, err)
	}
	if err := t.store.DeleteNode(ctx, id); err != nil {
		return err
	}
	t.log.Info("collection deleted", map[string]any{
		"collection_id": id.String(),
		"reparented":    len(children),
	})
	return nil
}

// MoveNode re-parents a collection (nil = move to root) and appends it
// to the end of the new sibling list. Moving a node into itself or any
// of its descendants is rejected with INVALID_MOVE and the tree stays
// untouched.
func (t *Tree) MoveNode(ctx context.Context, id models.UUID, newParent *models.UUID) (*models.CollectionNode, error) {
	node, err := t.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.checkMoveTarget(ctx, id, newParent); err != nil {
		return nil, err
	}

	siblings, err := t.store.ListChildren(ctx, newParent)
	if err != nil {
		return nil, err
	}
	node.ParentID = newParent
	node.DisplayOrder = len(siblings)
	if err := t.store.UpdateNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// checkMoveTarget walks the parent chain upward from the target: if
// the moved node appears anywhere on it the move would create a cycle.
func (t *Tree) checkMoveTarget(ctx context.Context, id models.UUID, newParent *models.UUID) error {
	cursor := newParent
	for depth := 0; cursor != nil; depth++ {
		if depth >= maxDepth {
			return apperrors.New(apperrors.ErrCollectionInvalid,
				fmt.Sprintf("collection hierarchy deeper than %d levels", maxDepth))
		}
		if *cursor == id {
			return apperrors.New(apperrors.ErrInvalidMove,
				"cannot move a collection into itself or one of its descendants")
		}
		ancestor, err := t.store.GetNode(ctx, *cursor)
		if err != nil {
			return fmt.Errorf("resolving move target ancestry: %w", err)
		}
		cursor = ancestor.ParentID
	}
	return nil
}

// ReorderSiblings rewrites the display order of parentID's children to
// match orderedIDs. The id set must cover the current children
// exactly; the store applies the rewrite in a single transaction.
func (t *Tree) ReorderSiblings(ctx context.Context, parentID *models.UUID, orderedIDs []models.UUID) error {
	children, err := t.store.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(children) {
		return apperrors.New(apperrors.ErrValidation,
			fmt.Sprintf("reorder lists %d ids but parent has %d children", len(orderedIDs), len(children)))
	}
	current := make(map[models.UUID]struct{}, len(children))
	for _, c := range children {
		current[c.ID] = struct{}{}
	}
	for _, id := range orderedIDs {
		if _, ok := current[id]; !ok {
			return apperrors.New(apperrors.ErrValidation,
				fmt.Sprintf("collection %s is not a child of the given parent", id))
		}
		delete(current, id)
	}

	return t.store.ReorderChildren(ctx, parentID, orderedIDs)
}

// Children lists the direct children of parentID in display order.
func (t *Tree) Children(ctx context.Context, parentID *models.UUID) ([]models.CollectionNode, error) {
	return t.store.ListChildren(ctx, parentID)
}

// All lists every collection node, for export and full-tree rendering.
func (t *Tree) All(ctx context.Context) ([]models.CollectionNode, error) {
	return t.store.ListAllNodes(ctx)
}
