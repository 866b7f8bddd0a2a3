package local

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/models"
)

const nodeColumns = `id, name, parent_id, color, icon, is_favorite, display_order, created_at`

// CreateNode inserts a collection node.
func (s *Store) CreateNode(ctx context.Context, node *models.CollectionNode) error {
	query := `
	INSERT INTO collection_nodes (id, name, parent_id, color, icon, is_favorite, display_order, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, node.ID, node.Name, nullableUUID(node.ParentID),
		node.Color, node.Icon, node.IsFavorite, node.DisplayOrder, node.CreatedAt)
	if err != nil {
		return transportErr("failed to create collection node", err)
	}
	return nil
}

// GetNode retrieves a collection node by id.
func (s *Store) GetNode(ctx context.Context, id models.UUID) (*models.CollectionNode, error) {
	stmt, err := s.prepareStmt(`SELECT ` + nodeColumns + ` FROM collection_nodes WHERE id = ?`)
	if err != nil {
		return nil, transportErr("failed to prepare node lookup", err)
	}

	node, err := scanNode(stmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("collection node not found: %s", id))
	}
	if err != nil {
		return nil, transportErr("failed to read collection node", err)
	}
	return node, nil
}

// UpdateNode rewrites every mutable field of the node.
func (s *Store) UpdateNode(ctx context.Context, node *models.CollectionNode) error {
	query := `
	UPDATE collection_nodes
	SET name = ?, parent_id = ?, color = ?, icon = ?, is_favorite = ?, display_order = ?
	WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, node.Name, nullableUUID(node.ParentID),
		node.Color, node.Icon, node.IsFavorite, node.DisplayOrder, node.ID)
	if err != nil {
		return transportErr("failed to update collection node", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("collection node not found: %s", node.ID))
	}
	return nil
}

// DeleteNode removes the node row only; re-parenting of children and
// unfiling of documents happen at the tree layer before this call.
func (s *Store) DeleteNode(ctx context.Context, id models.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM collection_nodes WHERE id = ?`, id)
	if err != nil {
		return transportErr("failed to delete collection node", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("collection node not found: %s", id))
	}
	return nil
}

// ListChildren returns the children of parentID (nil = root) in
// display order, ties broken by creation time.
func (s *Store) ListChildren(ctx context.Context, parentID *models.UUID) ([]models.CollectionNode, error) {
	var query string
	var args []any
	if parentID == nil {
		query = `SELECT ` + nodeColumns + ` FROM collection_nodes WHERE parent_id IS NULL
				 ORDER BY display_order, created_at`
	} else {
		query = `SELECT ` + nodeColumns + ` FROM collection_nodes WHERE parent_id = ?
				 ORDER BY display_order, created_at`
		args = append(args, *parentID)
	}

	stmt, err := s.prepareStmt(query)
	if err != nil {
		return nil, transportErr("failed to prepare children listing", err)
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, transportErr("failed to list collection children", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

// ListAllNodes returns every collection node.
func (s *Store) ListAllNodes(ctx context.Context) ([]models.CollectionNode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM collection_nodes ORDER BY display_order, created_at`)
	if err != nil {
		return nil, transportErr("failed to list collection nodes", err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

// ReorderChildren rewrites display order for every given child of
// parentID inside one transaction. Any id that is not actually a child
// of parentID aborts the whole rewrite.
func (s *Store) ReorderChildren(ctx context.Context, parentID *models.UUID, orderedIDs []models.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return transportErr("failed to begin reorder transaction", err)
	}
	defer tx.Rollback()

	var query string
	if parentID == nil {
		query = `UPDATE collection_nodes SET display_order = ? WHERE id = ? AND parent_id IS NULL`
	} else {
		query = `UPDATE collection_nodes SET display_order = ? WHERE id = ? AND parent_id = ?`
	}

	for i, id := range orderedIDs {
		var result sql.Result
		if parentID == nil {
			result, err = tx.ExecContext(ctx, query, i, id)
		} else {
			result, err = tx.ExecContext(ctx, query, i, id, *parentID)
		}
		if err != nil {
			return transportErr("failed to rewrite display order", err)
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return apperrors.New(apperrors.ErrValidation,
				fmt.Sprintf("node %s is not a child of the given parent", id))
		}
	}

	if err := tx.Commit(); err != nil {
		return transportErr("failed to commit reorder", err)
	}
	return nil
}

// UnfileDocuments clears the collection assignment of every document
// filed under collectionID.
func (s *Store) UnfileDocuments(ctx context.Context, collectionID models.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE document_records SET collection_id = NULL WHERE collection_id = ?`, collectionID)
	if err != nil {
		return transportErr("failed to unfile documents", err)
	}
	return nil
}

func scanNode(row rowScanner) (*models.CollectionNode, error) {
	var node models.CollectionNode
	var parentID sql.NullString
	err := row.Scan(&node.ID, &node.Name, &parentID, &node.Color, &node.Icon,
		&node.IsFavorite, &node.DisplayOrder, &node.CreatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := models.UUID(parentID.String)
		node.ParentID = &id
	}
	return &node, nil
}

func collectNodes(rows *sql.Rows) ([]models.CollectionNode, error) {
	var nodes []models.CollectionNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, transportErr("failed to scan collection node", err)
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr("failed to iterate collection nodes", err)
	}
	return nodes, nil
}
