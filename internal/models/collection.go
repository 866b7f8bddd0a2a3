package models

import "time"

// CollectionNode represents a folder in the collection hierarchy.
// ParentID nil means the node sits at the root. DisplayOrder is a
// total order among siblings of the same parent and is rewritten
// atomically on reorder and move.
type CollectionNode struct {
	ID           UUID   `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	ParentID     *UUID  `db:"parent_id" json:"parentId,omitempty"`
	Color        string `db:"color" json:"color,omitempty"`
	Icon         string `db:"icon" json:"icon,omitempty"`
	IsFavorite   bool   `db:"is_favorite" json:"isFavorite"`
	DisplayOrder int    `db:"display_order" json:"displayOrder"`
	CreatedAt    int64  `db:"created_at" json:"createdAt"`
}

// TableName returns the table name for CollectionNode.
func (CollectionNode) TableName() string {
	return "collection_nodes"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (c *CollectionNode) CreatedAtTime() time.Time {
	return time.Unix(c.CreatedAt, 0)
}

// Clone returns a copy of the node.
func (c *CollectionNode) Clone() *CollectionNode {
	out := *c
	if c.ParentID != nil {
		id := *c.ParentID
		out.ParentID = &id
	}
	return &out
}
