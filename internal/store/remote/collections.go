package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yctsai/readnest/internal/models"
)

// CreateNode creates a collection node on the server.
func (c *Client) CreateNode(ctx context.Context, node *models.CollectionNode) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/collections", node, node)
}

// GetNode retrieves a collection node.
func (c *Client) GetNode(ctx context.Context, id models.UUID) (*models.CollectionNode, error) {
	var out models.CollectionNode
	if err := c.doJSON(ctx, http.MethodGet, "/v1/collections/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNode rewrites a collection node.
func (c *Client) UpdateNode(ctx context.Context, node *models.CollectionNode) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/collections/"+url.PathEscape(node.ID.String()), node, nil)
}

// DeleteNode removes a collection node.
func (c *Client) DeleteNode(ctx context.Context, id models.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/collections/"+url.PathEscape(id.String()), nil, nil)
}

// ListChildren lists the children of parentID (nil = root) in display
// order.
func (c *Client) ListChildren(ctx context.Context, parentID *models.UUID) ([]models.CollectionNode, error) {
	path := "/v1/collections?parent=root"
	if parentID != nil {
		path = "/v1/collections?parent=" + url.QueryEscape(parentID.String())
	}

	var out struct {
		Nodes []models.CollectionNode `json:"nodes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Nodes, nil
}

// ListAllNodes returns the whole tree as a flat list.
func (c *Client) ListAllNodes(ctx context.Context) ([]models.CollectionNode, error) {
	var out struct {
		Nodes []models.CollectionNode `json:"nodes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/collections", nil, &out); err != nil {
		return nil, err
	}
	return out.Nodes, nil
}

// ReorderChildren asks the server to atomically rewrite sibling order.
func (c *Client) ReorderChildren(ctx context.Context, parentID *models.UUID, orderedIDs []models.UUID) error {
	body := map[string]any{"orderedIds": orderedIDs}
	if parentID != nil {
		body["parentId"] = parentID.String()
	}
	return c.doJSON(ctx, http.MethodPut, "/v1/collections/reorder", body, nil)
}

// UnfileDocuments clears the collection assignment of every document
// filed under collectionID.
func (c *Client) UnfileDocuments(ctx context.Context, collectionID models.UUID) error {
	return c.doJSON(ctx, http.MethodPost,
		"/v1/collections/"+url.PathEscape(collectionID.String())+"/unfile", nil, nil)
}
