// Package remote implements the authoritative record store over the
// workspace's JSON HTTP API. The wire protocol itself is owned by the
// server; this client only maps it onto the store contract and the
// typed failure vocabulary.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/payload"
	"github.com/yctsai/readnest/internal/store"
)

// TokenProvider supplies the bearer token for a request. Passing the
// session in explicitly keeps concurrent sessions isolated; there is
// no process-wide current user.
type TokenProvider func(ctx context.Context) (string, error)

// Options configures the remote client.
type Options struct {
	BaseURL       string
	TokenProvider TokenProvider
	HTTPClient    *http.Client
	UserAgent     string
}

// Client talks to the remote record API.
type Client struct {
	baseURL       string
	tokenProvider TokenProvider
	httpClient    *http.Client
	userAgent     string
}

// Compile-time interface checks.
var (
	_ store.RecordStore     = (*Client)(nil)
	_ store.CollectionStore = (*Client)(nil)
)

// NewClient creates a remote client with sane defaults.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:       baseURL,
		tokenProvider: opts.TokenProvider,
		httpClient:    httpClient,
		userAgent:     strings.TrimSpace(opts.UserAgent),
	}
}

// wireRecord is the at-rest record shape: metadata plus the payload as
// a base64 string.
type wireRecord struct {
	models.DocumentRecord
	Payload string `json:"payload,omitempty"`
}

func (c *Client) toModel(w *wireRecord) (*models.DocumentRecord, error) {
	rec := w.DocumentRecord
	if w.Payload != "" {
		data, err := payload.Decode(payload.FromBase64(w.Payload))
		if err != nil {
			return nil, err
		}
		rec.Payload = data
	}
	return &rec, nil
}

// PutRecord persists metadata and payload in a single call.
func (c *Client) PutRecord(ctx context.Context, rec *models.DocumentRecord, payloadBytes []byte) (*models.DocumentRecord, error) {
	body := wireRecord{DocumentRecord: *rec}
	body.DocumentRecord.Payload = nil
	if payloadBytes != nil {
		body.Payload = payload.EncodeForTransport(payloadBytes)
	}

	var out wireRecord
	if err := c.doJSON(ctx, http.MethodPut, "/v1/records/"+url.PathEscape(rec.ID.String()), body, &out); err != nil {
		return nil, err
	}
	return c.toModel(&out)
}

// GetRecord retrieves metadata, optionally with the base64 payload.
func (c *Client) GetRecord(ctx context.Context, id models.UUID, opts store.GetOptions) (*models.DocumentRecord, error) {
	path := "/v1/records/" + url.PathEscape(id.String())
	if opts.IncludePayload {
		path += "?include_payload=1"
	}

	var out wireRecord
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	rec, err := c.toModel(&out)
	if err != nil {
		return nil, err
	}
	if opts.IncludePayload && rec.Payload == nil {
		return nil, apperrors.New(apperrors.ErrPayloadCorrupt,
			"remote returned no payload; please re-upload the file")
	}
	return rec, nil
}

// ListRecords returns one metadata-only page.
func (c *Client) ListRecords(ctx context.Context, filter store.ListFilter) ([]models.DocumentRecord, error) {
	q := url.Values{}
	if filter.CollectionID != nil {
		q.Set("collectionId", filter.CollectionID.String())
	}
	if filter.FavoritesOnly {
		q.Set("favorites", "1")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(filter.Offset))

	var out struct {
		Records []models.DocumentRecord `json:"records"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/records?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// UpdateMetadata patches only the named fields. The body carries just
// the changed keys; clearing the collection sends an explicit null.
func (c *Client) UpdateMetadata(ctx context.Context, id models.UUID, patch store.MetadataPatch) (*models.DocumentRecord, error) {
	if patch.IsEmpty() {
		return c.GetRecord(ctx, id, store.GetOptions{})
	}

	body := make(map[string]any)
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.IsFavorite != nil {
		body["isFavorite"] = *patch.IsFavorite
	}
	if patch.LastReadPage != nil {
		body["lastReadPage"] = *patch.LastReadPage
	}
	if patch.TotalPages != nil {
		body["totalPages"] = *patch.TotalPages
	}
	if patch.ClearCollection {
		body["collectionId"] = nil
	} else if patch.CollectionID != nil {
		body["collectionId"] = patch.CollectionID.String()
	}

	var out wireRecord
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/records/"+url.PathEscape(id.String()), body, &out); err != nil {
		return nil, err
	}
	return c.toModel(&out)
}

// DeleteRecord soft deletes: the server moves the record to a
// restorable trash.
func (c *Client) DeleteRecord(ctx context.Context, id models.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/records/"+url.PathEscape(id.String()), nil, nil)
}

// RestoreRecord pulls a soft-deleted record back out of the trash.
func (c *Client) RestoreRecord(ctx context.Context, id models.UUID) (*models.DocumentRecord, error) {
	var out wireRecord
	if err := c.doJSON(ctx, http.MethodPost, "/v1/records/"+url.PathEscape(id.String())+"/restore", nil, &out); err != nil {
		return nil, err
	}
	return c.toModel(&out)
}

// doJSON executes one authenticated JSON round trip and maps the
// response status onto the typed failure vocabulary.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, "failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrUnauthorized, "failed to obtain session token", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransportUnavailable, "remote store unreachable", err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "failed to decode response body", err)
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.New(apperrors.ErrNotFound, "remote record not found")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.ErrUnauthorized, "remote store rejected the session")
	case resp.StatusCode >= 500:
		return apperrors.New(apperrors.ErrTransportUnavailable,
			fmt.Sprintf("remote store unavailable (status %d)", resp.StatusCode))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.New(apperrors.ErrInternal,
			fmt.Sprintf("remote store error (status %d): %s", resp.StatusCode, string(body)))
	}
}
