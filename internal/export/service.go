// Package export serializes the whole library to a single JSON
// document and merges such documents back in by id.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/logging"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/payload"
	"github.com/yctsai/readnest/internal/store"
)

// bundleVersion is written into every export and checked on import.
const bundleVersion = "1.0"

// listPageSize batches the record listing during export.
const listPageSize = 100

// Service exports and imports library bundles against a record and
// collection store pair.
type Service struct {
	records     store.RecordStore
	collections store.CollectionStore
	log         *logging.Logger
}

// NewService creates an export Service.
func NewService(records store.RecordStore, collections store.CollectionStore) *Service {
	return &Service{
		records:     records,
		collections: collections,
		log:         logging.Get().WithComponent("export"),
	}
}

// bundleRecord carries one document with its payload base64-encoded.
type bundleRecord struct {
	models.DocumentRecord
	Payload string `json:"payload,omitempty"`
}

// Manifest describes a bundle. Checksum covers the canonical JSON of
// the records and collections arrays.
type Manifest struct {
	Version         string    `json:"version"`
	ExportedAt      time.Time `json:"exported_at"`
	RecordCount     int       `json:"record_count"`
	CollectionCount int       `json:"collection_count"`
	Checksum        string    `json:"checksum"`
}

// bundle is the on-disk shape of an export.
type bundle struct {
	Manifest    Manifest                `json:"manifest"`
	Records     []bundleRecord          `json:"records"`
	Collections []models.CollectionNode `json:"collections"`
}

// ExportResult summarizes a finished export.
type ExportResult struct {
	RecordCount     int
	CollectionCount int
	SizeBytes       int64
	Checksum        string
	Duration        time.Duration
}

// ImportResult summarizes a finished import.
type ImportResult struct {
	ImportedRecords     int
	ImportedCollections int
	Skipped             int
	Duration            time.Duration
}

// ExportData serializes every record (payload included) and every
// collection node into one JSON document.
func (s *Service) ExportData(ctx context.Context) ([]byte, *ExportResult, error) {
	start := time.Now()

	records, err := s.collectRecords(ctx)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrExportFailed, "collecting records", err)
	}
	nodes, err := s.collections.ListAllNodes(ctx)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrExportFailed, "collecting collections", err)
	}

	checksum, err := contentChecksum(records, nodes)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrExportFailed, "computing checksum", err)
	}

	b := bundle{
		Manifest: Manifest{
			Version:         bundleVersion,
			ExportedAt:      start.UTC(),
			RecordCount:     len(records),
			CollectionCount: len(nodes),
			Checksum:        checksum,
		},
		Records:     records,
		Collections: nodes,
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrExportFailed, "encoding bundle", err)
	}

	result := &ExportResult{
		RecordCount:     len(records),
		CollectionCount: len(nodes),
		SizeBytes:       int64(len(data)),
		Checksum:        checksum,
		Duration:        time.Since(start),
	}
	s.log.Info("export finished", map[string]any{
		"records":     result.RecordCount,
		"collections": result.CollectionCount,
		"size_bytes":  result.SizeBytes,
	})
	return data, result, nil
}

func (s *Service) collectRecords(ctx context.Context) ([]bundleRecord, error) {
	var out []bundleRecord
	for offset := 0; ; offset += listPageSize {
		page, err := s.records.ListRecords(ctx, store.ListFilter{Limit: listPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for i := range page {
			full, err := s.records.GetRecord(ctx, page[i].ID, store.GetOptions{IncludePayload: true})
			if err != nil {
				return nil, fmt.Errorf("loading record %s: %w", page[i].ID, err)
			}
			br := bundleRecord{DocumentRecord: *full}
			if len(full.Payload) > 0 {
				br.Payload = payload.EncodeForTransport(full.Payload)
			}
			br.DocumentRecord.Payload = nil
			out = append(out, br)
		}
		if len(page) < listPageSize {
			break
		}
	}
	return out, nil
}

// ImportData merges a bundle into the stores: records and collections
// are matched by id and overwritten, unknown ids are added, nothing is
// deleted. Entries that fail validation or decoding are skipped and
// counted, not fatal.
func (s *Service) ImportData(ctx context.Context, data []byte) (*ImportResult, error) {
	start := time.Now()

	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrImportFailed, "parsing bundle", err)
	}
	if b.Manifest.Version == "" {
		return nil, apperrors.New(apperrors.ErrImportFailed, "bundle has no manifest version")
	}
	if b.Manifest.Checksum != "" {
		checksum, err := contentChecksum(b.Records, b.Collections)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrImportFailed, "computing checksum", err)
		}
		if checksum != b.Manifest.Checksum {
			return nil, apperrors.New(apperrors.ErrImportFailed, "bundle checksum mismatch")
		}
	}

	result := &ImportResult{}

	// collections first so imported records can reference them
	for i := range b.Collections {
		node := b.Collections[i]
		if node.ID == "" || node.Name == "" {
			result.Skipped++
			continue
		}
		if err := s.upsertNode(ctx, &node); err != nil {
			s.log.Warn("skipping collection on import", map[string]any{
				"collection_id": node.ID.String(),
				"error":         err.Error(),
			})
			result.Skipped++
			continue
		}
		result.ImportedCollections++
	}

	for i := range b.Records {
		br := b.Records[i]
		if err := br.DocumentRecord.Validate(); err != nil {
			result.Skipped++
			continue
		}
		var body []byte
		if br.Payload != "" {
			var err error
			body, err = payload.Decode(payload.FromBase64(br.Payload))
			if err != nil {
				s.log.Warn("skipping record with undecodable payload", map[string]any{
					"record_id": br.ID.String(),
				})
				result.Skipped++
				continue
			}
		}
		if _, err := s.records.PutRecord(ctx, &br.DocumentRecord, body); err != nil {
			s.log.Warn("skipping record on import", map[string]any{
				"record_id": br.ID.String(),
				"error":     err.Error(),
			})
			result.Skipped++
			continue
		}
		result.ImportedRecords++
	}

	result.Duration = time.Since(start)
	s.log.Info("import finished", map[string]any{
		"records":     result.ImportedRecords,
		"collections": result.ImportedCollections,
		"skipped":     result.Skipped,
	})
	return result, nil
}

func (s *Service) upsertNode(ctx context.Context, node *models.CollectionNode) error {
	if _, err := s.collections.GetNode(ctx, node.ID); err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return s.collections.CreateNode(ctx, node)
	}
	return s.collections.UpdateNode(ctx, node)
}

// contentChecksum hashes the canonical JSON of the bundle content so
// imports can detect truncation or tampering.
func contentChecksum(records []bundleRecord, nodes []models.CollectionNode) (string, error) {
	content, err := json.Marshal(struct {
		Records     []bundleRecord          `json:"records"`
		Collections []models.CollectionNode `json:"collections"`
	}{records, nodes})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(content)), nil
}
