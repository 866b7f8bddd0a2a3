// Package models tests for data model definitions.
package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestUUID_Scan verifies scanning from the driver value forms.
func TestUUID_Scan(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  UUID
	}{
		{"string", "abc-123", UUID("abc-123")},
		{"bytes", []byte("abc-123"), UUID("abc-123")},
		{"nil", nil, UUID("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u UUID
			if err := u.Scan(tt.value); err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if u != tt.want {
				t.Errorf("Scan = %q, want %q", u, tt.want)
			}
		})
	}

	t.Run("unsupported type", func(t *testing.T) {
		var u UUID
		if err := u.Scan(42); err == nil {
			t.Error("Scan of int should fail")
		}
	})
}

// TestDocumentRecord_Validate covers required fields and file types.
func TestDocumentRecord_Validate(t *testing.T) {
	valid := DocumentRecord{
		ID:       UUID("8f14e45f-ceea-467f-abcd-99e0e1a2b3c4"),
		Title:    "Attention Is All You Need",
		FileType: FileTypePDF,
		SavedAt:  time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Valid record failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*DocumentRecord)
	}{
		{"missing title", func(d *DocumentRecord) { d.Title = "" }},
		{"missing id", func(d *DocumentRecord) { d.ID = "" }},
		{"bad file type", func(d *DocumentRecord) { d.FileType = "docx" }},
		{"negative last read page", func(d *DocumentRecord) { d.LastReadPage = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			tt.mutate(&rec)
			if err := rec.Validate(); err == nil {
				t.Error("Validation should have failed")
			}
		})
	}
}

// TestDocumentRecord_Clone verifies the copy is fully independent.
func TestDocumentRecord_Clone(t *testing.T) {
	collID := UUID("c0ffee00-ceea-467f-abcd-99e0e1a2b3c4")
	rec := &DocumentRecord{
		ID:           UUID("8f14e45f-ceea-467f-abcd-99e0e1a2b3c4"),
		Title:        "doc",
		FileType:     FileTypePDF,
		PageTexts:    []string{"page one", "page two"},
		CollectionID: &collID,
		Payload:      []byte{1, 2, 3},
	}

	clone := rec.Clone()
	clone.PageTexts[0] = "mutated"
	clone.Payload[0] = 9
	*clone.CollectionID = UUID("other")

	if rec.PageTexts[0] != "page one" {
		t.Error("Clone shares PageTexts backing array")
	}
	if rec.Payload[0] != 1 {
		t.Error("Clone shares Payload backing array")
	}
	if *rec.CollectionID != collID {
		t.Error("Clone shares CollectionID pointer")
	}
}

// TestDocumentRecord_JSONShape verifies the at-rest key names.
func TestDocumentRecord_JSONShape(t *testing.T) {
	rec := DocumentRecord{
		ID:         UUID("8f14e45f-ceea-467f-abcd-99e0e1a2b3c4"),
		Title:      "doc",
		FileType:   FileTypeEPUB,
		SavedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TotalPages: 10,
		IsFavorite: true,
		PageTexts:  []string{"a"},
		Payload:    []byte("secret"),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)

	for _, key := range []string{`"id"`, `"title"`, `"fileType"`, `"savedAt"`, `"totalPages"`, `"isFavorite"`, `"pageTexts"`} {
		if !strings.Contains(s, key) {
			t.Errorf("JSON missing key %s: %s", key, s)
		}
	}
	if strings.Contains(s, "secret") {
		t.Error("Payload bytes must not appear in metadata JSON")
	}
	if !strings.Contains(s, "2025-06-01T12:00:00Z") {
		t.Errorf("savedAt should be ISO8601: %s", s)
	}
}

// TestMutationIntent_Terminal verifies terminal state detection.
func TestMutationIntent_Terminal(t *testing.T) {
	tests := []struct {
		status MutationStatus
		want   bool
	}{
		{MutationIdle, false},
		{MutationApplied, false},
		{MutationCommitted, true},
		{MutationRolledBack, true},
	}

	for _, tt := range tests {
		intent := MutationIntent{Status: tt.status}
		if got := intent.Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

// TestCollectionNode_Clone verifies parent pointer independence.
func TestCollectionNode_Clone(t *testing.T) {
	parent := UUID("8f14e45f-ceea-467f-abcd-99e0e1a2b3c4")
	node := &CollectionNode{ID: UUID("n1"), Name: "Papers", ParentID: &parent}

	clone := node.Clone()
	*clone.ParentID = UUID("other")

	if *node.ParentID != parent {
		t.Error("Clone shares ParentID pointer")
	}
}

// TestTableNames keeps the table names stable.
func TestTableNames(t *testing.T) {
	if got := (DocumentRecord{}).TableName(); got != "document_records" {
		t.Errorf("DocumentRecord table = %q", got)
	}
	if got := (CollectionNode{}).TableName(); got != "collection_nodes" {
		t.Errorf("CollectionNode table = %q", got)
	}
	if got := (MirrorCredential{}).TableName(); got != "mirror_credentials" {
		t.Errorf("MirrorCredential table = %q", got)
	}
}
