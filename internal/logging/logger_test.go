// Package logging tests for the structured JSON logger.
package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// parseEntries decodes every JSON line written to the buffer.
func parseEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// TestLevelFiltering verifies entries below the minimum level are dropped.
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelWarn)

	logger.Debug("drop me")
	logger.Info("drop me too")
	logger.Warn("keep me")
	logger.Error("keep me too", errors.New("boom"))

	entries := parseEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("Unexpected levels: %s, %s", entries[0].Level, entries[1].Level)
	}
}

// TestErrorField verifies the error string lands in the entry.
func TestErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelDebug)

	logger.Error("mirror write failed", errors.New("disk full"))

	entries := parseEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Error != "disk full" {
		t.Errorf("Error field = %q, want %q", entries[0].Error, "disk full")
	}
}

// TestContextMerging verifies variadic context maps are merged.
func TestContextMerging(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelDebug)

	logger.Info("saved",
		map[string]any{"record_id": "doc-1"},
		map[string]any{"size_bytes": 42},
	)

	entries := parseEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].Context
	if ctx["record_id"] != "doc-1" {
		t.Errorf("Context record_id = %v", ctx["record_id"])
	}
	// JSON numbers decode as float64
	if ctx["size_bytes"] != float64(42) {
		t.Errorf("Context size_bytes = %v", ctx["size_bytes"])
	}
}

// TestWithComponent verifies the component name is stamped on entries.
func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelDebug).WithComponent("sync")

	logger.Info("fallback to local store")

	entries := parseEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Component != "sync" {
		t.Errorf("Component = %q, want %q", entries[0].Component, "sync")
	}
}

// TestGlobalLoggerDefault verifies Get initializes a usable default.
func TestGlobalLoggerDefault(t *testing.T) {
	logger := Get()
	if logger == nil {
		t.Fatal("Get() returned nil")
	}
}
