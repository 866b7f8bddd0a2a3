// Package local tests for sync state persistence.
package local

import (
	"context"
	"testing"
	"time"
)

// TestSyncStateRoundTrip verifies every SyncState field survives a
// save/load cycle, mirror health included.
func TestSyncStateRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	state, err := s.LoadSyncState(ctx)
	if err != nil {
		t.Fatalf("LoadSyncState: %v", err)
	}
	if !state.MirrorHealthy {
		t.Error("fresh workspace should report a healthy mirror")
	}
	if state.Enabled || !state.LastSync.IsZero() {
		t.Errorf("fresh state not zeroed: %+v", state)
	}

	state.LastSync = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	state.Enabled = true
	state.MirrorHealthy = false
	state.LastMirrorError = "disk full"
	if err := s.SaveSyncState(ctx, state); err != nil {
		t.Fatalf("SaveSyncState: %v", err)
	}

	loaded, err := s.LoadSyncState(ctx)
	if err != nil {
		t.Fatalf("LoadSyncState after save: %v", err)
	}
	if !loaded.LastSync.Equal(state.LastSync) {
		t.Errorf("LastSync = %v, want %v", loaded.LastSync, state.LastSync)
	}
	if !loaded.Enabled {
		t.Error("Enabled flag lost")
	}
	if loaded.MirrorHealthy {
		t.Error("MirrorHealthy=false lost in round trip")
	}
	if loaded.LastMirrorError != "disk full" {
		t.Errorf("LastMirrorError = %q, want %q", loaded.LastMirrorError, "disk full")
	}

	// recovery clears the error detail
	loaded.MirrorHealthy = true
	loaded.LastMirrorError = ""
	if err := s.SaveSyncState(ctx, loaded); err != nil {
		t.Fatalf("SaveSyncState recovery: %v", err)
	}
	final, err := s.LoadSyncState(ctx)
	if err != nil {
		t.Fatalf("LoadSyncState final: %v", err)
	}
	if !final.MirrorHealthy || final.LastMirrorError != "" {
		t.Errorf("recovery not persisted: %+v", final)
	}
}
