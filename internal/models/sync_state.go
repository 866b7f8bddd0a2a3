package models

import "time"

// SyncState holds sync bookkeeping. There is no cross-device
// consistency guarantee: a later sync simply overwrites an earlier one.
// Mirror health is an explicit queryable field rather than a log-only
// side channel, so callers and tests can assert on it.
type SyncState struct {
	LastSync        time.Time `json:"lastSyncTimestamp"`
	Enabled         bool      `json:"enabled"`
	MirrorHealthy   bool      `json:"mirrorHealthy"`
	LastMirrorError string    `json:"lastMirrorError,omitempty"`
}
