package models

// MutationOp identifies an optimistic metadata mutation.
type MutationOp string

const (
	MutationFavorite MutationOp = "favorite"
	MutationRename   MutationOp = "rename"
	MutationDelete   MutationOp = "delete"
)

// MutationStatus tracks an intent through its state machine:
// Idle -> Applied -> {Committed | RolledBack}.
type MutationStatus string

const (
	MutationIdle       MutationStatus = "idle"
	MutationApplied    MutationStatus = "applied"
	MutationCommitted  MutationStatus = "committed"
	MutationRolledBack MutationStatus = "rolled_back"
)

// MutationIntent records a single optimistic metadata edit.
// Previous holds the value to restore on rollback; Next the value the
// caller asked for.
type MutationIntent struct {
	Op       MutationOp     `json:"op"`
	TargetID UUID           `json:"targetId"`
	Field    string         `json:"field"`
	Previous any            `json:"previous,omitempty"`
	Next     any            `json:"next,omitempty"`
	Status   MutationStatus `json:"status"`
}

// Terminal reports whether the intent reached a final state.
func (m *MutationIntent) Terminal() bool {
	return m.Status == MutationCommitted || m.Status == MutationRolledBack
}
