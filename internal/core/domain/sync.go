package domain

import "time"

// PassStatus classifies the overall outcome of one reconciliation pass.
type PassStatus string

const (
	// PassCompleted means the pass ran to completion.
	PassCompleted PassStatus = "completed"
	// PassSkipped means the gate refused: another pass was running or the
	// debounce window had not elapsed. Never an error.
	PassSkipped PassStatus = "skipped"
	// PassSkippedOffline means the backend was unreachable; nothing was
	// submitted and the queue is untouched.
	PassSkippedOffline PassStatus = "skipped_offline"
	// PassSuspended means the device was reported unauthorized mid-pass and
	// the remaining submissions were suspended. Nothing was purged.
	PassSuspended PassStatus = "suspended"
)

// PassResult summarizes one reconciliation pass.
type PassResult struct {
	Status   PassStatus    `json:"status"`
	Synced   int           `json:"synced"`
	Failed   int           `json:"failed"`
	Resolved int           `json:"resolved"` // blocked duplicates purged locally
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// UnitOutcome classifies the fate of one work unit within a pass.
type UnitOutcome string

const (
	UnitConfirmed         UnitOutcome = "confirmed"
	UnitDuplicateDetected UnitOutcome = "duplicate_detected"
	UnitTransientFailure  UnitOutcome = "transient_failure"
	UnitValidationFailure UnitOutcome = "validation_failure"
)

// PendingStatus is the read model UI banners poll: current queue depth plus
// the last pass outcome.
type PendingStatus struct {
	PendingCount int         `json:"pending_count"`
	LastPass     *PassResult `json:"last_pass,omitempty"`
	LastPassAt   *time.Time  `json:"last_pass_at,omitempty"`
	Online       bool        `json:"online"`
}

// SyncEvent is emitted at pass boundaries for UI feedback and dependent
// cache refreshes.
type SyncEvent struct {
	Type   SyncEventType `json:"type"`
	Result *PassResult   `json:"result,omitempty"`
	At     time.Time     `json:"at"`
}

// SyncEventType identifies a pass boundary notification.
type SyncEventType string

const (
	SyncStarted   SyncEventType = "sync_started"
	SyncCompleted SyncEventType = "sync_completed"
)
