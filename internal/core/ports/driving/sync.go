package driving

import (
	"context"
	"time"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
)

// SyncService drives reconciliation passes.
type SyncService interface {
	// RunPass executes one reconciliation pass. A refused gate or an offline
	// backend yields a skipped result, never an error.
	RunPass(ctx context.Context) (*domain.PassResult, error)

	// LastResult returns the most recent pass result, if any pass ran.
	LastResult() (*domain.PassResult, bool)

	// LastPassAt returns when the most recent pass finished.
	LastPassAt() (time.Time, bool)

	// Subscribe registers a callback for pass boundary events. Callbacks
	// run in registration order.
	Subscribe(fn func(domain.SyncEvent))
}

// GuardDecision is the outcome of a delivery-guard check.
type GuardDecision struct {
	Allowed bool `json:"allowed"`

	// Continuation is true when the attempt shares the workflow id of an
	// existing queued or ledger entry and is therefore allowed through.
	Continuation bool `json:"continuation"`

	// Reason is a clerk-facing explanation when Allowed is false.
	Reason string `json:"reason,omitempty"`

	// ExistingWorkflowID is the workflow id of the entry that caused a
	// refusal or continuation.
	ExistingWorkflowID string `json:"existing_workflow_id,omitempty"`
}

// GuardService answers "may this producer capture a new delivery now".
// Advisory at capture time; the authoritative check runs during the pass.
type GuardService interface {
	// Check evaluates one capture attempt.
	Check(ctx context.Context, producerID string, session domain.Session, date, workflowID string) (*GuardDecision, error)

	// Blocked recomputes the full blocked set for the restricted producers.
	Blocked(ctx context.Context, session domain.Session, date string) (map[string]bool, error)
}
