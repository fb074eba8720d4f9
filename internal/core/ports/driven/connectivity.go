package driven

import "context"

// ConnectivityMonitor reports whether the ledger backend is reachable.
//
// Watch installs the single process-wide state listener; the sync gate is
// the only caller and fans changes out to its registered callbacks, so N
// subsystems reacting to connectivity never mean N underlying listeners.
type ConnectivityMonitor interface {
	// Online reports the last observed connectivity state.
	Online() bool

	// Watch installs the state-change listener. The listener is invoked
	// with the new state whenever it flips.
	Watch(fn func(online bool))

	// Probe forces an immediate reachability check.
	Probe(ctx context.Context) bool
}
