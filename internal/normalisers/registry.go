package normalisers

import (
	"sort"
	"strings"
	"sync"

	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry implements NormaliserRegistry with priority-based selection.
// When multiple normalisers match a capture kind, all of them run, highest
// priority first.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.RecordNormaliser
}

// NewRegistry creates a new normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make([]driven.RecordNormaliser, 0),
	}
}

// DefaultRegistry creates a registry with the built-in normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewIdentifierNormaliser())
	r.Register(NewMeasurementNormaliser())
	return r
}

// Register registers a normaliser.
// Normalisers are stored and later selected by priority.
func (r *Registry) Register(normaliser driven.RecordNormaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
}

// GetAll retrieves all normalisers that match a capture kind, sorted by
// priority (highest first).
func (r *Registry) GetAll(kind string) []driven.RecordNormaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.RecordNormaliser

	for _, n := range r.normalisers {
		if matchesKind(n.SupportedKinds(), kind) {
			matches = append(matches, n)
		}
	}

	// Sort by priority (highest first)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})

	return matches
}

// List returns all registered capture kinds.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kindSet := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, k := range n.SupportedKinds() {
			kindSet[k] = struct{}{}
		}
	}

	kinds := make([]string, 0, len(kindSet))
	for k := range kindSet {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// matchesKind checks if any of the supported kinds match the given kind.
// "*" matches every kind.
func matchesKind(supportedKinds []string, kind string) bool {
	kind = strings.ToLower(strings.TrimSpace(kind))

	for _, supported := range supportedKinds {
		supported = strings.ToLower(strings.TrimSpace(supported))
		if supported == "*" || supported == kind {
			return true
		}
	}
	return false
}
