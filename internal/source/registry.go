package source

import "sort"

// Entry is one configured source in the registry.
type Entry struct {
	// Adapter performs the actual searches.
	Adapter Adapter

	// Priority orders fan-out and statistics; lower runs first.
	Priority int

	// Enabled sources participate in fan-out; disabled ones are kept for
	// operator visibility but never called.
	Enabled bool
}

// Registry is the immutable set of configured sources. It is built once
// at startup from configuration and injected into the pipeline, so the
// whole engine is constructible with fake sources in tests.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry from entries. Order of equal-priority
// entries is resolved by adapter name for determinism.
func NewRegistry(entries ...Entry) *Registry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Adapter.Name() < sorted[j].Adapter.Name()
	})
	return &Registry{entries: sorted}
}

// Enabled returns the enabled adapters in priority order.
func (r *Registry) Enabled() []Adapter {
	out := make([]Adapter, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Enabled {
			out = append(out, e.Adapter)
		}
	}
	return out
}

// All returns every entry, enabled or not, in priority order.
func (r *Registry) All() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	return len(r.entries)
}
