package uiid

import "sync"

// Registry resolves family identifiers to adapters.
//
// Adapters are stateless, so each family is built once and the instance
// reused for every device of that family. Unknown identifiers resolve to a
// generic adapter that reads the flat relay fields and common sensor
// attributes, so resolution never fails.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	adapters map[int]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[int]Adapter),
	}
}

// Resolve returns the adapter for a family identifier.
func (r *Registry) Resolve(uiid int) Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.adapters[uiid]; ok {
		return a
	}

	a := newFamilyAdapter(uiid)
	if a == nil {
		// Unknown family: behave like a basic relay with best-effort reads.
		a = &generic{uiid: uiid, relay: relaySingle}
	}
	r.adapters[uiid] = a
	return a
}
