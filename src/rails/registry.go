package rails

import (
	"fmt"
	"sync"

	"github.com/brightpay/ledgercore/src/models"
)

// Registry holds every configured provider, keyed by name, and answers the
// orchestrator's "which providers can carry this rail" queries.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry constructs an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its own Name(). Registering the same name
// twice replaces the prior entry, which is useful for swapping a refimpl
// test double for a production adapter without restructuring callers.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("rails: no provider registered under %q", name)
	}
	return p, nil
}

// ForRail returns every registered provider whose capabilities include the
// given rail, the candidate set the orchestrator's tie-break runs over.
func (r *Registry) ForRail(rail models.Rail) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, p := range r.providers {
		for _, supported := range p.Capabilities().SupportedRails {
			if supported == rail {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
