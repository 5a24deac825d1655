package backend

import (
	"sort"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// Registry maps platform ids to their clients. Lookup is case-insensitive.
// The registry is built once at startup and read-only afterwards, so no
// locking is needed.
type Registry struct {
	clients map[string]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client for a platform id, replacing any previous entry.
func (r *Registry) Register(platformID string, client Client) {
	r.clients[scenario.NormalizePlatform(platformID)] = client
}

// Lookup returns the client for a platform id.
func (r *Registry) Lookup(platformID string) (Client, bool) {
	client, ok := r.clients[scenario.NormalizePlatform(platformID)]
	return client, ok
}

// Platforms returns the registered platform ids in sorted order.
func (r *Registry) Platforms() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
