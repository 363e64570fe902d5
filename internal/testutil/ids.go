package testutil

import (
	"fmt"
	"sync"
)

// FixedIDs generates predictable project ids.
//
// Listed ids are returned first, in order; after that it produces
// "<prefix>-1", "<prefix>-2", ... counting from the first generated id.
// The same scenario with the same FixedIDs produces byte-identical stores.
//
// Thread-safety: FixedIDs is safe for concurrent use via internal mutex.
type FixedIDs struct {
	mu     sync.Mutex
	ids    []string
	prefix string
	n      int
}

// NewFixedIDs creates a generator. If prefix is empty, "p" is used.
//
// Example:
//
//	gen := NewFixedIDs("p", "inventory")
//	gen.Generate() // "inventory"
//	gen.Generate() // "p-2"
func NewFixedIDs(prefix string, ids ...string) *FixedIDs {
	if prefix == "" {
		prefix = "p"
	}
	return &FixedIDs{ids: ids, prefix: prefix}
}

// Generate returns the next id.
//
// Implements registry.IDGenerator interface.
func (g *FixedIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	if g.n <= len(g.ids) {
		return g.ids[g.n-1]
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
