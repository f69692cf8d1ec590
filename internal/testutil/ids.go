package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predictable IDs: "prefix-0001", "prefix-0002", ...
//
// It stands in for the UUIDv7 generators of the runner, the ledger and the
// session store so golden output and stored rows are reproducible.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedIDGenerator creates a generator. An empty prefix means "test".
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "test"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
