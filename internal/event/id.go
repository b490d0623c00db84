package event

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces unique event identifiers.
// Implemented by UUIDv7Generator (production) and SequenceGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// Resumer is implemented by generators whose ids follow the log position.
// The engine calls Resume with the head seq after replaying a log.
type Resumer interface {
	Resume(seq int64)
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns "<prefix>-1", "<prefix>-2", ... for
// deterministic tests and golden traces.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequenceGenerator creates a generator with the given prefix.
// An empty prefix defaults to "evt".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "evt"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Resume continues numbering after seq: the next id is "<prefix>-<seq+1>".
func (g *SequenceGenerator) Resume(seq int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = seq
}
