package testutil

import (
	"strconv"
	"sync"
)

// SequentialIDGenerator produces request IDs "<prefix>-1", "<prefix>-2", ...
//
// It implements bridge.IDGenerator, so logs and errors of a test run carry
// the same IDs every time. Reset rewinds the sequence for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDGenerator creates a generator starting at 1.
// If prefix is empty, "req" is used.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID in the sequence.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.prefix + "-" + strconv.FormatInt(g.seq, 10)
}

// Issued returns how many IDs have been generated since the last Reset.
func (g *SequentialIDGenerator) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset rewinds the sequence. The next Generate returns "<prefix>-1".
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedIDGenerator returns the same ID every time.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator string

// Generate returns the fixed ID.
func (g FixedIDGenerator) Generate() string {
	return string(g)
}
