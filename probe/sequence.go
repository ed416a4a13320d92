package probe

import "sync/atomic"

// ID is a process-unique correlation identifier pairing a start event with
// its done event.
type ID uint64

// Sequence hands out process-unique IDs from an atomic counter. The zero
// value is ready to use. A Sequence is the only shared mutable state in this
// package; everything else is per-connection.
type Sequence struct {
	n atomic.Uint64
}

// NewSequence returns a fresh sequence starting at 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next ID. Safe for concurrent use; concurrent callers
// never observe a duplicate. The counter is 64 bits wide, so overflow is not
// a practical concern.
func (s *Sequence) Next() ID {
	return ID(s.n.Add(1))
}

// defaultSequence backs wrapped connections unless WithSequence overrides it.
var defaultSequence = NewSequence()

// DefaultSequence returns the package-level sequence used when no explicit
// sequence is configured.
func DefaultSequence() *Sequence {
	return defaultSequence
}
