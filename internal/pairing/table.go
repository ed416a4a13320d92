// Package pairing matches done probe events back to their start events.
//
// Establish and query pairs are keyed by correlation ID. Transaction events
// carry no correlation ID, so open transactions are kept as a per-connection
// stack and reconciled against the depth each event reports: a begin that
// failed leaves no done event behind, but the next event's depth exposes the
// abandoned entry and the table discards it.
package pairing

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kroma-labs/dbprobe-go/probe"
)

// Table tracks in-flight start events until their done arrives. Safe for
// concurrent use.
type Table[T any] struct {
	mu       sync.Mutex
	inflight map[probe.ID]T
	txs      map[uuid.UUID][]T
}

// NewTable returns an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		inflight: make(map[probe.ID]T),
		txs:      make(map[uuid.UUID][]T),
	}
}

// Start records an in-flight pair under its correlation ID.
func (t *Table[T]) Start(id probe.ID, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = v
}

// End removes and returns the pair, reporting whether a start was seen.
func (t *Table[T]) End(id probe.ID) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.inflight[id]
	if ok {
		delete(t.inflight, id)
	}
	return v, ok
}

// PushTx stacks an open transaction for the connection. depth is the
// 0-based level the transaction occupies, as reported by the start event;
// entries above that level belong to begins that never completed and are
// returned as orphans. A negative depth skips reconciliation.
func (t *Table[T]) PushTx(conn uuid.UUID, depth int64, v T) (orphans []T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stack := t.txs[conn]
	if depth >= 0 && int64(len(stack)) > depth {
		orphans = append(orphans, stack[depth:]...)
		stack = stack[:depth]
	}
	t.txs[conn] = append(stack, v)
	return orphans
}

// PopTx unstacks the innermost transaction. depth is the level reported by
// the done event, which equals the level of the transaction being closed;
// entries above it are abandoned begins and are returned as orphans. A
// negative depth pops blindly.
func (t *Table[T]) PopTx(conn uuid.UUID, depth int64) (v T, ok bool, orphans []T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stack := t.txs[conn]
	if depth >= 0 && int64(len(stack)) > depth+1 {
		orphans = append(orphans, stack[depth+1:]...)
		stack = stack[:depth+1]
	}
	if len(stack) == 0 {
		delete(t.txs, conn)
		return v, false, orphans
	}

	v = stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	if len(stack) == 0 {
		delete(t.txs, conn)
	} else {
		t.txs[conn] = stack
	}
	return v, true, orphans
}

// Len reports in-flight pairs plus open transactions, for tests and
// debug surfaces.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.inflight)
	for _, stack := range t.txs {
		n += len(stack)
	}
	return n
}
