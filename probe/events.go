package probe

import "github.com/google/uuid"

// Event names a probe point. The values are the wire names delivered to
// sinks; they never change between releases.
type Event string

// Probe events, fired in start/done pairs around each instrumented
// operation.
const (
	EventConnectionEstablishStart Event = "connection-establish-start"
	EventConnectionEstablishDone  Event = "connection-establish-done"
	EventQueryStart               Event = "query-start"
	EventQueryDone                Event = "query-done"
	EventTransactionStart         Event = "transaction-start"
	EventTransactionDone          Event = "transaction-done"
)

// Fields carries the payload of a single event. It is the union of all
// event schemas; only the fields named by the event's schema are set, the
// rest are zero.
type Fields struct {
	// ID correlates a start event with its done event. Zero for
	// transaction events, which carry no correlation ID.
	ID ID

	// ConnID is the identity of the connection the event belongs to.
	// For establish events it is pre-assigned before dialing and reported
	// even when the attempt fails.
	ConnID uuid.UUID

	// URL is the connection target. Establish-start only.
	URL string

	// Query is the verbatim query text. Query-start only.
	Query string

	// Success is 1 when the connection attempt succeeded, 0 when it
	// failed. Establish-done only.
	Success uint8

	// Depth is the 0-based nesting level of the transaction being opened
	// or closed, or DepthUnknown when the depth could not be read.
	// Transaction events only.
	Depth int64

	// Committed is 1 when the transaction was closed by commit, 0 when it
	// was closed by rollback. Transaction-done only. The flag records
	// which operation was requested, not whether it succeeded.
	Committed uint8
}
