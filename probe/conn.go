package probe

import (
	"context"
	"errors"
)

// DepthUnknown is the depth reported on transaction events when the wrapped
// connection's depth query fails. The failure is not surfaced to the caller;
// the underlying operation still runs and its result is returned unchanged.
const DepthUnknown int64 = -1

// ErrPingUnsupported is returned by TracedConn.Ping when the wrapped
// connection does not implement Pinger.
var ErrPingUnsupported = errors.New("wrapped connection does not support ping")

// Conn is the connection contract the wrapper instruments. Implementations
// are single-session: one Conn owns one connection, and the transaction
// depth it reports is that session's nesting level.
type Conn interface {
	// Query runs a row-returning statement.
	Query(ctx context.Context, query string, args ...any) (Rows, error)

	// Exec runs a statement and reports the number of rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// Begin opens a transaction, nesting if one is already open.
	Begin(ctx context.Context) error

	// Commit closes the innermost open transaction.
	Commit(ctx context.Context) error

	// Rollback discards the innermost open transaction.
	Rollback(ctx context.Context) error

	// TransactionDepth reports the number of open transaction levels:
	// 0 means no active transaction, N > 0 means N levels deep.
	// Implementations must increment only after a successful begin and
	// decrement after commit/rollback regardless of its outcome.
	TransactionDepth(ctx context.Context) (int64, error)

	// Close releases the connection.
	Close() error
}

// Rows is a minimal row iterator. *sql.Rows and *sqlx.Rows satisfy it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Pinger is implemented by connections that can check liveness. Ping is
// deliberately unprobed: the wrapper passes it through with no events.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connector dials new connections. The wrapper fires the establish probe
// pair around Connect; any dial policy (retry, timeouts) lives inside the
// Connector, never in the wrapper.
type Connector interface {
	Connect(ctx context.Context, url string) (Conn, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, url string) (Conn, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// Compile-time interface check.
var _ Connector = ConnectorFunc(nil)
