package probe

import (
	"context"

	"github.com/google/uuid"
)

// Compile-time interface checks.
var (
	_ Conn      = (*TracedConn)(nil)
	_ Pinger    = (*TracedConn)(nil)
	_ Connector = (*TracedConnector)(nil)
)

// TracedConn wraps a Conn and fires probe events around each operation.
// It is a pure pass-through: results and errors of the wrapped calls are
// returned unchanged, the context is forwarded untouched, and no retry or
// concurrency is added. Wrapping an already wrapped connection is not
// rejected; events simply fire once per layer.
type TracedConn struct {
	conn Conn
	id   uuid.UUID
	cfg  *config
}

// Connect dials through connector and returns the connection wrapped.
//
// The correlation ID and the connection identity are allocated before
// dialing, connection-establish-start fires with the target URL, and
// connection-establish-done fires before Connect returns, carrying the same
// identity and a success flag. On failure the connector's error is returned
// unchanged.
func Connect(ctx context.Context, connector Connector, url string, opts ...Option) (*TracedConn, error) {
	return connect(ctx, connector, url, newConfig(opts...))
}

// WrapConn wraps an already established connection, assigning it a fresh
// identity. No establish events fire.
func WrapConn(conn Conn, opts ...Option) *TracedConn {
	cfg := newConfig(opts...)
	return &TracedConn{
		conn: conn,
		id:   cfg.NewIdentity(),
		cfg:  cfg,
	}
}

// TracedConnector wraps a Connector so that every connection dialed through
// it comes back instrumented. Each Connect call mints its own correlation
// ID and connection identity.
type TracedConnector struct {
	connector Connector
	cfg       *config
}

// WrapConnector returns a connector whose Connect fires the establish probe
// pair and returns wrapped connections.
func WrapConnector(connector Connector, opts ...Option) *TracedConnector {
	return &TracedConnector{
		connector: connector,
		cfg:       newConfig(opts...),
	}
}

// Connect implements Connector.
func (c *TracedConnector) Connect(ctx context.Context, url string) (Conn, error) {
	conn, err := connect(ctx, c.connector, url, c.cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func connect(ctx context.Context, connector Connector, url string, cfg *config) (*TracedConn, error) {
	id := cfg.Sequence.Next()
	connID := cfg.NewIdentity()

	if cfg.Sink.Enabled(EventConnectionEstablishStart) {
		cfg.Sink.Fire(EventConnectionEstablishStart, Fields{
			ID:     id,
			ConnID: connID,
			URL:    url,
		})
	}

	conn, err := connector.Connect(ctx, url)

	if cfg.Sink.Enabled(EventConnectionEstablishDone) {
		var success uint8
		if err == nil {
			success = 1
		}
		cfg.Sink.Fire(EventConnectionEstablishDone, Fields{
			ID:      id,
			ConnID:  connID,
			Success: success,
		})
	}

	if err != nil {
		return nil, err
	}

	return &TracedConn{conn: conn, id: connID, cfg: cfg}, nil
}

// ID returns the connection identity reported in this connection's events.
func (c *TracedConn) ID() uuid.UUID {
	return c.id
}

// Unwrap returns the wrapped connection.
func (c *TracedConn) Unwrap() Conn {
	return c.conn
}

// Query implements Conn. Fires query-start with the verbatim query text and
// query-done after the wrapped call, success or not.
func (c *TracedConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	id := c.cfg.Sequence.Next()

	if c.cfg.Sink.Enabled(EventQueryStart) {
		c.cfg.Sink.Fire(EventQueryStart, Fields{
			ID:     id,
			ConnID: c.id,
			Query:  query,
		})
	}

	rows, err := c.conn.Query(ctx, query, args...)

	if c.cfg.Sink.Enabled(EventQueryDone) {
		c.cfg.Sink.Fire(EventQueryDone, Fields{
			ID:     id,
			ConnID: c.id,
		})
	}

	return rows, err
}

// Exec implements Conn. Fires the same query probe pair as Query; the done
// event carries no outcome.
func (c *TracedConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	id := c.cfg.Sequence.Next()

	if c.cfg.Sink.Enabled(EventQueryStart) {
		c.cfg.Sink.Fire(EventQueryStart, Fields{
			ID:     id,
			ConnID: c.id,
			Query:  query,
		})
	}

	n, err := c.conn.Exec(ctx, query, args...)

	if c.cfg.Sink.Enabled(EventQueryDone) {
		c.cfg.Sink.Fire(EventQueryDone, Fields{
			ID:     id,
			ConnID: c.id,
		})
	}

	return n, err
}

// Begin implements Conn. Fires transaction-start with the depth read before
// the wrapped begin: the 0-based level the new transaction will occupy.
func (c *TracedConn) Begin(ctx context.Context) error {
	if c.cfg.Sink.Enabled(EventTransactionStart) {
		c.cfg.Sink.Fire(EventTransactionStart, Fields{
			ConnID: c.id,
			Depth:  c.readDepth(ctx),
		})
	}

	return c.conn.Begin(ctx)
}

// Commit implements Conn. Fires transaction-done with committed = 1 and the
// depth read after the wrapped commit: the level returned to, which equals
// the closed transaction's own level. The flag fires even when the commit
// itself errored.
func (c *TracedConn) Commit(ctx context.Context) error {
	err := c.conn.Commit(ctx)

	if c.cfg.Sink.Enabled(EventTransactionDone) {
		c.cfg.Sink.Fire(EventTransactionDone, Fields{
			ConnID:    c.id,
			Depth:     c.readDepth(ctx),
			Committed: 1,
		})
	}

	return err
}

// Rollback implements Conn. As Commit, with committed = 0.
func (c *TracedConn) Rollback(ctx context.Context) error {
	err := c.conn.Rollback(ctx)

	if c.cfg.Sink.Enabled(EventTransactionDone) {
		c.cfg.Sink.Fire(EventTransactionDone, Fields{
			ConnID:    c.id,
			Depth:     c.readDepth(ctx),
			Committed: 0,
		})
	}

	return err
}

// TransactionDepth implements Conn. Pass-through, no events.
func (c *TracedConn) TransactionDepth(ctx context.Context) (int64, error) {
	return c.conn.TransactionDepth(ctx)
}

// Ping passes through to the wrapped connection when it implements Pinger.
// No events fire around ping.
func (c *TracedConn) Ping(ctx context.Context) error {
	if p, ok := c.conn.(Pinger); ok {
		return p.Ping(ctx)
	}
	return ErrPingUnsupported
}

// Close implements Conn. Pass-through, no events.
func (c *TracedConn) Close() error {
	return c.conn.Close()
}

// readDepth queries the wrapped connection's depth, mapping any failure to
// DepthUnknown. Only called when the event about to carry the value is
// enabled.
func (c *TracedConn) readDepth(ctx context.Context) int64 {
	depth, err := c.conn.TransactionDepth(ctx)
	if err != nil {
		return DepthUnknown
	}
	return depth
}
