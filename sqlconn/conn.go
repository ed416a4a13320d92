package sqlconn

import (
	"context"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/kroma-labs/dbprobe-go/probe"
)

// Sentinel errors reported by Conn.
var (
	// ErrNoTransaction is returned by Commit and Rollback when no
	// transaction is open.
	ErrNoTransaction = errors.New("no transaction in progress")

	// ErrSessionBroken is returned once a failed commit or rollback has
	// left the transaction state unknown. The session cannot recover;
	// close the connection and dial a new one.
	ErrSessionBroken = errors.New("transaction state unknown after failed commit or rollback")

	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errors.New("connection is closed")
)

// Compile-time interface checks.
var (
	_ probe.Conn   = (*Conn)(nil)
	_ probe.Pinger = (*Conn)(nil)
)

// Conn is a single database session. Transaction control runs as literal
// SQL on the session, so the depth it reports is exactly what the server
// sees: BEGIN/COMMIT/ROLLBACK at the outermost level, savepoints inside.
//
// Conn is not safe for concurrent use; it models one session, as the probe
// contract requires.
type Conn struct {
	db  *sqlx.DB
	sx  *sqlx.Conn
	url string

	depth  int64
	broken bool
	closed bool
}

// savepointName returns the savepoint guarding the given nesting level.
// Level 1 is the first nested transaction inside the outermost one.
func savepointName(level int64) string {
	return "dbprobe_savepoint_" + strconv.FormatInt(level, 10)
}

func (c *Conn) guard() error {
	if c.closed {
		return ErrClosed
	}
	if c.broken {
		return ErrSessionBroken
	}
	return nil
}

// URL returns the connection target this session was dialed with.
func (c *Conn) URL() string {
	return c.url
}

// Query implements probe.Conn.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (probe.Rows, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	rows, err := c.sx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Exec implements probe.Conn. When the driver cannot report an affected-row
// count the statement still counts as succeeded and 0 is returned.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}

	res, err := c.sx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Begin implements probe.Conn. The outermost begin issues BEGIN; nested
// begins create a savepoint. Depth increments only after the statement
// succeeded.
func (c *Conn) Begin(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}

	stmt := "BEGIN"
	if c.depth > 0 {
		stmt = "SAVEPOINT " + savepointName(c.depth)
	}

	if _, err := c.sx.ExecContext(ctx, stmt); err != nil {
		return err
	}

	c.depth++
	return nil
}

// Commit implements probe.Conn. The outermost commit issues COMMIT; nested
// commits release the savepoint. Depth decrements whether or not the
// statement succeeded; on failure the session is poisoned because the
// server-side state is unknown.
func (c *Conn) Commit(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	if c.depth == 0 {
		return ErrNoTransaction
	}

	stmt := "COMMIT"
	if c.depth > 1 {
		stmt = "RELEASE SAVEPOINT " + savepointName(c.depth-1)
	}

	_, err := c.sx.ExecContext(ctx, stmt)
	c.depth--
	if err != nil {
		c.broken = true
		return err
	}
	return nil
}

// Rollback implements probe.Conn. The outermost rollback issues ROLLBACK;
// nested rollbacks roll back to the savepoint, which stays defined for
// reuse by a later begin at the same level.
func (c *Conn) Rollback(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	if c.depth == 0 {
		return ErrNoTransaction
	}

	stmt := "ROLLBACK"
	if c.depth > 1 {
		stmt = "ROLLBACK TO SAVEPOINT " + savepointName(c.depth-1)
	}

	_, err := c.sx.ExecContext(ctx, stmt)
	c.depth--
	if err != nil {
		c.broken = true
		return err
	}
	return nil
}

// TransactionDepth implements probe.Conn.
func (c *Conn) TransactionDepth(context.Context) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.broken {
		return 0, ErrSessionBroken
	}
	return c.depth, nil
}

// Ping implements probe.Pinger. Liveness is checkable even on a poisoned
// session; only a closed connection refuses.
func (c *Conn) Ping(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	return c.sx.PingContext(ctx)
}

// Close implements probe.Conn. Releases the session and its one-connection
// pool. Closing twice is a no-op.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.sx.Close()
	if dberr := c.db.Close(); err == nil {
		err = dberr
	}
	return err
}
