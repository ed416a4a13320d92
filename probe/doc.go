// Package probe instruments the lifecycle of a database connection with
// paired start/done events around connection establishment, query execution,
// and transaction control.
//
// # Features
//
//   - Probe pairs correlated by a process-unique atomic ID
//   - Pre-assigned connection identity (UUID), reported even when the
//     connection attempt fails
//   - Transaction events carrying the nesting depth read from the wrapped
//     connection, with a -1 sentinel when the depth cannot be read
//   - Pure pass-through: results and errors of the wrapped operations are
//     returned unchanged, no retries, no added concurrency
//   - Near-zero overhead when no sink is listening (one Enabled check per
//     probe site before any field is assembled)
//   - Pluggable sinks with Multi fan-out and Throttle rate capping
//
// # Quick Start
//
// Wrap a connector and connect through it:
//
//	import (
//	    "github.com/kroma-labs/dbprobe-go/probe"
//	    "github.com/kroma-labs/dbprobe-go/sqlconn"
//	)
//
//	conn, err := probe.Connect(ctx,
//	    sqlconn.NewConnector("postgres"),
//	    "postgres://localhost/app?sslmode=disable",
//	    probe.WithSink(sink),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	rows, err := conn.Query(ctx, "SELECT id, name FROM users")
//
// Every operation on the returned connection fires a start event before the
// wrapped call and a done event after it, both delivered to the configured
// sink before the call returns to the caller.
//
// # Events
//
// The wire schema is fixed:
//
//	connection-establish-start   correlation ID, connection identity, URL
//	connection-establish-done    correlation ID, connection identity, success
//	query-start                  correlation ID, connection identity, query text
//	query-done                   correlation ID, connection identity
//	transaction-start            connection identity, depth
//	transaction-done             connection identity, depth, committed
//
// Query text is reported verbatim. Query events carry no success flag; the
// done event fires whether the query succeeded or failed. Transaction depth
// is the 0-based level of the transaction being opened or closed, so the
// start and done events of one begin/commit pair report the same number.
package probe
