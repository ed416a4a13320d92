// Package sqlconn provides a single database session over database/sql
// that satisfies the probe connection contract, with savepoint-based
// transaction nesting and its own depth bookkeeping.
//
// # Features
//
//   - One session per Conn: a dedicated connection checked out of a
//     one-connection pool, so transaction state is never shared
//   - Nested transactions via SAVEPOINT / RELEASE SAVEPOINT / ROLLBACK TO
//     SAVEPOINT, depth tracked per the contract (increment only after a
//     successful begin, decrement regardless of commit/rollback outcome)
//   - A failed commit or rollback poisons the session: the depth can no
//     longer be trusted, so TransactionDepth and every later operation fail
//     until Close
//   - Connector with optional exponential-backoff dial retry
//
// # Quick Start
//
//	connector := sqlconn.NewConnector("postgres",
//	    sqlconn.WithConnectRetry(5),
//	    sqlconn.WithRetryInterval(500*time.Millisecond, 5*time.Second),
//	)
//
//	conn, err := probe.Connect(ctx, connector, dsn, probe.WithSink(sink))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	if err := conn.Begin(ctx); err != nil {
//	    return err
//	}
//	if _, err := conn.Exec(ctx, "UPDATE accounts SET locked = 1"); err != nil {
//	    conn.Rollback(ctx)
//	    return err
//	}
//	return conn.Commit(ctx)
package sqlconn
