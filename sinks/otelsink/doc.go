// Package otelsink turns probe event pairs into OpenTelemetry spans and
// metrics.
//
// # Features
//
//   - One span per start/done pair: CONNECT for establishment, the SQL
//     operation name (SELECT, INSERT, ...) for queries, TRANSACTION for
//     begin/commit and begin/rollback pairs
//   - Attributes following the db.* semantic conventions, plus the probe
//     payload (connection identity, URL, success flag, depth, committed)
//   - Optional statement sanitizing before queries reach span attributes
//   - db.client.operation.duration histogram and
//     db.client.connections.opened counter
//
// # Quick Start
//
//	sink := otelsink.New(
//	    otelsink.WithDBSystem("postgresql"),
//	    otelsink.WithDBName("app"),
//	    otelsink.WithQuerySanitizer(otelsink.DefaultQuerySanitizer),
//	)
//
//	conn, err := probe.Connect(ctx, connector, dsn, probe.WithSink(sink))
//
// Providers default to the otel globals; with no global SDK configured the
// sink is a safe no-op.
//
// Spans are root spans keyed by the probe correlation ID: events carry no
// request context, so the sink reconstructs timing out of band, the way a
// tracing script pairs probe firings. Transactions nest per connection and
// are reconciled against the depth each event reports, so a begin that
// failed does not leak an open span. Avoid putting this sink behind
// probe.Throttle; dropping one half of a pair leaves the other half
// unmatched.
package otelsink
