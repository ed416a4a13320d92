// Package zerologsink writes probe events as structured zerolog lines.
//
// # Features
//
//   - One line per event with the full wire payload (probe_id, conn_id,
//     url, query, success, depth, committed)
//   - Enabled answers from the logger's level, so disabled levels skip
//     field assembly entirely back at the probe site
//   - Defaults to a timestamped stdout logger
//
// # Quick Start
//
//	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
//
//	sink := zerologsink.New(
//	    zerologsink.WithLogger(logger),
//	    zerologsink.WithLevel(zerolog.DebugLevel),
//	)
//
//	conn, err := probe.Connect(ctx, connector, dsn, probe.WithSink(sink))
//
// Query text is logged verbatim. Pair this sink with care, or a sanitizing
// logger, when statements may carry sensitive literals.
package zerologsink
