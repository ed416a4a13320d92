// Package promsink aggregates probe events into Prometheus metrics.
//
// # Features
//
//   - dbprobe_events_total counter, labelled by event name
//   - dbprobe_connects_total and dbprobe_transactions_total outcome counters
//   - dbprobe_operation_duration_seconds histogram, one series per
//     operation (connect, query, transaction), timed between start and
//     done events
//   - dbprobe_transaction_depth histogram of nesting levels at begin
//   - dbprobe_transactions_abandoned_total for begins whose done never
//     arrived
//
// # Quick Start
//
//	sink := promsink.New()
//	conn, err := probe.Connect(ctx, connector, dsn, probe.WithSink(sink))
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// Metrics register against prometheus.DefaultRegisterer unless
// WithRegisterer says otherwise. Creating two sinks against the same
// registerer panics on the duplicate registration, as usual for
// client_golang; share one sink instead, it is safe for concurrent use.
package promsink
