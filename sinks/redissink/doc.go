// Package redissink ships probe events to a Redis Stream.
//
// # Features
//
//   - Non-blocking Fire: events queue onto a bounded channel and a single
//     pump goroutine publishes them with XADD
//   - Drop-don't-block when the buffer is full, with a Dropped counter
//   - Circuit breaker around publishes, so a down Redis costs one failed
//     dial per cooldown instead of one per event
//   - Approximate MAXLEN trimming keeps the stream bounded
//   - Close flushes everything still buffered
//
// # Quick Start
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//
//	sink := redissink.New(rdb, redissink.WithStream("dbprobe:events"))
//	defer sink.Close()
//
//	conn, err := probe.Connect(ctx, connector, dsn, probe.WithSink(sink))
//
// Each stream entry carries a single "data" field holding the event as
// JSON: the event name, a timestamp, the connection identity, and the
// event's wire payload (probe_id, url, query, success, depth, committed).
// Consumers reading the stream with XREAD or a consumer group decode that
// one field.
package redissink
