package probe

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Compile-time interface check.
var _ Sink = (*ThrottleSink)(nil)

// ThrottleSink caps the event rate delivered to an inner sink with a token
// bucket. Events over the limit are dropped, never queued, so the probe
// sites stay non-blocking.
type ThrottleSink struct {
	sink    Sink
	limiter *rate.Limiter
	dropped atomic.Uint64
}

// Throttle wraps sink with a token-bucket limiter allowing limit events per
// second with the given burst.
//
// Example:
//
//	sink := probe.Throttle(logSink, rate.Limit(100), 200)
func Throttle(sink Sink, limit rate.Limit, burst int) *ThrottleSink {
	return &ThrottleSink{
		sink:    sink,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Enabled implements Sink. Delegates to the inner sink.
func (s *ThrottleSink) Enabled(ev Event) bool {
	return s.sink.Enabled(ev)
}

// Fire implements Sink. Forwards the event when a token is available,
// otherwise drops it and counts the drop.
func (s *ThrottleSink) Fire(ev Event, f Fields) {
	if !s.limiter.Allow() {
		s.dropped.Add(1)
		return
	}
	s.sink.Fire(ev, f)
}

// Dropped returns the number of events shed by the limiter so far.
func (s *ThrottleSink) Dropped() uint64 {
	return s.dropped.Load()
}
