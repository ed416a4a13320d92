package promsink

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kroma-labs/dbprobe-go/internal/pairing"
	"github.com/kroma-labs/dbprobe-go/probe"
)

// Sink aggregates probe events into Prometheus metrics. Start/done pairs
// are timed through an internal table keyed by correlation ID, and
// transactions by connection identity and depth.
type Sink struct {
	pairs *pairing.Table[time.Time]

	events       *prometheus.CounterVec
	connects     *prometheus.CounterVec
	transactions *prometheus.CounterVec
	abandoned    prometheus.Counter
	durations    *prometheus.HistogramVec
	depth        prometheus.Histogram
}

// Compile-time interface checks.
var _ probe.Sink = (*Sink)(nil)

// New creates a Sink and registers its collectors.
func New(opts ...Option) *Sink {
	cfg := newConfig(opts...)
	factory := promauto.With(cfg.Registerer)

	s := &Sink{pairs: pairing.NewTable[time.Time]()}

	s.events = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "events_total",
		Help:      "Probe events fired, by event name.",
	}, []string{"event"})

	s.connects = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "connects_total",
		Help:      "Connection establishment attempts, by result.",
	}, []string{"result"})

	s.transactions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "transactions_total",
		Help:      "Closed transactions, by result.",
	}, []string{"result"})

	s.abandoned = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "transactions_abandoned_total",
		Help:      "Transaction starts whose done event never arrived.",
	})

	s.durations = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration between start and done events, by operation.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10,
		},
	}, []string{"operation"})

	s.depth = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "transaction_depth",
		Help:      "Nesting depth observed at transaction starts.",
		Buckets:   prometheus.LinearBuckets(0, 1, 8),
	})

	return s
}

// Enabled implements probe.Sink. Every event feeds at least one counter.
func (s *Sink) Enabled(probe.Event) bool { return true }

// Fire implements probe.Sink.
func (s *Sink) Fire(event probe.Event, fields probe.Fields) {
	s.events.WithLabelValues(string(event)).Inc()

	switch event {
	case probe.EventConnectionEstablishStart, probe.EventQueryStart:
		s.pairs.Start(fields.ID, time.Now())

	case probe.EventConnectionEstablishDone:
		result := "error"
		if fields.Success == 1 {
			result = "ok"
		}
		s.connects.WithLabelValues(result).Inc()

		if start, ok := s.pairs.End(fields.ID); ok {
			s.durations.WithLabelValues("connect").Observe(time.Since(start).Seconds())
		}

	case probe.EventQueryDone:
		if start, ok := s.pairs.End(fields.ID); ok {
			s.durations.WithLabelValues("query").Observe(time.Since(start).Seconds())
		}

	case probe.EventTransactionStart:
		if fields.Depth >= 0 {
			s.depth.Observe(float64(fields.Depth))
		}
		orphans := s.pairs.PushTx(fields.ConnID, fields.Depth, time.Now())
		s.countAbandoned(orphans)

	case probe.EventTransactionDone:
		result := "rolled_back"
		if fields.Committed == 1 {
			result = "committed"
		}
		s.transactions.WithLabelValues(result).Inc()

		start, ok, orphans := s.pairs.PopTx(fields.ConnID, fields.Depth)
		s.countAbandoned(orphans)
		if ok {
			s.durations.WithLabelValues("transaction").Observe(time.Since(start).Seconds())
		}
	}
}

func (s *Sink) countAbandoned(orphans []time.Time) {
	if len(orphans) > 0 {
		s.abandoned.Add(float64(len(orphans)))
	}
}
