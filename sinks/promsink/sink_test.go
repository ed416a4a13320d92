package promsink

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/dbprobe-go/probe"
)

// newTestSink roots each test in its own registry so repeated New calls
// do not collide on registration.
func newTestSink(t *testing.T, opts ...Option) (*Sink, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	opts = append(opts, WithRegisterer(reg))

	return New(opts...), reg
}

func TestSink_EventCounter(t *testing.T) {
	sink, _ := newTestSink(t)
	connID := uuid.New()

	sink.Fire(probe.EventConnectionEstablishStart, probe.Fields{
		ID: 1, ConnID: connID, URL: "postgres://localhost/db",
	})
	sink.Fire(probe.EventConnectionEstablishDone, probe.Fields{ID: 1, ConnID: connID, Success: 1})
	sink.Fire(probe.EventQueryStart, probe.Fields{ID: 2, ConnID: connID, Query: "SELECT 1"})
	sink.Fire(probe.EventQueryDone, probe.Fields{ID: 2, ConnID: connID})

	for _, event := range []probe.Event{
		probe.EventConnectionEstablishStart,
		probe.EventConnectionEstablishDone,
		probe.EventQueryStart,
		probe.EventQueryDone,
	} {
		count := testutil.ToFloat64(sink.events.WithLabelValues(string(event)))
		assert.Equal(t, float64(1), count, "event %s", event)
	}
}

func TestSink_ConnectResults(t *testing.T) {
	type args struct {
		success uint8
	}

	tests := []struct {
		name       string
		args       args
		wantResult string
	}{
		{
			name:       "given success flag set, then counts ok",
			args:       args{success: 1},
			wantResult: "ok",
		},
		{
			name:       "given success flag clear, then counts error",
			args:       args{success: 0},
			wantResult: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, _ := newTestSink(t)
			connID := uuid.New()

			sink.Fire(probe.EventConnectionEstablishStart, probe.Fields{ID: 1, ConnID: connID})
			sink.Fire(probe.EventConnectionEstablishDone, probe.Fields{
				ID: 1, ConnID: connID, Success: tt.args.success,
			})

			got := testutil.ToFloat64(sink.connects.WithLabelValues(tt.wantResult))
			assert.Equal(t, float64(1), got)
		})
	}
}

func TestSink_Durations(t *testing.T) {
	sink, _ := newTestSink(t)
	connID := uuid.New()

	sink.Fire(probe.EventConnectionEstablishStart, probe.Fields{ID: 1, ConnID: connID})
	sink.Fire(probe.EventConnectionEstablishDone, probe.Fields{ID: 1, ConnID: connID, Success: 1})
	sink.Fire(probe.EventQueryStart, probe.Fields{ID: 2, ConnID: connID, Query: "SELECT 1"})
	sink.Fire(probe.EventQueryDone, probe.Fields{ID: 2, ConnID: connID})
	sink.Fire(probe.EventTransactionStart, probe.Fields{ConnID: connID, Depth: 0})
	sink.Fire(probe.EventTransactionDone, probe.Fields{ConnID: connID, Depth: 0, Committed: 1})

	// One series per operation: connect, query, transaction.
	assert.Equal(t, 3, testutil.CollectAndCount(sink.durations, "dbprobe_operation_duration_seconds"))
}

func TestSink_TransactionOutcomes(t *testing.T) {
	sink, _ := newTestSink(t)
	connID := uuid.New()

	sink.Fire(probe.EventTransactionStart, probe.Fields{ConnID: connID, Depth: 0})
	sink.Fire(probe.EventTransactionDone, probe.Fields{ConnID: connID, Depth: 0, Committed: 1})
	sink.Fire(probe.EventTransactionStart, probe.Fields{ConnID: connID, Depth: 0})
	sink.Fire(probe.EventTransactionDone, probe.Fields{ConnID: connID, Depth: 0, Committed: 0})

	assert.Equal(t, float64(1), testutil.ToFloat64(sink.transactions.WithLabelValues("committed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.transactions.WithLabelValues("rolled_back")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.depth, "dbprobe_transaction_depth"))
}

func TestSink_UnknownDepthSkipsHistogram(t *testing.T) {
	sink, _ := newTestSink(t)
	connID := uuid.New()

	sink.Fire(probe.EventTransactionStart, probe.Fields{ConnID: connID, Depth: probe.DepthUnknown})
	sink.Fire(probe.EventTransactionDone, probe.Fields{
		ConnID: connID, Depth: probe.DepthUnknown, Committed: 1,
	})

	// The sentinel depth must not pollute the histogram, but the pair still
	// times and counts.
	assert.Equal(t, 0, testutil.CollectAndCount(sink.depth, "dbprobe_transaction_depth"))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.transactions.WithLabelValues("committed")))
}

func TestSink_AbandonedBegins(t *testing.T) {
	sink, _ := newTestSink(t)
	connID := uuid.New()

	// A failed BEGIN leaves a start with no done; the retry at the same
	// depth exposes it.
	sink.Fire(probe.EventTransactionStart, probe.Fields{ConnID: connID, Depth: 0})
	sink.Fire(probe.EventTransactionStart, probe.Fields{ConnID: connID, Depth: 0})
	sink.Fire(probe.EventTransactionDone, probe.Fields{ConnID: connID, Depth: 0, Committed: 1})

	assert.Equal(t, float64(1), testutil.ToFloat64(sink.abandoned))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.transactions.WithLabelValues("committed")))
}

func TestSink_Namespace(t *testing.T) {
	sink, reg := newTestSink(t, WithNamespace("billing"))
	connID := uuid.New()

	sink.Fire(probe.EventQueryStart, probe.Fields{ID: 1, ConnID: connID, Query: "SELECT 1"})

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "billing_events_total")
}

func TestSink_Enabled(t *testing.T) {
	sink, _ := newTestSink(t)

	assert.True(t, sink.Enabled(probe.EventQueryStart))
	assert.True(t, sink.Enabled(probe.EventTransactionDone))
}
