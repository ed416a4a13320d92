package otelsink

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for probed database activity.
type metrics struct {
	// Operation latency histogram, recorded when a done event closes a pair
	operationDuration metric.Float64Histogram

	// Connection establishment attempts, labelled by outcome
	connectionsOpened metric.Int64Counter
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	// Operation duration histogram with recommended buckets for database operations
	m.operationDuration, err = meter.Float64Histogram(
		"db.client.operation.duration",
		metric.WithDescription("Duration of database client operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.connectionsOpened, err = meter.Int64Counter(
		"db.client.connections.opened",
		metric.WithDescription("Number of connection establishment attempts"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// recordOperationDuration records the duration of a completed operation pair.
func (m *metrics) recordOperationDuration(
	ctx context.Context,
	duration time.Duration,
	operation string,
	attrs []attribute.KeyValue,
) {
	if m == nil || m.operationDuration == nil {
		return
	}

	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attrs...)

	if operation != "" {
		allAttrs = append(allAttrs, attribute.String("db.operation", operation))
	}

	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(allAttrs...))
}

// recordConnectionOpened counts one connection establishment attempt.
func (m *metrics) recordConnectionOpened(
	ctx context.Context,
	success bool,
	attrs []attribute.KeyValue,
) {
	if m == nil || m.connectionsOpened == nil {
		return
	}

	status := "ok"
	if !success {
		status = "error"
	}

	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attrs...)
	allAttrs = append(allAttrs, attribute.String("status", status))

	m.connectionsOpened.Add(ctx, 1, metric.WithAttributes(allAttrs...))
}
