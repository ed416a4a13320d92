package otelsink

import (
	"context"
	"time"

	"github.com/kroma-labs/dbprobe-go/internal/pairing"
	"github.com/kroma-labs/dbprobe-go/probe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// spanEntry holds the open span between a start event and its done.
type spanEntry struct {
	span  trace.Span
	start time.Time
	op    string
}

// Sink maps probe event pairs onto OpenTelemetry spans and metrics.
//
// Connection establishment and queries are paired by correlation ID.
// Transactions carry no correlation ID, so they are paired per connection
// identity and reconciled against the depth each event reports. A begin
// whose done never arrives (a failed BEGIN, an abandoned session) is closed
// with an error status as soon as the depth accounting exposes it.
type Sink struct {
	cfg   *config
	pairs *pairing.Table[spanEntry]
}

// Compile-time interface checks.
var _ probe.Sink = (*Sink)(nil)

// New creates a Sink. With no options the otel global providers are used;
// if none are registered the sink safely records nothing.
func New(opts ...Option) *Sink {
	return &Sink{
		cfg:   newConfig(opts...),
		pairs: pairing.NewTable[spanEntry](),
	}
}

// Enabled implements probe.Sink. Every event contributes to a span or a
// metric, so all events are requested.
func (s *Sink) Enabled(probe.Event) bool { return true }

// Fire implements probe.Sink.
func (s *Sink) Fire(event probe.Event, fields probe.Fields) {
	switch event {
	case probe.EventConnectionEstablishStart:
		s.startConnect(fields)
	case probe.EventConnectionEstablishDone:
		s.endConnect(fields)
	case probe.EventQueryStart:
		s.startQuery(fields)
	case probe.EventQueryDone:
		s.endQuery(fields)
	case probe.EventTransactionStart:
		s.startTransaction(fields)
	case probe.EventTransactionDone:
		s.endTransaction(fields)
	}
}

// baseAttributes returns the attributes shared by every span and metric.
func (s *Sink) baseAttributes(fields probe.Fields) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)

	if s.cfg.DBSystem != "" {
		attrs = append(attrs, attribute.String("db.system", s.cfg.DBSystem))
	}
	if s.cfg.DBName != "" {
		attrs = append(attrs, attribute.String("db.name", s.cfg.DBName))
	}
	if s.cfg.InstanceName != "" {
		attrs = append(attrs, attribute.String("db.instance", s.cfg.InstanceName))
	}

	attrs = append(attrs, attribute.String("db.connection_id", fields.ConnID.String()))

	return attrs
}

func (s *Sink) startConnect(fields probe.Fields) {
	attrs := s.baseAttributes(fields)
	if fields.URL != "" {
		attrs = append(attrs, attribute.String("db.url", fields.URL))
	}

	// Events carry no caller context, so each pair becomes a root span.
	_, span := s.cfg.Tracer.Start(context.Background(), "CONNECT",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	s.pairs.Start(fields.ID, spanEntry{span: span, start: time.Now(), op: "CONNECT"})
}

func (s *Sink) endConnect(fields probe.Fields) {
	entry, ok := s.pairs.End(fields.ID)
	if !ok {
		return
	}

	entry.span.SetAttributes(attribute.Int("db.success", int(fields.Success)))
	if fields.Success == 0 {
		entry.span.SetStatus(codes.Error, "connection establishment failed")
	}
	entry.span.End()

	ctx := context.Background()
	attrs := s.baseAttributes(fields)
	s.cfg.Metrics.recordConnectionOpened(ctx, fields.Success == 1, attrs)
	s.cfg.Metrics.recordOperationDuration(ctx, time.Since(entry.start), entry.op, attrs)
}

func (s *Sink) startQuery(fields probe.Fields) {
	op := extractOperation(fields.Query)

	attrs := s.baseAttributes(fields)
	if op != "" {
		attrs = append(attrs, attribute.String("db.operation", op))
	}
	if !s.cfg.DisableQuery {
		query := fields.Query
		if s.cfg.QuerySanitizer != nil {
			query = s.cfg.QuerySanitizer(query)
		}
		attrs = append(attrs, attribute.String("db.statement", query))
	}

	_, span := s.cfg.Tracer.Start(context.Background(), spanName(fields.Query),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	s.pairs.Start(fields.ID, spanEntry{span: span, start: time.Now(), op: op})
}

func (s *Sink) endQuery(fields probe.Fields) {
	entry, ok := s.pairs.End(fields.ID)
	if !ok {
		return
	}

	entry.span.End()

	s.cfg.Metrics.recordOperationDuration(
		context.Background(), time.Since(entry.start), entry.op, s.baseAttributes(fields))
}

func (s *Sink) startTransaction(fields probe.Fields) {
	attrs := s.baseAttributes(fields)
	attrs = append(attrs, attribute.Int64("db.transaction.depth", fields.Depth))

	_, span := s.cfg.Tracer.Start(context.Background(), "TRANSACTION",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	orphans := s.pairs.PushTx(fields.ConnID, fields.Depth,
		spanEntry{span: span, start: time.Now(), op: "TRANSACTION"})
	s.endOrphans(orphans)
}

func (s *Sink) endTransaction(fields probe.Fields) {
	entry, ok, orphans := s.pairs.PopTx(fields.ConnID, fields.Depth)
	s.endOrphans(orphans)
	if !ok {
		return
	}

	entry.span.SetAttributes(attribute.Bool("db.transaction.committed", fields.Committed == 1))
	entry.span.End()

	s.cfg.Metrics.recordOperationDuration(
		context.Background(), time.Since(entry.start), entry.op, s.baseAttributes(fields))
}

// endOrphans closes spans whose done event never arrived, typically because
// the underlying BEGIN failed.
func (s *Sink) endOrphans(orphans []spanEntry) {
	for _, o := range orphans {
		o.span.SetStatus(codes.Error, "transaction abandoned")
		o.span.End()
	}
}
