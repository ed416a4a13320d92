package zerologsink

import (
	"github.com/rs/zerolog"

	"github.com/kroma-labs/dbprobe-go/probe"
)

// Sink writes each probe event as one structured log line.
type Sink struct {
	cfg *config
}

// Compile-time interface checks.
var _ probe.Sink = (*Sink)(nil)

// New creates a Sink.
func New(opts ...Option) *Sink {
	return &Sink{cfg: newConfig(opts...)}
}

// Enabled implements probe.Sink. It reports whether a line at the
// configured level would be written at all, honoring both the logger's
// own level and the zerolog global level.
func (s *Sink) Enabled(probe.Event) bool {
	if s.cfg.Level == zerolog.Disabled {
		return false
	}

	level := s.cfg.Logger.GetLevel()
	if level == zerolog.Disabled {
		return false
	}

	return s.cfg.Level >= level && s.cfg.Level >= zerolog.GlobalLevel()
}

// Fire implements probe.Sink.
func (s *Sink) Fire(event probe.Event, fields probe.Fields) {
	e := s.cfg.Logger.WithLevel(s.cfg.Level).
		Str("event", string(event)).
		Str("conn_id", fields.ConnID.String())

	switch event {
	case probe.EventConnectionEstablishStart:
		e.Uint64("probe_id", uint64(fields.ID)).Str("url", fields.URL)
	case probe.EventConnectionEstablishDone:
		e.Uint64("probe_id", uint64(fields.ID)).Uint8("success", fields.Success)
	case probe.EventQueryStart:
		e.Uint64("probe_id", uint64(fields.ID)).Str("query", fields.Query)
	case probe.EventQueryDone:
		e.Uint64("probe_id", uint64(fields.ID))
	case probe.EventTransactionStart:
		e.Int64("depth", fields.Depth)
	case probe.EventTransactionDone:
		e.Int64("depth", fields.Depth).Uint8("committed", fields.Committed)
	}

	e.Msg("database probe")
}
