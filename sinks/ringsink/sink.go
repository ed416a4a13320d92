// Package ringsink keeps the most recent probe events in a fixed-size
// ring buffer and serves them over HTTP for debugging.
//
//	sink := ringsink.New(256)
//	conn, err := probe.Connect(ctx, connector, dsn, probe.WithSink(sink))
//
//	mux.Handle("/debug/dbprobe", sink.Handler())
package ringsink

import (
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/kroma-labs/dbprobe-go/probe"
)

// Entry is one captured event and when it arrived.
type Entry struct {
	Time   time.Time
	Event  probe.Event
	Fields probe.Fields
}

// Sink retains the last N events. Old entries are overwritten in place,
// so memory stays fixed no matter how busy the connection is.
type Sink struct {
	mu     sync.Mutex
	buf    []Entry
	next   int
	filled bool
	total  uint64
}

// Compile-time interface checks.
var _ probe.Sink = (*Sink)(nil)

// New creates a Sink holding up to capacity events. Capacities below one
// are raised to one.
func New(capacity int) *Sink {
	if capacity < 1 {
		capacity = 1
	}
	return &Sink{buf: make([]Entry, capacity)}
}

// Enabled implements probe.Sink.
func (s *Sink) Enabled(probe.Event) bool { return true }

// Fire implements probe.Sink.
func (s *Sink) Fire(event probe.Event, fields probe.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[s.next] = Entry{Time: time.Now(), Event: event, Fields: fields}
	s.next++
	s.total++
	if s.next == len(s.buf) {
		s.next = 0
		s.filled = true
	}
}

// Entries returns the captured events, oldest first.
func (s *Sink) Entries() []Entry {
	entries, _ := s.snapshot()
	return entries
}

// Total reports how many events were seen overall, including those the
// ring has already overwritten.
func (s *Sink) Total() uint64 {
	_, total := s.snapshot()
	return total
}

func (s *Sink) snapshot() ([]Entry, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filled {
		out := make([]Entry, s.next)
		copy(out, s.buf[:s.next])
		return out, s.total
	}

	out := make([]Entry, 0, len(s.buf))
	out = append(out, s.buf[s.next:]...)
	out = append(out, s.buf[:s.next]...)
	return out, s.total
}

// Handler returns an http.Handler that dumps the buffer as JSON, oldest
// first. Mount it on a debug mux.
func (s *Sink) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		entries, total := s.snapshot()

		payload := struct {
			Total   uint64           `json:"total"`
			Entries []map[string]any `json:"entries"`
		}{
			Total:   total,
			Entries: make([]map[string]any, 0, len(entries)),
		}
		for _, e := range entries {
			payload.Entries = append(payload.Entries, e.wire())
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(payload)
	})
}

// wire renders the entry with exactly the fields its event defines.
func (e Entry) wire() map[string]any {
	p := map[string]any{
		"time":    e.Time.UTC().Format(time.RFC3339Nano),
		"event":   string(e.Event),
		"conn_id": e.Fields.ConnID.String(),
	}

	switch e.Event {
	case probe.EventConnectionEstablishStart:
		p["probe_id"] = uint64(e.Fields.ID)
		p["url"] = e.Fields.URL
	case probe.EventConnectionEstablishDone:
		p["probe_id"] = uint64(e.Fields.ID)
		p["success"] = e.Fields.Success
	case probe.EventQueryStart:
		p["probe_id"] = uint64(e.Fields.ID)
		p["query"] = e.Fields.Query
	case probe.EventQueryDone:
		p["probe_id"] = uint64(e.Fields.ID)
	case probe.EventTransactionStart:
		p["depth"] = e.Fields.Depth
	case probe.EventTransactionDone:
		p["depth"] = e.Fields.Depth
		p["committed"] = e.Fields.Committed
	}

	return p
}
