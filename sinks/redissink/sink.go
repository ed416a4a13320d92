package redissink

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/kroma-labs/dbprobe-go/probe"
)

// entry is one queued event awaiting publish.
type entry struct {
	event  probe.Event
	fields probe.Fields
	at     time.Time
}

// Sink publishes probe events to a Redis Stream through a bounded queue
// and a single background pump.
type Sink struct {
	cfg     *config
	client  redis.UniversalClient
	breaker *gobreaker.CircuitBreaker[string]

	ch   chan entry
	quit chan struct{}

	group     errgroup.Group
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// Compile-time interface checks.
var _ probe.Sink = (*Sink)(nil)

// New creates a Sink and starts its pump goroutine. Call Close to flush
// and stop it.
func New(client redis.UniversalClient, opts ...Option) *Sink {
	cfg := newConfig(opts...)

	s := &Sink{
		cfg:    cfg,
		client: client,
		ch:     make(chan entry, cfg.BufferSize),
		quit:   make(chan struct{}),
	}

	s.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "redissink",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("redis sink breaker state changed")
		},
	})

	s.group.Go(s.pump)

	return s
}

// Enabled implements probe.Sink. A closed sink reports false so probe
// sites skip field assembly.
func (s *Sink) Enabled(probe.Event) bool {
	select {
	case <-s.quit:
		return false
	default:
		return true
	}
}

// Fire implements probe.Sink. It never blocks: with the buffer full or
// the sink closed the event is dropped and counted.
func (s *Sink) Fire(event probe.Event, fields probe.Fields) {
	select {
	case <-s.quit:
		s.dropped.Add(1)
		return
	default:
	}

	select {
	case s.ch <- entry{event: event, fields: fields, at: time.Now()}:
	default:
		s.dropped.Add(1)
	}
}

// Dropped reports how many events were lost to a full buffer, failed
// publishes, or firing after Close.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops the pump after draining buffered events and waits for it.
// Safe to call more than once.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() { close(s.quit) })
	return s.group.Wait()
}

func (s *Sink) pump() error {
	for {
		select {
		case e := <-s.ch:
			s.publish(e)
		case <-s.quit:
			// Drain what is already buffered, then stop.
			for {
				select {
				case e := <-s.ch:
					s.publish(e)
				default:
					return nil
				}
			}
		}
	}
}

func (s *Sink) publish(e entry) {
	data, err := json.Marshal(payload(e))
	if err != nil {
		s.dropped.Add(1)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FlushTimeout)
	defer cancel()

	_, err = s.breaker.Execute(func() (string, error) {
		return s.client.XAdd(ctx, &redis.XAddArgs{
			Stream: s.cfg.Stream,
			MaxLen: s.cfg.MaxLen,
			Approx: true,
			Values: map[string]any{"data": data},
		}).Result()
	})
	if err == nil {
		return
	}

	s.dropped.Add(1)

	// Breaker rejections are counted silently; the transition itself was
	// already logged by OnStateChange.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return
	}

	s.cfg.Logger.Warn().
		Err(err).
		Str("stream", s.cfg.Stream).
		Msg("redis sink publish failed")
}

// payload builds the JSON envelope for one event, carrying exactly the
// fields that event defines.
func payload(e entry) map[string]any {
	p := map[string]any{
		"event":   string(e.event),
		"time":    e.at.UTC().Format(time.RFC3339Nano),
		"conn_id": e.fields.ConnID.String(),
	}

	switch e.event {
	case probe.EventConnectionEstablishStart:
		p["probe_id"] = uint64(e.fields.ID)
		p["url"] = e.fields.URL
	case probe.EventConnectionEstablishDone:
		p["probe_id"] = uint64(e.fields.ID)
		p["success"] = e.fields.Success
	case probe.EventQueryStart:
		p["probe_id"] = uint64(e.fields.ID)
		p["query"] = e.fields.Query
	case probe.EventQueryDone:
		p["probe_id"] = uint64(e.fields.ID)
	case probe.EventTransactionStart:
		p["depth"] = e.fields.Depth
	case probe.EventTransactionDone:
		p["depth"] = e.fields.Depth
		p["committed"] = e.fields.Committed
	}

	return p
}
