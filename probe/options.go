package probe

import "github.com/google/uuid"

// config holds the wrapper configuration.
type config struct {
	// Sink receives every probe event. Defaults to NopSink, so an
	// unconfigured wrapper is a safe no-op.
	Sink Sink

	// Sequence allocates correlation IDs. Defaults to the package-level
	// sequence so IDs stay unique across all wrapped connections in the
	// process.
	Sequence *Sequence

	// NewIdentity mints connection identities. Defaults to uuid.New.
	NewIdentity func() uuid.UUID
}

// newConfig creates a config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		Sink:        NopSink{},
		Sequence:    defaultSequence,
		NewIdentity: uuid.New,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option configures the wrapper.
type Option func(*config)

// WithSink sets the sink receiving probe events. Combine several with
// Multi.
//
// Example:
//
//	conn, _ := probe.Connect(ctx, connector, url,
//	    probe.WithSink(probe.Multi(logSink, promSink)),
//	)
func WithSink(sink Sink) Option {
	return func(cfg *config) {
		if sink != nil {
			cfg.Sink = sink
		}
	}
}

// WithSequence sets the correlation ID sequence. Use this to isolate ID
// streams, for example in tests asserting exact IDs. If not called, the
// package-level sequence is used.
func WithSequence(seq *Sequence) Option {
	return func(cfg *config) {
		if seq != nil {
			cfg.Sequence = seq
		}
	}
}

// WithIdentity pins the connection identity instead of minting a random
// UUID. Intended for tests and for re-wrapping a connection under a known
// identity; on a connector it makes every dialed connection share the same
// identity, which is rarely what you want.
func WithIdentity(id uuid.UUID) Option {
	return func(cfg *config) {
		cfg.NewIdentity = func() uuid.UUID { return id }
	}
}
