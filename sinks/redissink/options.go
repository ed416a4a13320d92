package redissink

import (
	"time"

	"github.com/rs/zerolog"
)

// config holds the configuration for the sink.
type config struct {
	// Stream is the Redis Stream key events are appended to.
	// Defaults to "dbprobe:events".
	Stream string

	// BufferSize is the capacity of the in-memory event queue.
	// Fire drops events once the queue is full. Defaults to 1024.
	BufferSize int

	// MaxLen caps the stream length with approximate trimming.
	// Zero disables trimming. Defaults to 8192.
	MaxLen int64

	// FlushTimeout bounds each XADD call. Defaults to 5s.
	FlushTimeout time.Duration

	// BreakerFailures is the number of consecutive publish failures that
	// open the circuit breaker. Defaults to 5.
	BreakerFailures uint32

	// BreakerCooldown is how long the breaker stays open before probing
	// Redis again. Defaults to 10s.
	BreakerCooldown time.Duration

	// Logger receives publish failures and breaker transitions.
	// Defaults to a no-op logger.
	Logger zerolog.Logger
}

// newConfig creates a new config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		Stream:          "dbprobe:events",
		BufferSize:      1024,
		MaxLen:          8192,
		FlushTimeout:    5 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 10 * time.Second,
		Logger:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.BufferSize < 1 {
		cfg.BufferSize = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 1
	}

	return cfg
}

// Option configures the sink.
type Option func(*config)

// WithStream sets the Redis Stream key events are appended to.
//
// Example:
//
//	sink := redissink.New(rdb, redissink.WithStream("billing:dbprobe"))
func WithStream(stream string) Option {
	return func(cfg *config) {
		cfg.Stream = stream
	}
}

// WithBufferSize sets the capacity of the in-memory event queue.
// Fire never blocks; events beyond this capacity are dropped and counted.
func WithBufferSize(size int) Option {
	return func(cfg *config) {
		cfg.BufferSize = size
	}
}

// WithMaxLen caps the stream length using approximate MAXLEN trimming.
// Pass 0 to disable trimming.
func WithMaxLen(maxLen int64) Option {
	return func(cfg *config) {
		cfg.MaxLen = maxLen
	}
}

// WithFlushTimeout bounds each publish call.
func WithFlushTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.FlushTimeout = timeout
	}
}

// WithBreakerThreshold sets how many consecutive publish failures open
// the circuit breaker.
func WithBreakerThreshold(failures uint32) Option {
	return func(cfg *config) {
		cfg.BreakerFailures = failures
	}
}

// WithBreakerCooldown sets how long the breaker stays open before the
// next probe publish is allowed through.
func WithBreakerCooldown(cooldown time.Duration) Option {
	return func(cfg *config) {
		cfg.BreakerCooldown = cooldown
	}
}

// WithLogger sets the logger for publish failures and breaker
// transitions.
//
// Example:
//
//	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	sink := redissink.New(rdb, redissink.WithLogger(logger))
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = logger
	}
}
