package zerologsink

import (
	"os"

	"github.com/rs/zerolog"
)

// config holds the configuration for the sink.
type config struct {
	// Logger receives the event lines.
	// Defaults to a timestamped logger on stdout.
	Logger zerolog.Logger

	// Level is the level every event line is written at.
	// Defaults to zerolog.DebugLevel.
	Level zerolog.Level
}

// newConfig creates a new config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		Logger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
		Level:  zerolog.DebugLevel,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option configures the sink.
type Option func(*config)

// WithLogger sets the logger event lines are written to.
//
// Example:
//
//	logger := zerolog.New(os.Stderr).With().Str("component", "db").Logger()
//	sink := zerologsink.New(zerologsink.WithLogger(logger))
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = logger
	}
}

// WithLevel sets the level event lines are written at.
//
// Example:
//
//	// Probe lines surface only when the service runs at trace verbosity.
//	sink := zerologsink.New(zerologsink.WithLevel(zerolog.TraceLevel))
func WithLevel(level zerolog.Level) Option {
	return func(cfg *config) {
		cfg.Level = level
	}
}
