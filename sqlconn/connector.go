package sqlconn

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/kroma-labs/dbprobe-go/probe"
)

// Compile-time interface check.
var _ probe.Connector = (*Connector)(nil)

// config holds the connector configuration.
type config struct {
	// MaxConnectTries is the total number of dial attempts, the first
	// one included. 1 disables retry.
	MaxConnectTries uint

	// InitialInterval is the first backoff interval between attempts.
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval.
	MaxInterval time.Duration

	// MaxElapsedTime is the total time budget for the dial sequence.
	// 0 means no limit beyond MaxConnectTries.
	MaxElapsedTime time.Duration

	// Multiplier controls exponential growth of intervals.
	Multiplier float64

	// JitterFactor randomizes intervals to avoid synchronized redials.
	JitterFactor float64

	// Logger receives a warning per failed attempt. Defaults to a
	// disabled logger.
	Logger zerolog.Logger
}

// newConfig creates a config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		MaxConnectTries: 1,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.5,
		Logger:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option configures the connector.
type Option func(*config)

// WithConnectRetry enables dial retry with the given total number of
// attempts. Values below 2 leave retry disabled.
func WithConnectRetry(tries uint) Option {
	return func(cfg *config) {
		cfg.MaxConnectTries = tries
	}
}

// WithRetryInterval sets the first and the maximum backoff interval
// between dial attempts.
func WithRetryInterval(initial, max time.Duration) Option {
	return func(cfg *config) {
		if initial > 0 {
			cfg.InitialInterval = initial
		}
		if max > 0 {
			cfg.MaxInterval = max
		}
	}
}

// WithMaxElapsedTime caps the total time spent dialing, retries included.
func WithMaxElapsedTime(d time.Duration) Option {
	return func(cfg *config) {
		cfg.MaxElapsedTime = d
	}
}

// WithLogger sets the logger notified on failed dial attempts.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = logger
	}
}

// Connector dials single-session connections for a database/sql driver.
// The zero-config connector dials once; retry policy is opt-in and lives
// here, never in the probe wrapper.
type Connector struct {
	driverName string
	cfg        *config
}

// NewConnector creates a connector for the given registered driver.
func NewConnector(driverName string, opts ...Option) *Connector {
	return &Connector{
		driverName: driverName,
		cfg:        newConfig(opts...),
	}
}

// Connect implements probe.Connector.
func (c *Connector) Connect(ctx context.Context, url string) (probe.Conn, error) {
	conn, err := c.connect(ctx, url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Connect opens a single-session connection without going through a
// Connector value.
func Connect(ctx context.Context, driverName, url string, opts ...Option) (*Conn, error) {
	return NewConnector(driverName, opts...).connect(ctx, url)
}

func (c *Connector) connect(ctx context.Context, url string) (*Conn, error) {
	db, err := sqlx.Open(c.driverName, url)
	if err != nil {
		return nil, err
	}

	// One session per Conn: the pool exists only to own that session.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	sx, err := c.acquire(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Conn{db: db, sx: sx, url: url}, nil
}

// acquire checks the session out of the pool, retrying with exponential
// backoff when configured. Every dial error is treated as retryable;
// cancellation of ctx stops the sequence.
func (c *Connector) acquire(ctx context.Context, db *sqlx.DB) (*sqlx.Conn, error) {
	if c.cfg.MaxConnectTries <= 1 {
		return db.Connx(ctx)
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.InitialInterval,
		RandomizationFactor: c.cfg.JitterFactor,
		Multiplier:          c.cfg.Multiplier,
		MaxInterval:         c.cfg.MaxInterval,
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.cfg.MaxConnectTries),
	}
	if c.cfg.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(c.cfg.MaxElapsedTime))
	}

	logger := c.cfg.Logger
	driverName := c.driverName
	opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
		logger.Warn().
			Err(err).
			Str("driver", driverName).
			Dur("next_attempt_in", next).
			Msg("database dial failed, retrying")
	}))

	return backoff.Retry(ctx, func() (*sqlx.Conn, error) {
		return db.Connx(ctx)
	}, opts...)
}
