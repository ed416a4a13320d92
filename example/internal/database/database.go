package database

import (
	"context"
	"time"

	"github.com/kroma-labs/dbprobe-go/example/internal/config"
	"github.com/kroma-labs/dbprobe-go/probe"
	"github.com/kroma-labs/dbprobe-go/sqlconn"
	_ "github.com/lib/pq" // Register postgres driver

	"github.com/rs/zerolog"
)

// DB is a single instrumented database session. Every query and every
// transaction boundary on it fires probe events into the configured sink.
type DB struct {
	*probe.TracedConn
}

// New dials the database through a retrying connector and wraps the session
// with the probe. Dial attempts themselves show up as a single
// connection-establish pair; the retry policy is invisible to the sink.
func New(ctx context.Context, logger zerolog.Logger, sink probe.Sink) (*DB, error) {
	connector := sqlconn.NewConnector(config.DefaultDriver,
		sqlconn.WithConnectRetry(config.ConnectTries),
		sqlconn.WithRetryInterval(
			time.Duration(config.RetryInitialMS)*time.Millisecond,
			time.Duration(config.RetryMaxMS)*time.Millisecond,
		),
		sqlconn.WithLogger(logger),
	)

	conn, err := probe.Connect(ctx, connector, config.DefaultDSN,
		probe.WithSink(sink),
	)
	if err != nil {
		return nil, err
	}

	return &DB{TracedConn: conn}, nil
}
