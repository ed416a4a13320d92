package sqlconn

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDialRefused = errors.New("dial refused")

// flakyDriver fails a fixed number of dials before succeeding.
type flakyDriver struct {
	mu    sync.Mutex
	fails int
	opens int
}

func (d *flakyDriver) Open(string) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if d.opens <= d.fails {
		return nil, errDialRefused
	}
	return nullConn{}, nil
}

func (d *flakyDriver) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// nullConn satisfies driver.Conn for dial tests; no statement ever runs.
type nullConn struct{}

func (nullConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (nullConn) Close() error                        { return nil }
func (nullConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

var flakyDriverSeq atomic.Uint64

// registerFlakyDriver registers a uniquely named flaky driver so repeated
// test runs never collide in the global driver registry.
func registerFlakyDriver(t *testing.T, fails int) (string, *flakyDriver) {
	t.Helper()
	drv := &flakyDriver{fails: fails}
	name := fmt.Sprintf("sqlconn_flaky_%d", flakyDriverSeq.Add(1))
	sql.Register(name, drv)
	return name, drv
}

func TestNewConnector(t *testing.T) {
	t.Run("given no options, then retry is disabled", func(t *testing.T) {
		c := NewConnector("postgres")

		assert.Equal(t, uint(1), c.cfg.MaxConnectTries)
		assert.Equal(t, 500*time.Millisecond, c.cfg.InitialInterval)
		assert.Equal(t, 5*time.Second, c.cfg.MaxInterval)
		assert.Equal(t, 2.0, c.cfg.Multiplier)
	})

	t.Run("given options, then they apply", func(t *testing.T) {
		c := NewConnector("postgres",
			WithConnectRetry(5),
			WithRetryInterval(time.Second, 10*time.Second),
			WithMaxElapsedTime(time.Minute),
		)

		assert.Equal(t, uint(5), c.cfg.MaxConnectTries)
		assert.Equal(t, time.Second, c.cfg.InitialInterval)
		assert.Equal(t, 10*time.Second, c.cfg.MaxInterval)
		assert.Equal(t, time.Minute, c.cfg.MaxElapsedTime)
	})
}

func TestConnector_Connect(t *testing.T) {
	t.Run("given a mock DSN, then a live session comes back", func(t *testing.T) {
		db, _, err := sqlmock.NewWithDSN("sqlconn_connector_ok")
		require.NoError(t, err)
		defer db.Close()

		conn, err := Connect(context.Background(), "sqlmock", "sqlconn_connector_ok")
		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, "sqlconn_connector_ok", conn.URL())

		depth, err := conn.TransactionDepth(context.Background())
		require.NoError(t, err)
		assert.Zero(t, depth)
	})

	t.Run("given an unregistered driver, then connect fails without dialing", func(t *testing.T) {
		_, err := Connect(context.Background(), "sqlconn_no_such_driver", "dsn")

		assert.Error(t, err)
	})
}

func TestConnector_ConnectRetry(t *testing.T) {
	t.Run("given two refused dials, then the third attempt connects", func(t *testing.T) {
		name, drv := registerFlakyDriver(t, 2)

		var logs bytes.Buffer
		logger := zerolog.New(&logs)

		conn, err := Connect(context.Background(), name, "dsn",
			WithConnectRetry(3),
			WithRetryInterval(time.Millisecond, 2*time.Millisecond),
			WithLogger(logger),
		)

		require.NoError(t, err)
		defer conn.Close()

		assert.Equal(t, 3, drv.openCount())
		assert.Contains(t, logs.String(), "database dial failed, retrying")
	})

	t.Run("given more failures than tries, then the last error surfaces", func(t *testing.T) {
		name, drv := registerFlakyDriver(t, 10)

		_, err := Connect(context.Background(), name, "dsn",
			WithConnectRetry(3),
			WithRetryInterval(time.Millisecond, 2*time.Millisecond),
		)

		assert.ErrorIs(t, err, errDialRefused)
		assert.Equal(t, 3, drv.openCount())
	})

	t.Run("given retry disabled, then one dial only", func(t *testing.T) {
		name, drv := registerFlakyDriver(t, 1)

		_, err := Connect(context.Background(), name, "dsn")

		assert.ErrorIs(t, err, errDialRefused)
		assert.Equal(t, 1, drv.openCount())
	})
}
