package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/plevenlab/plevenlab-core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	fallbackBatchSize     = 100
	fallbackFlushInterval = 10 * time.Second
)

// Client sends login telemetry to one InfluxDB bucket.
//
// Points are queued on the library's non-blocking write API and flushed in
// batches. A nil *Client is valid and writes nothing, so callers can hold
// one unconditionally whether or not telemetry is enabled.
type Client struct {
	influx influxdb2.Client
	writer api.WriteAPI

	open atomic.Bool

	errMu   sync.RWMutex
	onError func(err error)
}

// clientOptions maps the telemetry config onto library options.
// Non-positive batch settings fall back to the package defaults.
func clientOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := uint(fallbackBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize)
	}
	flush := fallbackFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	return influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds())) //nolint:gosec // positive by construction
}

// Connect pings the configured server and opens a batched writer on
// cfg.Org/cfg.Bucket. It returns ErrDisabled when telemetry is switched off
// and wraps ErrUnreachable when the ping fails.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if ok, err := influx.Ping(pingCtx); err != nil || !ok {
		influx.Close()
		if err == nil {
			err = fmt.Errorf("server reported unhealthy")
		}
		return nil, fmt.Errorf("%w at %s: %w", ErrUnreachable, cfg.URL, err)
	}

	c := &Client{
		influx: influx,
		writer: influx.WriteAPI(cfg.Org, cfg.Bucket),
	}
	c.open.Store(true)

	go c.forwardErrors(c.writer.Errors())

	return c, nil
}

// forwardErrors hands asynchronous batch failures to the OnError callback.
// It exits when the write API closes its error channel.
func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.errMu.RLock()
		fn := c.onError
		c.errMu.RUnlock()

		if fn != nil {
			fn(err)
		}
	}
}

// SetOnError registers the callback for failed batch writes.
func (c *Client) SetOnError(fn func(err error)) {
	if c == nil {
		return
	}
	c.errMu.Lock()
	c.onError = fn
	c.errMu.Unlock()
}

// IsConnected reports whether the client is open. It does not ping.
func (c *Client) IsConnected() bool {
	return c != nil && c.open.Load()
}

// HealthCheck pings the server, bounded by a 5 second timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrClosed
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ok, err := c.influx.Ping(pingCtx)
	switch {
	case err != nil:
		return fmt.Errorf("influxdb ping: %w", err)
	case !ok:
		return fmt.Errorf("influxdb ping: server reported unhealthy")
	}
	return nil
}

// Flush blocks until queued points are sent. No-op once closed.
func (c *Client) Flush() {
	if !c.IsConnected() {
		return
	}
	c.writer.Flush()
}

// Close flushes queued points and releases the client. Later calls do nothing.
func (c *Client) Close() error {
	if c == nil || !c.open.CompareAndSwap(true, false) {
		return nil
	}
	c.writer.Flush()
	c.influx.Close()
	return nil
}
