package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: telemetry disabled")

	// ErrUnreachable means the server did not answer the startup ping.
	ErrUnreachable = errors.New("influxdb: server unreachable")

	// ErrClosed is reported by HealthCheck after Close.
	ErrClosed = errors.New("influxdb: client closed")
)
