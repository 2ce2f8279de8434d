package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Login attempt measurement and tag values.
const (
	MeasurementLoginAttempts = "login_attempts"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// WriteLoginAttempt records one login attempt.
//
// The point has a single "result" tag (success or failure) and an integer
// "count" field of 1, so totals come from a sum() over any window. Login
// names are never written: they are unbounded tag values and personal data.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteLoginAttempt(success bool) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	c.WritePoint(MeasurementLoginAttempts,
		map[string]string{"result": result},
		map[string]any{"count": 1},
	)
}

// WritePoint writes a custom point stamped with the current time.
//
// Example:
//
//	client.WritePoint("content_writes",
//	    map[string]string{"entity": "event"},
//	    map[string]any{"count": 1})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writer.WritePoint(point)
}
