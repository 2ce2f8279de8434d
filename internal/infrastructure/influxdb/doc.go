// Package influxdb counts PlevenLab login attempts in an InfluxDB v2 bucket.
//
// The binary connects only when influxdb.enabled is set; otherwise the API
// runs without telemetry. Each login, successful or not, becomes one
// login_attempts point tagged with its result:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteLoginAttempt(true)
//
// Writes are queued and batched by influxdb-client-go and never block a
// request. Batch failures surface only through the SetOnError callback.
package influxdb
