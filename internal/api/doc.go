// Package api implements the HTTP REST API for PlevenLab Core.
//
// This package provides:
//   - Public read endpoints for categories, events and visible posts
//   - Login returning the account and a bearer token
//   - Bearer-protected user management, content writes and audit history
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Security
//
// Tokens are HS256 JWTs issued at login and valid for seven days. They are
// stateless: deleting an account does not revoke tokens already issued.
//
// # Graceful Degradation
//
// MQTT notifications, InfluxDB telemetry and the audit trail are optional.
// When one is absent or failing, requests still succeed and the failure is
// logged.
package api
