// Package logging provides structured logging for PlevenLab Core.
//
// It wraps log/slog so every record carries the service name and build
// version, with JSON output for production and text for development.
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, cfg.Service.Name, version)
//	logger.Info("starting service", "addr", cfg.Addr())
//
// Never log tokens or user passwords. The one exception is the
// administrator bootstrap record, which carries the generated one-time
// password by design of the first-run procedure.
package logging
