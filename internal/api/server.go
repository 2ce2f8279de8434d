package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/plevenlab/plevenlab-core/internal/audit"
	"github.com/plevenlab/plevenlab-core/internal/auth"
	"github.com/plevenlab/plevenlab-core/internal/content"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/config"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultMaxBodyBytes applies when api.max_body_bytes is unset.
const defaultMaxBodyBytes = 1 << 20

// HealthChecker is implemented by dependencies reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ContentNotifier is told about successful content writes.
// Implemented by *mqtt.Notifier.
type ContentNotifier interface {
	PublishContentChange(entity, action string, id, userID int64) error
}

// LoginTelemetry counts login attempts. Implemented by *influxdb.Client.
type LoginTelemetry interface {
	WriteLoginAttempt(success bool)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Secret    []byte // HS256 key used to verify bearer tokens
	Logger    *logging.Logger
	Users     *auth.Service
	Content   *content.Service
	AuditRepo audit.Repository // optional: serves GET /audit
	Audit     *audit.Recorder  // optional: nil disables recording
	Notifier  ContentNotifier  // optional
	Telemetry LoginTelemetry   // optional
	Checks    map[string]HealthChecker
	Version   string
}

// Server is the HTTP API server for PlevenLab Core.
//
// It manages the HTTP listener, routes and middleware.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	secret    []byte
	logger    *logging.Logger
	users     *auth.Service
	content   *content.Service
	auditRepo audit.Repository
	audit     *audit.Recorder
	notifier  ContentNotifier
	telemetry LoginTelemetry
	checks    map[string]HealthChecker
	version   string
	handler   http.Handler
	server    *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user service is required")
	}
	if deps.Content == nil {
		return nil, fmt.Errorf("content service is required")
	}
	if len(deps.Secret) < auth.MinSigningKeyBytes {
		return nil, auth.ErrSigningKeyMissing
	}

	s := &Server{
		cfg:       deps.Config,
		secret:    append([]byte(nil), deps.Secret...),
		logger:    deps.Logger.With("component", "api"),
		users:     deps.Users,
		content:   deps.Content,
		auditRepo: deps.AuditRepo,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		telemetry: deps.Telemetry,
		checks:    deps.Checks,
		version:   deps.Version,
	}
	s.handler = s.buildRouter()

	return s, nil
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address and serves in a background goroutine.
// A bind failure (port in use, bad address) is returned directly.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", ln.Addr().String(),
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
