package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/plevenlab/plevenlab-core/internal/audit"
	"github.com/plevenlab/plevenlab-core/internal/auth"
	"github.com/plevenlab/plevenlab-core/internal/content"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/config"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/database"
	"github.com/plevenlab/plevenlab-core/internal/infrastructure/logging"
	"github.com/plevenlab/plevenlab-core/migrations"
)

// testSecret is a 32-byte HS256 key.
var testSecret = []byte("api-test-signing-key-32-bytes!!!")

type change struct {
	entity, action string
	id, userID     int64
}

type fakeNotifier struct {
	mu      sync.Mutex
	changes []change
	err     error
}

func (f *fakeNotifier) PublishContentChange(entity, action string, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change{entity, action, id, userID})
	return f.err
}

type fakeTelemetry struct {
	mu       sync.Mutex
	attempts []bool
}

func (f *fakeTelemetry) WriteLoginAttempt(success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, success)
}

type failingCheck struct{}

func (failingCheck) HealthCheck(context.Context) error { return errors.New("broker unreachable") }

// testEnv is a fully wired server over a migrated temporary database with
// the bootstrap administrator signed in.
type testEnv struct {
	handler   http.Handler
	db        *database.DB
	users     *auth.Service
	auditRepo *audit.SQLiteRepository
	recorder  *audit.Recorder
	notifier  *fakeNotifier
	telemetry *fakeTelemetry
	adminPass string
	adminID   int64
	token     string
}

func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()
	ctx := t.Context()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "api.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	issuer, err := auth.NewTokenIssuer(testSecret)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	userRepo := auth.NewUserRepository(db.DB)
	users := auth.NewService(userRepo, issuer)

	logger := discardLogger()
	password, err := auth.EnsureAdministrativeAccount(ctx, userRepo, logger.Logger)
	if err != nil {
		t.Fatalf("EnsureAdministrativeAccount() error = %v", err)
	}

	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, logger.Logger, 64)
	recorder.Start()
	t.Cleanup(recorder.Close)

	env := &testEnv{
		db:        db,
		users:     users,
		auditRepo: auditRepo,
		recorder:  recorder,
		notifier:  &fakeNotifier{},
		telemetry: &fakeTelemetry{},
		adminPass: password,
	}

	cfg := config.Default().API
	cfg.CORS.AllowedOrigins = []string{"https://plevenlab.org"}

	deps := Deps{
		Config:    cfg,
		Secret:    testSecret,
		Logger:    logger,
		Users:     users,
		Content:   content.NewService(content.NewSQLiteRepository(db.DB)),
		AuditRepo: auditRepo,
		Audit:     recorder,
		Notifier:  env.notifier,
		Telemetry: env.telemetry,
		Checks:    map[string]HealthChecker{"database": db},
		Version:   "test",
	}
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	env.handler = srv.Handler()

	result, err := users.Login(ctx, auth.AdminUsername, password)
	if err != nil {
		t.Fatalf("admin login error = %v", err)
	}
	env.adminID = result.User.ID
	env.token = result.Token

	return env
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshalling body: %v", err)
			}
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

// =============================================================================
// Server lifecycle
// =============================================================================

func TestNew_RequiresDependencies(t *testing.T) {
	logger := discardLogger()
	users := &auth.Service{}
	contentSvc := &content.Service{}

	tests := []struct {
		name string
		deps Deps
	}{
		{"no logger", Deps{Users: users, Content: contentSvc, Secret: testSecret}},
		{"no users", Deps{Logger: logger, Content: contentSvc, Secret: testSecret}},
		{"no content", Deps{Logger: logger, Users: users, Secret: testSecret}},
		{"short secret", Deps{Logger: logger, Users: users, Content: contentSvc, Secret: []byte("short")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestServer_StartAndClose(t *testing.T) {
	env := newTestEnv(t)

	logger := discardLogger()
	cfg := config.Default().API
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv, err := New(Deps{
		Config:  cfg,
		Secret:  testSecret,
		Logger:  logger,
		Users:   env.users,
		Content: &content.Service{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := srv.HealthCheck(t.Context()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := srv.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// =============================================================================
// Health
// =============================================================================

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil, "")
	expectStatus(t, rec, http.StatusOK)

	body := decodeBody[map[string]any](t, rec)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
	if checks, _ := body["checks"].(map[string]any); checks["database"] != "ok" {
		t.Errorf("checks = %v", body["checks"])
	}
}

func TestHandleHealth_Degraded(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Checks["mqtt"] = failingCheck{}
	})

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil, "")
	expectStatus(t, rec, http.StatusServiceUnavailable)

	body := decodeBody[map[string]any](t, rec)
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
}

func discardLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error"}, "plevenlab-test", "test")
}

func configWithBodyLimit(limit int64) config.APIConfig {
	cfg := config.Default().API
	cfg.MaxBodyBytes = limit
	return cfg
}
