package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/plevenlab/plevenlab-core/internal/audit"
	"github.com/plevenlab/plevenlab-core/internal/auth"
)

func TestHandleLogin_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/login",
		loginRequest{Username: auth.AdminUsername, Password: env.adminPass}, "")
	expectStatus(t, rec, http.StatusOK)

	raw := rec.Body.String()
	for _, leaked := range []string{"password", "hash", "salt", "credential"} {
		if strings.Contains(strings.ToLower(raw), leaked) {
			t.Errorf("login response contains %q: %s", leaked, raw)
		}
	}

	body := decodeBody[struct {
		User  auth.User `json:"user"`
		Token string    `json:"token"`
	}](t, rec)
	if body.User.Name != auth.AdminUsername || body.User.Email != auth.AdminEmail {
		t.Errorf("user = %+v", body.User)
	}
	if body.User.LastLoginAt == nil {
		t.Error("last_login_at should be set after login")
	}

	subject, err := auth.ParseToken(body.Token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if subject != body.User.ID {
		t.Errorf("token subject = %d, want %d", subject, body.User.ID)
	}

	if len(env.telemetry.attempts) != 1 || !env.telemetry.attempts[0] {
		t.Errorf("telemetry = %v, want [true]", env.telemetry.attempts)
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{"wrong password", loginRequest{Username: auth.AdminUsername, Password: "not-it"}, http.StatusUnauthorized, invalidCredentialsMessage},
		{"unknown user", loginRequest{Username: "nobody", Password: "whatever"}, http.StatusUnauthorized, invalidCredentialsMessage},
		{"blank password", loginRequest{Username: auth.AdminUsername, Password: "   "}, http.StatusBadRequest, ""},
		{"malformed json", `{"username":`, http.StatusBadRequest, ""},
		{"unknown field", `{"username":"admin","password":"x","role":"owner"}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/login", tt.body, "")
			expectStatus(t, rec, tt.wantStatus)

			if tt.wantMsg != "" {
				if got := decodeBody[Error](t, rec); got.Message != tt.wantMsg {
					t.Errorf("message = %q, want %q", got.Message, tt.wantMsg)
				}
			}
		})
	}

	// Both 401 cases count as failed attempts.
	failures := 0
	for _, ok := range env.telemetry.attempts {
		if !ok {
			failures++
		}
	}
	if failures != 2 {
		t.Errorf("failed attempts recorded = %d, want 2", failures)
	}

	env.recorder.Close()
	result, err := env.auditRepo.List(t.Context(), audit.Filter{Action: audit.ActionLoginFailed})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 2 {
		t.Errorf("login_failed entries = %d, want 2", result.Total)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-8 * 24 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
	})
	expiredToken, err := expired.SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	forgedToken, err := otherKey.SignedString([]byte("some-other-secret-also-32-bytes!"))
	if err != nil {
		t.Fatalf("signing forged token: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic YWRtaW46YWRtaW4=", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"wrong key", "Bearer " + forgedToken, http.StatusUnauthorized},
		{"valid", "Bearer " + env.token, http.StatusOK},
		{"lowercase scheme", "bearer " + env.token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/api/v1/me")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(env.handler, req)
			expectStatus(t, rec, tt.want)

			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate header")
			}
		})
	}
}

func TestHandleMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/me", nil, env.token)
	expectStatus(t, rec, http.StatusOK)

	if got := decodeBody[auth.User](t, rec); got.ID != env.adminID {
		t.Errorf("me.ID = %d, want %d", got.ID, env.adminID)
	}

	// A token for a deleted account still parses but the account is gone.
	if err := env.users.DeleteUser(t.Context(), env.adminID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/me", nil, env.token)
	expectStatus(t, rec, http.StatusNotFound)
}
