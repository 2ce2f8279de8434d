package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/plevenlab/plevenlab-core/internal/audit"
	"github.com/plevenlab/plevenlab-core/internal/auth"
)

// loginRequest is the request body for POST /login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin authenticates a user and returns {user, token}.
// Unknown users and wrong passwords get the same 401 response.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.recordLogin(r, false, 0, req.Username)
		}
		s.writeServiceError(w, r, err)
		return
	}

	s.recordLogin(r, true, result.User.ID, req.Username)
	s.logger.Info("user logged in", "user_id", result.User.ID)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) recordLogin(r *http.Request, success bool, userID int64, username string) {
	if s.telemetry != nil {
		s.telemetry.WriteLoginAttempt(success)
	}
	if s.audit == nil {
		return
	}

	entry := audit.Entry{
		Action:     audit.ActionLoginFailed,
		EntityType: "user",
		Source:     "api",
		Details: map[string]any{
			"username":    username,
			"remote_addr": r.RemoteAddr,
		},
	}
	if success {
		entry.Action = audit.ActionLogin
		entry.EntityID = strconv.FormatInt(userID, 10)
		entry.UserID = userID
	}
	s.audit.Record(entry)
}

// handleMe returns the account behind the bearer token.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	user, err := s.users.GetUser(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
