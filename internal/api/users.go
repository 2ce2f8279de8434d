package api

import (
	"net/http"
	"strings"

	"github.com/plevenlab/plevenlab-core/internal/audit"
	"github.com/plevenlab/plevenlab-core/internal/auth"
)

// handleListUsers returns all user accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleGetUser returns one user account.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := s.users.GetUser(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleCreateUser creates a new user account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req auth.UserInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.users.CreateUser(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Name)
	s.auditLog(r, audit.ActionCreate, "user", user.ID, map[string]any{"username": user.Name})

	writeJSON(w, http.StatusCreated, user)
}

// handleUpdateUser replaces name and email and, when a password is given,
// the credential.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req auth.UserInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.users.UpdateUser(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.auditLog(r, audit.ActionUpdate, "user", user.ID, map[string]any{
		"username":         user.Name,
		"password_changed": strings.TrimSpace(req.Password) != "",
	})

	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser removes a user account.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.users.DeleteUser(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info("user deleted", "user_id", id)
	s.auditLog(r, audit.ActionDelete, "user", id, nil)

	w.WriteHeader(http.StatusNoContent)
}
