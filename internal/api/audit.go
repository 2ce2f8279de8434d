package api

import (
	"net/http"
	"strconv"

	"github.com/plevenlab/plevenlab-core/internal/audit"
)

// auditLog enqueues an audit entry for the authenticated caller. Writes
// are asynchronous and best-effort.
func (s *Server) auditLog(r *http.Request, action, entityType string, entityID int64, details map[string]any) {
	if s.audit == nil {
		return
	}
	userID, _ := userIDFromContext(r.Context())
	s.audit.Record(audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   strconv.FormatInt(entityID, 10),
		UserID:     userID,
		Source:     "api",
		Details:    details,
	})
}

// notifyChange publishes a content change. Failures are logged and never
// fail the request that caused them.
func (s *Server) notifyChange(r *http.Request, entity, action string, id int64) {
	if s.notifier == nil {
		return
	}
	userID, _ := userIDFromContext(r.Context())
	if err := s.notifier.PublishContentChange(entity, action, id, userID); err != nil {
		s.logger.Warn("content change notification failed",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err,
		)
	}
}

// contentWritten records and announces a successful content write.
func (s *Server) contentWritten(r *http.Request, entity, action string, id int64) {
	s.auditLog(r, action, entity, id, nil)
	s.notifyChange(r, entity, action, id)
}

// handleListAuditLogs returns paginated audit log entries with optional filters.
//
// Query parameters:
//   - action: filter by action type (login, login_failed, create, update, delete, bootstrap)
//   - entity_type: filter by entity type (user, category, event, post)
//   - entity_id: filter by specific entity ID
//   - user_id: filter by acting account
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeInternalError(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}

	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeBadRequest(w, key+" must be an integer")
				return
			}
			*dst = n
		}
	}
	if v := q.Get("user_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeBadRequest(w, "user_id must be an integer")
			return
		}
		filter.UserID = n
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
