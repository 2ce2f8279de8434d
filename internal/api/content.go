package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/plevenlab/plevenlab-core/internal/audit"
	"github.com/plevenlab/plevenlab-core/internal/content"
)

// Entity names used in audit entries and notification topics.
const (
	entityCategory = "category"
	entityEvent    = "event"
	entityPost     = "post"
)

// ─── Categories ────────────────────────────────────────────────────

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.content.ListCategories(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"count":      len(categories),
	})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.content.GetCategory(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req content.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.content.CreateCategory(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityCategory, audit.ActionCreate, c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req content.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.content.UpdateCategory(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityCategory, audit.ActionUpdate, c.ID)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.content.DeleteCategory(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityCategory, audit.ActionDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

// ─── Events ────────────────────────────────────────────────────────

// handleListEvents returns events ordered by start date.
//
// Query parameters:
//   - category_id: only events in this category
//   - from, to: RFC 3339 bounds on start_date (from inclusive, to exclusive)
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter content.EventFilter

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeBadRequest(w, "category_id must be an integer")
			return
		}
		filter.CategoryID = id
	}
	for key, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeBadRequest(w, key+" must be an RFC 3339 timestamp")
				return
			}
			*dst = t
		}
	}

	events, err := s.content.ListEvents(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := s.content.GetEvent(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req content.EventInput
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, _ := userIDFromContext(r.Context())
	e, err := s.content.CreateEvent(r.Context(), userID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityEvent, audit.ActionCreate, e.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req content.EventInput
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := s.content.UpdateEvent(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityEvent, audit.ActionUpdate, e.ID)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.content.DeleteEvent(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityEvent, audit.ActionDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

// ─── Posts ─────────────────────────────────────────────────────────

// handleListPosts returns posts newest first. Anonymous callers only see
// visible posts.
//
// Query parameters:
//   - category_id: only posts in this category
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	_, signedIn := userIDFromContext(r.Context())
	filter := content.PostFilter{VisibleOnly: !signedIn}

	if v := r.URL.Query().Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeBadRequest(w, "category_id must be an integer")
			return
		}
		filter.CategoryID = id
	}

	posts, err := s.content.ListPosts(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"count": len(posts),
	})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, signedIn := userIDFromContext(r.Context())
	p, err := s.content.GetPost(r.Context(), id, !signedIn)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req content.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, _ := userIDFromContext(r.Context())
	p, err := s.content.CreatePost(r.Context(), userID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityPost, audit.ActionCreate, p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req content.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.content.UpdatePost(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityPost, audit.ActionUpdate, p.ID)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.content.DeletePost(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.contentWritten(r, entityPost, audit.ActionDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
