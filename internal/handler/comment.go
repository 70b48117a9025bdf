package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/middleware"
	"github.com/pkordes/tripweaver/backend/internal/service"
)

// createCommentRequest is the POST /trips/{tripID}/comments body.
type createCommentRequest struct {
	TargetType   string  `json:"target_type"`
	TargetID     string  `json:"target_id,omitempty"`
	Content      string  `json:"content"`
	SelectedText string  `json:"selected_text,omitempty"`
	ParentID     *string `json:"parent_id,omitempty"`
}

// CreateComment handles POST /trips/{tripID}/comments.
func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	comment := domain.Comment{
		TripID:       tripID,
		AuthorID:     middleware.ActorID(r.Context()),
		TargetType:   domain.TargetType(req.TargetType),
		TargetID:     req.TargetID,
		Content:      req.Content,
		SelectedText: req.SelectedText,
	}
	if req.ParentID != nil {
		pid, err := uuid.Parse(*req.ParentID)
		if err != nil {
			writeRequestError(w, "parent_id must be a valid UUID")
			return
		}
		comment.ParentID = &pid
	}

	created, err := s.comments.Create(r.Context(), comment)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// ListComments handles GET /trips/{tripID}/comments.
// Supports ?status=, ?page=, and ?limit= query parameters.
func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	var status *domain.CommentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.CommentStatus(raw)
		switch st {
		case domain.StatusPending, domain.StatusAddressed, domain.StatusResolved, domain.StatusDeleted:
			status = &st
		default:
			writeRequestError(w, "unknown status filter")
			return
		}
	}

	comments, total, err := s.comments.ListByTrip(r.Context(), tripID, status, paginationFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"comments": comments,
		"total":    total,
	})
}

// updateCommentRequest is the PATCH body: either new content, or a status
// transition to "resolved". Content edits reclassify the comment.
type updateCommentRequest struct {
	Content *string `json:"content,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// UpdateComment handles PATCH /trips/{tripID}/comments/{commentID}.
func (s *Server) UpdateComment(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}

	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	actor := middleware.ActorID(r.Context())
	switch {
	case req.Status != nil:
		if *req.Status != string(domain.StatusResolved) {
			writeRequestError(w, `status may only be set to "resolved"`)
			return
		}
		resolved, err := s.comments.Resolve(r.Context(), tripID, commentID, actor)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, resolved)
	case req.Content != nil:
		updated, err := s.comments.UpdateContent(r.Context(), tripID, commentID, actor, *req.Content)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, updated)
	default:
		writeRequestError(w, "either content or status is required")
	}
}

// DeleteComment handles DELETE /trips/{tripID}/comments/{commentID}.
// Deletion is soft: the comment row is kept with status=deleted.
func (s *Server) DeleteComment(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}

	if err := s.comments.Delete(r.Context(), tripID, commentID, middleware.ActorID(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListConflicts handles GET /trips/{tripID}/conflicts.
func (s *Server) ListConflicts(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	pairs, err := s.comments.Conflicts(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"conflicts": pairs})
}

// previewClassifyRequest is the POST /classify body.
type previewClassifyRequest struct {
	Content    string `json:"content"`
	TargetType string `json:"target_type,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	DayNumber  *int   `json:"day_number,omitempty"`
}

// PreviewClassify handles POST /classify: classification without persistence,
// for live feedback in the comment form.
func (s *Server) PreviewClassify(w http.ResponseWriter, r *http.Request) {
	var req previewClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	intent, err := s.comments.PreviewClassify(service.ClassifyInput{
		Content:    req.Content,
		TargetType: domain.TargetType(req.TargetType),
		TargetID:   req.TargetID,
		DayNumber:  req.DayNumber,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, intent)
}

// paginationFromQuery reads ?page= and ?limit= with defaults.
func paginationFromQuery(r *http.Request) domain.PaginationParams {
	var page, limit *int
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = &v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = &v
	}
	return domain.NewPaginationParams(page, limit)
}
