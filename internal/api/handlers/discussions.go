package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/discussion"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type DiscussionHandler struct {
	discussions *discussion.Service
}

func NewDiscussionHandler(discussions *discussion.Service) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions}
}

type OpenDiscussionRequest struct {
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"`
}

func (r OpenDiscussionRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if _, err := uuid.Parse(r.RecipientID); err != nil {
		errors["recipient_id"] = "Valid recipient ID is required"
	}
	if r.Body == "" {
		errors["body"] = "Message body is required"
	}
	return errors
}

// Create handles POST /api/v1/discussions
func (h *DiscussionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OpenDiscussionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	recipientID, _ := uuid.Parse(req.RecipientID)
	created, err := h.discussions.Open(r.Context(), middleware.GetActor(r.Context()), recipientID, req.Subject, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /api/v1/discussions
func (h *DiscussionHandler) List(w http.ResponseWriter, r *http.Request) {
	discussions, err := h.discussions.ListForUser(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, discussions)
}

// Messages handles GET /api/v1/discussions/:id/messages
func (h *DiscussionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid discussion ID"})
		return
	}

	messages, err := h.discussions.Messages(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type PostMessageRequest struct {
	Body string `json:"body"`
}

// Post handles POST /api/v1/discussions/:id/messages
func (h *DiscussionHandler) Post(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid discussion ID"})
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	message, err := h.discussions.Post(r.Context(), middleware.GetActor(r.Context()), id, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}
