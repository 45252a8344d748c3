package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/submission"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SubmissionHandler struct {
	submissions *submission.Service
}

func NewSubmissionHandler(submissions *submission.Service) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

type CreateSubmissionRequest struct {
	FormTemplateID string         `json:"form_template_id"`
	FormData       map[string]any `json:"form_data"`
	LocationData   string         `json:"location_data,omitempty"`
}

func (r CreateSubmissionRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if _, err := uuid.Parse(r.FormTemplateID); err != nil {
		errors["form_template_id"] = "Valid template ID is required"
	}
	return errors
}

// Create handles POST /api/v1/submissions
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	templateID, _ := uuid.Parse(req.FormTemplateID)
	sub, err := h.submissions.Create(r.Context(), middleware.GetActor(r.Context()), submission.CreateInput{
		FormTemplateID: templateID,
		FormData:       req.FormData,
		LocationData:   req.LocationData,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// ListMine handles GET /api/v1/submissions
func (h *SubmissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.ListForUser(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// ListPending handles GET /api/v1/submissions/pending
func (h *SubmissionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	var companyID uuid.UUID
	if q := r.URL.Query().Get("company_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
			return
		}
		companyID = id
	}

	subs, err := h.submissions.ListPending(r.Context(), middleware.GetActor(r.Context()), companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// Get handles GET /api/v1/submissions/:id
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid submission ID"})
		return
	}

	sub, err := h.submissions.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type UpdateSubmissionRequest struct {
	FormData     map[string]any `json:"form_data"`
	LocationData string         `json:"location_data,omitempty"`
}

// Update handles PUT /api/v1/submissions/:id
func (h *SubmissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid submission ID"})
		return
	}

	var req UpdateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	sub, err := h.submissions.Update(r.Context(), middleware.GetActor(r.Context()), id, req.FormData, req.LocationData)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Submit handles POST /api/v1/submissions/:id/submit
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid submission ID"})
		return
	}

	sub, err := h.submissions.Submit(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Validate handles POST /api/v1/submissions/:id/validate
func (h *SubmissionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid submission ID"})
		return
	}

	sub, err := h.submissions.Validate(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Refuse handles POST /api/v1/submissions/:id/refuse
func (h *SubmissionHandler) Refuse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid submission ID"})
		return
	}

	sub, err := h.submissions.Refuse(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Location handles GET /api/v1/submissions/:id/location
func (h *SubmissionHandler) Location(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid submission ID"})
		return
	}

	location, err := h.submissions.Location(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"location_data": location})
}
