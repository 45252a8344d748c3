package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/assignment"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AssignmentHandler struct {
	assignments *assignment.Service
}

func NewAssignmentHandler(assignments *assignment.Service) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

type CreateAssignmentRequest struct {
	UserID  string `json:"user_id"`
	DueDate *int64 `json:"due_date,omitempty"`
}

func (r CreateAssignmentRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if _, err := uuid.Parse(r.UserID); err != nil {
		errors["user_id"] = "Valid user ID is required"
	}
	return errors
}

// Create handles POST /api/v1/templates/:id/assignments
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	userID, _ := uuid.Parse(req.UserID)
	created, err := h.assignments.Assign(r.Context(), middleware.GetActor(r.Context()), assignment.AssignInput{
		FormTemplateID: templateID,
		UserID:         userID,
		DueDate:        req.DueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListForTemplate handles GET /api/v1/templates/:id/assignments
func (h *AssignmentHandler) ListForTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	assignments, err := h.assignments.ListForTemplate(r.Context(), middleware.GetActor(r.Context()), templateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// ListMine handles GET /api/v1/assignments
func (h *AssignmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignments.ListForUser(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// Complete handles POST /api/v1/assignments/:id/complete
func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid assignment ID"})
		return
	}

	if err := h.assignments.Complete(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Assignment completed"})
}

type CreatePairingRequest struct {
	ValidatorID  string `json:"validator_id"`
	TechnicianID string `json:"technician_id"`
}

func (r CreatePairingRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if _, err := uuid.Parse(r.ValidatorID); err != nil {
		errors["validator_id"] = "Valid validator ID is required"
	}
	if _, err := uuid.Parse(r.TechnicianID); err != nil {
		errors["technician_id"] = "Valid technician ID is required"
	}
	return errors
}

// CreatePairing handles POST /api/v1/templates/:id/pairings
func (h *AssignmentHandler) CreatePairing(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	var req CreatePairingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	validatorID, _ := uuid.Parse(req.ValidatorID)
	technicianID, _ := uuid.Parse(req.TechnicianID)

	pairing, err := h.assignments.PairValidator(r.Context(), middleware.GetActor(r.Context()), templateID, validatorID, technicianID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pairing)
}
