package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/catalog"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TemplateHandler struct {
	catalog *catalog.Service
}

func NewTemplateHandler(catalogService *catalog.Service) *TemplateHandler {
	return &TemplateHandler{catalog: catalogService}
}

type CreateTemplateRequest struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	Fields      []models.FieldDefinition `json:"fields"`
	CompanyID   string                   `json:"company_id,omitempty"` // root only
}

func (r CreateTemplateRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if len(r.Fields) == 0 {
		errors["fields"] = "At least one field is required"
	}
	if r.CompanyID != "" {
		if _, err := uuid.Parse(r.CompanyID); err != nil {
			errors["company_id"] = "Invalid company ID"
		}
	}
	return errors
}

// Create handles POST /api/v1/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var companyID uuid.UUID
	if req.CompanyID != "" {
		companyID, _ = uuid.Parse(req.CompanyID)
	}

	template, err := h.catalog.Create(r.Context(), middleware.GetActor(r.Context()), catalog.CreateTemplateInput{
		Title:       req.Title,
		Description: req.Description,
		Fields:      req.Fields,
		CompanyID:   companyID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

// List handles GET /api/v1/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	var companyID uuid.UUID
	if q := r.URL.Query().Get("company_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
			return
		}
		companyID = id
	}

	templates, err := h.catalog.List(r.Context(), middleware.GetActor(r.Context()), companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// Get handles GET /api/v1/templates/:id
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	template, err := h.catalog.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

// Deactivate handles POST /api/v1/templates/:id/deactivate
func (h *TemplateHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	if err := h.catalog.Deactivate(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Template deactivated"})
}

// Delete handles DELETE /api/v1/templates/:id
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	if err := h.catalog.Delete(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Template deleted"})
}
