package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/tenant"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CompanyHandler struct {
	tenants *tenant.Service
}

func NewCompanyHandler(tenants *tenant.Service) *CompanyHandler {
	return &CompanyHandler{tenants: tenants}
}

type CreateCompanyRequest struct {
	Name     string `json:"name"`
	MaxUsers int    `json:"max_users,omitempty"`
}

func (r CreateCompanyRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Company name is required"
	}
	if r.MaxUsers < 0 {
		errors["max_users"] = "Must be zero or positive"
	}
	return errors
}

// Create handles POST /api/v1/companies
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	company, err := h.tenants.Create(r.Context(), middleware.GetActor(r.Context()), tenant.CreateCompanyInput{
		Name:     req.Name,
		MaxUsers: req.MaxUsers,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

// List handles GET /api/v1/companies
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.tenants.List(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

// Get handles GET /api/v1/companies/:id
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
		return
	}

	company, err := h.tenants.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

type UpdateCompanyRequest struct {
	Name     *string `json:"name,omitempty"`
	MaxUsers *int    `json:"max_users,omitempty"`
}

// Update handles PUT /api/v1/companies/:id
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
		return
	}

	var req UpdateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	company, err := h.tenants.Update(r.Context(), middleware.GetActor(r.Context()), id, tenant.UpdateCompanyInput{
		Name:     req.Name,
		MaxUsers: req.MaxUsers,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// Delete handles DELETE /api/v1/companies/:id
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
		return
	}

	if err := h.tenants.Delete(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Company deleted"})
}

// Activate handles POST /api/v1/companies/:id/activate
func (h *CompanyHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles POST /api/v1/companies/:id/deactivate
func (h *CompanyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *CompanyHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
		return
	}

	actor := middleware.GetActor(r.Context())
	if active {
		err = h.tenants.Activate(r.Context(), actor, id)
	} else {
		err = h.tenants.Deactivate(r.Context(), actor, id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Company updated"})
}

type AddSubscriptionRequest struct {
	AvailableForms int   `json:"available_forms"`
	FormsToCreate  int   `json:"forms_to_create"`
	StartsAt       int64 `json:"starts_at"`
	EndsAt         int64 `json:"ends_at"`
}

func (r AddSubscriptionRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.AvailableForms <= 0 {
		errors["available_forms"] = "Must be positive"
	}
	if r.FormsToCreate < 0 {
		errors["forms_to_create"] = "Must be zero or positive"
	}
	if r.EndsAt <= r.StartsAt {
		errors["ends_at"] = "Must be after starts_at"
	}
	return errors
}

// AddSubscription handles POST /api/v1/companies/:id/subscriptions
func (h *CompanyHandler) AddSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
		return
	}

	var req AddSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	sub, err := h.tenants.AddSubscription(r.Context(), middleware.GetActor(r.Context()), id, tenant.SubscriptionInput{
		AvailableForms: req.AvailableForms,
		FormsToCreate:  req.FormsToCreate,
		StartsAt:       time.Unix(req.StartsAt, 0).UTC(),
		EndsAt:         time.Unix(req.EndsAt, 0).UTC(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}
