package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CollaboratorHandler struct {
	users *identity.Service
}

func NewCollaboratorHandler(users *identity.Service) *CollaboratorHandler {
	return &CollaboratorHandler{users: users}
}

type CreateCollaboratorRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"` // root only
}

func (r CreateCollaboratorRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if !models.Role(r.Role).Valid() || models.Role(r.Role) == models.RoleRoot {
		errors["role"] = "Role must be administrator, technician or validator"
	}
	if r.CompanyID != "" {
		if _, err := uuid.Parse(r.CompanyID); err != nil {
			errors["company_id"] = "Invalid company ID"
		}
	}
	return errors
}

// Create handles POST /api/v1/collaborators
func (h *CollaboratorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCollaboratorRequest
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

	user, err := h.users.Create(r.Context(), middleware.GetActor(r.Context()), identity.CreateUserInput{
		Email:     req.Email,
		Name:      req.Name,
		Role:      models.Role(req.Role),
		CompanyID: companyID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToDTO(user))
}

// List handles GET /api/v1/collaborators
func (h *CollaboratorHandler) List(w http.ResponseWriter, r *http.Request) {
	var companyID uuid.UUID
	if q := r.URL.Query().Get("company_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid company ID"})
			return
		}
		companyID = id
	}

	users, err := h.users.List(r.Context(), middleware.GetActor(r.Context()), companyID)
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]dto.UserDTO, len(users))
	for i := range users {
		response[i] = userToDTO(&users[i])
	}
	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/v1/collaborators/:id
func (h *CollaboratorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	user, err := h.users.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToDTO(user))
}

type UpdateCollaboratorRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Update handles PUT /api/v1/collaborators/:id
func (h *CollaboratorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var req UpdateCollaboratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	user, err := h.users.Update(r.Context(), middleware.GetActor(r.Context()), id, identity.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToDTO(user))
}

// Delete handles DELETE /api/v1/collaborators/:id
func (h *CollaboratorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	if err := h.users.Delete(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Collaborator deleted"})
}

// Activate handles POST /api/v1/collaborators/:id/activate
func (h *CollaboratorHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles POST /api/v1/collaborators/:id/deactivate
func (h *CollaboratorHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *CollaboratorHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	actor := middleware.GetActor(r.Context())
	if active {
		err = h.users.Activate(r.Context(), actor, id)
	} else {
		err = h.users.Deactivate(r.Context(), actor, id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Collaborator updated"})
}
