package authz

import (
	"errors"

	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrDeactivated     = errors.New("account is deactivated")
	ErrRoleForbidden   = errors.New("role not allowed for this operation")
	ErrTenantMismatch  = errors.New("resource belongs to another company")
)

// Operation names a gated action. The allowed-role table below is the single
// source of truth for who may do what; handlers and services never hardcode
// role checks.
type Operation string

const (
	OpCompanyManage         Operation = "company:manage"
	OpCompanyRead           Operation = "company:read"
	OpCollaboratorManage    Operation = "collaborator:manage"
	OpCollaboratorRead      Operation = "collaborator:read"
	OpTemplateCreate        Operation = "template:create"
	OpTemplateRead          Operation = "template:read"
	OpTemplateDelete        Operation = "template:delete"
	OpAssignmentManage      Operation = "assignment:manage"
	OpAssignmentRead        Operation = "assignment:read"
	OpSubmissionCreate      Operation = "submission:create"
	OpSubmissionRead        Operation = "submission:read"
	OpSubmissionPending     Operation = "submission:pending"
	OpSubmissionValidate    Operation = "submission:validate"
	OpDashboardView         Operation = "dashboard:view"
	OpDiscussionParticipate Operation = "discussion:participate"
)

var allowedRoles = map[Operation][]models.Role{
	OpCompanyManage:         {models.RoleRoot},
	OpCompanyRead:           {models.RoleRoot},
	OpCollaboratorManage:    {models.RoleRoot, models.RoleAdministrator},
	OpCollaboratorRead:      {models.RoleRoot, models.RoleAdministrator},
	OpTemplateCreate:        {models.RoleRoot, models.RoleAdministrator},
	OpTemplateRead:          {models.RoleRoot, models.RoleAdministrator, models.RoleTechnician, models.RoleValidator},
	OpTemplateDelete:        {models.RoleRoot, models.RoleAdministrator},
	OpAssignmentManage:      {models.RoleRoot, models.RoleAdministrator},
	OpAssignmentRead:        {models.RoleRoot, models.RoleAdministrator, models.RoleTechnician, models.RoleValidator},
	OpSubmissionCreate:      {models.RoleTechnician, models.RoleValidator},
	OpSubmissionRead:        {models.RoleRoot, models.RoleAdministrator, models.RoleTechnician, models.RoleValidator},
	OpSubmissionPending:     {models.RoleRoot, models.RoleAdministrator, models.RoleValidator},
	OpSubmissionValidate:    {models.RoleValidator},
	OpDashboardView:         {models.RoleTechnician, models.RoleValidator},
	OpDiscussionParticipate: {models.RoleRoot, models.RoleAdministrator, models.RoleTechnician, models.RoleValidator},
}

// Resource is anything carrying a company id. Nil means the operation has no
// tenant-scoped target (for example listing companies as root).
type Resource interface {
	TenantID() uuid.UUID
}

// Check decides whether actor may perform op on resource. It is pure and
// side-effect-free; callers re-run it on every request. Rules are evaluated
// in order: authentication, active flag, role table, tenant scope. Root
// bypasses only the tenant-scope rule.
func Check(actor *models.User, op Operation, resource Resource) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !actor.IsActive {
		return ErrDeactivated
	}

	roles, ok := allowedRoles[op]
	if !ok {
		return ErrRoleForbidden
	}
	allowed := false
	for _, r := range roles {
		if actor.Role == r {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrRoleForbidden
	}

	if resource != nil && actor.Role != models.RoleRoot {
		if resource.TenantID() != actor.TenantID() {
			return ErrTenantMismatch
		}
	}

	return nil
}

// Allowed returns the allowed-role set for an operation. Used by tests to
// assert the table is total.
func Allowed(op Operation) []models.Role {
	return allowedRoles[op]
}

// Operations lists every gated operation.
func Operations() []Operation {
	ops := make([]Operation, 0, len(allowedRoles))
	for op := range allowedRoles {
		ops = append(ops, op)
	}
	return ops
}
