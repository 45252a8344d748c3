package models

import "github.com/google/uuid"

type Role string

const (
	RoleRoot          Role = "root"
	RoleAdministrator Role = "administrator"
	RoleTechnician    Role = "technician"
	RoleValidator     Role = "validator"
)

// Collaborator reports whether the role is a field-level role that can
// receive template assignments.
func (r Role) Collaborator() bool {
	return r == RoleTechnician || r == RoleValidator
}

func (r Role) Valid() bool {
	switch r {
	case RoleRoot, RoleAdministrator, RoleTechnician, RoleValidator:
		return true
	}
	return false
}

// User is an account inside a company. Root users are company-less
// superusers (CompanyID is nil) and bypass tenant scoping.
type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `json:"name"`
	CompanyID    *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	Role         Role       `gorm:"not null;index" json:"role"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`

	// Relationships
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// TenantID implements the tenant-scope contract used by the authorization
// guard. Root users return uuid.Nil.
func (u *User) TenantID() uuid.UUID {
	if u.CompanyID == nil {
		return uuid.Nil
	}
	return *u.CompanyID
}
