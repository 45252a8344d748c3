package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant boundary. Every template, assignment and submission
// belongs to exactly one company, and non-root users may never reach across it.
type Company struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	IsActive bool   `gorm:"default:true;index" json:"is_active"`
	MaxUsers int    `gorm:"default:25" json:"max_users"`

	// Relationships
	Users         []User         `gorm:"foreignKey:CompanyID" json:"-"`
	Subscriptions []Subscription `gorm:"foreignKey:CompanyID" json:"-"`
	Templates     []FormTemplate `gorm:"foreignKey:CompanyID" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}

// TenantID makes a company its own tenant-scope boundary: operations
// targeting the company itself are scoped to it.
func (c *Company) TenantID() uuid.UUID {
	return c.ID
}

// Subscription is a billing period granting a company a template budget.
// AvailableForms bounds how many templates may be active at once;
// FormsToCreate is the remaining creation budget and only ever decreases.
type Subscription struct {
	Base
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`

	AvailableForms int `gorm:"not null" json:"available_forms"`
	FormsToCreate  int `gorm:"not null" json:"forms_to_create"`

	StartsAt time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt   time.Time `gorm:"not null;index" json:"ends_at"`

	// Relationships
	Company *Company `gorm:"foreignKey:CompanyID" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Covers reports whether the subscription window contains the given instant.
func (s *Subscription) Covers(now time.Time) bool {
	return !now.Before(s.StartsAt) && !now.After(s.EndsAt)
}
