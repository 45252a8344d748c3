package models

import "github.com/google/uuid"

type SubmissionStatus string

const (
	SubmissionStatusDraft     SubmissionStatus = "draft"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusValidated SubmissionStatus = "validated"
	SubmissionStatusRefused   SubmissionStatus = "refused"
)

// Terminal reports whether no further transition may leave this status.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionStatusValidated || s == SubmissionStatusRefused
}

// FormSubmission is one instance of collected data against a template.
// Status only moves draft -> submitted -> {validated, refused}; every
// transition is a compare-and-swap on the stored status.
type FormSubmission struct {
	Base
	FormTemplateID uuid.UUID `gorm:"type:uuid;index;not null" json:"form_template_id"`
	CompanyID      uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	SubmitterID    uuid.UUID `gorm:"type:uuid;index;not null" json:"submitter_id"`

	Status   SubmissionStatus `gorm:"not null;index;default:'draft'" json:"status"`
	FormData map[string]any   `gorm:"serializer:json" json:"form_data"`

	// Age-encrypted GPS trace of the field worker; opaque to queries.
	LocationData string `json:"-"`

	SubmittedAt int64      `json:"submitted_at,omitempty"`
	ValidatedBy *uuid.UUID `gorm:"type:uuid" json:"validated_by,omitempty"`
	ValidatedAt int64      `json:"validated_at,omitempty"`

	// Relationships
	FormTemplate *FormTemplate `gorm:"foreignKey:FormTemplateID" json:"-"`
	Submitter    *User         `gorm:"foreignKey:SubmitterID" json:"-"`
}

func (FormSubmission) TableName() string {
	return "form_submissions"
}

func (s *FormSubmission) TenantID() uuid.UUID {
	return s.CompanyID
}
