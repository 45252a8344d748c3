package models

import "github.com/google/uuid"

// FormAssignment grants a technician or validator access to a template.
// Re-assigning the same pair creates a new record; each carries its own
// due date and completion flag.
type FormAssignment struct {
	Base
	FormTemplateID uuid.UUID `gorm:"type:uuid;index;not null" json:"form_template_id"`
	UserID         uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	AssignedBy     uuid.UUID `gorm:"type:uuid;not null" json:"assigned_by"`

	DueDate     *int64 `json:"due_date,omitempty"` // Unix timestamp, UTC
	IsCompleted bool   `gorm:"default:false" json:"is_completed"`

	// Relationships
	FormTemplate *FormTemplate `gorm:"foreignKey:FormTemplateID" json:"-"`
	User         *User         `gorm:"foreignKey:UserID" json:"-"`
}

func (FormAssignment) TableName() string {
	return "form_assignments"
}

// ValidatorPairing authorizes one validator to approve one technician's
// submissions against one template. No pairing means no approval right;
// the triple is unique.
type ValidatorPairing struct {
	Base
	FormTemplateID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_pairing_triple;not null" json:"form_template_id"`
	ValidatorID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_pairing_triple;not null" json:"validator_id"`
	TechnicianID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_pairing_triple;not null" json:"technician_id"`

	// Relationships
	FormTemplate *FormTemplate `gorm:"foreignKey:FormTemplateID" json:"-"`
	Validator    *User         `gorm:"foreignKey:ValidatorID" json:"-"`
	Technician   *User         `gorm:"foreignKey:TechnicianID" json:"-"`
}

func (ValidatorPairing) TableName() string {
	return "validator_pairings"
}
