package models

import "github.com/google/uuid"

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSelect,
		FieldTypeTextarea, FieldTypeCheckbox, FieldTypeRadio:
		return true
	}
	return false
}

// NeedsOptions reports whether the field type requires a non-empty option list.
func (t FieldType) NeedsOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeCheckbox || t == FieldTypeRadio
}

// FieldDefinition is one entry in a template's ordered field schema.
// The ID is unique within its template and keys the submitted values.
type FieldDefinition struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// FormTemplate is a reusable, versionless field schema owned by a company.
type FormTemplate struct {
	Base
	CompanyID   uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`

	Fields []FieldDefinition `gorm:"serializer:json" json:"fields"`

	// Relationships
	Company     *Company         `gorm:"foreignKey:CompanyID" json:"-"`
	Assignments []FormAssignment `gorm:"foreignKey:FormTemplateID" json:"-"`
	Submissions []FormSubmission `gorm:"foreignKey:FormTemplateID" json:"-"`
}

func (FormTemplate) TableName() string {
	return "form_templates"
}

func (t *FormTemplate) TenantID() uuid.UUID {
	return t.CompanyID
}

// Field returns the definition with the given id, or nil.
func (t *FormTemplate) Field(id string) *FieldDefinition {
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return &t.Fields[i]
		}
	}
	return nil
}
