package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrSchemaInvalid    = errors.New("invalid template schema")
	ErrCompanyRequired  = errors.New("company required")
)

// Service is the template catalog. Creation is gated by the company's
// subscription quota; deletion cascades explicitly over every owned record.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type CreateTemplateInput struct {
	Title       string
	Description string
	Fields      []models.FieldDefinition
	CompanyID   uuid.UUID // required for root actors, ignored otherwise
}

// Create validates the field schema, reserves a quota slot and stores the
// template in one transaction. A failed creation never consumes budget.
func (s *Service) Create(ctx context.Context, actor *models.User, input CreateTemplateInput) (*models.FormTemplate, error) {
	companyID := input.CompanyID
	if actor != nil && actor.Role != models.RoleRoot {
		companyID = actor.TenantID()
	}
	if companyID == uuid.Nil {
		return nil, ErrCompanyRequired
	}

	company := models.Company{Base: models.Base{ID: companyID}}
	if err := authz.Check(actor, authz.OpTemplateCreate, &company); err != nil {
		return nil, err
	}

	if err := ValidateSchema(input.Fields); err != nil {
		return nil, err
	}

	template := models.FormTemplate{
		CompanyID:   companyID,
		CreatedBy:   actor.ID,
		Title:       input.Title,
		Description: input.Description,
		IsActive:    true,
		Fields:      input.Fields,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tenant.ReserveTemplateSlot(tx, companyID, time.Now().UTC()); err != nil {
			return err
		}
		return tx.Create(&template).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("template created",
		"template_id", template.ID,
		"company_id", companyID,
		"fields", len(template.Fields),
	)
	return &template, nil
}

// ValidateSchema enforces the field schema rules: unique ids, recognized
// types, and a non-empty option list on choice fields.
func ValidateSchema(fields []models.FieldDefinition) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: at least one field required", ErrSchemaInvalid)
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.ID == "" {
			return fmt.Errorf("%w: field id required", ErrSchemaInvalid)
		}
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate field id %q", ErrSchemaInvalid, f.ID)
		}
		seen[f.ID] = true

		if !f.Type.Valid() {
			return fmt.Errorf("%w: unknown field type %q", ErrSchemaInvalid, f.Type)
		}
		if f.Type.NeedsOptions() && len(f.Options) == 0 {
			return fmt.Errorf("%w: field %q requires options", ErrSchemaInvalid, f.ID)
		}
		if !f.Type.NeedsOptions() && len(f.Options) > 0 {
			return fmt.Errorf("%w: field %q does not take options", ErrSchemaInvalid, f.ID)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, actor *models.User, companyID uuid.UUID) ([]models.FormTemplate, error) {
	if actor != nil && actor.Role != models.RoleRoot {
		companyID = actor.TenantID()
	}
	company := models.Company{Base: models.Base{ID: companyID}}
	if err := authz.Check(actor, authz.OpTemplateRead, &company); err != nil {
		return nil, err
	}

	var templates []models.FormTemplate
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.FormTemplate, error) {
	template, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpTemplateRead, template); err != nil {
		return nil, err
	}
	return template, nil
}

// Deactivate soft-disables the template. Existing submissions and
// assignments stay valid and queryable; new submissions are refused.
func (s *Service) Deactivate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	template, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Check(actor, authz.OpTemplateDelete, template); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(template).Update("is_active", false).Error
}

// Delete removes the template and everything hanging off it: submissions,
// assignments and validator pairings. The traversal is explicit and ordered
// rather than delegated to storage-engine cascade rules, and it is
// irreversible.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	template, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Check(actor, authz.OpTemplateDelete, template); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("form_template_id = ?", id).Delete(&models.ValidatorPairing{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("form_template_id = ?", id).Delete(&models.FormAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("form_template_id = ?", id).Delete(&models.FormSubmission{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(template).Error
	})
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}

	s.logger.Info("template deleted", "template_id", id, "company_id", template.CompanyID)
	return nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.FormTemplate, error) {
	var template models.FormTemplate
	if err := s.db.WithContext(ctx).First(&template, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}
