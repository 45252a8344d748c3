package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/catalog"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotAssignable      = errors.New("user cannot receive assignments")
	ErrInvalidPairing     = errors.New("pairing roles do not match")
	ErrDuplicatePairing   = errors.New("pairing already exists")
)

// Service is the assignment graph: which collaborators work a template, and
// which validator may approve which technician's submissions on it.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type AssignInput struct {
	FormTemplateID uuid.UUID
	UserID         uuid.UUID
	DueDate        *int64
}

// Assign binds a technician or validator to a template. Repeated assignment
// of the same pair is allowed; each record stands for a fresh assignment with
// its own due date.
func (s *Service) Assign(ctx context.Context, actor *models.User, input AssignInput) (*models.FormAssignment, error) {
	template, err := s.findTemplate(ctx, input.FormTemplateID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpAssignmentManage, template); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Role.Collaborator() {
		return nil, ErrNotAssignable
	}
	if user.TenantID() != template.CompanyID {
		return nil, authz.ErrTenantMismatch
	}

	assignment := models.FormAssignment{
		FormTemplateID: template.ID,
		UserID:         user.ID,
		AssignedBy:     actor.ID,
		DueDate:        input.DueDate,
	}
	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return nil, fmt.Errorf("creating assignment: %w", err)
	}
	return &assignment, nil
}

// PairValidator authorizes a validator to approve a technician's submissions
// on a template. The triple is unique; re-pairing is an error.
func (s *Service) PairValidator(ctx context.Context, actor *models.User, templateID, validatorID, technicianID uuid.UUID) (*models.ValidatorPairing, error) {
	template, err := s.findTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpAssignmentManage, template); err != nil {
		return nil, err
	}

	validator, err := s.findUser(ctx, validatorID)
	if err != nil {
		return nil, err
	}
	technician, err := s.findUser(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if validator.Role != models.RoleValidator || technician.Role != models.RoleTechnician {
		return nil, ErrInvalidPairing
	}
	if validator.TenantID() != template.CompanyID || technician.TenantID() != template.CompanyID {
		return nil, authz.ErrTenantMismatch
	}

	var pairing models.ValidatorPairing
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.ValidatorPairing{}).
			Where("form_template_id = ? AND validator_id = ? AND technician_id = ?",
				templateID, validatorID, technicianID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicatePairing
		}

		pairing = models.ValidatorPairing{
			FormTemplateID: templateID,
			ValidatorID:    validatorID,
			TechnicianID:   technicianID,
		}
		return tx.Create(&pairing).Error
	})
	if err != nil {
		return nil, err
	}
	return &pairing, nil
}

// IsPaired reports whether the validator may decide the technician's
// submissions on the template. Used by the submission lifecycle; no pairing
// record means no authority.
func (s *Service) IsPaired(ctx context.Context, templateID, validatorID, technicianID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ValidatorPairing{}).
		Where("form_template_id = ? AND validator_id = ? AND technician_id = ?",
			templateID, validatorID, technicianID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListForTemplate returns every assignment on a template.
func (s *Service) ListForTemplate(ctx context.Context, actor *models.User, templateID uuid.UUID) ([]models.FormAssignment, error) {
	template, err := s.findTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpAssignmentRead, template); err != nil {
		return nil, err
	}

	var assignments []models.FormAssignment
	err = s.db.WithContext(ctx).
		Where("form_template_id = ?", templateID).
		Order("created_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListForUser returns the actor's own assignments.
func (s *Service) ListForUser(ctx context.Context, actor *models.User) ([]models.FormAssignment, error) {
	if err := authz.Check(actor, authz.OpAssignmentRead, nil); err != nil {
		return nil, err
	}

	var assignments []models.FormAssignment
	err := s.db.WithContext(ctx).
		Preload("FormTemplate").
		Where("user_id = ?", actor.ID).
		Order("created_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// Complete marks an assignment as done.
func (s *Service) Complete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	var assignment models.FormAssignment
	if err := s.db.WithContext(ctx).Preload("FormTemplate").First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if err := authz.Check(actor, authz.OpAssignmentManage, assignment.FormTemplate); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&assignment).Update("is_completed", true).Error
}

// HasAssignment reports whether the user holds an open assignment on the
// template. Completed assignments no longer authorize new submissions; the
// submission lifecycle uses this to gate creation.
func (s *Service) HasAssignment(ctx context.Context, templateID, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FormAssignment{}).
		Where("form_template_id = ? AND user_id = ? AND is_completed = ?", templateID, userID, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) findTemplate(ctx context.Context, id uuid.UUID) (*models.FormTemplate, error) {
	var template models.FormTemplate
	if err := s.db.WithContext(ctx).First(&template, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}

func (s *Service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
