package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/notify"
	"github.com/fieldflow/fieldflow/internal/tenant"
	"github.com/fieldflow/fieldflow/pkg/crypto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrInvalidRole     = errors.New("invalid role for this operation")
	ErrCompanyRequired = errors.New("company required for non-root user")
	ErrSeatLimit       = errors.New("company user limit reached")
)

const tempPasswordLength = 16

// Service provisions and manages accounts. Root creates administrators,
// administrators create technicians and validators in their own company.
// Accounts are deactivated, never hard-deleted, while anything references
// them.
type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewService(db *gorm.DB, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{db: db, notifier: notifier, logger: logger}
}

type CreateUserInput struct {
	Email     string
	Name      string
	Role      models.Role
	CompanyID uuid.UUID // ignored for administrators created by admins; admins provision into their own company
}

// Create provisions an account with a generated temporary password and
// dispatches the welcome notification. The notification is best-effort; the
// account exists regardless of its fate.
func (s *Service) Create(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error) {
	if err := authz.Check(actor, authz.OpCollaboratorManage, nil); err != nil {
		return nil, err
	}
	if !input.Role.Valid() || input.Role == models.RoleRoot {
		return nil, ErrInvalidRole
	}

	var companyID uuid.UUID
	switch input.Role {
	case models.RoleAdministrator:
		// Only root provisions administrators.
		if err := authz.Check(actor, authz.OpCompanyManage, nil); err != nil {
			return nil, err
		}
		companyID = input.CompanyID
	default:
		if actor.Role == models.RoleRoot {
			companyID = input.CompanyID
		} else {
			companyID = actor.TenantID()
		}
	}
	if companyID == uuid.Nil {
		return nil, ErrCompanyRequired
	}

	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenant.ErrCompanyNotFound
		}
		return nil, err
	}
	if err := authz.Check(actor, authz.OpCollaboratorManage, &company); err != nil {
		return nil, err
	}

	var seats int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("company_id = ?", companyID).Count(&seats).Error; err != nil {
		return nil, err
	}
	if seats >= int64(company.MaxUsers) {
		return nil, ErrSeatLimit
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	tempPassword, err := crypto.GenerateRandomString(tempPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generating temporary password: %w", err)
	}
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		CompanyID:    &companyID,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.notifier.AccountCreated(ctx, &user, tempPassword)

	return &user, nil
}

// List returns the collaborators visible to the actor: root sees any company
// it asks for, administrators see their own.
func (s *Service) List(ctx context.Context, actor *models.User, companyID uuid.UUID) ([]models.User, error) {
	if actor != nil && actor.Role != models.RoleRoot {
		companyID = actor.TenantID()
	}
	company := models.Company{Base: models.Base{ID: companyID}}
	if err := authz.Check(actor, authz.OpCollaboratorRead, &company); err != nil {
		return nil, err
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpCollaboratorRead, user); err != nil {
		return nil, err
	}
	return user, nil
}

type UpdateUserInput struct {
	Name  *string
	Email *string
}

func (s *Service) Update(ctx context.Context, actor *models.User, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpCollaboratorManage, user); err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

func (s *Service) Deactivate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return s.setActive(ctx, actor, id, false)
}

func (s *Service) Activate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return s.setActive(ctx, actor, id, true)
}

// Delete soft-deletes a collaborator. Submissions and assignments keep their
// references; the row stays behind its deleted_at marker.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Check(actor, authz.OpCollaboratorManage, user); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(user).Error
}

func (s *Service) setActive(ctx context.Context, actor *models.User, id uuid.UUID, active bool) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Check(actor, authz.OpCollaboratorManage, user); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("is_active", active).Error
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
