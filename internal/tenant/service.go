package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrQuotaExhausted       = errors.New("template creation budget exhausted")
	ErrSeatLimitReached     = errors.New("active template limit reached")
)

// Service owns companies and their subscription windows. All operations are
// root-gated; quota reservation is exported for the template catalog's
// creation transaction.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type CreateCompanyInput struct {
	Name     string
	MaxUsers int
}

type SubscriptionInput struct {
	AvailableForms int
	FormsToCreate  int
	StartsAt       time.Time
	EndsAt         time.Time
}

func (s *Service) Create(ctx context.Context, actor *models.User, input CreateCompanyInput) (*models.Company, error) {
	if err := authz.Check(actor, authz.OpCompanyManage, nil); err != nil {
		return nil, err
	}

	company := models.Company{
		Name:     input.Name,
		Slug:     generateSlug(input.Name),
		IsActive: true,
		MaxUsers: input.MaxUsers,
	}
	if company.MaxUsers <= 0 {
		company.MaxUsers = 25
	}

	if err := s.db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, fmt.Errorf("creating company: %w", err)
	}
	return &company, nil
}

func (s *Service) List(ctx context.Context, actor *models.User) ([]models.Company, error) {
	if err := authz.Check(actor, authz.OpCompanyRead, nil); err != nil {
		return nil, err
	}

	var companies []models.Company
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Company, error) {
	if err := authz.Check(actor, authz.OpCompanyRead, nil); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

type UpdateCompanyInput struct {
	Name     *string
	MaxUsers *int
}

func (s *Service) Update(ctx context.Context, actor *models.User, id uuid.UUID, input UpdateCompanyInput) (*models.Company, error) {
	if err := authz.Check(actor, authz.OpCompanyManage, nil); err != nil {
		return nil, err
	}

	company, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		company.Name = *input.Name
	}
	if input.MaxUsers != nil {
		company.MaxUsers = *input.MaxUsers
	}
	if err := s.db.WithContext(ctx).Save(company).Error; err != nil {
		return nil, fmt.Errorf("updating company: %w", err)
	}
	return company, nil
}

// Deactivate soft-disables the company and every user in it. Templates and
// submissions are left untouched and remain queryable.
func (s *Service) Deactivate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := authz.Check(actor, authz.OpCompanyManage, nil); err != nil {
		return err
	}

	company, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(company).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("company_id = ?", company.ID).
			Update("is_active", false).Error
	})
}

// Activate re-enables the company and its users.
func (s *Service) Activate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := authz.Check(actor, authz.OpCompanyManage, nil); err != nil {
		return err
	}

	company, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(company).Update("is_active", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("company_id = ?", company.ID).
			Update("is_active", true).Error
	})
}

func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := authz.Check(actor, authz.OpCompanyManage, nil); err != nil {
		return err
	}

	company, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(company).Error
}

// AddSubscription opens a new quota window for the company.
func (s *Service) AddSubscription(ctx context.Context, actor *models.User, companyID uuid.UUID, input SubscriptionInput) (*models.Subscription, error) {
	if err := authz.Check(actor, authz.OpCompanyManage, nil); err != nil {
		return nil, err
	}

	if _, err := s.find(ctx, companyID); err != nil {
		return nil, err
	}

	sub := models.Subscription{
		CompanyID:      companyID,
		AvailableForms: input.AvailableForms,
		FormsToCreate:  input.FormsToCreate,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("creating subscription: %w", err)
	}
	return &sub, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return &company, nil
}

// ReserveTemplateSlot consumes one unit of the company's template creation
// budget inside the caller's transaction. The decrement is guarded so that a
// concurrent reservation on the same subscription cannot push the budget
// below zero, and a rolled-back template creation returns the unit.
func ReserveTemplateSlot(tx *gorm.DB, companyID uuid.UUID, now time.Time) error {
	var sub models.Subscription
	err := tx.
		Where("company_id = ?", companyID).
		Where("starts_at <= ? AND ends_at >= ?", now, now).
		Order("ends_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveSubscription
		}
		return err
	}

	if sub.FormsToCreate <= 0 {
		return ErrQuotaExhausted
	}

	var active int64
	err = tx.Model(&models.FormTemplate{}).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Count(&active).Error
	if err != nil {
		return err
	}
	if active >= int64(sub.AvailableForms) {
		return ErrSeatLimitReached
	}

	res := tx.Model(&models.Subscription{}).
		Where("id = ? AND forms_to_create > 0", sub.ID).
		UpdateColumn("forms_to_create", gorm.Expr("forms_to_create - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "'", "")
	// Add timestamp to ensure uniqueness
	return slug + "-" + time.Now().Format("0601021504")
}
