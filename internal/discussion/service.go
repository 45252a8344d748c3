package discussion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/identity"
	"github.com/fieldflow/fieldflow/internal/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrDiscussionNotFound = errors.New("discussion not found")
	ErrNotParticipant     = errors.New("user is not a party to this discussion")
	ErrSelfDiscussion     = errors.New("cannot open a discussion with oneself")
	ErrEmptyBody          = errors.New("message body required")
)

// Service manages private two-party threads between company members. Messages
// fan out over the realtime bus via the notifier; only the two participants
// may read or post.
type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewService(db *gorm.DB, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{db: db, notifier: notifier, logger: logger}
}

// Open starts a thread with another member of the actor's company and posts
// the first message.
func (s *Service) Open(ctx context.Context, actor *models.User, recipientID uuid.UUID, subject, body string) (*models.Discussion, error) {
	if err := authz.Check(actor, authz.OpDiscussionParticipate, nil); err != nil {
		return nil, err
	}
	if recipientID == actor.ID {
		return nil, ErrSelfDiscussion
	}
	if body == "" {
		return nil, ErrEmptyBody
	}

	var recipient models.User
	if err := s.db.WithContext(ctx).First(&recipient, recipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, err
	}
	if recipient.TenantID() != actor.TenantID() {
		return nil, authz.ErrTenantMismatch
	}

	discussion := models.Discussion{
		CompanyID:   actor.TenantID(),
		SenderID:    actor.ID,
		RecipientID: recipient.ID,
		Subject:     subject,
	}
	var message models.DiscussionMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&discussion).Error; err != nil {
			return err
		}
		message = models.DiscussionMessage{
			DiscussionID: discussion.ID,
			SenderID:     actor.ID,
			Body:         body,
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		return nil, fmt.Errorf("opening discussion: %w", err)
	}

	s.notifier.DiscussionMessage(ctx, &message)

	return &discussion, nil
}

// Post appends a message to a thread the actor participates in.
func (s *Service) Post(ctx context.Context, actor *models.User, discussionID uuid.UUID, body string) (*models.DiscussionMessage, error) {
	if body == "" {
		return nil, ErrEmptyBody
	}

	discussion, err := s.findAuthorized(ctx, actor, discussionID)
	if err != nil {
		return nil, err
	}

	message := models.DiscussionMessage{
		DiscussionID: discussion.ID,
		SenderID:     actor.ID,
		Body:         body,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("posting message: %w", err)
	}

	s.notifier.DiscussionMessage(ctx, &message)

	return &message, nil
}

// ListForUser returns the actor's threads, most recent first.
func (s *Service) ListForUser(ctx context.Context, actor *models.User) ([]models.Discussion, error) {
	if err := authz.Check(actor, authz.OpDiscussionParticipate, nil); err != nil {
		return nil, err
	}

	var discussions []models.Discussion
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", actor.ID, actor.ID).
		Order("updated_at DESC").
		Find(&discussions).Error
	if err != nil {
		return nil, err
	}
	return discussions, nil
}

// Messages returns a thread's messages in posting order.
func (s *Service) Messages(ctx context.Context, actor *models.User, discussionID uuid.UUID) ([]models.DiscussionMessage, error) {
	if _, err := s.findAuthorized(ctx, actor, discussionID); err != nil {
		return nil, err
	}

	var messages []models.DiscussionMessage
	err := s.db.WithContext(ctx).
		Where("discussion_id = ?", discussionID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *Service) findAuthorized(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Discussion, error) {
	var discussion models.Discussion
	if err := s.db.WithContext(ctx).First(&discussion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, err
	}
	if err := authz.Check(actor, authz.OpDiscussionParticipate, &discussion); err != nil {
		return nil, err
	}
	if !discussion.Involves(actor.ID) {
		return nil, ErrNotParticipant
	}
	return &discussion, nil
}
