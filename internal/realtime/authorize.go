package realtime

import (
	"context"
	"errors"

	"github.com/fieldflow/fieldflow/internal/database/models"
	"gorm.io/gorm"
)

// Authorizer decides channel subscription requests against the private
// channel contract: a user channel belongs to exactly one user, a discussion
// channel to the discussion's sender and recipient.
type Authorizer struct {
	db *gorm.DB
}

func NewAuthorizer(db *gorm.DB) *Authorizer {
	return &Authorizer{db: db}
}

func (a *Authorizer) AuthorizeChannel(ctx context.Context, user *models.User, channel string) (bool, error) {
	if user == nil || !user.IsActive {
		return false, nil
	}

	kind, id, ok := ParseChannel(channel)
	if !ok {
		return false, nil
	}

	switch kind {
	case "user":
		return id == user.ID, nil
	case "discussion":
		var discussion models.Discussion
		if err := a.db.WithContext(ctx).First(&discussion, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		return discussion.Involves(user.ID), nil
	}
	return false, nil
}
