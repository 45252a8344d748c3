package models

import "github.com/google/uuid"

// Discussion is a private two-party message thread. Its realtime channel is
// only authorized for the sender and the recipient.
type Discussion struct {
	Base
	CompanyID   uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	SenderID    uuid.UUID `gorm:"type:uuid;index;not null" json:"sender_id"`
	RecipientID uuid.UUID `gorm:"type:uuid;index;not null" json:"recipient_id"`
	Subject     string    `json:"subject,omitempty"`

	// Relationships
	Sender    *User               `gorm:"foreignKey:SenderID" json:"-"`
	Recipient *User               `gorm:"foreignKey:RecipientID" json:"-"`
	Messages  []DiscussionMessage `gorm:"foreignKey:DiscussionID" json:"-"`
}

func (Discussion) TableName() string {
	return "discussions"
}

func (d *Discussion) TenantID() uuid.UUID {
	return d.CompanyID
}

// Involves reports whether the user is a party to the discussion.
func (d *Discussion) Involves(userID uuid.UUID) bool {
	return d.SenderID == userID || d.RecipientID == userID
}

type DiscussionMessage struct {
	Base
	DiscussionID uuid.UUID `gorm:"type:uuid;index;not null" json:"discussion_id"`
	SenderID     uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Body         string    `gorm:"type:text;not null" json:"body"`

	// Relationships
	Discussion *Discussion `gorm:"foreignKey:DiscussionID" json:"-"`
}

func (DiscussionMessage) TableName() string {
	return "discussion_messages"
}
