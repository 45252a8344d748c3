package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeAccountCreatedEmail = "email:account_created"
	TypeSubmissionDecided   = "notify:submission_decided"
	TypeDiscussionMessage   = "notify:discussion_message"
	TypeReminderTick        = "reminder:tick"
)

// AccountCreatedPayload carries the welcome email for a provisioned account.
// The temporary password travels through the queue once and is never stored.
type AccountCreatedPayload struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	TempPassword string    `json:"temp_password"`
}

func NewAccountCreatedTask(payload AccountCreatedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAccountCreatedEmail, data), nil
}

// SubmissionDecidedPayload announces a validate/refuse decision to the
// submitter's private channel.
type SubmissionDecidedPayload struct {
	SubmissionID   uuid.UUID `json:"submission_id"`
	FormTemplateID uuid.UUID `json:"form_template_id"`
	SubmitterID    uuid.UUID `json:"submitter_id"`
	ValidatorID    uuid.UUID `json:"validator_id"`
	Event          string    `json:"event"` // submission.validated or submission.refused
}

func NewSubmissionDecidedTask(payload SubmissionDecidedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSubmissionDecided, data), nil
}

// DiscussionMessagePayload announces a new message on a discussion channel.
type DiscussionMessagePayload struct {
	DiscussionID uuid.UUID `json:"discussion_id"`
	MessageID    uuid.UUID `json:"message_id"`
	SenderID     uuid.UUID `json:"sender_id"`
}

func NewDiscussionMessageTask(payload DiscussionMessagePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDiscussionMessage, data), nil
}

// ReminderTickPayload triggers a pass over assignments with approaching due
// dates. Enqueued on a cron schedule by the worker's scheduler.
type ReminderTickPayload struct {
	LeadTimeHours int `json:"lead_time_hours"`
}

func NewReminderTickTask(payload ReminderTickPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReminderTick, data), nil
}
