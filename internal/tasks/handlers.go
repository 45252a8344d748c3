package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/realtime"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Mailer delivers transactional email. The production implementation lives
// outside this repository; LogMailer stands in for development and tests.
type Mailer interface {
	SendAccountCreated(ctx context.Context, email, name, tempPassword string) error
}

// LogMailer writes the mail to the log instead of sending it.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendAccountCreated(ctx context.Context, email, name, tempPassword string) error {
	m.Logger.Info("account created mail",
		"to", email,
		"name", name,
	)
	return nil
}

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	bus    realtime.Bus
	mailer Mailer
}

func NewHandler(db *gorm.DB, logger *slog.Logger, bus realtime.Bus, mailer Mailer) *Handler {
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	return &Handler{db: db, logger: logger, bus: bus, mailer: mailer}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeAccountCreatedEmail, h.HandleAccountCreatedEmail)
	mux.HandleFunc(TypeSubmissionDecided, h.HandleSubmissionDecided)
	mux.HandleFunc(TypeDiscussionMessage, h.HandleDiscussionMessage)
	mux.HandleFunc(TypeReminderTick, h.HandleReminderTick)
}

func (h *Handler) HandleAccountCreatedEmail(ctx context.Context, t *asynq.Task) error {
	var payload AccountCreatedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := h.mailer.SendAccountCreated(ctx, payload.Email, payload.Name, payload.TempPassword); err != nil {
		h.logger.Error("sending account created mail", "user_id", payload.UserID, "error", err)
		return nil // best-effort, no retry
	}

	if err := h.bus.Publish(ctx, realtime.UserChannel(payload.UserID), realtime.EventAccountCreated, map[string]any{
		"user_id": payload.UserID,
	}); err != nil {
		h.logger.Error("publishing account created event", "error", err)
	}
	return nil
}

func (h *Handler) HandleSubmissionDecided(ctx context.Context, t *asynq.Task) error {
	var payload SubmissionDecidedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("broadcasting submission decision",
		"submission_id", payload.SubmissionID,
		"event", payload.Event,
	)

	err := h.bus.Publish(ctx, realtime.UserChannel(payload.SubmitterID), payload.Event, map[string]any{
		"submission_id":    payload.SubmissionID,
		"form_template_id": payload.FormTemplateID,
		"validated_by":     payload.ValidatorID,
	})
	if err != nil {
		h.logger.Error("publishing submission decision", "error", err)
	}
	return nil
}

func (h *Handler) HandleDiscussionMessage(ctx context.Context, t *asynq.Task) error {
	var payload DiscussionMessagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	err := h.bus.Publish(ctx, realtime.DiscussionChannel(payload.DiscussionID), realtime.EventNewMessage, map[string]any{
		"discussion_id": payload.DiscussionID,
		"message_id":    payload.MessageID,
		"sender_id":     payload.SenderID,
	})
	if err != nil {
		h.logger.Error("publishing discussion message", "error", err)
	}
	return nil
}

// HandleReminderTick notifies collaborators whose assignments come due within
// the configured lead time. Runs on the worker's cron schedule.
func (h *Handler) HandleReminderTick(ctx context.Context, t *asynq.Task) error {
	var payload ReminderTickPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.LeadTimeHours <= 0 {
		payload.LeadTimeHours = 24
	}

	now := time.Now().UTC()
	horizon := now.Add(time.Duration(payload.LeadTimeHours) * time.Hour)

	var due []models.FormAssignment
	err := h.db.WithContext(ctx).
		Where("is_completed = ?", false).
		Where("due_date IS NOT NULL AND due_date BETWEEN ? AND ?", now.Unix(), horizon.Unix()).
		Find(&due).Error
	if err != nil {
		return fmt.Errorf("loading due assignments: %w", err)
	}

	for i := range due {
		a := &due[i]
		err := h.bus.Publish(ctx, realtime.UserChannel(a.UserID), realtime.EventAssignmentDue, map[string]any{
			"assignment_id":    a.ID,
			"form_template_id": a.FormTemplateID,
			"due_date":         a.DueDate,
		})
		if err != nil {
			h.logger.Error("publishing due reminder", "assignment_id", a.ID, "error", err)
		}
	}

	h.logger.Info("reminder tick complete", "due_assignments", len(due))
	return nil
}
