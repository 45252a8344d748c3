package notify

import (
	"context"
	"log/slog"

	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/tasks"
	"github.com/hibiken/asynq"
)

// Notifier dispatches side effects triggered by successful core transitions.
// Every method is fire-and-forget: failures are logged and never retried,
// and they never affect the state change that triggered them.
type Notifier interface {
	AccountCreated(ctx context.Context, user *models.User, tempPassword string)
	SubmissionDecided(ctx context.Context, submission *models.FormSubmission, validator *models.User, event string)
	DiscussionMessage(ctx context.Context, message *models.DiscussionMessage)
}

// Queue enqueues notification tasks on asynq. Tasks are enqueued with zero
// retries; a dropped notification is acceptable, a duplicated one is not.
type Queue struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewQueue(client *asynq.Client, logger *slog.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

func (q *Queue) enqueue(task *asynq.Task, err error) {
	if err != nil {
		q.logger.Error("building notification task", "error", err)
		return
	}
	if q.client == nil {
		q.logger.Debug("notification skipped, queue unavailable", "type", task.Type())
		return
	}
	if _, err := q.client.Enqueue(task, asynq.MaxRetry(0), asynq.Queue("low")); err != nil {
		q.logger.Error("enqueueing notification", "type", task.Type(), "error", err)
	}
}

func (q *Queue) AccountCreated(ctx context.Context, user *models.User, tempPassword string) {
	q.enqueue(tasks.NewAccountCreatedTask(tasks.AccountCreatedPayload{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		TempPassword: tempPassword,
	}))
}

func (q *Queue) SubmissionDecided(ctx context.Context, submission *models.FormSubmission, validator *models.User, event string) {
	q.enqueue(tasks.NewSubmissionDecidedTask(tasks.SubmissionDecidedPayload{
		SubmissionID:   submission.ID,
		FormTemplateID: submission.FormTemplateID,
		SubmitterID:    submission.SubmitterID,
		ValidatorID:    validator.ID,
		Event:          event,
	}))
}

func (q *Queue) DiscussionMessage(ctx context.Context, message *models.DiscussionMessage) {
	q.enqueue(tasks.NewDiscussionMessageTask(tasks.DiscussionMessagePayload{
		DiscussionID: message.DiscussionID,
		MessageID:    message.ID,
		SenderID:     message.SenderID,
	}))
}

// Nop discards all notifications. Used in tests.
type Nop struct{}

func (Nop) AccountCreated(ctx context.Context, user *models.User, tempPassword string) {}
func (Nop) SubmissionDecided(ctx context.Context, submission *models.FormSubmission, validator *models.User, event string) {
}
func (Nop) DiscussionMessage(ctx context.Context, message *models.DiscussionMessage) {}

var (
	_ Notifier = (*Queue)(nil)
	_ Notifier = Nop{}
)
