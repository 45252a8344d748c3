package dashboard

import (
	"context"
	"log/slog"

	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"gorm.io/gorm"
)

// Stats is the per-user activity summary shown on the collaborator
// dashboard.
type Stats struct {
	AssignedTemplates int64 `json:"assigned_templates"`
	OpenAssignments   int64 `json:"open_assignments"`
	Drafts            int64 `json:"drafts"`
	Submitted         int64 `json:"submitted"`
	Validated         int64 `json:"validated"`
	Refused           int64 `json:"refused"`

	// Validator-only: submissions awaiting this validator's decision.
	AwaitingDecision int64 `json:"awaiting_decision,omitempty"`
}

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// StatsFor aggregates the actor's counts. Validators additionally see how
// many submitted forms from their paired technicians are waiting on them.
func (s *Service) StatsFor(ctx context.Context, actor *models.User) (*Stats, error) {
	if err := authz.Check(actor, authz.OpDashboardView, nil); err != nil {
		return nil, err
	}

	var stats Stats
	db := s.db.WithContext(ctx)

	err := db.Model(&models.FormAssignment{}).
		Where("user_id = ?", actor.ID).
		Distinct("form_template_id").
		Count(&stats.AssignedTemplates).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.FormAssignment{}).
		Where("user_id = ? AND is_completed = ?", actor.ID, false).
		Count(&stats.OpenAssignments).Error
	if err != nil {
		return nil, err
	}

	counts := []struct {
		status models.SubmissionStatus
		dest   *int64
	}{
		{models.SubmissionStatusDraft, &stats.Drafts},
		{models.SubmissionStatusSubmitted, &stats.Submitted},
		{models.SubmissionStatusValidated, &stats.Validated},
		{models.SubmissionStatusRefused, &stats.Refused},
	}
	for _, c := range counts {
		err := db.Model(&models.FormSubmission{}).
			Where("submitter_id = ? AND status = ?", actor.ID, c.status).
			Count(c.dest).Error
		if err != nil {
			return nil, err
		}
	}

	if actor.Role == models.RoleValidator {
		err := db.Model(&models.FormSubmission{}).
			Joins("JOIN validator_pairings vp ON vp.form_template_id = form_submissions.form_template_id AND vp.technician_id = form_submissions.submitter_id").
			Where("vp.validator_id = ? AND form_submissions.status = ?", actor.ID, models.SubmissionStatusSubmitted).
			Count(&stats.AwaitingDecision).Error
		if err != nil {
			return nil, err
		}
	}

	return &stats, nil
}
