package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/assignment"
	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/catalog"
	"github.com/fieldflow/fieldflow/internal/discussion"
	"github.com/fieldflow/fieldflow/internal/identity"
	"github.com/fieldflow/fieldflow/internal/submission"
	"github.com/fieldflow/fieldflow/internal/tenant"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP statuses. Every handler funnels
// service errors through here so a given failure always reads the same on
// the wire.
func statusFor(err error) int {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, authz.ErrDeactivated),
		errors.Is(err, authz.ErrRoleForbidden),
		errors.Is(err, authz.ErrTenantMismatch),
		errors.Is(err, auth.ErrInactiveUser),
		errors.Is(err, submission.ErrPairingRequired),
		errors.Is(err, submission.ErrNotOwner),
		errors.Is(err, submission.ErrNotAssigned),
		errors.Is(err, discussion.ErrNotParticipant):
		return http.StatusForbidden

	case errors.Is(err, tenant.ErrCompanyNotFound),
		errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, catalog.ErrTemplateNotFound),
		errors.Is(err, assignment.ErrAssignmentNotFound),
		errors.Is(err, assignment.ErrUserNotFound),
		errors.Is(err, submission.ErrSubmissionNotFound),
		errors.Is(err, discussion.ErrDiscussionNotFound):
		return http.StatusNotFound

	case errors.Is(err, tenant.ErrNoActiveSubscription),
		errors.Is(err, tenant.ErrQuotaExhausted),
		errors.Is(err, tenant.ErrSeatLimitReached),
		errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, identity.ErrSeatLimit),
		errors.Is(err, assignment.ErrDuplicatePairing),
		errors.Is(err, submission.ErrStateConflict),
		errors.Is(err, submission.ErrImmutableState):
		return http.StatusConflict

	case errors.Is(err, catalog.ErrSchemaInvalid),
		errors.Is(err, submission.ErrDataInvalid),
		errors.Is(err, submission.ErrTemplateInactive),
		errors.Is(err, assignment.ErrNotAssignable),
		errors.Is(err, assignment.ErrInvalidPairing),
		errors.Is(err, identity.ErrInvalidRole),
		errors.Is(err, identity.ErrCompanyRequired),
		errors.Is(err, catalog.ErrCompanyRequired),
		errors.Is(err, discussion.ErrSelfDiscussion),
		errors.Is(err, discussion.ErrEmptyBody):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
