package response

import (
	"errors"
	"net/http"

	"github.com/wecare/escalas-backend/internal/domain/auth"
	"github.com/wecare/escalas-backend/internal/domain/checkin"
	"github.com/wecare/escalas-backend/internal/domain/establishment"
	"github.com/wecare/escalas-backend/internal/domain/notification"
	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/pkg/geo"
	"github.com/wecare/escalas-backend/internal/pkg/position"
	"github.com/wecare/escalas-backend/internal/pkg/validator"
)

// detailer is implemented by errors that carry structured context for clients.
type detailer interface {
	Details() map[string]string
}

func detailsOf(err error) map[string]string {
	var d detailer
	if errors.As(err, &d) {
		return d.Details()
	}
	return nil
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, user.ErrMissingIdentity):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, "Token revoked")

	// Permissions
	case errors.Is(err, user.ErrAdministratorRequired),
		errors.Is(err, user.ErrSupervisorAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, checkin.ErrNotAssigned),
		errors.Is(err, shift.ErrOverrideForbidden):
		Forbidden(w, err.Error())

	// Position and geofence
	case errors.Is(err, geo.ErrInvalidCoordinates),
		errors.Is(err, establishment.ErrPositionNotRecorded):
		ValidationError(w, map[string]string{"position": err.Error()})
	case errors.Is(err, position.ErrPermissionDenied):
		Forbidden(w, "Location permission denied")
	case errors.Is(err, position.ErrUnavailable):
		ServiceUnavailable(w, "Location unavailable")
	case errors.Is(err, position.ErrTimedOut):
		GatewayTimeout(w, "Timed out acquiring location")
	case errors.Is(err, position.ErrStale):
		BadRequest(w, err.Error(), nil)

	// Check-in
	case errors.Is(err, checkin.ErrWindowRejected):
		BadRequest(w, "Check-in is outside the allowed time window", detailsOf(err))
	case errors.Is(err, checkin.ErrDuplicateCheckIn):
		Conflict(w, "Check-in already recorded for this shift", nil)
	case errors.Is(err, checkin.ErrCheckInNotFound):
		NotFound(w, "Check-in not found")
	case errors.Is(err, checkin.ErrInvalidStatus):
		ValidationError(w, map[string]string{"status": err.Error()})

	// Escalas
	case errors.Is(err, shift.ErrConflictDetected):
		Conflict(w, "Person already has an overlapping shift on this date", detailsOf(err))
	case errors.Is(err, shift.ErrAlreadyAssigned):
		Conflict(w, "Person is already assigned to this shift", nil)
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, shift.ErrAssignmentNotFound):
		NotFound(w, "Assignment not found")
	case errors.Is(err, user.ErrPersonNotFound):
		NotFound(w, "Person not found")

	// Establishments
	case errors.Is(err, establishment.ErrEstablishmentNotFound):
		NotFound(w, "Establishment not found")
	case errors.Is(err, establishment.ErrSectorNotFound):
		NotFound(w, "Sector not found")
	case errors.Is(err, establishment.ErrEstablishmentInactive):
		BadRequest(w, "Establishment is inactive", nil)
	case errors.Is(err, establishment.ErrInvalidRadius):
		ValidationError(w, map[string]string{"check_in_radius": err.Error()})

	// Notifications
	case errors.Is(err, notification.ErrInvalidKind),
		errors.Is(err, notification.ErrMissingRecipient):
		ValidationError(w, map[string]string{"notification": err.Error()})
	case errors.Is(err, notification.ErrServiceClosed):
		ServiceUnavailable(w, "Notification service is shutting down")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
