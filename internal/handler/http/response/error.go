package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/domain/user"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidClaims):
		Unauthorized(w, "Invalid token claims")
	case errors.Is(err, attendance.ErrInvalidStreamToken):
		Unauthorized(w, "Invalid stream token")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrEmployeeMismatch):
		Forbidden(w, "Cannot access attendance of another employee")
	case errors.Is(err, attendance.ErrEmployeeIDMissing):
		Forbidden(w, "Account is not linked to an employee")
	case errors.Is(err, attendance.ErrSourceReadOnly):
		Conflict(w, "Attendance source is read-only")
	case errors.Is(err, attendance.ErrInvalidPunchType):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrUpstream):
		slog.Error("Attendance source unavailable", "error", err)
		BadGateway(w, "Failed to fetch attendance data")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
