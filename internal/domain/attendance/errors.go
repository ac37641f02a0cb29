package attendance

import "errors"

// Attendance domain errors
var (
	// Record errors
	ErrRecordNotFound = errors.New("attendance record not found")

	// Source errors
	ErrSourceReadOnly = errors.New("attendance source does not accept new punches")
	ErrUpstream       = errors.New("failed to fetch punches from attendance source")

	// Access errors
	ErrEmployeeMismatch   = errors.New("cannot access attendance of another employee")
	ErrEmployeeIDMissing  = errors.New("employee_id claim is missing")
	ErrInvalidStreamToken = errors.New("invalid stream token")
	ErrInvalidPunchType   = errors.New("punch_type must be IN or OUT")
)
