package attendance

import (
	"strings"

	"github.com/cmlabs-hris/attendance-service/internal/pkg/validator"
)

// ========================================
// RECORD DTOs
// ========================================

type ListRecordsRequest struct {
	RecordFilter

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortOrder string `json:"sort_order"` // asc, desc
}

func (r *ListRecordsRequest) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if r.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if r.Page == 0 {
		r.Page = 1 // Default page
	}

	// Limit validation
	if r.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if r.Limit == 0 {
		r.Limit = 20 // Default limit
	}
	if r.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	errs = append(errs, r.RecordFilter.validationErrors()...)

	if r.SortOrder != "" {
		validSortOrders := []string{"asc", "desc"}
		if !validator.IsInSlice(strings.ToLower(r.SortOrder), validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		r.SortOrder = "desc" // Most recent first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Validate checks the month and email filters.
func (f RecordFilter) Validate() error {
	if errs := f.validationErrors(); len(errs) > 0 {
		return errs
	}
	return nil
}

func (f RecordFilter) validationErrors() validator.ValidationErrors {
	var errs validator.ValidationErrors

	if f.Month != nil && *f.Month != "" {
		if _, valid := validator.IsValidYearMonth(*f.Month); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "month",
				Message: "month must be in YYYY-MM format",
			})
		}
	}

	if f.Email != nil && *f.Email != "" && !validator.IsValidEmail(strings.TrimSpace(*f.Email)) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}

	return errs
}

type ListRecordsResponse struct {
	TotalCount int64    `json:"total_count"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"total_pages"`
	Showing    string   `json:"showing"`
	Records    []Record `json:"records"`
}

type RecordDetailResponse struct {
	Record
	BreakIntervals []BreakInterval `json:"break_intervals"`
}

type SummaryResponse struct {
	Month     *string           `json:"month,omitempty"`
	Employees []EmployeeSummary `json:"employees"`
}

// ========================================
// PUNCH DTOs
// ========================================

type RecordPunchRequest struct {
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Email        string    `json:"email"`
	Position     string    `json:"position"`
	Timestamp    string    `json:"timestamp,omitempty"` // RFC3339, defaults to now
	PunchType    PunchType `json:"punch_type"`
}

func (r *RecordPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(r.EmployeeName) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_name",
			Message: "employee_name is required",
		})
	}

	if !validator.IsEmpty(r.Email) && !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}

	if r.Timestamp != "" {
		if _, valid := validator.IsValidDateTime(r.Timestamp); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "timestamp",
				Message: "timestamp must be an RFC3339 date-time",
			})
		}
	}

	r.PunchType = PunchType(strings.ToUpper(string(r.PunchType)))
	if r.PunchType != PunchIn && r.PunchType != PunchOut {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_type",
			Message: ErrInvalidPunchType.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// STREAM DTOs
// ========================================

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ChangeEvent is pushed to stream subscribers when punches change.
// Clients re-fetch on receipt.
type ChangeEvent struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Op         string `json:"op"`
	At         string `json:"at"`
}
