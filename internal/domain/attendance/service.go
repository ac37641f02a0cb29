package attendance

import (
	"context"
	"io"
)

// Service defines the attendance record operations exposed to dashboards.
type Service interface {
	// ListRecords returns filtered, sorted and paginated records
	ListRecords(ctx context.Context, req ListRecordsRequest) (ListRecordsResponse, error)

	// GetMyRecords returns all records of one employee, most recent first
	GetMyRecords(ctx context.Context, employeeID string, month *string) ([]Record, error)

	// GetRecord returns one employee-day with its break intervals
	GetRecord(ctx context.Context, employeeID string, date string) (RecordDetailResponse, error)

	// Summary returns per-employee performance figures for the filtered records
	Summary(ctx context.Context, filter RecordFilter) (SummaryResponse, error)

	// ExportCSV writes the filtered records as CSV, most recent first
	ExportCSV(ctx context.Context, filter RecordFilter, w io.Writer) error

	// RecordPunch stores a punch when the source is writable
	RecordPunch(ctx context.Context, req RecordPunchRequest) (PunchEvent, error)

	// Refresh re-fetches all punches and returns the ids of employees whose
	// records changed since the previous call
	Refresh(ctx context.Context) ([]string, error)

	// Invalidate drops cached records
	Invalidate()
}
