package attendance

import (
	"context"
)

// PunchQuery narrows the punches a source returns. Sources may ignore any
// field; the service filters aggregated records again.
type PunchQuery struct {
	EmployeeID *string
	Email      *string
	Month      *string // YYYY-MM
}

// Key identifies the query for caching.
func (q PunchQuery) Key() string {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return deref(q.EmployeeID) + "|" + deref(q.Email) + "|" + deref(q.Month)
}

// PunchSource yields raw punch events from an upstream store.
type PunchSource interface {
	// ListPunches returns punches in any order. Malformed rows may be included;
	// Aggregate drops them.
	ListPunches(ctx context.Context, query PunchQuery) ([]PunchEvent, error)
}

// PunchWriter is implemented by sources that can record new punches.
type PunchWriter interface {
	// CreatePunch stores a punch and returns it with its generated ID.
	CreatePunch(ctx context.Context, punch PunchEvent) (PunchEvent, error)
}
