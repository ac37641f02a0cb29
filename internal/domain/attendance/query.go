package attendance

import (
	"sort"
	"strings"
)

// RecordFilter narrows a set of aggregated records. Nil fields match everything.
type RecordFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Email      *string `json:"email,omitempty"`
	Month      *string `json:"month,omitempty"` // YYYY-MM
}

// PunchQuery mirrors RecordFilter for sources that can narrow rows before
// aggregation.
func (f RecordFilter) PunchQuery() PunchQuery {
	return PunchQuery{
		EmployeeID: f.EmployeeID,
		Email:      f.Email,
		Month:      f.Month,
	}
}

// Matches reports whether the record passes the filter.
func (f RecordFilter) Matches(r Record) bool {
	if f.EmployeeID != nil && *f.EmployeeID != "" && r.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.Email != nil && *f.Email != "" &&
		!strings.EqualFold(strings.TrimSpace(r.Email), strings.TrimSpace(*f.Email)) {
		return false
	}
	if f.Month != nil && *f.Month != "" && !strings.HasPrefix(r.Date, *f.Month) {
		return false
	}
	return true
}

// FilterRecords returns the records matching the filter, keeping their order.
func FilterRecords(records []Record, filter RecordFilter) []Record {
	result := make([]Record, 0, len(records))
	for _, r := range records {
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	return result
}

// SortMostRecentFirst orders records by date and check-in, newest first.
func SortMostRecentFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		ta, okA := ParseTimestamp(a.CheckIn)
		tb, okB := ParseTimestamp(b.CheckIn)
		if okA && okB && !ta.Equal(tb) {
			return ta.After(tb)
		}
		return a.EmployeeID < b.EmployeeID
	})
}

// Paginate returns the 1-based page of records. Out-of-range pages are empty.
func Paginate(records []Record, page, limit int) []Record {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return []Record{}
	}
	start := (page - 1) * limit
	if start >= len(records) {
		return []Record{}
	}
	end := start + limit
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// Summarize builds one EmployeeSummary per employee, ordered by employee id.
func Summarize(records []Record) []EmployeeSummary {
	byEmployee := make(map[string]*EmployeeSummary)
	var ids []string

	for _, r := range records {
		s, ok := byEmployee[r.EmployeeID]
		if !ok {
			s = &EmployeeSummary{
				EmployeeID:   r.EmployeeID,
				EmployeeName: r.EmployeeName,
				Email:        r.Email,
				Position:     r.Position,
				FirstDate:    r.Date,
				LastDate:     r.Date,
			}
			byEmployee[r.EmployeeID] = s
			ids = append(ids, r.EmployeeID)
		}

		s.DaysPresent++
		if r.CheckIn == r.CheckOut {
			s.IncompleteDays++
		}
		s.TotalEffectiveHours += r.EffectiveHours
		s.TotalBreakHours += r.TotalBreakHours
		if r.Date < s.FirstDate {
			s.FirstDate = r.Date
		}
		if r.Date > s.LastDate {
			s.LastDate = r.Date
		}
	}

	sort.Strings(ids)
	summaries := make([]EmployeeSummary, 0, len(ids))
	for _, id := range ids {
		s := byEmployee[id]
		s.TotalEffectiveHours = round2(s.TotalEffectiveHours)
		s.TotalBreakHours = round2(s.TotalBreakHours)
		s.AverageEffectiveHours = round2(s.TotalEffectiveHours / float64(s.DaysPresent))
		summaries = append(summaries, *s)
	}
	return summaries
}
