package sheets

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
)

var dateLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"2-1-2006",
	"2006/01/02",
}

var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3:04:05PM",
	"15:04:05",
	"15:04",
}

// NormalizeTimestamp combines a locale-formatted date and time of day into an
// RFC 3339 timestamp in loc. Times like "09.30 AM" use a dot separator.
func NormalizeTimestamp(date, clock string, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = time.UTC
	}

	day, ok := parseDate(date)
	if !ok {
		return "", false
	}
	tod, ok := parseClock(clock)
	if !ok {
		return "", false
	}

	t := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc)
	return t.Format(time.RFC3339), true
}

// NormalizeInstant rewrites a full timestamp cell in loc. Zone-less values are
// read as wall time in loc.
func NormalizeInstant(value string, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)

	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.Format(time.RFC3339), true
		}
	}
	if t, ok := attendance.ParseTimestamp(value); ok {
		return t.In(loc).Format(time.RFC3339), true
	}

	if date, clock, found := strings.Cut(value, " "); found {
		return NormalizeTimestamp(date, clock, loc)
	}
	return "", false
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseClock(s string) (time.Time, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", ":")
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
