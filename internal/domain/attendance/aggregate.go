package attendance

import (
	"math"
	"sort"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing punch timestamps.
// Zone-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses a punch timestamp into an instant.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len("2006-01-02") {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// calendarDateOf returns the date portion of a timestamp verbatim.
func calendarDateOf(timestamp string) string {
	return strings.TrimSpace(timestamp)[:10]
}

type parsedPunch struct {
	event PunchEvent
	at    time.Time
}

// Aggregate converts punch events into one Record per employee and calendar day.
//
// Events with an empty employee id or an unparsable timestamp are dropped.
// Within a day the first punch is the check-in, the last the check-out and
// everything in between are break boundaries taken two at a time; an unpaired
// trailing break ends at the check-out. Records are returned ordered by date
// and employee id.
func Aggregate(events []PunchEvent) []Record {
	groups := make(map[string][]parsedPunch)
	var keys []string

	for _, ev := range events {
		if strings.TrimSpace(ev.EmployeeID) == "" {
			continue
		}
		at, ok := ParseTimestamp(ev.Timestamp)
		if !ok {
			continue
		}
		key := ev.EmployeeID + "-" + calendarDateOf(ev.Timestamp)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], parsedPunch{event: ev, at: at})
	}

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		records = append(records, buildRecord(groups[key]))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].EmployeeID < records[j].EmployeeID
	})

	return records
}

func buildRecord(group []parsedPunch) Record {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].at.Before(group[j].at)
	})

	first := group[0]
	last := group[len(group)-1]

	breaks := make([]string, 0)
	if len(group) > 2 {
		for _, p := range group[1 : len(group)-1] {
			breaks = append(breaks, strings.TrimSpace(p.event.Timestamp))
		}
	}

	checkIn := strings.TrimSpace(first.event.Timestamp)
	checkOut := strings.TrimSpace(last.event.Timestamp)

	var breakTotal float64
	for _, interval := range pairBreaks(breaks, checkOut) {
		breakTotal += interval.Hours
	}
	totalBreakHours := round2(breakTotal)
	effective := round2(math.Max(0, hoursBetween(checkIn, checkOut)-totalBreakHours))

	return Record{
		EmployeeID:      first.event.EmployeeID,
		EmployeeName:    first.event.EmployeeName,
		Email:           first.event.Email,
		Position:        first.event.Position,
		Date:            calendarDateOf(checkIn),
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Breaks:          breaks,
		TotalBreakHours: totalBreakHours,
		EffectiveHours:  effective,
	}
}

// pairBreaks walks breaks two at a time. Interval hours are not rounded.
func pairBreaks(breaks []string, checkOut string) []BreakInterval {
	intervals := make([]BreakInterval, 0, (len(breaks)+1)/2)
	for i := 0; i < len(breaks); i += 2 {
		start := breaks[i]
		end := checkOut
		if i+1 < len(breaks) {
			end = breaks[i+1]
		}
		intervals = append(intervals, BreakInterval{
			Start: start,
			End:   end,
			Hours: hoursBetween(start, end),
		})
	}
	return intervals
}

// Intervals returns the record's breaks as (start, end) pairs, rounded to
// 2 decimals. An odd trailing break ends at the check-out.
func (r Record) Intervals() []BreakInterval {
	intervals := pairBreaks(r.Breaks, r.CheckOut)
	for i := range intervals {
		intervals[i].Hours = round2(intervals[i].Hours)
	}
	return intervals
}

// hoursBetween returns (b - a) in hours at millisecond precision.
func hoursBetween(a, b string) float64 {
	ta, okA := ParseTimestamp(a)
	tb, okB := ParseTimestamp(b)
	if !okA || !okB {
		return 0
	}
	return float64(tb.Sub(ta).Milliseconds()) / 3_600_000
}

// round2 rounds half up to 2 decimals, so -0.125 becomes -0.12.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
