package cli

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
)

var (
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#fe8019")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#928374"))
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fabd2f"))
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

// clock returns the HH:MM part of an RFC 3339 timestamp.
func clock(ts string) string {
	if t, ok := attendance.ParseTimestamp(ts); ok {
		return t.Format("15:04")
	}
	return ts
}

// FormatRecords renders records as an aligned table. Single-punch days are
// highlighted when color is on.
func FormatRecords(records []attendance.Record, color bool) string {
	if len(records) == 0 {
		return render(styleDim, "No attendance records.", color) + "\n"
	}

	headers := []string{"DATE", "EMPLOYEE", "NAME", "IN", "OUT", "BREAKS", "BREAK H", "EFFECTIVE H"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		out := clock(r.CheckOut)
		if r.CheckIn == r.CheckOut {
			out = render(styleWarn, "-", color)
		}
		rows = append(rows, []string{
			r.Date,
			r.EmployeeID,
			r.EmployeeName,
			clock(r.CheckIn),
			out,
			strconv.Itoa(len(r.Breaks)),
			hours(r.TotalBreakHours),
			hours(r.EffectiveHours),
		})
	}
	return renderTable(headers, rows, color)
}

// FormatSummary renders one line per employee.
func FormatSummary(summaries []attendance.EmployeeSummary, color bool) string {
	if len(summaries) == 0 {
		return render(styleDim, "No attendance records.", color) + "\n"
	}

	headers := []string{"EMPLOYEE", "NAME", "DAYS", "INCOMPLETE", "EFFECTIVE H", "AVG H", "BREAK H", "FROM", "TO"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.EmployeeID,
			s.EmployeeName,
			strconv.Itoa(s.DaysPresent),
			strconv.Itoa(s.IncompleteDays),
			hours(s.TotalEffectiveHours),
			hours(s.AverageEffectiveHours),
			hours(s.TotalBreakHours),
			s.FirstDate,
			s.LastDate,
		})
	}
	return renderTable(headers, rows, color)
}

func render(style lipgloss.Style, text string, color bool) string {
	if !color {
		return text
	}
	return style.Render(text)
}

// renderTable pads every column to its widest visible cell.
func renderTable(headers []string, rows [][]string, color bool) string {
	const colGap = 2

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = render(*style, cell, color)
			}
			b.WriteString(cell)
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &styleHeader)
	separators := make([]string, len(widths))
	for i, w := range widths {
		separators[i] = strings.Repeat("─", w)
	}
	writeRow(separators, &styleDim)
	for _, row := range rows {
		writeRow(row, nil)
	}

	return b.String()
}
