package attendance

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
)

var csvHeader = []string{
	"Employee ID", "Employee Name", "Email", "Position", "Date",
	"Check In", "Check Out", "Breaks", "Total Break Hours", "Effective Hours",
}

func writeCSV(w io.Writer, records []attendance.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.EmployeeID,
			r.EmployeeName,
			r.Email,
			r.Position,
			r.Date,
			r.CheckIn,
			r.CheckOut,
			strings.Join(r.Breaks, ";"),
			strconv.FormatFloat(r.TotalBreakHours, 'f', 2, 64),
			strconv.FormatFloat(r.EffectiveHours, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
