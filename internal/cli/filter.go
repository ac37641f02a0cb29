package cli

import (
	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/spf13/pflag"
)

type filterFlags struct {
	employee string
	email    string
	month    string
}

func addFilterFlags(fs *pflag.FlagSet, f *filterFlags) {
	fs.StringVar(&f.employee, "employee", "", "Only this employee id")
	fs.StringVar(&f.email, "email", "", "Only this employee email (case-insensitive)")
	fs.StringVar(&f.month, "month", "", "Only this month (YYYY-MM)")
}

func (f *filterFlags) recordFilter() (attendance.RecordFilter, error) {
	optional := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}

	filter := attendance.RecordFilter{
		EmployeeID: optional(f.employee),
		Email:      optional(f.email),
		Month:      optional(f.month),
	}
	return filter, filter.Validate()
}
