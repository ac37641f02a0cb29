package attendance

// PunchType is the label a source attaches to a punch. It is kept for display
// and audit only; aggregation infers check-in, break and check-out from the
// position of each punch in the day's sorted sequence.
type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// PunchEvent is one physical clock action by an employee.
type PunchEvent struct {
	ID           string    `json:"id,omitempty"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Email        string    `json:"email"`
	Position     string    `json:"position"`
	Timestamp    string    `json:"timestamp"`
	PunchType    PunchType `json:"punch_type,omitempty"`
}

// Record is the aggregated view of one employee's punches on one calendar day.
// It is derived on every fetch and has no identity of its own.
type Record struct {
	EmployeeID      string   `json:"employee_id"`
	EmployeeName    string   `json:"employee_name"`
	Email           string   `json:"email"`
	Position        string   `json:"position"`
	Date            string   `json:"date"`
	CheckIn         string   `json:"check_in"`
	CheckOut        string   `json:"check_out"`
	Breaks          []string `json:"breaks"`
	TotalBreakHours float64  `json:"total_break_hours"`
	EffectiveHours  float64  `json:"effective_hours"`
}

// BreakInterval is a paired (start, end) break within a record.
type BreakInterval struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Hours float64 `json:"hours"`
}

// EmployeeSummary aggregates a set of records for one employee.
type EmployeeSummary struct {
	EmployeeID            string  `json:"employee_id"`
	EmployeeName          string  `json:"employee_name"`
	Email                 string  `json:"email"`
	Position              string  `json:"position"`
	DaysPresent           int     `json:"days_present"`
	IncompleteDays        int     `json:"incomplete_days"`
	TotalEffectiveHours   float64 `json:"total_effective_hours"`
	TotalBreakHours       float64 `json:"total_break_hours"`
	AverageEffectiveHours float64 `json:"average_effective_hours"`
	FirstDate             string  `json:"first_date"`
	LastDate              string  `json:"last_date"`
}
