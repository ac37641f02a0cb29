package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cmlabs-hris/attendance-service/internal/config"
	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const punchFixture = `[
  {"id":"1","employee_id":"E1","employee_name":"Ana","email":"ana@example.com","timestamp":"2024-01-15T08:00:00Z"},
  {"id":"2","employee_id":"E1","employee_name":"Ana","email":"ana@example.com","timestamp":"2024-01-15T12:00:00Z"},
  {"id":"3","employee_id":"E1","employee_name":"Ana","email":"ana@example.com","timestamp":"2024-01-15T13:00:00Z"},
  {"id":"4","employee_id":"E1","employee_name":"Ana","email":"ana@example.com","timestamp":"2024-01-15T17:00:00Z"},
  {"id":"5","employee_id":"E2","employee_name":"Budi","email":"budi@example.com","timestamp":"2024-02-01T09:00:00Z"},
  {"id":"6","employee_id":"","employee_name":"Ghost","timestamp":"2024-02-01T09:00:00Z"}
]`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "punches.json")
	require.NoError(t, os.WriteFile(path, []byte(punchFixture), 0o600))
	return path
}

func newTestApp() *App {
	return &App{
		Config: &config.Config{
			App:    config.AppConfig{Timezone: "UTC"},
			Source: config.SourceConfig{Type: config.SourcePostgres},
		},
		OpenSource: repository.Open,
	}
}

func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAggregate_Table(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, newTestApp(), "aggregate", "--source", "file", "--file", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "EFFECTIVE H")
	// Most recent first
	assert.Contains(t, lines[2], "E2")
	assert.Contains(t, lines[3], "E1")
	assert.Contains(t, lines[3], "08:00")
	assert.Contains(t, lines[3], "17:00")
	assert.Contains(t, lines[3], "8.00")
	assert.NotContains(t, out, "Ghost")
}

func TestAggregate_JSONWithFilters(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, newTestApp(),
		"aggregate", "--source", "file", "--file", path, "--format", "json", "--email", "ANA@example.com", "--month", "2024-01")
	require.NoError(t, err)

	var records []attendance.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "E1", records[0].EmployeeID)
	assert.Equal(t, "2024-01-15", records[0].Date)
	assert.Equal(t, 1.0, records[0].TotalBreakHours)
	assert.Equal(t, 8.0, records[0].EffectiveHours)
}

func TestAggregate_InvalidMonth(t *testing.T) {
	path := writeFixture(t)

	_, err := execute(t, newTestApp(), "aggregate", "--source", "file", "--file", path, "--month", "January")
	assert.Error(t, err)
}

func TestAggregate_UnsupportedFormat(t *testing.T) {
	_, err := execute(t, newTestApp(), "aggregate", "--source", "file", "--file", "x.json", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported --format")
}

func TestAggregate_MissingFile(t *testing.T) {
	_, err := execute(t, newTestApp(), "aggregate", "--source", "file", "--file", filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, attendance.ErrUpstream)
}

func TestSummary_JSON(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, newTestApp(), "summary", "--source", "file", "--file", path, "--format", "json")
	require.NoError(t, err)

	var resp attendance.SummaryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Employees, 2)
	assert.Equal(t, "E1", resp.Employees[0].EmployeeID)
	assert.Equal(t, 8.0, resp.Employees[0].TotalEffectiveHours)
	assert.Equal(t, 1, resp.Employees[1].IncompleteDays)
}

func TestSummary_EmptyTable(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, newTestApp(), "summary", "--source", "file", "--file", path, "--employee", "E9")
	require.NoError(t, err)
	assert.Equal(t, "No attendance records.\n", out)
}

func TestImport_IntoSQLite(t *testing.T) {
	path := writeFixture(t)
	dbPath := filepath.Join(t.TempDir(), "attendance.db")

	out, err := execute(t, newTestApp(), "import", "--source", "file", "--file", path, "--sqlite", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 5 of 6 punches")

	// Second import finds nothing new
	out, err = execute(t, newTestApp(), "import", "--source", "file", "--file", path, "--sqlite", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 of 6 punches")

	out, err = execute(t, newTestApp(), "aggregate", "--source", "sqlite", "--sqlite", dbPath, "--format", "json")
	require.NoError(t, err)

	var records []attendance.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 2)
}

func TestImport_RejectsSQLiteSource(t *testing.T) {
	_, err := execute(t, newTestApp(), "import", "--source", "sqlite", "--sqlite", "x.db")
	assert.ErrorContains(t, err, "other than sqlite")
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := renderTable([]string{"A", "LONG"}, [][]string{{"wide-cell", "x"}}, false)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Index(lines[0], "LONG"), strings.Index(lines[2], "x"))
}

func TestFormatRecords_MarksSinglePunchDay(t *testing.T) {
	records := []attendance.Record{{
		EmployeeID: "E2", Date: "2024-02-01",
		CheckIn: "2024-02-01T09:00:00Z", CheckOut: "2024-02-01T09:00:00Z",
	}}
	out := FormatRecords(records, false)
	assert.Contains(t, out, "09:00  -")
}
