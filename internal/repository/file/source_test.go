package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "punches.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSource_ListPunches(t *testing.T) {
	path := writeFile(t, `[
		{"id":"1","employee_id":"EMP001","employee_name":"Ana","email":"ana@example.com","position":"Engineer","timestamp":"2024-03-01T09:00:00Z","punch_type":"IN"},
		{"id":"2","employee_id":"EMP001","employee_name":"Ana","email":"ana@example.com","position":"Engineer","timestamp":"2024-03-01T17:30:00Z","punch_type":"OUT"}
	]`)

	punches, err := NewSource(path).ListPunches(context.Background(), attendance.PunchQuery{})
	require.NoError(t, err)
	require.Len(t, punches, 2)
	assert.Equal(t, "EMP001", punches[0].EmployeeID)
	assert.Equal(t, attendance.PunchOut, punches[1].PunchType)
}

func TestSource_ListPunches_Errors(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing.json")).ListPunches(context.Background(), attendance.PunchQuery{})
	assert.Error(t, err)

	_, err = NewSource(writeFile(t, `{"not":"an array"}`)).ListPunches(context.Background(), attendance.PunchQuery{})
	assert.Error(t, err)
}

func TestSource_ListPunches_EmptyArray(t *testing.T) {
	punches, err := NewSource(writeFile(t, `[]`)).ListPunches(context.Background(), attendance.PunchQuery{})
	require.NoError(t, err)
	assert.Empty(t, punches)
}
