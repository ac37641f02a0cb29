package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/realtime"
	"github.com/cmlabs-hris/attendance-service/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPunch(t *testing.T, repo postgresql.PunchRepository, employeeID, timestamp string) attendance.PunchEvent {
	t.Helper()
	created, err := repo.CreatePunch(context.Background(), attendance.PunchEvent{
		EmployeeID:   employeeID,
		EmployeeName: "Name " + employeeID,
		Email:        employeeID + "@example.com",
		Position:     "Engineer",
		Timestamp:    timestamp,
		PunchType:    attendance.PunchIn,
	})
	require.NoError(t, err)
	return created
}

func TestPunchRepository_CreateAndList(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewPunchRepository(setup.DB, time.UTC)

	created := createPunch(t, repo, "EMP001", "2024-03-01T09:00:00Z")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "2024-03-01T09:00:00Z", created.Timestamp)

	createPunch(t, repo, "EMP001", "2024-03-01T17:00:00Z")
	createPunch(t, repo, "EMP002", "2024-04-02T08:00:00Z")

	all, err := repo.ListPunches(context.Background(), attendance.PunchQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	employee := "EMP001"
	mine, err := repo.ListPunches(context.Background(), attendance.PunchQuery{EmployeeID: &employee})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	month := "2024-04"
	april, err := repo.ListPunches(context.Background(), attendance.PunchQuery{Month: &month})
	require.NoError(t, err)
	require.Len(t, april, 1)
	assert.Equal(t, "EMP002", april[0].EmployeeID)

	email := "EMP002@EXAMPLE.COM"
	byEmail, err := repo.ListPunches(context.Background(), attendance.PunchQuery{Email: &email})
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)
}

func TestPunchRepository_RendersInLocation(t *testing.T) {
	setup := NewTestDatabase(t)
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	repo := postgresql.NewPunchRepository(setup.DB, jakarta)

	createPunch(t, repo, "EMP001", "2024-03-01T20:00:00Z")

	punches, err := repo.ListPunches(context.Background(), attendance.PunchQuery{})
	require.NoError(t, err)
	require.Len(t, punches, 1)
	assert.Equal(t, "2024-03-02T03:00:00+07:00", punches[0].Timestamp)
}

func TestPunchRepository_KeepsSubSecondPrecision(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewPunchRepository(setup.DB, time.UTC)

	created := createPunch(t, repo, "EMP001", "2024-03-01T09:00:00.123456Z")
	assert.Equal(t, "2024-03-01T09:00:00.123456Z", created.Timestamp)

	punches, err := repo.ListPunches(context.Background(), attendance.PunchQuery{})
	require.NoError(t, err)
	require.Len(t, punches, 1)
	assert.Equal(t, "2024-03-01T09:00:00.123456Z", punches[0].Timestamp)
}

func TestListener_ReceivesInsertNotification(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewPunchRepository(setup.DB, time.UTC)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changes := make(chan realtime.Change, 1)
	listener := realtime.NewListener(setup.DB, testChannel)
	listener.OnChange(func(c realtime.Change) { changes <- c })

	ready := make(chan struct{})
	listener.OnListening(func() { close(ready) })
	go listener.Run(ctx)

	select {
	case <-ready:
	case <-ctx.Done():
		t.Fatal("listener did not start")
	}

	createPunch(t, repo, "EMP042", "2024-03-01T09:00:00Z")

	select {
	case c := <-changes:
		assert.Equal(t, "EMP042", c.EmployeeID)
		assert.Equal(t, "INSERT", c.Op)
	case <-ctx.Done():
		t.Fatal("no change notification received")
	}
}
