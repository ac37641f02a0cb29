package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/domain/user"
	"github.com/cmlabs-hris/attendance-service/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type fakeService struct {
	listReq   attendance.ListRecordsRequest
	listErr   error
	myID      string
	punchReq  attendance.RecordPunchRequest
	punchErr  error
	recordErr error
}

func (f *fakeService) ListRecords(_ context.Context, req attendance.ListRecordsRequest) (attendance.ListRecordsResponse, error) {
	f.listReq = req
	if f.listErr != nil {
		return attendance.ListRecordsResponse{}, f.listErr
	}
	return attendance.ListRecordsResponse{
		TotalCount: 1, Page: 1, Limit: 20, TotalPages: 1, Showing: "1-1 of 1",
		Records: []attendance.Record{{EmployeeID: "EMP001", Date: "2024-03-01", Breaks: []string{}, EffectiveHours: 8.5}},
	}, nil
}

func (f *fakeService) GetMyRecords(_ context.Context, employeeID string, _ *string) ([]attendance.Record, error) {
	f.myID = employeeID
	return []attendance.Record{{EmployeeID: employeeID, Date: "2024-03-01", Breaks: []string{}}}, nil
}

func (f *fakeService) GetRecord(_ context.Context, employeeID, date string) (attendance.RecordDetailResponse, error) {
	if f.recordErr != nil {
		return attendance.RecordDetailResponse{}, f.recordErr
	}
	return attendance.RecordDetailResponse{
		Record:         attendance.Record{EmployeeID: employeeID, Date: date, Breaks: []string{}},
		BreakIntervals: []attendance.BreakInterval{},
	}, nil
}

func (f *fakeService) Summary(_ context.Context, filter attendance.RecordFilter) (attendance.SummaryResponse, error) {
	return attendance.SummaryResponse{Month: filter.Month, Employees: []attendance.EmployeeSummary{}}, nil
}

func (f *fakeService) ExportCSV(_ context.Context, _ attendance.RecordFilter, w io.Writer) error {
	_, err := io.WriteString(w, "Employee ID\nEMP001\n")
	return err
}

func (f *fakeService) RecordPunch(_ context.Context, req attendance.RecordPunchRequest) (attendance.PunchEvent, error) {
	f.punchReq = req
	if f.punchErr != nil {
		return attendance.PunchEvent{}, f.punchErr
	}
	return attendance.PunchEvent{ID: "p1", EmployeeID: req.EmployeeID, Timestamp: "2024-03-01T09:00:00Z", PunchType: req.PunchType}, nil
}

func (f *fakeService) Refresh(context.Context) ([]string, error) { return nil, nil }

func (f *fakeService) Invalidate() {}

type testEnv struct {
	svc    *fakeService
	jwt    jwt.Service
	hub    *sse.Hub
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{svc: &fakeService{}, jwt: jwt.NewJWTService(testSecret), hub: sse.NewHub()}
	handler := NewAttendanceHandler(env.svc, env.jwt, env.hub, true)
	env.router = NewRouter(RouterConfig{Env: "test", Version: "test", AllowedOrigins: []string{"*"}}, env.jwt, handler)
	return env
}

func (e *testEnv) token(t *testing.T, role user.Role, employeeID string) string {
	t.Helper()
	_, token, err := e.jwt.JWTAuth().Encode(map[string]interface{}{
		"sub":         "user-" + employeeID,
		"email":       strings.ToLower(employeeID) + "@example.com",
		"employee_id": employeeID,
		"role":        string(role),
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/records?email=ana@example.com&month=2024-03&page=1&limit=20", env.token(t, user.RoleManager, "MGR1"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.True(t, body.Success)
	require.NotNil(t, body.Meta)
	assert.Equal(t, int64(1), body.Meta.TotalItems)
	assert.Equal(t, "1-1 of 1", body.Meta.Showing)

	require.NotNil(t, env.svc.listReq.Email)
	assert.Equal(t, "ana@example.com", *env.svc.listReq.Email)
	assert.Equal(t, "2024-03", *env.svc.listReq.Month)
	assert.Nil(t, env.svc.listReq.EmployeeID)
}

func TestList_Forbidden(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/records", env.token(t, user.RoleEmployee, "EMP001"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/attendance/records", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestList_BadPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/records?page=two", env.token(t, user.RoleAdmin, "ADM1"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestList_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.svc.listErr = fmt.Errorf("%w: %w", attendance.ErrUpstream, errors.New("sheet unavailable"))

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/records", env.token(t, user.RoleAdmin, "ADM1"), "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "UPSTREAM_ERROR", decode(t, rec).Error.Code)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/records/export?month=2024-03", env.token(t, user.RoleAdmin, "ADM1"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance-2024-03.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Employee ID\nEMP001\n", rec.Body.String())
}

func TestGet_OwnRecordOnly(t *testing.T) {
	env := newTestEnv(t)
	employeeToken := env.token(t, user.RoleEmployee, "EMP001")

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/records/EMP001/2024-03-01", employeeToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/attendance/records/EMP002/2024-03-01", employeeToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/attendance/records/EMP002/2024-03-01", env.token(t, user.RoleManager, "MGR1"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.svc.recordErr = attendance.ErrRecordNotFound

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/records/EMP001/2024-03-09", env.token(t, user.RoleEmployee, "EMP001"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/summary?month=2024-03", env.token(t, user.RoleManager, "MGR1"), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/attendance/summary", env.token(t, user.RoleEmployee, "EMP001"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetMy(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/my", env.token(t, user.RoleEmployee, "EMP007"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EMP007", env.svc.myID)

	rec = env.do(t, http.MethodGet, "/api/v1/attendance/my", env.token(t, user.RoleEmployee, ""), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecordPunch(t *testing.T) {
	env := newTestEnv(t)
	events, cleanup := env.hub.Subscribe(sse.EmployeeTopic("EMP001"))
	defer cleanup()

	rec := env.do(t, http.MethodPost, "/api/v1/attendance/punches", env.token(t, user.RoleEmployee, "EMP001"),
		`{"employee_name":"Ana","punch_type":"IN"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "EMP001", env.svc.punchReq.EmployeeID)
	assert.Equal(t, "emp001@example.com", env.svc.punchReq.Email)

	select {
	case e := <-events:
		assert.Equal(t, sse.EventAttendanceChanged, e.Event)
	default:
		t.Fatal("expected a change event for the employee")
	}
}

func TestRecordPunch_ForAnotherEmployee(t *testing.T) {
	env := newTestEnv(t)
	body := `{"employee_id":"EMP002","employee_name":"Budi","punch_type":"IN"}`

	rec := env.do(t, http.MethodPost, "/api/v1/attendance/punches", env.token(t, user.RoleEmployee, "EMP001"), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/attendance/punches", env.token(t, user.RoleAdmin, "ADM1"), body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "EMP002", env.svc.punchReq.EmployeeID)
}

func TestRecordPunch_Errors(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, user.RoleEmployee, "EMP001")

	rec := env.do(t, http.MethodPost, "/api/v1/attendance/punches", token, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.svc.punchErr = attendance.ErrSourceReadOnly
	rec = env.do(t, http.MethodPost, "/api/v1/attendance/punches", token, `{"punch_type":"IN"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	// Exchange an access token for a stream token
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/attendance/stream/token", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token(t, user.RoleEmployee, "EMP001"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	var body struct {
		Data attendance.StreamTokenResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.NotEmpty(t, body.Data.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/attendance/stream?token="+body.Data.Token, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)
	_, _ = reader.ReadString('\n') // data
	_, _ = reader.ReadString('\n') // blank

	env.hub.PublishAttendanceChange("EMP002", sse.EventAttendanceChanged, attendance.ChangeEvent{EmployeeID: "EMP002", Op: "INSERT"})
	env.hub.PublishAttendanceChange("EMP001", sse.EventAttendanceChanged, attendance.ChangeEvent{EmployeeID: "EMP001", Op: "INSERT"})

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: attendance_changed\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"employee_id":"EMP001"`)
}

func TestStream_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/stream?token="+env.token(t, user.RoleAdmin, "ADM1"), "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/attendance/stream", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
