package attendance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	source attendance.PunchSource
	writer attendance.PunchWriter
	cache  *recordCache
	loc    *time.Location
	now    func() time.Time

	mu           sync.Mutex
	fingerprints map[string]string
}

// records returns the aggregated records matching filter, fetching from the
// source when the cache has no fresh snapshot for the query.
func (a *AttendanceServiceImpl) records(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	query := filter.PunchQuery()
	key := query.Key()

	if cached, ok := a.cache.get(key); ok {
		return attendance.FilterRecords(cached, filter), nil
	}

	seq := a.cache.begin()
	punches, err := a.source.ListPunches(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attendance.ErrUpstream, err)
	}

	records := attendance.Aggregate(punches)
	if !a.cache.commit(key, seq, records) {
		slog.Debug("Discarding superseded attendance snapshot", "query", key, "seq", seq)
	}

	return attendance.FilterRecords(records, filter), nil
}

// ListRecords implements attendance.Service.
func (a *AttendanceServiceImpl) ListRecords(ctx context.Context, req attendance.ListRecordsRequest) (attendance.ListRecordsResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	records, err := a.records(ctx, req.RecordFilter)
	if err != nil {
		return attendance.ListRecordsResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}

	attendance.SortMostRecentFirst(records)
	if strings.EqualFold(req.SortOrder, "asc") {
		slices.Reverse(records)
	}

	total := len(records)
	totalPages := int(math.Ceil(float64(total) / float64(req.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (req.Page-1)*req.Limit+1, min(req.Page*req.Limit, total), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListRecordsResponse{
		TotalCount: int64(total),
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Records:    attendance.Paginate(records, req.Page, req.Limit),
	}, nil
}

// GetMyRecords implements attendance.Service.
func (a *AttendanceServiceImpl) GetMyRecords(ctx context.Context, employeeID string, month *string) ([]attendance.Record, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, attendance.ErrEmployeeIDMissing
	}

	filter := attendance.RecordFilter{EmployeeID: &employeeID, Month: month}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	records, err := a.records(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get my attendance records: %w", err)
	}

	attendance.SortMostRecentFirst(records)
	return records, nil
}

// GetRecord implements attendance.Service.
func (a *AttendanceServiceImpl) GetRecord(ctx context.Context, employeeID string, date string) (attendance.RecordDetailResponse, error) {
	if _, valid := validator.IsValidDate(date); !valid {
		return attendance.RecordDetailResponse{}, validator.ValidationErrors{
			{Field: "date", Message: "date must be in YYYY-MM-DD format"},
		}
	}

	month := date[:7]
	filter := attendance.RecordFilter{EmployeeID: &employeeID, Month: &month}

	records, err := a.records(ctx, filter)
	if err != nil {
		return attendance.RecordDetailResponse{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	for _, r := range records {
		if r.Date == date {
			return attendance.RecordDetailResponse{
				Record:         r,
				BreakIntervals: r.Intervals(),
			}, nil
		}
	}

	return attendance.RecordDetailResponse{}, attendance.ErrRecordNotFound
}

// Summary implements attendance.Service.
func (a *AttendanceServiceImpl) Summary(ctx context.Context, filter attendance.RecordFilter) (attendance.SummaryResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.SummaryResponse{}, err
	}

	records, err := a.records(ctx, filter)
	if err != nil {
		return attendance.SummaryResponse{}, fmt.Errorf("failed to summarize attendance: %w", err)
	}

	return attendance.SummaryResponse{
		Month:     filter.Month,
		Employees: attendance.Summarize(records),
	}, nil
}

// ExportCSV implements attendance.Service.
func (a *AttendanceServiceImpl) ExportCSV(ctx context.Context, filter attendance.RecordFilter, w io.Writer) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	records, err := a.records(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to export attendance: %w", err)
	}

	attendance.SortMostRecentFirst(records)
	if err := writeCSV(w, records); err != nil {
		return fmt.Errorf("failed to write attendance csv: %w", err)
	}
	return nil
}

// RecordPunch implements attendance.Service.
func (a *AttendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.PunchEvent, error) {
	if a.writer == nil {
		return attendance.PunchEvent{}, attendance.ErrSourceReadOnly
	}
	if err := req.Validate(); err != nil {
		return attendance.PunchEvent{}, err
	}

	timestamp := req.Timestamp
	if timestamp == "" {
		timestamp = a.now().In(a.loc).Format(time.RFC3339)
	}

	created, err := a.writer.CreatePunch(ctx, attendance.PunchEvent{
		EmployeeID:   strings.TrimSpace(req.EmployeeID),
		EmployeeName: strings.TrimSpace(req.EmployeeName),
		Email:        strings.TrimSpace(req.Email),
		Position:     strings.TrimSpace(req.Position),
		Timestamp:    timestamp,
		PunchType:    req.PunchType,
	})
	if err != nil {
		return attendance.PunchEvent{}, fmt.Errorf("failed to record punch: %w", err)
	}

	a.cache.invalidate()
	slog.Info("Punch recorded", "employee_id", created.EmployeeID, "punch_type", created.PunchType, "timestamp", created.Timestamp)

	return created, nil
}

// Refresh implements attendance.Service. The first call only records a
// baseline and reports no change.
func (a *AttendanceServiceImpl) Refresh(ctx context.Context) ([]string, error) {
	seq := a.cache.begin()
	query := attendance.PunchQuery{}

	punches, err := a.source.ListPunches(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh attendance: %w: %w", attendance.ErrUpstream, err)
	}
	records := attendance.Aggregate(punches)

	current, err := fingerprints(records)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint attendance: %w", err)
	}

	a.mu.Lock()
	previous := a.fingerprints
	a.fingerprints = current
	a.mu.Unlock()

	var changed []string
	if previous != nil {
		changed = changedEmployees(previous, current)
	}
	if len(changed) > 0 {
		a.cache.invalidate()
		seq = a.cache.begin()
		slog.Info("Attendance records changed upstream", "records", len(records), "employees", len(changed))
	}
	a.cache.commit(query.Key(), seq, records)

	return changed, nil
}

// Invalidate implements attendance.Service.
func (a *AttendanceServiceImpl) Invalidate() {
	a.cache.invalidate()
}

// fingerprints hashes each employee's records separately.
func fingerprints(records []attendance.Record) (map[string]string, error) {
	byEmployee := make(map[string][]attendance.Record)
	for _, r := range records {
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	result := make(map[string]string, len(byEmployee))
	for id, rs := range byEmployee {
		data, err := json.Marshal(rs)
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(data)
		result[id] = hex.EncodeToString(sum[:])
	}
	return result, nil
}

// changedEmployees lists, sorted, the employees added, removed or modified
// between two fingerprint sets.
func changedEmployees(previous, current map[string]string) []string {
	var changed []string
	for id, fp := range current {
		if previous[id] != fp {
			changed = append(changed, id)
		}
	}
	for id := range previous {
		if _, ok := current[id]; !ok {
			changed = append(changed, id)
		}
	}
	slices.Sort(changed)
	return changed
}

// NewAttendanceService returns a service reading from source. Punches can be
// recorded when source also implements attendance.PunchWriter. A cacheTTL of
// zero disables caching.
func NewAttendanceService(source attendance.PunchSource, loc *time.Location, cacheTTL time.Duration) attendance.Service {
	if loc == nil {
		loc = time.UTC
	}
	writer, _ := source.(attendance.PunchWriter)
	return &AttendanceServiceImpl{
		source: source,
		writer: writer,
		cache:  newRecordCache(cacheTTL),
		loc:    loc,
		now:    time.Now,
	}
}
