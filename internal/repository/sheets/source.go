package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// Config configures a spreadsheet punch source.
type Config struct {
	BaseURL       string
	SpreadsheetID string
	Range         string
	// APIKey is sent as the key query parameter. Leave empty when HTTPClient
	// already authorizes requests.
	APIKey     string
	HTTPClient *http.Client
	Location   *time.Location
}

type valueRange struct {
	Range  string          `json:"range"`
	Values [][]interface{} `json:"values"`
}

type column int

const (
	colEmployeeID column = iota
	colName
	colEmail
	colPosition
	colDate
	colTime
	colType
	colTimestamp
	columnCount
)

var headerAliases = map[string]column{
	"employee id":   colEmployeeID,
	"employeeid":    colEmployeeID,
	"employee_id":   colEmployeeID,
	"id":            colEmployeeID,
	"name":          colName,
	"employee name": colName,
	"nama":          colName,
	"email":         colEmail,
	"position":      colPosition,
	"jabatan":       colPosition,
	"date":          colDate,
	"tanggal":       colDate,
	"time":          colTime,
	"jam":           colTime,
	"type":          colType,
	"punch type":    colType,
	"status":        colType,
	"timestamp":     colTimestamp,
}

type sourceImpl struct {
	cfg    Config
	client *http.Client
}

// NewSource returns a read-only punch source backed by the spreadsheet
// values API.
func NewSource(cfg Config) attendance.PunchSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &sourceImpl{cfg: cfg, client: client}
}

// ListPunches fetches every row of the configured range. The query is not
// pushed down; the sheet is small and the service filters records.
func (s *sourceImpl) ListPunches(ctx context.Context, _ attendance.PunchQuery) ([]attendance.PunchEvent, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		strings.TrimRight(s.cfg.BaseURL, "/"),
		url.PathEscape(s.cfg.SpreadsheetID),
		url.PathEscape(s.cfg.Range),
	)

	params := url.Values{}
	params.Set("majorDimension", "ROWS")
	params.Set("valueRenderOption", "FORMATTED_VALUE")
	if s.cfg.APIKey != "" {
		params.Set("key", s.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet values: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sheet values request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload valueRange
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode sheet values: %w", err)
	}

	return ParseRows(payload.Values, s.cfg.Location)
}

// ParseRows converts sheet rows into punch events. The first row is the
// header. Rows whose date or time cannot be normalized are dropped.
func ParseRows(rows [][]interface{}, loc *time.Location) ([]attendance.PunchEvent, error) {
	punches := make([]attendance.PunchEvent, 0)
	if len(rows) == 0 {
		return punches, nil
	}

	index, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	for i, row := range rows[1:] {
		cell := func(c column) string {
			pos := index[c]
			if pos < 0 || pos >= len(row) {
				return ""
			}
			return strings.TrimSpace(fmt.Sprint(row[pos]))
		}

		var (
			timestamp string
			ok        bool
		)
		if raw := cell(colTimestamp); raw != "" {
			timestamp, ok = NormalizeInstant(raw, loc)
		} else {
			timestamp, ok = NormalizeTimestamp(cell(colDate), cell(colTime), loc)
		}
		if !ok {
			slog.Debug("Dropping sheet row with unreadable date/time",
				"row", i+2,
				"date", cell(colDate),
				"time", cell(colTime),
				"timestamp", cell(colTimestamp),
			)
			continue
		}

		punches = append(punches, attendance.PunchEvent{
			ID:           fmt.Sprintf("row-%d", i+2),
			EmployeeID:   cell(colEmployeeID),
			EmployeeName: cell(colName),
			Email:        cell(colEmail),
			Position:     cell(colPosition),
			Timestamp:    timestamp,
			PunchType:    attendance.PunchType(strings.ToUpper(cell(colType))),
		})
	}

	return punches, nil
}

func mapHeader(header []interface{}) ([columnCount]int, error) {
	var index [columnCount]int
	for i := range index {
		index[i] = -1
	}

	for pos, raw := range header {
		name := strings.ToLower(strings.Join(strings.Fields(fmt.Sprint(raw)), " "))
		if c, ok := headerAliases[name]; ok && index[c] < 0 {
			index[c] = pos
		}
	}

	if index[colEmployeeID] < 0 {
		return index, fmt.Errorf("sheet header has no employee id column")
	}
	if index[colTimestamp] < 0 && (index[colDate] < 0 || index[colTime] < 0) {
		return index, fmt.Errorf("sheet header needs a timestamp column or date and time columns")
	}
	return index, nil
}
