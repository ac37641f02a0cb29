package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/domain/user"
	"github.com/cmlabs-hris/attendance-service/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-service/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
)

const keepaliveInterval = 30 * time.Second

type AttendanceHandler interface {
	// Records
	List(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	GetMy(w http.ResponseWriter, r *http.Request)

	// Punches
	RecordPunch(w http.ResponseWriter, r *http.Request)

	// Stream
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.Service
	jwtService        jwt.Service
	hub               *sse.Hub
	announceWrites    bool
}

// NewAttendanceHandler creates the attendance handler. Set announceWrites when
// the punch source has no change feed of its own, so recorded punches are
// pushed to stream clients by the handler.
func NewAttendanceHandler(attendanceService attendance.Service, jwtService jwt.Service, hub *sse.Hub, announceWrites bool) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		jwtService:        jwtService,
		hub:               hub,
		announceWrites:    announceWrites,
	}
}

// optionalQuery returns a pointer to the trimmed query value, or nil when absent
func optionalQuery(r *http.Request, key string) *string {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return nil
	}
	return &val
}

func recordFilterFromQuery(r *http.Request) attendance.RecordFilter {
	return attendance.RecordFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
		Email:      optionalQuery(r, "email"),
		Month:      optionalQuery(r, "month"),
	}
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	req := attendance.ListRecordsRequest{
		RecordFilter: recordFilterFromQuery(r),
		SortOrder:    r.URL.Query().Get("sort_order"),
	}

	if page := r.URL.Query().Get("page"); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil {
			response.BadRequest(w, "page must be a number", nil)
			return
		}
		req.Page = p
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			response.BadRequest(w, "limit must be a number", nil)
			return
		}
		req.Limit = l
	}

	result, err := h.attendanceService.ListRecords(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Records, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
		Showing:    result.Showing,
	})
}

// Export implements AttendanceHandler.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	filter := recordFilterFromQuery(r)

	var buf bytes.Buffer
	if err := h.attendanceService.ExportCSV(r.Context(), filter, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	name := "attendance"
	if filter.Month != nil {
		name += "-" + *filter.Month
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write attendance export", "error", err)
	}
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	date := chi.URLParam(r, "date")

	principal, _ := middleware.PrincipalFromContext(r.Context())
	if !principal.Can(user.PermissionAttendanceViewAll) && principal.EmployeeID != employeeID {
		response.HandleError(w, attendance.ErrEmployeeMismatch)
		return
	}

	result, err := h.attendanceService.GetRecord(r.Context(), employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Summary implements AttendanceHandler.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.Summary(r.Context(), recordFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMy implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMy(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFromContext(r.Context())
	if principal.EmployeeID == "" {
		response.HandleError(w, attendance.ErrEmployeeIDMissing)
		return
	}

	records, err := h.attendanceService.GetMyRecords(r.Context(), principal.EmployeeID, optionalQuery(r, "month"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, records)
}

// RecordPunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecordPunch(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	principal, _ := middleware.PrincipalFromContext(r.Context())
	if !principal.Can(user.PermissionAttendanceViewAll) {
		if principal.EmployeeID == "" {
			response.HandleError(w, attendance.ErrEmployeeIDMissing)
			return
		}
		if req.EmployeeID != "" && req.EmployeeID != principal.EmployeeID {
			response.HandleError(w, attendance.ErrEmployeeMismatch)
			return
		}
		req.EmployeeID = principal.EmployeeID
		if req.Email == "" {
			req.Email = principal.Email
		}
	}

	created, err := h.attendanceService.RecordPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if h.announceWrites {
		h.hub.PublishAttendanceChange(created.EmployeeID, sse.EventAttendanceChanged, attendance.ChangeEvent{
			EmployeeID: created.EmployeeID,
			Op:         "INSERT",
			At:         time.Now().UTC().Format(time.RFC3339),
		})
	}

	response.Created(w, "Punch recorded", created)
}

// GetStreamToken generates a short-lived token for stream connections
func (h *attendanceHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(principal)
	if err != nil {
		slog.Error("Failed to generate stream token", "error", err, "user_id", principal.UserID)
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, attendance.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes attendance change events. Managers receive every change,
// employees only their own.
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Token comes from the query string; EventSource cannot set headers
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	principal, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		response.HandleError(w, attendance.ErrInvalidStreamToken)
		return
	}

	topic := sse.TopicAll
	if !principal.Can(user.PermissionAttendanceViewAll) {
		if principal.EmployeeID == "" {
			response.HandleError(w, attendance.ErrEmployeeIDMissing)
			return
		}
		topic = sse.EmployeeTopic(principal.EmployeeID)
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(topic)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"topic\":%q}\n\n", topic)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Failed to encode stream event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
