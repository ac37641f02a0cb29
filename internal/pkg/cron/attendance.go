package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/sse"
)

// AttendanceJobs polls sources that cannot push change notifications.
type AttendanceJobs struct {
	service attendance.Service
	hub     *sse.Hub
	now     func() time.Time
}

func NewAttendanceJobs(service attendance.Service, hub *sse.Hub) *AttendanceJobs {
	return &AttendanceJobs{service: service, hub: hub, now: time.Now}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("refresh_sheet_attendance", interval, j.RefreshSheetAttendance)
}

// RefreshSheetAttendance re-reads the source and tells stream subscribers to
// re-fetch when the aggregated records differ from the last poll. Managers get
// one event and each affected employee gets one on their own topic.
func (j *AttendanceJobs) RefreshSheetAttendance(ctx context.Context) error {
	changed, err := j.service.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh attendance: %w", err)
	}
	if len(changed) == 0 {
		return nil
	}

	at := j.now().UTC().Format(time.RFC3339)
	slog.Info("Cron: attendance changed, notifying subscribers",
		"employees", len(changed),
		"subscribers", j.hub.TotalSubscribers(),
	)

	j.hub.Publish(sse.Event{
		Topic: sse.TopicAll,
		Event: sse.EventAttendanceChanged,
		Data:  attendance.ChangeEvent{Op: "REFRESH", At: at},
	})
	for _, id := range changed {
		j.hub.Publish(sse.Event{
			Topic: sse.EmployeeTopic(id),
			Event: sse.EventAttendanceChanged,
			Data:  attendance.ChangeEvent{EmployeeID: id, Op: "REFRESH", At: at},
		})
	}
	return nil
}
