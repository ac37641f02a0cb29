package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/config"
	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/attendance-service/internal/handler/http"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/realtime"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-service/internal/repository"
	attendanceService "github.com/cmlabs-hris/attendance-service/internal/service/attendance"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	})))

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open attendance source: %w", err)
	}
	defer src.Close()
	slog.Info("Attendance source ready", "source", src.Type, "timezone", cfg.App.Timezone)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	hub := sse.NewHub()
	attendanceSvc := attendanceService.NewAttendanceService(src.PunchSource, cfg.Location(), cfg.Cache.TTL)

	// PostgreSQL pushes changes through its trigger; other sources are polled
	scheduler := cron.NewScheduler()
	hasChangeFeed := src.DB != nil
	if hasChangeFeed {
		listener := realtime.NewListener(src.DB, cfg.Realtime.Channel)
		listener.OnChange(func(change realtime.Change) {
			attendanceSvc.Invalidate()
			hub.PublishAttendanceChange(change.EmployeeID, sse.EventAttendanceChanged, attendance.ChangeEvent{
				EmployeeID: change.EmployeeID,
				Op:         change.Op,
				At:         time.Now().UTC().Format(time.RFC3339),
			})
		})
		go listener.Run(ctx)
	} else {
		cron.NewAttendanceJobs(attendanceSvc, hub).RegisterJobs(scheduler, cfg.Sheet.PollInterval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc, JWTService, hub, !hasChangeFeed)
	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Env:            cfg.App.Env,
		Version:        version,
		AllowedOrigins: cfg.App.AllowedOrigins,
	}, JWTService, attendanceHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end when the signal context is cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("Closing open streams", "subscribers", hub.TotalSubscribers())
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
