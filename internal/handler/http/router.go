package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-service/internal/domain/user"
	"github.com/cmlabs-hris/attendance-service/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig holds the environment-dependent router settings
type RouterConfig struct {
	Env            string
	Version        string
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, attendanceHandler AttendanceHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hr-attendance"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api/v1/attendance", func(r chi.Router) {
		// Stream token travels in the query string
		r.Get("/stream", attendanceHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Get("/stream/token", attendanceHandler.GetStreamToken)

			r.Route("/records", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))
					r.Get("/", attendanceHandler.List)
					r.Get("/export", attendanceHandler.Export)
				})

				// Own records or view_all, checked in the handler
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).
					Get("/{employeeID}/{date}", attendanceHandler.Get)
			})

			r.With(middleware.RequirePermission(user.PermissionReportsView)).
				Get("/summary", attendanceHandler.Summary)

			r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).
				Get("/my", attendanceHandler.GetMy)

			r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).
				Post("/punches", attendanceHandler.RecordPunch)
		})
	})
	return r
}
