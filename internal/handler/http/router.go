package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-approval-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AllowedOrigins []string
	// RateLimit guards the mutating routes. Nil disables throttling.
	RateLimit func(http.Handler) http.Handler
	Logger    *slog.Logger
	LogLevel  slog.Level
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, leaveHandler LeaveHandler, timesheetHandler TimesheetHandler, notificationHandler NotificationHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	throttle := opts.RateLimit
	if throttle == nil {
		throttle = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/v1", func(r chi.Router) {
		// EventSource cannot send headers, the stream authenticates with ?token=
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/leaves", func(r chi.Router) {
				r.Get("/", leaveHandler.List)
				r.With(throttle).Post("/", leaveHandler.Submit)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", leaveHandler.Get)
					r.Get("/flow", leaveHandler.Flow)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireApprover, throttle)
						r.Post("/approve", leaveHandler.Approve)
						r.Post("/deny", leaveHandler.Deny)
					})
				})
			})

			r.Route("/timesheets", func(r chi.Router) {
				r.Get("/", timesheetHandler.List)
				r.With(throttle).Post("/", timesheetHandler.Submit)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", timesheetHandler.Get)
					r.Get("/flow", timesheetHandler.Flow)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireApprover, throttle)
						r.Post("/approve", timesheetHandler.Approve)
						r.Post("/deny", timesheetHandler.Deny)
					})
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Get("/sse-token", notificationHandler.GetSSEToken)
				r.Post("/read", notificationHandler.MarkAsRead)
				r.Post("/read-all", notificationHandler.MarkAllAsRead)
				r.Delete("/{id}", notificationHandler.Delete)
			})
		})
	})
	return r
}
