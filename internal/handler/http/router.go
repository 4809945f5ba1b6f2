package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/handler/http/middleware"
	"github.com/wecare/escalas-backend/internal/handler/http/response"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
)

type RouterConfig struct {
	AppName        string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, checkInHandler CheckInHandler, shiftHandler ShiftHandler, notificationHandler NotificationHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Authenticated by the short-lived token in the query string
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Route("/checkins", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionCheckInCreate)).Post("/", checkInHandler.Create)
				r.With(middleware.RequirePermission(user.PermissionCheckInCreate)).Post("/validate", checkInHandler.Validate)
				r.Get("/my-pending", checkInHandler.MyPending)
				r.With(middleware.RequirePermission(user.PermissionCheckInViewOwn)).Get("/", checkInHandler.List)

				// Supervisor and above
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSupervisor)
					r.With(middleware.RequirePermission(user.PermissionCheckInStats)).Get("/stats", checkInHandler.Stats)
					r.With(middleware.RequirePermission(user.PermissionCheckInCorrect)).Put("/{id}", checkInHandler.Correct)
				})
			})

			r.Route("/shifts", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionShiftView)).Get("/calendar", shiftHandler.Calendar)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionShiftAssign))
					r.Post("/conflicts", shiftHandler.CheckConflicts)
					r.Post("/{id}/assignments", shiftHandler.Assign)
					r.Delete("/{id}/assignments/{personID}", shiftHandler.Unassign)
				})
			})

			r.Get("/notifications", notificationHandler.List)
			r.Get("/notifications/sse-token", notificationHandler.GetSSEToken)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
