package http

import (
	"log/slog"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger             *slog.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int
	IsProduction       bool
}

func NewRouter(JWTService jwt.Service, timesheetHandler TimesheetHandler, approvalHandler ApprovalHandler, opts RouterOptions) *chi.Mux {
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
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecureHeaders(opts.IsProduction))
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMinute))
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/available-months", timesheetHandler.AvailableMonths)
			r.Get("/history", timesheetHandler.History)

			r.Route("/entries", func(r chi.Router) {
				r.Post("/", timesheetHandler.SaveEntry)
				r.Post("/bulk", timesheetHandler.SaveBulkEntries)
				r.Delete("/{date}", timesheetHandler.DeleteEntry)
			})

			r.Route("/presets", func(r chi.Router) {
				r.Get("/", timesheetHandler.ListPresets)
				r.Post("/", timesheetHandler.CreatePreset)
				r.Delete("/{id}", timesheetHandler.DeletePreset)
			})

			r.Get("/documents/{id}", timesheetHandler.DownloadDocument)

			r.Route("/{year}/{month}", func(r chi.Router) {
				r.Get("/", timesheetHandler.GetPeriod)
				r.Get("/stats", timesheetHandler.GetStats)
				r.Get("/can-submit", timesheetHandler.CanSubmit)
				r.Post("/submit", timesheetHandler.Submit)
			})
		})

		r.Route("/approvals", func(r chi.Router) {
			r.Get("/", approvalHandler.List)
			r.Get("/pending", approvalHandler.ListPending)
			r.Get("/summary", approvalHandler.Summary)
			r.Get("/{id}", approvalHandler.Get)
			r.Post("/{id}/decision", approvalHandler.Decide)
		})
	})
	return r
}
