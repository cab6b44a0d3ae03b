/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind a proxy
  3. Logger:     Structured request log through zap
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the payroll front end

ROUTE GROUPS:
  /api/awards/*      Award versions, presets, rate supersession
  /api/staff/*       Staff coverage, overrides, timesheets
  /api/calculate     Price one shift
  /api/simulate      Price a batch of independent shifts
  /api/reconcile     Salary vs award reconciliation
  /api/runs/*        Reconciliation runs and workbook export
  /api/breakdowns/*  Audit log of calculations
  /api/scenarios/*   Demo scenarios
  /healthz           Liveness

SECURITY NOTE:
  No authentication middleware. Deploy behind the payroll gateway.

SEE ALSO:
  - handlers.go, pay_handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/award-engine/config"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg config.ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.CORS.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Award routes
		r.Route("/awards", func(r chi.Router) {
			r.Get("/", h.ListAwards)
			r.Post("/", h.ImportAward)
			r.Get("/presets", h.ListPresets)
			r.Post("/presets/{key}", h.ImportPreset)
			r.Get("/{id}", h.GetAward)
			r.Get("/{id}/rates", h.GetRates)
			r.Post("/{id}/rates", h.SupersedeRate)
		})

		// Staff routes
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.SaveStaff)
			r.Get("/{id}", h.GetStaff)
			r.Get("/{id}/overrides", h.ListOverrides)
			r.Post("/{id}/overrides", h.CreateOverride)
			r.Get("/{id}/shifts", h.ListShifts)
			r.Post("/{id}/shifts", h.SaveShift)
		})

		// Calculation routes
		r.Post("/calculate", h.Calculate)
		r.Post("/simulate", h.Simulate)
		r.Post("/reconcile", h.Reconcile)

		// Reconciliation run routes
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/export.xlsx", h.ExportRuns)
			r.Get("/{id}", h.GetRun)
			r.Get("/{id}/export.xlsx", h.ExportRun)
		})

		// Audit log routes
		r.Route("/breakdowns", func(r chi.Router) {
			r.Get("/", h.ListBreakdowns)
			r.Get("/{id}", h.GetBreakdown)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.Int("status", status),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.String("ip", r.RemoteAddr),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}

			switch {
			case status >= 500:
				logger.Error("request failed", fields...)
			case status >= 400:
				logger.Warn("client error", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		})
	}
}
