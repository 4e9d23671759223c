package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harborhealth/clinic-queue-platform/internal/agent"
	"github.com/harborhealth/clinic-queue-platform/internal/followup"
	httpmiddleware "github.com/harborhealth/clinic-queue-platform/internal/http/middleware"
	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/internal/support"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	SchedulingHandler  *scheduling.Handler
	FollowUpHandler    *followup.Handler
	AgentHandler       *agent.Handler
	SupportHandler     *support.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Get("/healthz", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.SchedulingHandler != nil {
			cfg.SchedulingHandler.RegisterRoutes(api)
		}
		if cfg.FollowUpHandler != nil {
			api.Route("/followups", func(r chi.Router) {
				cfg.FollowUpHandler.RegisterRoutes(r)
			})
		}
		if cfg.AgentHandler != nil {
			api.Route("/agent", func(r chi.Router) {
				cfg.AgentHandler.RegisterRoutes(r)
			})
		}
		if cfg.SupportHandler != nil {
			api.Route("/admin", func(admin chi.Router) {
				admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
				cfg.SupportHandler.RegisterRoutes(admin)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
