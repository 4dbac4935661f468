package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/queensauto/booking-funnel/internal/http/handlers"
	httpmiddleware "github.com/queensauto/booking-funnel/internal/http/middleware"
	"github.com/queensauto/booking-funnel/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	FunnelHandler       *handlers.FunnelHandler
	ConfirmationHandler *handlers.ConfirmationHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
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

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/funnel", func(funnel chi.Router) {
		funnel.Post("/sessions", cfg.FunnelHandler.CreateSession)
		funnel.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", cfg.FunnelHandler.GetSession)
			r.Patch("/fields", cfg.FunnelHandler.UpdateField)
			r.Post("/advance", cfg.FunnelHandler.Advance)
			r.Post("/back", cfg.FunnelHandler.Back)
			r.Post("/submit", cfg.FunnelHandler.Submit)
			r.Put("/language", cfg.FunnelHandler.SetLanguage)
			r.Post("/exit-popup", cfg.FunnelHandler.ExitPopup)
		})
		funnel.Route("/availability", func(r chi.Router) {
			r.Get("/calendar", cfg.FunnelHandler.Calendar)
			r.Get("/slots", cfg.FunnelHandler.Slots)
		})
	})

	r.Get("/confirmation", cfg.ConfirmationHandler.Show)

	return r
}
