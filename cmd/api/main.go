package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/queensauto/booking-funnel/internal/api/router"
	"github.com/queensauto/booking-funnel/internal/availability"
	appconfig "github.com/queensauto/booking-funnel/internal/config"
	"github.com/queensauto/booking-funnel/internal/http/handlers"
	"github.com/queensauto/booking-funnel/internal/observability/metrics"
	"github.com/queensauto/booking-funnel/internal/session"
	"github.com/queensauto/booking-funnel/internal/submit"
	"github.com/queensauto/booking-funnel/pkg/logging"
)

func main() {
	// Load .env in development; ignore if missing.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting booking-funnel API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Session storage: redis in production, in-memory for local runs.
	var store session.Store
	if cfg.UseMemorySessions {
		logger.Info("using in-memory session store")
		store = session.NewMemoryStore(cfg.SessionTTL)
	} else {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		cancel()
		store = session.NewRedisStore(client, cfg.SessionTTL, nil)
	}

	engine := availability.New(
		cfg.BusinessTimezone,
		cfg.ClosedWeekday,
		cfg.OpenHour,
		cfg.LastSlotHour,
		cfg.SlotInterval,
		cfg.MinLeadTime,
	)

	funnelMetrics := metrics.NewFunnelMetrics(prometheus.DefaultRegisterer)

	pipeline := submit.New(submit.Config{
		WebhookURL:      cfg.LeadWebhookURL,
		WebhookTimeout:  cfg.LeadWebhookTimeout,
		ConfirmationURL: cfg.ConfirmationURL,
		CountryCode:     cfg.CountryCode,
		PageVariant:     cfg.PageVariant,
		Store:           store,
		Logger:          logger,
		Metrics:         funnelMetrics,
	})

	funnelHandler := handlers.NewFunnelHandler(store, engine, pipeline, funnelMetrics, logger, cfg.DefaultLanguage)
	confirmationHandler := handlers.NewConfirmationHandler(store, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		FunnelHandler:       funnelHandler,
		ConfirmationHandler: confirmationHandler,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
