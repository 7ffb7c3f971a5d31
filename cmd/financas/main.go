package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financas/internal/amqp"
	"financas/internal/auth"
	"financas/internal/cache"
	"financas/internal/cli"
	apphttp "financas/internal/http"
	applog "financas/internal/log"
	"financas/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	res := cli.OpenStore(context.Background(), logger, cfg)

	// Events are best effort: without a broker the app still works.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without record events", "error", err)
		} else {
			events = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	finance := services.NewFinanceService(res.Store, events, loc)

	caches := cache.NewManager()
	caches.Register(finance.Cache())
	caches.StartCleanup(10 * time.Minute)

	refresher := services.NewStatusRefresher(finance, cfg.StatusRefreshInterval).
		WithRecurring(services.NewRecurringProcessor(finance))

	gate, err := auth.NewGate(cfg.AuthUsername, cfg.AuthPasswordHash, cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("Invalid login configuration", "error", err)
		os.Exit(1)
	}
	if !gate.Enabled() {
		logger.Warn("Login gate disabled, AUTH_USERNAME is empty")
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Finance:            finance,
		Refresher:          refresher,
		Gate:               gate,
		Logger:             logger,
		TrustedProxies:     cfg.TrustedProxies,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CookieSecure:       cfg.CookieSecure,
	})
	if err != nil {
		logger.Error("Failed to configure HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := refresher.Stop(shutdownCtx); err != nil {
			logger.Warn("Status refresher stop error", "error", err)
		}
		caches.Stop()
		if err := finance.Close(); err != nil {
			logger.Error("Failed to close resources", "error", err)
		}
	})

	if err := refresher.Start(ctx); err != nil {
		logger.Error("Failed to start status refresher", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting financas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String(),
		"events", events != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
