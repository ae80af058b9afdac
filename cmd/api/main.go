package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	apirouter "github.com/Aureaautomations/aurea-chat/internal/api/router"
	"github.com/Aureaautomations/aurea-chat/internal/chat"
	"github.com/Aureaautomations/aurea-chat/internal/clients"
	appconfig "github.com/Aureaautomations/aurea-chat/internal/config"
	"github.com/Aureaautomations/aurea-chat/internal/cta"
	"github.com/Aureaautomations/aurea-chat/internal/events"
	"github.com/Aureaautomations/aurea-chat/internal/llm"
	"github.com/Aureaautomations/aurea-chat/internal/observability/metrics"
	"github.com/Aureaautomations/aurea-chat/internal/reply"
	"github.com/Aureaautomations/aurea-chat/internal/sitesummary"
	"github.com/Aureaautomations/aurea-chat/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting aurea-chat API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to init Gemini client", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()

	summaryCache := buildSummaryCache(cfg, logger)
	summarizer := sitesummary.NewSummarizer(gemini, summaryCache, cfg.SummaryTTL, logger)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open Postgres pool", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		logger.Warn("DATABASE_URL unset, event persistence disabled")
	}
	sink := events.NewSink(db, logger)

	reg := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(reg)

	handler := chat.NewHandler(
		clients.NewStore(cfg.ClientsPath, cfg.ClientsReloadTTL),
		summarizer,
		reply.NewExecutor(gemini, sink, logger),
		sink,
		chatMetrics,
		cta.Fallbacks{
			DebugClientID: cfg.DebugClientID,
			BookingURL:    cfg.DebugBookingURL,
			ContactURL:    cfg.DebugContactURL,
			EscalateURL:   cfg.DebugEscalateURL,
		},
		logger,
	)

	r := apirouter.New(&apirouter.Config{
		Logger:             logger,
		ChatHandler:        handler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildSummaryCache(cfg *appconfig.Config, logger *logging.Logger) sitesummary.Cache {
	if cfg.SummaryCacheDriver != "redis" {
		return sitesummary.NewMemoryCache()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	logger.Info("using Redis summary cache", "addr", cfg.RedisAddr)
	return sitesummary.NewRedisCache(redis.NewClient(opts))
}
