package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/cielo-gateway-go/internal/config"
	"github.com/boddenberg/cielo-gateway-go/internal/handler"
	"github.com/boddenberg/cielo-gateway-go/internal/infra/cache"
	"github.com/boddenberg/cielo-gateway-go/internal/infra/observability"
	"github.com/boddenberg/cielo-gateway-go/internal/infra/resilience"
	"github.com/boddenberg/cielo-gateway-go/internal/infra/transport"
	"github.com/boddenberg/cielo-gateway-go/internal/protocol"
	"github.com/boddenberg/cielo-gateway-go/internal/service"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "reading .env: %v\n", err)
		os.Exit(1)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "cielo-gateway")
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	endpoint, _ := cfg.CieloEndpoint()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("mode", string(cfg.Mode)),
		zap.String("endpoint", endpoint),
		zap.String("protocol_version", cfg.ProtocolVersion),
		zap.Bool("auto_capture", cfg.AutoCapture),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("query_cache_ttl", cfg.QueryCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("auth_enabled", cfg.JWTSecret != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "cielo-gateway")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	queryCache := cache.New[*protocol.TransactionResult](cfg.QueryCacheTTL)
	defer queryCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("cielo", func(name string, from, to gobreaker.State) {
		metrics.SetBreakerState(name, int(to))
		logger.Warn("circuit breaker state change",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})

	// --- Transport ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	cielo := transport.NewClient("cielo", httpClient, cb, resilienceCfg, logger)

	// --- Services ---
	gateway := service.NewGatewayService(
		service.Settings{
			Endpoint:        endpoint,
			AffiliationCode: cfg.AffiliationCode,
			AffiliationKey:  cfg.AffiliationKey,
			ReturnURL:       cfg.ReturnURL,
			AutoCapture:     cfg.AutoCapture,
			ProtocolVersion: cfg.ProtocolVersion,
		},
		cielo.Factory(),
		queryCache,
		metrics,
		observability.NewCardFingerprinter(cfg.CardFingerprintKey),
		logger,
	)

	var auth handler.TokenValidator
	if cfg.JWTSecret != "" {
		auth = service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL)
	} else {
		logger.Warn("JWT_SECRET not set, /v1 routes are unauthenticated")
	}

	// --- Router ---
	router := handler.NewRouter(gateway, auth, cielo, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
