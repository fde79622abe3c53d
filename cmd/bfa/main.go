package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/config"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/handler"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/auth"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/cache"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/client"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/service"
	wizardservice "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/service"
)

func main() {
	// --- Config ---
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("directory_api_url", cfg.DirectoryAPIURL),
		zap.String("decision_api_url", cfg.DecisionAPIURL),
		zap.String("strategy_api_url", cfg.StrategyAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("auth_required", cfg.AuthRequired),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "cobranza-assistant-bfa",
		Endpoint:    cfg.OTLPEndpoint,
		Enabled:     cfg.TracingEnabled,
	})
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Auth ---
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.ServiceTokenTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	directoryCB := resilience.NewCircuitBreaker("directory", client.BreakerSuccess, logger)
	decisionCB := resilience.NewCircuitBreaker("decision", client.BreakerSuccess, logger)
	strategyCB := resilience.NewCircuitBreaker("strategy", client.BreakerSuccess, logger)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	tokens := &auth.ForwardingTokenSource{Issuer: issuer, Service: "cobranza-bfa"}

	directoryClient := client.NewDirectoryClient(httpClient, cfg.DirectoryAPIURL, tokens, directoryCB, resilienceCfg)
	decisionClient := client.NewDecisionClient(httpClient, cfg.DecisionAPIURL, tokens, decisionCB, resilienceCfg)
	strategyClient := client.NewStrategyClient(httpClient, cfg.StrategyAPIURL, tokens, strategyCB, resilienceCfg)

	// --- Sessions ---
	sessions := cache.New[*wizardservice.Wizard](cfg.SessionTTL)
	defer sessions.Close()

	sessionSvc := wizardservice.NewSessionService(sessions, wizardservice.Deps{
		Directory: directoryClient,
		Decision:  decisionClient,
		Strategy:  strategyClient,
		Metrics:   metrics,
		Logger:    logger,
	})
	strategySvc := service.NewStrategyService(strategyClient, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Sessions:           sessionSvc,
		Strategy:           strategySvc,
		Breakers:           []*gobreaker.CircuitBreaker{directoryCB, decisionCB, strategyCB},
		Issuer:             issuer,
		Metrics:            metrics,
		Logger:             logger,
		AuthRequired:       cfg.AuthRequired,
		CORSAllowedOrigins: cfg.AllowedOrigins(),
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// --- Graceful shutdown ---
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
