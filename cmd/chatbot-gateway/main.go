package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/felipepmaragno/chatbot-gateway/internal/api"
	"github.com/felipepmaragno/chatbot-gateway/internal/config"
	"github.com/felipepmaragno/chatbot-gateway/internal/ratelimit"
	"github.com/felipepmaragno/chatbot-gateway/internal/secrets"
	"github.com/felipepmaragno/chatbot-gateway/internal/telemetry"
	"github.com/felipepmaragno/chatbot-gateway/internal/upstream/openai"
	"github.com/felipepmaragno/chatbot-gateway/internal/validate"
)

const version = "1.0.0"

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	slog.Info("starting chatbot gateway",
		"addr", cfg.Addr(),
		"environment", cfg.Environment,
		"version", version,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, api.ServiceName, version, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	if cfg.OTLPEndpoint != "" {
		slog.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint)
	}

	apiKey, err := resolveAPIKey(ctx, cfg)
	if err != nil {
		slog.Error("failed to resolve OpenAI API key", "error", err)
		os.Exit(1)
	}
	if apiKey == "" {
		slog.Error("OPENAI_API_KEY is not set")
		os.Exit(1)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RedisURL, cfg.RateLimitRequests, cfg.RateLimitPeriod)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisLimiter.Close()
		limiter = redisLimiter
		slog.Info("using redis rate limiter", "requests", cfg.RateLimitRequests, "period", cfg.RateLimitPeriod)
	} else {
		limiter = ratelimit.NewInMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod)
		slog.Info("using in-memory rate limiter", "requests", cfg.RateLimitRequests, "period", cfg.RateLimitPeriod)
	}

	upstream := openai.New(apiKey, cfg.OpenAIBaseURL, cfg.UpstreamTimeout)

	handler := api.NewHandler(api.HandlerConfig{
		Limiter:      limiter,
		Validator:    validate.New(cfg.MaxTokens),
		Upstream:     upstream,
		Environment:  cfg.Environment,
		AllowedHosts: cfg.AllowedHosts,
		MaxTokens:    cfg.MaxTokens,
		StaticDir:    cfg.StaticDir,
		Version:      version,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// resolveAPIKey prefers AWS Secrets Manager when a secret ID is configured
// and falls back to the environment variable otherwise.
func resolveAPIKey(ctx context.Context, cfg *config.Config) (string, error) {
	var store secrets.Store
	if cfg.OpenAIKeySecretID != "" {
		sm, err := secrets.NewAWSSecretsManager(ctx, cfg.AWSRegion)
		if err != nil {
			return "", err
		}
		store = sm
		slog.Info("resolving OpenAI API key from secrets manager", "secret_id", cfg.OpenAIKeySecretID)
	}
	return secrets.ResolveAPIKey(ctx, store, cfg.OpenAIKeySecretID, cfg.OpenAIAPIKey)
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
