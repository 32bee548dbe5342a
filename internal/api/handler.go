package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/felipepmaragno/chatbot-gateway/internal/domain"
	"github.com/felipepmaragno/chatbot-gateway/internal/metrics"
	"github.com/felipepmaragno/chatbot-gateway/internal/ratelimit"
	"github.com/felipepmaragno/chatbot-gateway/internal/telemetry"
	"github.com/felipepmaragno/chatbot-gateway/internal/validate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ServiceName = "chatbot-gateway"

// Upstream is the completion provider the handler delegates to.
type Upstream interface {
	Complete(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	Available(ctx context.Context) bool
}

type HandlerConfig struct {
	Limiter      ratelimit.Limiter
	Validator    *validate.Validator
	Upstream     Upstream
	Environment  string
	AllowedHosts []string
	MaxTokens    int
	StaticDir    string
	Version      string
}

type Handler struct {
	limiter     ratelimit.Limiter
	validator   *validate.Validator
	upstream    Upstream
	environment string
	maxTokens   int
	staticDir   string
	version     string
	root        http.Handler
}

func NewHandler(cfg HandlerConfig) *Handler {
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}

	h := &Handler{
		limiter:     cfg.Limiter,
		validator:   cfg.Validator,
		upstream:    cfg.Upstream,
		environment: cfg.Environment,
		maxTokens:   cfg.MaxTokens,
		staticDir:   cfg.StaticDir,
		version:     version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("GET /api/status", h.handleStatus)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	if cfg.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("/", h.handleNotFound)

	h.root = securityHeaders(recoverPanic(corsPolicy(cfg.Environment, cfg.AllowedHosts)(mux)))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

// handleChat runs the request pipeline: rate limit, validate, forward
// upstream, shape the response. Rate-limit and validation rejections never
// reach the upstream; upstream failures never leak provider detail.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	clientKey := clientKey(r)

	allowed, remaining, resetAt, err := h.limiter.Allow(ctx, clientKey)
	if err != nil {
		slog.Error("rate limiter error", "error", err, "client", clientKey, "request_id", requestID)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !allowed {
		metrics.RecordRateLimitHit()
		slog.Warn("rate limit exceeded", "client", clientKey, "request_id", requestID)
		w.Header().Set("Retry-After", retryAfter(resetAt))
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		return
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	validated, err := h.validator.Validate(req)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			metrics.RecordValidationFailure(verr.Field)
			slog.Warn("request validation failed",
				"client", clientKey,
				"field", verr.Field,
				"request_id", requestID,
			)
			writeError(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ctx, span := telemetry.StartSpan(ctx, "chat")
	defer span.End()
	telemetry.AddRequestAttributes(span, clientKey, validated.Model, requestID)

	slog.Info("chat request", "client", clientKey, "model", validated.Model, "request_id", requestID)

	resp, err := h.upstream.Complete(ctx, validated)
	if err != nil {
		metrics.RecordUpstreamError("completion")
		metrics.RecordRequest(validated.Model, "error", time.Since(start).Seconds())
		telemetry.AddErrorAttribute(span, err)
		// Real cause stays in the log; the caller gets an opaque failure.
		slog.Error("upstream completion failed", "error", err, "client", clientKey, "request_id", requestID)
		writeError(w, http.StatusInternalServerError, "An error occurred while processing your request. Please try again.")
		return
	}

	metrics.RecordRequest(resp.Model, "success", time.Since(start).Seconds())

	logAttrs := []any{
		"client", clientKey,
		"model", resp.Model,
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	}
	if resp.Usage != nil {
		metrics.RecordTokens(resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		logAttrs = append(logAttrs,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens,
		)
	}
	slog.Info("chat completed", logAttrs...)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":      "healthy",
		"service":     ServiceName,
		"version":     h.version,
		"environment": h.environment,
	})
}

// handleStatus reports upstream reachability. The probe swallows its own
// failures, so this endpoint succeeds even with the provider down.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	available := h.upstream.Available(ctx)
	if !available {
		slog.Warn("upstream API unavailable")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"api_available": available,
		"environment":   h.environment,
		"max_tokens":    h.maxTokens,
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		slog.Error("error serving index.html", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	http.ServeFile(w, r, index)
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Resource not found")
}

// clientKey partitions rate-limit state by the caller's network address.
// Shared-NAT clients collapse onto one key; known limitation.
func clientKey(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(resetAt time.Time) string {
	seconds := int(time.Until(resetAt).Seconds()) + 1
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
