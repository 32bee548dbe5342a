package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host         string
	Port         string
	Environment  string
	AllowedHosts []string
	LogLevel     string

	// Request limits
	MaxTokens         int
	RateLimitRequests int
	RateLimitPeriod   time.Duration

	// Upstream provider
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIKeySecretID string
	AWSRegion         string
	UpstreamTimeout   time.Duration

	// Optional backends
	RedisURL     string
	OTLPEndpoint string

	StaticDir       string
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "8000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		AllowedHosts:      splitHosts(getEnv("ALLOWED_HOSTS", "*")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MaxTokens:         getIntEnv("MAX_TOKENS", 2048),
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
		RateLimitPeriod:   getDurationEnv("RATE_LIMIT_PERIOD", 60*time.Second),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIKeySecretID: getEnv("OPENAI_API_KEY_SECRET_ID", ""),
		AWSRegion:         getEnv("AWS_REGION", ""),
		UpstreamTimeout:   getDurationEnv("UPSTREAM_TIMEOUT", 60*time.Second),
		RedisURL:          getEnv("REDIS_URL", ""),
		OTLPEndpoint:      getEnv("OTLP_ENDPOINT", ""),
		StaticDir:         getEnv("STATIC_DIR", "web/static"),
		ShutdownTimeout:   getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) Production() bool {
	return c.Environment == "production"
}

func splitHosts(value string) []string {
	parts := strings.Split(value, ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			hosts = append(hosts, p)
		}
	}
	return hosts
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
