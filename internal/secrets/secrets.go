// Package secrets resolves the upstream API credential. Deployments either
// set OPENAI_API_KEY directly or point the gateway at an AWS Secrets Manager
// secret holding it.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Store interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ResolveAPIKey returns the upstream API key. When secretID is set the key
// is fetched from the store; the secret value may be either the raw key or a
// JSON object with an OPENAI_API_KEY field. Otherwise envValue is used.
func ResolveAPIKey(ctx context.Context, store Store, secretID, envValue string) (string, error) {
	if secretID == "" {
		return envValue, nil
	}

	value, err := store.GetSecret(ctx, secretID)
	if err != nil {
		return "", fmt.Errorf("resolve api key: %w", err)
	}

	if strings.HasPrefix(strings.TrimSpace(value), "{") {
		var payload struct {
			OpenAIAPIKey string `json:"OPENAI_API_KEY"`
		}
		if err := json.Unmarshal([]byte(value), &payload); err == nil && payload.OpenAIAPIKey != "" {
			return payload.OpenAIAPIKey, nil
		}
	}

	return value, nil
}

// AWSSecretsManager fetches secrets from AWS Secrets Manager, caching values
// briefly so repeated lookups don't hit the API.
type AWSSecretsManager struct {
	client *secretsmanager.Client
	mu     sync.RWMutex
	cache  map[string]cachedSecret
	ttl    time.Duration
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

func NewAWSSecretsManager(ctx context.Context, region string) (*AWSSecretsManager, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &AWSSecretsManager{
		client: secretsmanager.NewFromConfig(cfg),
		cache:  make(map[string]cachedSecret),
		ttl:    5 * time.Minute,
	}, nil
}

func (s *AWSSecretsManager) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	if cached, ok := s.cache[name]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.value, nil
	}
	s.mu.RUnlock()

	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}

	value := ""
	if result.SecretString != nil {
		value = *result.SecretString
	}

	s.mu.Lock()
	s.cache[name] = cachedSecret{
		value:     value,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	return value, nil
}

// InMemoryStore is a Store for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{secrets: make(map[string]string)}
}

func (s *InMemoryStore) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.secrets[name]
	if !ok {
		return "", fmt.Errorf("secret %s not found", name)
	}
	return value, nil
}

func (s *InMemoryStore) SetSecret(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[name] = value
}
