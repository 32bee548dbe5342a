// Package openai talks to the OpenAI chat completion API and normalizes its
// responses for the gateway.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felipepmaragno/chatbot-gateway/internal/domain"
	"github.com/felipepmaragno/chatbot-gateway/internal/httputil"
	"github.com/felipepmaragno/chatbot-gateway/internal/telemetry"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  httputil.NewClient(timeout),
	}
}

type completionRequest struct {
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *domain.Usage `json:"usage"`
}

// Complete forwards a validated chat request and returns the first choice's
// content plus the model and usage the provider reported. Callers treat any
// returned error as opaque; the detail is for server-side logs only.
func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "openai.complete")
	defer span.End()

	body, err := json.Marshal(completionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		telemetry.AddErrorAttribute(span, err)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("openai: status=%d body=%s", resp.StatusCode, string(bodyBytes))
		telemetry.AddErrorAttribute(span, err)
		return nil, err
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, domain.ErrEmptyCompletion
	}

	if completion.Usage != nil {
		telemetry.AddUsageAttributes(span, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	}

	return &domain.ChatResponse{
		Response: completion.Choices[0].Message.Content,
		Model:    completion.Model,
		Usage:    completion.Usage,
	}, nil
}

// Available probes the provider by listing models. All failures collapse
// into false; this feeds the status endpoint and must never error out.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return false
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}
