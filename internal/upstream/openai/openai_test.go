package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felipepmaragno/chatbot-gateway/internal/domain"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func testRequest() domain.ChatRequest {
	return domain.ChatRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: "hello"}},
		MaxTokens:   intPtr(1024),
		Temperature: floatPtr(1.0),
	}
}

func TestComplete(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody completionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-3.5-turbo-0125",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hi"}},
			},
			"usage": map[string]int{
				"prompt_tokens":     5,
				"completion_tokens": 1,
				"total_tokens":      6,
			},
		})
	}))
	defer srv.Close()

	client := New("sk-test", srv.URL, 10*time.Second)

	resp, err := client.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want Bearer sk-test", gotAuth)
	}
	if gotBody.Model != "gpt-3.5-turbo" {
		t.Errorf("forwarded model = %q, want gpt-3.5-turbo", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Content != "hello" {
		t.Errorf("forwarded messages = %+v", gotBody.Messages)
	}
	if gotBody.MaxTokens == nil || *gotBody.MaxTokens != 1024 {
		t.Errorf("forwarded max_tokens = %v, want 1024", gotBody.MaxTokens)
	}

	if resp.Response != "hi" {
		t.Errorf("Response = %q, want %q", resp.Response, "hi")
	}
	// The provider-reported model wins, even when it differs from the request.
	if resp.Model != "gpt-3.5-turbo-0125" {
		t.Errorf("Model = %q, want gpt-3.5-turbo-0125", resp.Model)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 6 {
		t.Errorf("Usage = %+v, want total 6", resp.Usage)
	}
}

func TestComplete_NoUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-3.5-turbo",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hi"}},
			},
		})
	}))
	defer srv.Close()

	client := New("sk-test", srv.URL, 10*time.Second)

	resp, err := client.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Usage != nil {
		t.Errorf("Usage = %+v, want nil when the provider omits it", resp.Usage)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "provider error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error": {"message": "invalid api key"}}`, http.StatusUnauthorized)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"model": "gpt-3.5-turbo", "choices": []any{}})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := New("sk-test", srv.URL, 10*time.Second)

			if _, err := client.Complete(context.Background(), testRequest()); err == nil {
				t.Error("Complete() error = nil, want error")
			}
		})
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	client := New("sk-test", srv.URL, time.Second)

	if _, err := client.Complete(context.Background(), testRequest()); err == nil {
		t.Error("Complete() error = nil, want transport error")
	}
}

func TestAvailable(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/models" {
				t.Errorf("path = %q, want /models", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		}))
		defer srv.Close()

		client := New("sk-test", srv.URL, 10*time.Second)
		if !client.Available(context.Background()) {
			t.Error("Available() = false, want true")
		}
	})

	t.Run("provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := New("sk-test", srv.URL, 10*time.Second)
		if client.Available(context.Background()) {
			t.Error("Available() = true, want false")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := New("sk-test", srv.URL, time.Second)
		if client.Available(context.Background()) {
			t.Error("Available() = true, want false")
		}
	})
}

func TestNew_DefaultBaseURL(t *testing.T) {
	client := New("sk-test", "", 0)
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
	if !strings.HasPrefix(client.baseURL, "https://") {
		t.Errorf("default base URL should be https, got %q", client.baseURL)
	}
}
