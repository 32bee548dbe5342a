package secrets

import (
	"context"
	"testing"
)

func TestResolveAPIKey(t *testing.T) {
	store := NewInMemoryStore()
	store.SetSecret("plain", "sk-from-secret")
	store.SetSecret("json", `{"OPENAI_API_KEY": "sk-from-json"}`)
	store.SetSecret("json-other", `{"SOME_OTHER_KEY": "nope"}`)

	tests := []struct {
		name     string
		secretID string
		envValue string
		want     string
		wantErr  bool
	}{
		{"env value when no secret id", "", "sk-from-env", "sk-from-env", false},
		{"empty env and no secret id", "", "", "", false},
		{"plain secret value", "plain", "sk-from-env", "sk-from-secret", false},
		{"json secret value", "json", "", "sk-from-json", false},
		{"json without expected field falls through raw", "json-other", "", `{"SOME_OTHER_KEY": "nope"}`, false},
		{"missing secret", "absent", "sk-from-env", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAPIKey(context.Background(), store, tt.secretID, tt.envValue)

			if tt.wantErr {
				if err == nil {
					t.Fatal("ResolveAPIKey() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveAPIKey() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.GetSecret(ctx, "missing"); err == nil {
		t.Error("GetSecret() should fail for missing secret")
	}

	store.SetSecret("key", "value")
	got, err := store.GetSecret(ctx, "key")
	if err != nil {
		t.Fatalf("GetSecret() error = %v", err)
	}
	if got != "value" {
		t.Errorf("GetSecret() = %q, want %q", got, "value")
	}
}
