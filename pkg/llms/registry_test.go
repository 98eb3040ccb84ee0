package llms

import (
	"testing"

	"github.com/inferyx/queryagent/pkg/config"
)

func TestCreateLLMFromConfig(t *testing.T) {
	reg := NewLLMRegistry()

	provider, err := reg.CreateLLMFromConfig("main", &config.LLMProviderConfig{
		Type:   "anthropic",
		APIKey: "test-key",
	})
	if err != nil {
		t.Fatalf("CreateLLMFromConfig failed: %v", err)
	}
	if provider.GetModelName() != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q, want config default", provider.GetModelName())
	}

	got, err := reg.GetLLM("main")
	if err != nil {
		t.Fatalf("GetLLM failed: %v", err)
	}
	if got != provider {
		t.Error("registry returned a different provider")
	}
}

func TestCreateLLMFromConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		llmName string
		cfg     *config.LLMProviderConfig
	}{
		{"empty_name", "", &config.LLMProviderConfig{Type: "anthropic", APIKey: "k"}},
		{"nil_config", "main", nil},
		{"unsupported_type", "main", &config.LLMProviderConfig{Type: "ollama"}},
		{"anthropic_missing_key", "main", &config.LLMProviderConfig{Type: "anthropic", APIKey: "", Model: "claude-sonnet-4-20250514", Host: "https://api.anthropic.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Keep ambient credentials from leaking into the empty-key cases.
			t.Setenv("ANTHROPIC_API_KEY", "")
			t.Setenv("OPENAI_API_KEY", "")

			reg := NewLLMRegistry()
			if _, err := reg.CreateLLMFromConfig(tt.llmName, tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestGetLLMNotFound(t *testing.T) {
	reg := NewLLMRegistry()
	if _, err := reg.GetLLM("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}
}
