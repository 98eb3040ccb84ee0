package utils

import (
	"strings"
	"testing"
)

func TestNewTokenCounter(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{"known_model", "gpt-4"},
		{"claude_fallback", "claude-sonnet-4"},
		{"unknown_model", "totally-made-up-model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := NewTokenCounter(tt.model)
			if err != nil {
				t.Fatalf("NewTokenCounter(%q) error: %v", tt.model, err)
			}
			if tc.GetModel() != tt.model {
				t.Errorf("GetModel() = %q, want %q", tc.GetModel(), tt.model)
			}
		})
	}
}

func TestCount(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter error: %v", err)
	}

	tests := []struct {
		name string
		text string
		min  int
		max  int
	}{
		{"empty", "", 0, 0},
		{"single_word", "hello", 1, 1},
		{"sentence", "How many orders per customer?", 4, 10},
		{"long_text", strings.Repeat("collection schema ", 100), 150, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tc.Count(tt.text)
			if got < tt.min || got > tt.max {
				t.Errorf("Count(%q...) = %d, want in [%d, %d]", truncate(tt.text, 20), got, tt.min, tt.max)
			}
		})
	}
}

func TestCountMessagesOverhead(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter error: %v", err)
	}

	empty := tc.CountMessages(nil)
	if empty != 3 {
		t.Errorf("CountMessages(nil) = %d, want 3 (reply priming only)", empty)
	}

	one := tc.CountMessages([]Message{{Role: "user", Content: "hi"}})
	if one <= empty {
		t.Errorf("one message count %d should exceed empty count %d", one, empty)
	}

	two := tc.CountMessages([]Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	if two <= one {
		t.Errorf("two message count %d should exceed one message count %d", two, one)
	}
}

func TestFitWithinLimit(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4")
	if err != nil {
		t.Fatalf("NewTokenCounter error: %v", err)
	}

	messages := []Message{
		{Role: "user", Content: strings.Repeat("old context ", 50)},
		{Role: "assistant", Content: strings.Repeat("middle reply ", 50)},
		{Role: "user", Content: "latest question"},
	}

	t.Run("generous_budget_keeps_all", func(t *testing.T) {
		fitted := tc.FitWithinLimit(messages, 10000)
		if len(fitted) != 3 {
			t.Errorf("got %d messages, want 3", len(fitted))
		}
	})

	t.Run("tight_budget_keeps_most_recent", func(t *testing.T) {
		fitted := tc.FitWithinLimit(messages, 30)
		if len(fitted) != 1 {
			t.Fatalf("got %d messages, want 1", len(fitted))
		}
		if fitted[0].Content != "latest question" {
			t.Errorf("kept %q, want the most recent message", fitted[0].Content)
		}
	})

	t.Run("zero_budget_keeps_none", func(t *testing.T) {
		fitted := tc.FitWithinLimit(messages, 0)
		if len(fitted) != 0 {
			t.Errorf("got %d messages, want 0", len(fitted))
		}
	})

	t.Run("empty_input", func(t *testing.T) {
		fitted := tc.FitWithinLimit(nil, 100)
		if len(fitted) != 0 {
			t.Errorf("got %d messages, want 0", len(fitted))
		}
	})
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens("12345678"); got != 2 {
		t.Errorf("EstimateTokens = %d, want 2", got)
	}
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(\"\") = %d, want 0", got)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
