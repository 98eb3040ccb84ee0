package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/llms"
)

func TestBuildSystemPromptBaseOnly(t *testing.T) {
	agent := &Agent{config: &config.AgentConfig{}, database: "analytics"}

	got := agent.buildSystemPrompt(context.Background(), "any question")
	want := fmt.Sprintf(baseSystemPrompt, "analytics")
	if got != want {
		t.Errorf("prompt = %q, want base instructions only", got)
	}

	// The instructions name the database and every tool the model may call.
	if !strings.Contains(got, `"analytics"`) {
		t.Error("prompt does not name the database")
	}
	for _, tool := range []string{"list_collections", "get_collection_schema", "execute_find", "execute_aggregation"} {
		if !strings.Contains(got, tool) {
			t.Errorf("prompt does not mention %s", tool)
		}
	}
	if !strings.Contains(got, "$lookup") {
		t.Error("prompt does not cover joins")
	}
}

func TestBuildSystemPromptAppendsContextBlocks(t *testing.T) {
	base := fmt.Sprintf(baseSystemPrompt, "inferyx")

	tests := []struct {
		name            string
		augmenter       *fakeAugmenter
		includeExamples bool
		want            string
	}{
		{
			name:      "schema_block_appended",
			augmenter: &fakeAugmenter{schema: "SCHEMA", examples: "EXAMPLES"},
			want:      base + "\n\nSCHEMA",
		},
		{
			name:            "examples_appended_when_enabled",
			augmenter:       &fakeAugmenter{schema: "SCHEMA", examples: "EXAMPLES"},
			includeExamples: true,
			want:            base + "\n\nSCHEMA\n\nEXAMPLES",
		},
		{
			name:            "empty_blocks_leave_base_untouched",
			augmenter:       &fakeAugmenter{},
			includeExamples: true,
			want:            base,
		},
		{
			name:            "examples_without_schema",
			augmenter:       &fakeAugmenter{examples: "EXAMPLES"},
			includeExamples: true,
			want:            base + "\n\nEXAMPLES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &Agent{
				config:          &config.AgentConfig{},
				database:        "inferyx",
				augmenter:       tt.augmenter,
				includeExamples: tt.includeExamples,
			}
			got := agent.buildSystemPrompt(context.Background(), "q")
			if got != tt.want {
				t.Errorf("prompt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildSystemPromptSkipsExampleRetrievalWhenDisabled(t *testing.T) {
	aug := &fakeAugmenter{schema: "SCHEMA", examples: "EXAMPLES"}
	agent := &Agent{config: &config.AgentConfig{}, database: "inferyx", augmenter: aug}

	agent.buildSystemPrompt(context.Background(), "q")
	if aug.examplesCalls != 0 {
		t.Errorf("example retrieval ran %d times with examples disabled", aug.examplesCalls)
	}
	if aug.schemaCalls != 1 {
		t.Errorf("schema retrieval ran %d times, want 1", aug.schemaCalls)
	}
}

func TestBuildSystemPromptOverrideReplacesBase(t *testing.T) {
	aug := &fakeAugmenter{schema: "SCHEMA"}
	agent := &Agent{
		config:    &config.AgentConfig{SystemPrompt: "Custom instructions."},
		database:  "inferyx",
		augmenter: aug,
	}

	got := agent.buildSystemPrompt(context.Background(), "q")
	if got != "Custom instructions.\n\nSCHEMA" {
		t.Errorf("prompt = %q", got)
	}
	if strings.Contains(got, "MongoDB expert") {
		t.Error("override did not replace the base instructions")
	}
}

func TestConversationPrependsSystemPrompt(t *testing.T) {
	transcript := []llms.Message{
		{Role: llms.RoleUser, Content: "question"},
		{Role: llms.RoleAssistant, Content: "answer"},
	}

	messages := conversation("SYSTEM", transcript)
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	if messages[0].Role != llms.RoleSystem || messages[0].Content != "SYSTEM" {
		t.Errorf("messages[0] = %+v", messages[0])
	}
	if messages[1].Content != "question" || messages[2].Content != "answer" {
		t.Errorf("transcript order changed: %+v", messages[1:])
	}

	// The transcript itself is left alone.
	if len(transcript) != 2 || transcript[0].Role != llms.RoleUser {
		t.Errorf("input transcript mutated: %+v", transcript)
	}
}
