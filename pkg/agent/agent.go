// Package agent implements the tool-calling control loop that answers
// natural language questions against MongoDB.
//
// One run seeds a transcript with the user's question, then alternates
// between model calls and tool execution: every model message that requests
// tools gets each call dispatched and its textual result appended, and the
// first model message with no tool requests ends the run. The system prompt
// is rebuilt before every model call from the original question, so
// retrieval context tracks the question rather than the growing transcript.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/llms"
	"github.com/inferyx/queryagent/pkg/observability"
	"github.com/inferyx/queryagent/pkg/tools"
	"github.com/inferyx/queryagent/pkg/utils"
)

// ============================================================================
// AGENT - CONTROL LOOP ORCHESTRATION
// ============================================================================

// ContextAugmenter supplies the context blocks appended to the system
// prompt. Both methods degrade to "" when nothing can be retrieved.
type ContextAugmenter interface {
	Augment(ctx context.Context, question string) string
	AugmentExamples(ctx context.Context, question string) string
}

// Config carries the agent's dependencies and loop settings.
type Config struct {
	// Agent holds the loop settings (round cap, token budget, optional
	// system prompt override). Nil gets the defaults.
	Agent *config.AgentConfig

	// LLM is the model oracle. Required.
	LLM llms.LLMProvider

	// Tools dispatches the model's tool calls. Required.
	Tools *tools.ToolRegistry

	// Augmenter supplies retrieval context. Nil runs the loop on the base
	// instructions alone.
	Augmenter ContextAugmenter

	// Database is the database name woven into the base instructions.
	// Defaults to "inferyx".
	Database string

	// IncludeExamples also appends the query-examples block to the system
	// prompt. Off by default; schema context alone is usually enough and
	// skipping the second search saves a round trip per model call.
	IncludeExamples bool
}

// Agent runs the control loop for one question at a time. Each Ask owns its
// transcript, so a single Agent is safe for concurrent use.
type Agent struct {
	config          *config.AgentConfig
	llm             llms.LLMProvider
	tools           *tools.ToolRegistry
	augmenter       ContextAugmenter
	database        string
	includeExamples bool
	counter         *utils.TokenCounter
}

// New creates an agent from its dependencies
func New(cfg Config) (*Agent, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("agent requires an LLM provider")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("agent requires a tool registry")
	}

	agentCfg := cfg.Agent
	if agentCfg == nil {
		agentCfg = &config.AgentConfig{}
	}
	agentCfg.SetDefaults()
	if err := agentCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "inferyx"
	}

	var counter *utils.TokenCounter
	if agentCfg.MaxContextTokens > 0 {
		c, err := utils.NewTokenCounter(cfg.LLM.GetModelName())
		if err != nil {
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		counter = c
	}

	return &Agent{
		config:          agentCfg,
		llm:             cfg.LLM,
		tools:           cfg.Tools,
		augmenter:       cfg.Augmenter,
		database:        database,
		includeExamples: cfg.IncludeExamples,
		counter:         counter,
	}, nil
}

// ============================================================================
// MAIN LOOP
// ============================================================================

// Ask answers one natural language question. It returns an error only for
// fatal conditions (model unreachable, context cancelled); tool failures are
// textual results the model reasons over, and hitting the round cap is the
// OutcomeRoundLimit result, not an error.
func (a *Agent) Ask(ctx context.Context, question string) (*Result, error) {
	startTime := time.Now()

	transcript := []llms.Message{{Role: llms.RoleUser, Content: question}}
	toolDefs := a.tools.Declarations()

	totalTokens := 0
	rounds := 0

	for rounds < a.config.MaxRounds {
		rounds++

		if err := ctx.Err(); err != nil {
			a.recordAsk(ctx, time.Since(startTime), totalTokens, err)
			return nil, err
		}

		transcript = a.trimTranscript(transcript)

		systemPrompt := a.buildSystemPrompt(ctx, question)
		messages := conversation(systemPrompt, transcript)

		slog.Debug("Model round",
			"round", rounds,
			"transcript_messages", len(transcript))

		text, toolCalls, tokens, err := a.llm.Generate(ctx, messages, toolDefs)
		if err != nil {
			wrapped := fmt.Errorf("model call failed: %w", err)
			a.recordAsk(ctx, time.Since(startTime), totalTokens, wrapped)
			return nil, wrapped
		}
		totalTokens += tokens

		fillToolCallIDs(toolCalls)

		transcript = append(transcript, llms.Message{
			Role:      llms.RoleAssistant,
			Content:   text,
			ToolCalls: toolCalls,
		})

		// A model message with no tool requests is terminal.
		if len(toolCalls) == 0 {
			a.recordAsk(ctx, time.Since(startTime), totalTokens, nil)
			return &Result{
				Answer:     ExtractAnswer(transcript),
				Outcome:    OutcomeAnswered,
				Rounds:     rounds,
				TokensUsed: totalTokens,
				Duration:   time.Since(startTime),
				Transcript: transcript,
			}, nil
		}

		results := a.executeTools(ctx, toolCalls)
		for i, result := range results {
			transcript = append(transcript, llms.Message{
				Role:       llms.RoleTool,
				Content:    result,
				ToolCallID: toolCalls[i].ID,
			})
		}
	}

	slog.Warn("Round cap reached before the model stopped requesting tools",
		"rounds", rounds,
		"question_chars", len(question))

	a.recordAsk(ctx, time.Since(startTime), totalTokens, nil)
	return &Result{
		Outcome:    OutcomeRoundLimit,
		Rounds:     rounds,
		TokensUsed: totalTokens,
		Duration:   time.Since(startTime),
		Transcript: transcript,
	}, nil
}

// ============================================================================
// TOOL DISPATCH
// ============================================================================

// executeTools runs all tool calls of one round concurrently. The result
// slice is index-addressed so results line up with the model's call order
// regardless of completion order.
func (a *Agent) executeTools(ctx context.Context, toolCalls []llms.ToolCall) []string {
	results := make([]string, len(toolCalls))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, call := range toolCalls {
		i, call := i, call // Capture for goroutine
		group.Go(func() error {
			results[i] = a.executeTool(groupCtx, call)
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (a *Agent) executeTool(ctx context.Context, call llms.ToolCall) string {
	start := time.Now()
	result := a.tools.ExecuteTool(ctx, call.Name, call.Arguments)

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordToolExecution(ctx, call.Name, time.Since(start), isErrorResult(result))
	}

	slog.Debug("Tool executed",
		"tool", call.Name,
		"result_bytes", len(result))

	return result
}

// isErrorResult matches the textual error shapes tools emit, for metrics
// labeling only; the loop treats every result the same way.
func isErrorResult(result string) bool {
	return strings.HasPrefix(result, "Error") ||
		strings.HasPrefix(result, "Invalid") ||
		strings.HasPrefix(result, "pipeline_json must be")
}

// fillToolCallIDs assigns IDs to calls the provider left unidentified.
// Results are matched to calls by ID, so every call needs one.
func fillToolCallIDs(toolCalls []llms.ToolCall) {
	for i := range toolCalls {
		if toolCalls[i].ID == "" {
			toolCalls[i].ID = "call_" + uuid.NewString()[:8]
		}
	}
}

// ============================================================================
// TRANSCRIPT BUDGET
// ============================================================================

// trimTranscript drops whole oldest rounds until the transcript fits the
// configured token budget. The seed user message always stays, and so does
// the newest round: without its results the next model call could not make
// progress. No budget configured means no trimming.
func (a *Agent) trimTranscript(transcript []llms.Message) []llms.Message {
	if a.config.MaxContextTokens <= 0 || a.counter == nil {
		return transcript
	}

	for a.transcriptTokens(transcript) > a.config.MaxContextTokens {
		trimmed, ok := dropOldestRound(transcript)
		if !ok {
			break
		}
		slog.Debug("Trimmed oldest round from transcript",
			"messages_before", len(transcript),
			"messages_after", len(trimmed))
		transcript = trimmed
	}

	return transcript
}

func (a *Agent) transcriptTokens(transcript []llms.Message) int {
	counted := make([]utils.Message, len(transcript))
	for i, msg := range transcript {
		counted[i] = utils.Message{Role: msg.Role, Content: messageText(msg)}
	}
	return a.counter.CountMessages(counted)
}

// messageText approximates what a message costs on the wire: its content
// plus any tool call names and raw argument JSON.
func messageText(msg llms.Message) string {
	if len(msg.ToolCalls) == 0 {
		return msg.Content
	}

	var b strings.Builder
	b.WriteString(msg.Content)
	for _, call := range msg.ToolCalls {
		b.WriteString(call.Name)
		b.WriteString(call.RawArgs)
	}
	return b.String()
}

// dropOldestRound removes the oldest assistant message together with its
// tool results. Returns false when nothing can be dropped: either no
// complete round exists, or only the newest round remains.
func dropOldestRound(transcript []llms.Message) ([]llms.Message, bool) {
	for i := 1; i < len(transcript); i++ {
		if transcript[i].Role != llms.RoleAssistant {
			continue
		}

		end := i + 1
		for end < len(transcript) && transcript[end].Role == llms.RoleTool {
			end++
		}
		if end >= len(transcript) {
			return transcript, false
		}

		out := make([]llms.Message, 0, len(transcript)-(end-i))
		out = append(out, transcript[:i]...)
		out = append(out, transcript[end:]...)
		return out, true
	}
	return transcript, false
}

// ============================================================================
// HELPERS
// ============================================================================

func (a *Agent) recordAsk(ctx context.Context, duration time.Duration, tokens int, err error) {
	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordAskRequest(ctx, duration, tokens, err)
	}
}
