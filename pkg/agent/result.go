package agent

import (
	"time"

	"github.com/inferyx/queryagent/pkg/llms"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeAnswered means the model produced a final answer.
	OutcomeAnswered Outcome = "answered"

	// OutcomeRoundLimit means the round cap was hit while the model was
	// still requesting tools. Not an error and not an answer.
	OutcomeRoundLimit Outcome = "round_limit"
)

// Result is what one Ask run produced.
type Result struct {
	Answer     string
	Outcome    Outcome
	Rounds     int
	TokensUsed int
	Duration   time.Duration
	Transcript []llms.Message
}

// TraceEntry is one tool invocation for debug display: the call the model
// made and the (truncated) result it got back.
type TraceEntry struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
	Result    string                 `json:"result"`
}

const noAnswerFallback = "No response generated."

// ExtractAnswer returns the text of the most recent model message that
// requested no tools. A transcript without one, or whose terminal message
// carries no text, yields a fixed fallback.
func ExtractAnswer(transcript []llms.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		msg := transcript[i]
		if msg.Role == llms.RoleAssistant && len(msg.ToolCalls) == 0 {
			if msg.Content != "" {
				return msg.Content
			}
			break
		}
	}
	return noAnswerFallback
}

const traceResultLimit = 2000

// BuildTrace renders the tool invocations of a transcript in call order.
// Results are capped for display; the transcript keeps the full text.
func BuildTrace(transcript []llms.Message) []TraceEntry {
	resultsByID := make(map[string]string)
	for _, msg := range transcript {
		if msg.Role == llms.RoleTool && msg.ToolCallID != "" {
			resultsByID[msg.ToolCallID] = msg.Content
		}
	}

	var trace []TraceEntry
	for _, msg := range transcript {
		if msg.Role != llms.RoleAssistant {
			continue
		}
		for _, call := range msg.ToolCalls {
			trace = append(trace, TraceEntry{
				Tool:      call.Name,
				Arguments: call.Arguments,
				Result:    truncateResult(resultsByID[call.ID]),
			})
		}
	}
	return trace
}

func truncateResult(result string) string {
	if len(result) > traceResultLimit {
		return result[:traceResultLimit] + "\n... (truncated)"
	}
	return result
}
