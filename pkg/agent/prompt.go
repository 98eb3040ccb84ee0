package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/inferyx/queryagent/pkg/llms"
)

// baseSystemPrompt is the standing instruction set. The single verb here is
// "use the tools": the model never answers from prior knowledge about the
// data. Formatted with the database name.
const baseSystemPrompt = `You are a MongoDB expert. You help users query the database named "%s" by understanding their natural language prompt and using the following tools:

1. list_collections - Call this first to see which collections exist.
2. get_collection_schema - Call this to see field names and types for one or more collections. For questions that need a JOIN between two collections, get schema for both collections to identify the local and foreign key fields for $lookup.
3. execute_find - Run a simple find query on a single collection (filter and optional projection). Use when the user wants to list or filter documents from one collection.
4. execute_aggregation - Run an aggregation pipeline. Use for: grouping, counting, sorting, or JOINing two collections with $lookup. For a join, use a stage like: {"$lookup": {"from": "other_collection", "localField": "field_in_this_collection", "foreignField": "_id", "as": "joined_docs"}}.

Always use the tools to answer. Use any relevant schema provided below to prioritize collections and query shape. Then call tools as needed. For "join" or "combine data from two collections", use execute_aggregation with a $lookup stage. Return the final tool result as the answer to the user.`

// buildSystemPrompt assembles the system prompt for one model call: base
// instructions plus whatever context blocks retrieval produces for the
// original question. Blocks that come back empty are omitted entirely. A
// configured system prompt override replaces the base instructions but the
// context blocks still append.
func (a *Agent) buildSystemPrompt(ctx context.Context, question string) string {
	base := a.config.SystemPrompt
	if base == "" {
		base = fmt.Sprintf(baseSystemPrompt, a.database)
	}

	if a.augmenter == nil {
		return base
	}

	parts := []string{base}
	if schemaCtx := a.augmenter.Augment(ctx, question); schemaCtx != "" {
		parts = append(parts, "\n\n"+schemaCtx)
	}
	if a.includeExamples {
		if examplesCtx := a.augmenter.AugmentExamples(ctx, question); examplesCtx != "" {
			parts = append(parts, "\n\n"+examplesCtx)
		}
	}
	return strings.Join(parts, "")
}

// conversation prepends the system prompt to the transcript, producing the
// message list sent to the provider.
func conversation(systemPrompt string, transcript []llms.Message) []llms.Message {
	messages := make([]llms.Message, 0, len(transcript)+1)
	messages = append(messages, llms.Message{Role: llms.RoleSystem, Content: systemPrompt})
	messages = append(messages, transcript...)
	return messages
}
