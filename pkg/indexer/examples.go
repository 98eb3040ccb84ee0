package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// exampleQueryTextLimit caps encoded non-string queries in embedded text
const exampleQueryTextLimit = 500

// Example is one question/query pair for few-shot retrieval. Kept as a loose
// map so extra fields from user-supplied example files ride along into the
// index metadata.
type Example map[string]interface{}

// DefaultExamples returns the built-in question/query pairs covering the
// common tool-usage patterns.
func DefaultExamples() []Example {
	return []Example{
		{
			"natural_language": "List all collections in the database",
			"query":            "list_collections",
			"tool":             "list_collections",
		},
		{
			"natural_language": "What collections exist?",
			"query":            "list_collections",
			"tool":             "list_collections",
		},
		{
			"natural_language": "Show me the schema of the users collection",
			"query":            "get_collection_schema(collection_name='users')",
			"tool":             "get_collection_schema",
		},
		{
			"natural_language": "Find all documents in users where status is active",
			"query":            `execute_find(collection_name="users", filter_json='{"status": "active"}')`,
			"tool":             "execute_find",
		},
		{
			"natural_language": "List all users",
			"query":            `execute_find(collection_name="users", filter_json="{}")`,
			"tool":             "execute_find",
		},
		{
			"natural_language": "Join orders with users and show user name and order total",
			"query": `execute_aggregation(collection_name="orders", pipeline_json='` +
				`[{"$lookup": {"from": "users", "localField": "userId", "foreignField": "_id", "as": "user"}}, ` +
				`{"$unwind": "$user"}, {"$project": {"user.name": 1, "total": 1, "_id": 0}}]')`,
			"tool": "execute_aggregation",
		},
		{
			"natural_language": "How many orders per customer?",
			"query": `execute_aggregation(collection_name="orders", pipeline_json='` +
				`[{"$group": {"_id": "$userId", "count": {"$sum": 1}}}, {"$sort": {"count": -1}}]')`,
			"tool": "execute_aggregation",
		},
		{
			"natural_language": "Count documents in users collection",
			"query":            `execute_aggregation(collection_name="users", pipeline_json='[{"$count": "total"}]')`,
			"tool":             "execute_aggregation",
		},
	}
}

// SampleDataExamples returns question/query pairs phrased against the
// sample-data collections, sharpening retrieval for deployments that loaded
// the bundled data.
func SampleDataExamples() []Example {
	return []Example{
		{"natural_language": "List all collections in inferyx", "query": "list_collections", "tool": "list_collections"},
		{"natural_language": "What collections exist in the database?", "query": "list_collections", "tool": "list_collections"},
		{"natural_language": "Show schema of datapod collection", "query": "get_collection_schema(collection_name='datapod')", "tool": "get_collection_schema"},
		{"natural_language": "Show schema of datasource collection", "query": "get_collection_schema(collection_name='datasource')", "tool": "get_collection_schema"},
		{"natural_language": "Show schema of dataset collection", "query": "get_collection_schema(collection_name='dataset')", "tool": "get_collection_schema"},
		{"natural_language": "Show schema of vizpods collection", "query": "get_collection_schema(collection_name='vizpods')", "tool": "get_collection_schema"},
		{"natural_language": "List all documents in datasource", "query": `execute_find(collection_name="datasource", filter_json="{}")`, "tool": "execute_find"},
		{"natural_language": "List all documents in dataset", "query": `execute_find(collection_name="dataset", filter_json="{}")`, "tool": "execute_find"},
		{"natural_language": "Find active datasources", "query": `execute_find(collection_name="datasource", filter_json='{"active": "Y"}')`, "tool": "execute_find"},
		{"natural_language": "Count documents in datasource", "query": `execute_aggregation(collection_name="datasource", pipeline_json='[{"$count": "total"}]')`, "tool": "execute_aggregation"},
		{"natural_language": "Count documents in dataset", "query": `execute_aggregation(collection_name="dataset", pipeline_json='[{"$count": "total"}]')`, "tool": "execute_aggregation"},
	}
}

// LoadExamplesFile reads a JSON array of examples from disk
func LoadExamplesFile(path string) ([]Example, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read examples file: %w", err)
	}
	var examples []Example
	if err := json.Unmarshal(raw, &examples); err != nil {
		return nil, fmt.Errorf("examples file must be a JSON array of objects: %w", err)
	}
	return examples, nil
}

// BuildExamplesIndex embeds each example and upserts it into the examples
// index under a stable id derived from its question and query, so rebuilding
// never duplicates entries. A nil examples slice means the built-in set; a
// non-empty examplesFile is merged in when it exists. Returns how many
// entries were written.
func (ix *Indexer) BuildExamplesIndex(ctx context.Context, examples []Example, examplesFile string) (int, error) {
	if examples == nil {
		examples = DefaultExamples()
	}
	if examplesFile != "" {
		if _, err := os.Stat(examplesFile); err == nil {
			fromFile, err := LoadExamplesFile(examplesFile)
			if err != nil {
				return 0, err
			}
			examples = append(append([]Example{}, examples...), fromFile...)
		} else {
			slog.Warn("Examples file not found, using built-ins only", "path", examplesFile)
		}
	}
	if len(examples) == 0 {
		return 0, nil
	}

	texts := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = exampleText(ex)
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed examples: %w", err)
	}
	if len(embeddings) != len(examples) {
		return 0, fmt.Errorf("embedder returned %d embeddings for %d examples", len(embeddings), len(examples))
	}

	ix.ensureCollection(ctx, ix.config.ExamplesCollection)

	written := 0
	for i, ex := range examples {
		if len(embeddings[i]) == 0 {
			continue
		}
		metadata := make(map[string]interface{}, len(ex))
		for k, v := range ex {
			if k == "embedding" {
				continue
			}
			metadata[k] = v
		}
		id := exampleID(ex)
		if err := ix.vectors.Upsert(ctx, ix.config.ExamplesCollection, id, embeddings[i], metadata); err != nil {
			return written, fmt.Errorf("failed to upsert example %q: %w", id, err)
		}
		written++
	}

	slog.Info("Examples index built",
		"index", ix.config.ExamplesCollection,
		"examples", written)
	return written, nil
}

// exampleText renders the searchable text for one example
func exampleText(ex Example) string {
	nl := exampleString(ex, "natural_language", "question")
	query := exampleQuery(ex, "query", "pipeline", "example_query")
	return fmt.Sprintf("Question: %s. Query: %s", nl, query)
}

// exampleID derives the stable upsert id for one example
func exampleID(ex Example) string {
	nl := exampleString(ex, "natural_language", "question")
	query := exampleQuery(ex, "query", "example_query")
	return clip(nl, 80) + "_" + clip(query, 50)
}

// exampleQuery returns the example's query under the first populated key,
// JSON-encoding structured pipelines.
func exampleQuery(ex Example, keys ...string) string {
	for _, key := range keys {
		value, ok := ex[key]
		if !ok || value == nil {
			continue
		}
		if s, ok := value.(string); ok {
			if s != "" {
				return s
			}
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			continue
		}
		return clip(string(encoded), exampleQueryTextLimit)
	}
	return ""
}

// exampleString returns the first non-empty string among the given keys
func exampleString(ex Example, keys ...string) string {
	for _, key := range keys {
		if s, ok := ex[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func clip(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
