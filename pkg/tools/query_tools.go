package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================================
// QUERY EXECUTION TOOLS
// ============================================================================

const (
	// defaultFindLimit caps execute_find results
	defaultFindLimit = 50
	// defaultAggregationLimit caps execute_aggregation results when the
	// pipeline carries no $limit stage
	defaultAggregationLimit = 100
)

// FindTool runs a filtered find query on one collection
type FindTool struct {
	store DocumentStore
}

type findArgs struct {
	CollectionName string `json:"collection_name"`
	FilterJSON     string `json:"filter_json"`
	ProjectionJSON string `json:"projection_json"`
	Limit          int    `json:"limit"`
}

// NewFindTool creates the execute_find tool
func NewFindTool(store DocumentStore) *FindTool {
	return &FindTool{store: store}
}

func (t *FindTool) GetName() string {
	return "execute_find"
}

func (t *FindTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "execute_find",
		Description: "Execute a MongoDB find query on a single collection.",
		Parameters: []ToolParameter{
			{
				Name:        "collection_name",
				Type:        "string",
				Description: "Name of the collection.",
				Required:    true,
			},
			{
				Name:        "filter_json",
				Type:        "string",
				Description: `JSON object for the query filter (e.g. '{"status": "active"}' or '{}' for all).`,
				Required:    true,
			},
			{
				Name:        "projection_json",
				Type:        "string",
				Description: `Optional JSON object for projection (e.g. '{"name": 1, "email": 1, "_id": 0}').`,
				Default:     "{}",
			},
			{
				Name:        "limit",
				Type:        "integer",
				Description: "Maximum number of documents to return (default 50).",
				Default:     defaultFindLimit,
			},
		},
	}
}

func (t *FindTool) Execute(ctx context.Context, args map[string]interface{}) string {
	var in findArgs
	if err := decodeArgs(args, &in); err != nil {
		return fmt.Sprintf("Error decoding arguments for execute_find: %v", err)
	}

	filter, err := parseJSONObject(in.FilterJSON)
	if err != nil {
		return fmt.Sprintf("Invalid JSON in filter or projection: %v", err)
	}
	projection, err := parseJSONObject(in.ProjectionJSON)
	if err != nil {
		return fmt.Sprintf("Invalid JSON in filter or projection: %v", err)
	}

	docs, err := t.store.Find(ctx, in.CollectionName, filter, projection, in.Limit)
	if err != nil {
		return fmt.Sprintf("Error executing find: %v", err)
	}
	return renderResults(docs)
}

// parseJSONObject parses a JSON object string; blank input means empty
func parseJSONObject(s string) (map[string]interface{}, error) {
	if strings.TrimSpace(s) == "" {
		return map[string]interface{}{}, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// AggregationTool runs an aggregation pipeline, including $lookup joins
type AggregationTool struct {
	store DocumentStore
}

type aggregationArgs struct {
	CollectionName string `json:"collection_name"`
	PipelineJSON   string `json:"pipeline_json"`
	LimitResults   int    `json:"limit_results"`
}

// NewAggregationTool creates the execute_aggregation tool
func NewAggregationTool(store DocumentStore) *AggregationTool {
	return &AggregationTool{store: store}
}

func (t *AggregationTool) GetName() string {
	return "execute_aggregation"
}

func (t *AggregationTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name: "execute_aggregation",
		Description: "Execute a MongoDB aggregation pipeline on a collection. " +
			"Use this for aggregations, grouping, and JOINs between two collections via $lookup. " +
			"For a join: use $lookup with from (other collection), localField, foreignField, and as (array name for joined docs).",
		Parameters: []ToolParameter{
			{
				Name:        "collection_name",
				Type:        "string",
				Description: "Name of the primary collection to run the pipeline on.",
				Required:    true,
			},
			{
				Name: "pipeline_json",
				Type: "string",
				Description: `JSON array of aggregation stages (e.g. '[{"$match": {"status": "active"}}, ` +
					`{"$lookup": {"from": "users", "localField": "userId", "foreignField": "_id", "as": "user"}}, {"$limit": 20}]').`,
				Required: true,
			},
			{
				Name:        "limit_results",
				Type:        "integer",
				Description: "Optional cap on result size; add a $limit stage if your pipeline does not include one (default 100).",
				Default:     defaultAggregationLimit,
			},
		},
	}
}

func (t *AggregationTool) Execute(ctx context.Context, args map[string]interface{}) string {
	var in aggregationArgs
	if err := decodeArgs(args, &in); err != nil {
		return fmt.Sprintf("Error decoding arguments for execute_aggregation: %v", err)
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(in.PipelineJSON), &raw); err != nil {
		return fmt.Sprintf("Invalid JSON pipeline: %v", err)
	}
	stages, ok := raw.([]interface{})
	if !ok {
		return "pipeline_json must be a JSON array of stages."
	}

	if !hasLimitStage(stages) && in.LimitResults > 0 {
		stages = append(stages, map[string]interface{}{"$limit": in.LimitResults})
	}

	docs, err := t.store.Aggregate(ctx, in.CollectionName, stages)
	if err != nil {
		return fmt.Sprintf("Error executing aggregation: %v", err)
	}
	return renderResults(docs)
}

// hasLimitStage reports whether any stage carries a $limit
func hasLimitStage(stages []interface{}) bool {
	for _, stage := range stages {
		if m, ok := stage.(map[string]interface{}); ok {
			if v, present := m["$limit"]; present && v != nil {
				return true
			}
		}
	}
	return false
}

// RegisterMongoTools registers the four database tools in their canonical
// declaration order.
func RegisterMongoTools(r *ToolRegistry, store DocumentStore) error {
	for _, tool := range []Tool{
		NewListCollectionsTool(store),
		NewCollectionSchemaTool(store),
		NewFindTool(store),
		NewAggregationTool(store),
	} {
		if err := r.RegisterTool(tool); err != nil {
			return err
		}
	}
	return nil
}
