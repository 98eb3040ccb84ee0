package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestExecuteFindSerializesResults(t *testing.T) {
	oid, _ := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	joined := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	store := &fakeStore{findDocs: []bson.M{
		{
			"_id":     oid,
			"name":    "Ada",
			"joined":  primitive.NewDateTimeFromTime(joined),
			"tags":    bson.A{"admin", "dev"},
			"profile": bson.D{{Key: "age", Value: int32(36)}},
		},
	}}

	tool := NewFindTool(store)
	got := tool.Execute(context.Background(), map[string]interface{}{
		"collection_name": "users",
		"filter_json":     `{"status": "active"}`,
		"limit":           10,
	})

	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, got)
	}
	if len(decoded) != 1 {
		t.Fatalf("got %d documents", len(decoded))
	}
	doc := decoded[0]
	if doc["_id"] != "507f1f77bcf86cd799439011" {
		t.Errorf("_id = %v, want hex string", doc["_id"])
	}
	if doc["joined"] != "2024-03-01T10:30:00Z" {
		t.Errorf("joined = %v, want RFC 3339", doc["joined"])
	}
	profile, ok := doc["profile"].(map[string]interface{})
	if !ok || profile["age"] != float64(36) {
		t.Errorf("profile = %v", doc["profile"])
	}
	if !strings.HasPrefix(got, "[\n  {") {
		t.Errorf("result not indented:\n%s", got)
	}

	if store.gotFilter["status"] != "active" {
		t.Errorf("filter = %v", store.gotFilter)
	}
	if store.gotLimit != 10 {
		t.Errorf("limit = %d", store.gotLimit)
	}
}

func TestExecuteFindEmptyResults(t *testing.T) {
	tool := NewFindTool(&fakeStore{})

	got := tool.Execute(context.Background(), map[string]interface{}{
		"collection_name": "users",
		"filter_json":     "{}",
	})
	if got != "[]" {
		t.Errorf("result = %q, want []", got)
	}
}

func TestExecuteFindInvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{
			name: "unquoted_filter_value",
			args: map[string]interface{}{"collection_name": "users", "filter_json": `{"status": active}`},
		},
		{
			name: "bad_projection",
			args: map[string]interface{}{"collection_name": "users", "filter_json": "{}", "projection_json": "{name: 1}"},
		},
		{
			name: "array_filter",
			args: map[string]interface{}{"collection_name": "users", "filter_json": `[1, 2]`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			tool := NewFindTool(store)
			got := tool.Execute(context.Background(), tt.args)
			if !strings.HasPrefix(got, "Invalid JSON in filter or projection: ") {
				t.Errorf("result = %q", got)
			}
			if store.gotFilter != nil {
				t.Error("store was queried despite invalid JSON")
			}
		})
	}
}

func TestExecuteFindBlankFilterMeansAll(t *testing.T) {
	store := &fakeStore{}
	tool := NewFindTool(store)

	tool.Execute(context.Background(), map[string]interface{}{
		"collection_name": "users",
		"filter_json":     "   ",
	})
	if store.gotFilter == nil || len(store.gotFilter) != 0 {
		t.Errorf("filter = %v, want empty object", store.gotFilter)
	}
}

func TestExecuteFindStoreError(t *testing.T) {
	tool := NewFindTool(&fakeStore{findErr: errors.New("network timeout")})

	got := tool.Execute(context.Background(), map[string]interface{}{
		"collection_name": "users",
		"filter_json":     "{}",
	})
	want := "Error executing find: network timeout"
	if got != want {
		t.Errorf("result = %q, want %q", got, want)
	}
}

func TestExecuteAggregationAppendsLimit(t *testing.T) {
	tests := []struct {
		name       string
		args       map[string]interface{}
		wantStages int
		wantLimit  interface{}
	}{
		{
			name: "no_limit_stage",
			args: map[string]interface{}{
				"collection_name": "orders",
				"pipeline_json":   `[{"$group": {"_id": "$userId", "count": {"$sum": 1}}}]`,
			},
			wantStages: 2,
			wantLimit:  100,
		},
		{
			name: "custom_limit_results",
			args: map[string]interface{}{
				"collection_name": "orders",
				"pipeline_json":   `[{"$match": {"status": "paid"}}]`,
				"limit_results":   5,
			},
			wantStages: 2,
			wantLimit:  5,
		},
		{
			name: "null_limit_treated_as_absent",
			args: map[string]interface{}{
				"collection_name": "orders",
				"pipeline_json":   `[{"$limit": null}]`,
			},
			wantStages: 2,
			wantLimit:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			tool := NewAggregationTool(store)
			tool.Execute(context.Background(), applyDefaults(tool.GetInfo(), tt.args))

			if len(store.gotPipeline) != tt.wantStages {
				t.Fatalf("pipeline has %d stages, want %d", len(store.gotPipeline), tt.wantStages)
			}
			last, ok := store.gotPipeline[len(store.gotPipeline)-1].(map[string]interface{})
			if !ok {
				t.Fatalf("last stage = %v", store.gotPipeline[len(store.gotPipeline)-1])
			}
			if last["$limit"] != tt.wantLimit {
				t.Errorf("$limit = %v, want %v", last["$limit"], tt.wantLimit)
			}
		})
	}
}

func TestExecuteAggregationKeepsExistingLimit(t *testing.T) {
	store := &fakeStore{}
	tool := NewAggregationTool(store)

	tool.Execute(context.Background(), applyDefaults(tool.GetInfo(), map[string]interface{}{
		"collection_name": "orders",
		"pipeline_json":   `[{"$match": {"status": "paid"}}, {"$limit": 20}]`,
	}))

	if len(store.gotPipeline) != 2 {
		t.Fatalf("pipeline has %d stages, want 2 (untouched)", len(store.gotPipeline))
	}
	last := store.gotPipeline[1].(map[string]interface{})
	if last["$limit"] != float64(20) {
		t.Errorf("$limit = %v, want 20", last["$limit"])
	}
}

func TestExecuteAggregationRejectsNonArray(t *testing.T) {
	tool := NewAggregationTool(&fakeStore{})

	got := tool.Execute(context.Background(), map[string]interface{}{
		"collection_name": "orders",
		"pipeline_json":   `{"$match": {"status": "paid"}}`,
	})
	want := "pipeline_json must be a JSON array of stages."
	if got != want {
		t.Errorf("result = %q, want %q", got, want)
	}
}

func TestExecuteAggregationInvalidJSON(t *testing.T) {
	tool := NewAggregationTool(&fakeStore{})

	got := tool.Execute(context.Background(), map[string]interface{}{
		"collection_name": "orders",
		"pipeline_json":   `[{"$match": }]`,
	})
	if !strings.HasPrefix(got, "Invalid JSON pipeline: ") {
		t.Errorf("result = %q", got)
	}
}

func TestExecuteAggregationStoreError(t *testing.T) {
	tool := NewAggregationTool(&fakeStore{aggErr: errors.New("unknown stage")})

	got := tool.Execute(context.Background(), map[string]interface{}{
		"collection_name": "orders",
		"pipeline_json":   `[{"$bogus": {}}]`,
	})
	want := "Error executing aggregation: unknown stage"
	if got != want {
		t.Errorf("result = %q, want %q", got, want)
	}
}
