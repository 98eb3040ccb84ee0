package tools

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/inferyx/queryagent/pkg/mongodb"
)

// ============================================================================
// SCHEMA DISCOVERY TOOLS
// ============================================================================

// defaultSampleSize is how many documents the schema tool inspects
const defaultSampleSize = 3

// ListCollectionsTool lists the collection names in the database
type ListCollectionsTool struct {
	store DocumentStore
}

// NewListCollectionsTool creates the list_collections tool
func NewListCollectionsTool(store DocumentStore) *ListCollectionsTool {
	return &ListCollectionsTool{store: store}
}

func (t *ListCollectionsTool) GetName() string {
	return "list_collections"
}

func (t *ListCollectionsTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name: "list_collections",
		Description: fmt.Sprintf("List all collection names in the %s database. "+
			"Call this first to know which collections exist before querying or building aggregations.",
			t.store.DatabaseName()),
	}
}

func (t *ListCollectionsTool) Execute(ctx context.Context, args map[string]interface{}) string {
	names, err := t.store.ListCollectionNames(ctx)
	if err != nil {
		return fmt.Sprintf("Error listing collections: %v", err)
	}

	joined := strings.Join(names, ", ")
	if joined == "" {
		joined = "None"
	}
	return fmt.Sprintf("Collections in database '%s': %s", t.store.DatabaseName(), joined)
}

// CollectionSchemaTool reports a collection's field names and types from
// sampled documents.
type CollectionSchemaTool struct {
	store DocumentStore
}

type schemaArgs struct {
	CollectionName string `json:"collection_name"`
	SampleSize     int    `json:"sample_size"`
}

// NewCollectionSchemaTool creates the get_collection_schema tool
func NewCollectionSchemaTool(store DocumentStore) *CollectionSchemaTool {
	return &CollectionSchemaTool{store: store}
}

func (t *CollectionSchemaTool) GetName() string {
	return "get_collection_schema"
}

func (t *CollectionSchemaTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name: "get_collection_schema",
		Description: "Get the schema of a collection by sampling documents. " +
			"Use this to understand field names and types before writing find queries or aggregation pipelines. " +
			"For joins, get schema of both collections to see which fields can be used for $lookup (e.g. foreign key vs local field).",
		Parameters: []ToolParameter{
			{
				Name:        "collection_name",
				Type:        "string",
				Description: "Exact name of the collection (e.g. 'users', 'orders').",
				Required:    true,
			},
			{
				Name:        "sample_size",
				Type:        "integer",
				Description: "Number of documents to sample for schema inference (default 3).",
				Default:     defaultSampleSize,
			},
		},
	}
}

func (t *CollectionSchemaTool) Execute(ctx context.Context, args map[string]interface{}) string {
	var in schemaArgs
	if err := decodeArgs(args, &in); err != nil {
		return fmt.Sprintf("Error decoding arguments for get_collection_schema: %v", err)
	}

	docs, err := t.store.SampleDocuments(ctx, in.CollectionName, in.SampleSize)
	if err != nil {
		return fmt.Sprintf("Error getting schema for '%s': %v", in.CollectionName, err)
	}
	if len(docs) == 0 {
		return fmt.Sprintf("Collection '%s' is empty or does not exist.", in.CollectionName)
	}

	lines := []string{
		fmt.Sprintf("Collection: %s", in.CollectionName),
		fmt.Sprintf("Sample size: %d", len(docs)),
		"",
	}
	for i, doc := range docs {
		lines = append(lines, fmt.Sprintf("--- Document %d ---", i+1))
		for _, elem := range doc {
			lines = append(lines, fmt.Sprintf("  %s: %s", elem.Key, fieldLabel(elem.Value)))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// fieldLabel renders one field's type, previewing nested keys for documents
// and for arrays of documents.
func fieldLabel(value interface{}) string {
	label := mongodb.TypeName(value)
	if keys := mongodb.DocumentKeys(value, 8); keys != nil {
		label += fmt.Sprintf(" (keys: %s)", quoteKeys(keys))
	} else if items := arrayItems(value); len(items) > 0 {
		if keys := mongodb.DocumentKeys(items[0], 5); keys != nil {
			label += fmt.Sprintf(" (list of dicts, first keys: %s)", quoteKeys(keys))
		}
	}
	return label
}

func arrayItems(value interface{}) []interface{} {
	switch v := value.(type) {
	case bson.A:
		return v
	case []interface{}:
		return v
	}
	return nil
}

// quoteKeys renders key names as a bracketed, quoted list
func quoteKeys(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "'" + k + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
