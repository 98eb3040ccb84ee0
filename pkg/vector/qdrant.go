package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/inferyx/queryagent/pkg/config"
)

// ============================================================================
// QDRANT IMPLEMENTATION
// ============================================================================

// QdrantVectorStore talks to a Qdrant deployment over gRPC.
//
// Qdrant point ids must be UUIDs or integers, while this codebase keys
// documents by strings such as collection names. Ids are therefore mapped to
// deterministic UUIDs derived from the string, and the original id is kept
// in the payload so search results can return it.
type QdrantVectorStore struct {
	client *qdrant.Client
	config *config.VectorStoreConfig
}

// idField carries the caller's document id inside the point payload
const idField = "_id"

// NewQdrantVectorStore creates a Qdrant-backed vector store from config
func NewQdrantVectorStore(cfg *config.VectorStoreConfig) (*QdrantVectorStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantVectorStore{
		client: client,
		config: cfg,
	}, nil
}

func pointID(id string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
}

// Upsert writes a point, creating the collection on first use
func (q *QdrantVectorStore) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}
	if !exists {
		if err := q.CreateCollection(ctx, collection, uint64(len(vector))); err != nil {
			// A concurrent writer may have created it first
			if !strings.Contains(err.Error(), "already exists") {
				return err
			}
		}
	}

	payload := make(map[string]*qdrant.Value, len(metadata)+1)
	for key, value := range metadata {
		val, err := qdrant.NewValue(value)
		if err != nil {
			return fmt.Errorf("failed to convert metadata value for key %s: %w", key, err)
		}
		payload[key] = val
	}
	payload[idField] = qdrant.NewValueString(id)

	point := &qdrant.PointStruct{
		Id:      pointID(id),
		Vectors: qdrant.NewVectors(vector...),
		Payload: payload,
	}

	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         []*qdrant.PointStruct{point},
	}); err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// Search performs vector similarity search. Vectors are not returned.
func (q *QdrantVectorStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	searchRequest := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	}

	searchResult, err := q.client.GetPointsClient().Search(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	var results []SearchResult
	for _, point := range searchResult.Result {
		metadata := make(map[string]interface{}, len(point.Payload))
		for key, value := range point.Payload {
			metadata[key] = decodeValue(value)
		}

		id := extractPointID(point.Id)
		if original, ok := metadata[idField].(string); ok {
			id = original
			delete(metadata, idField)
		}

		results = append(results, SearchResult{
			ID:       id,
			Score:    point.Score,
			Metadata: metadata,
		})
	}

	return results, nil
}

// decodeValue converts a Qdrant payload value back to a plain Go value
func decodeValue(value *qdrant.Value) interface{} {
	switch v := value.Kind.(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		if v.ListValue == nil {
			return nil
		}
		list := make([]interface{}, len(v.ListValue.Values))
		for i, item := range v.ListValue.Values {
			list[i] = decodeValue(item)
		}
		return list
	default:
		return value
	}
}

func extractPointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch idType := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return idType.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", idType.Num)
	default:
		return ""
	}
}

// CreateCollection creates a collection with cosine distance if it does not
// already exist.
func (q *QdrantVectorStore) CreateCollection(ctx context.Context, collection string, vectorSize uint64) error {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}
	if exists {
		return nil
	}

	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// DeleteCollection removes a collection and all its points
func (q *QdrantVectorStore) DeleteCollection(ctx context.Context, collection string) error {
	if err := q.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

// Close closes the gRPC connection
func (q *QdrantVectorStore) Close() error {
	return q.client.Close()
}

var _ VectorStore = (*QdrantVectorStore)(nil)
