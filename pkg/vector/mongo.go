package vector

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/inferyx/queryagent/pkg/mongodb"
)

// ============================================================================
// MONGODB ATLAS VECTOR SEARCH IMPLEMENTATION
// ============================================================================

// MongoVectorStore keeps embeddings as a field on ordinary documents and
// searches them with the Atlas $vectorSearch aggregation stage. It shares the
// agent's database connection, so retrieval indexes live next to the data
// they describe.
type MongoVectorStore struct {
	store   *mongodb.Store
	indexes map[string]string
}

// NewMongoVectorStore creates an Atlas-backed vector store. The indexes map
// assigns a search index name per collection; unmapped collections use
// "<collection>_vector_index".
func NewMongoVectorStore(store *mongodb.Store, indexes map[string]string) *MongoVectorStore {
	return &MongoVectorStore{
		store:   store,
		indexes: indexes,
	}
}

func (m *MongoVectorStore) indexFor(collection string) string {
	if name, ok := m.indexes[collection]; ok && name != "" {
		return name
	}
	return collection + "_vector_index"
}

// Upsert replaces the document with the given _id, storing the embedding
// under the "embedding" field the search index covers.
func (m *MongoVectorStore) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error {
	doc := make(map[string]interface{}, len(metadata)+2)
	for k, v := range metadata {
		doc[k] = v
	}
	doc["_id"] = id
	doc["embedding"] = vector

	return m.store.ReplaceOne(ctx, collection, map[string]interface{}{"_id": id}, doc)
}

// Search runs a $vectorSearch aggregation against the collection's index
func (m *MongoVectorStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	pipeline := vectorSearchPipeline(m.indexFor(collection), vector, topK)

	docs, err := m.store.Aggregate(ctx, collection, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search on %s failed: %w", collection, err)
	}

	results := make([]SearchResult, 0, len(docs))
	for _, doc := range docs {
		result := SearchResult{Metadata: make(map[string]interface{}, len(doc))}
		for key, value := range doc {
			switch key {
			case "_id":
				result.ID = stringID(value)
			case "score":
				if score, ok := value.(float64); ok {
					result.Score = float32(score)
				}
			default:
				result.Metadata[key] = value
			}
		}
		results = append(results, result)
	}

	return results, nil
}

// vectorSearchPipeline builds the aggregation stages for one search. The
// candidate pool is topK*20 with a floor of 100, and the embedding field is
// excluded from results.
func vectorSearchPipeline(index string, vector []float32, topK int) []interface{} {
	candidates := topK * 20
	if candidates < 100 {
		candidates = 100
	}

	return []interface{}{
		map[string]interface{}{
			"$vectorSearch": map[string]interface{}{
				"index":         index,
				"path":          "embedding",
				"queryVector":   vector,
				"numCandidates": candidates,
				"limit":         topK,
			},
		},
		map[string]interface{}{
			"$addFields": map[string]interface{}{
				"score": map[string]interface{}{"$meta": "vectorSearchScore"},
			},
		},
		map[string]interface{}{
			"$project": map[string]interface{}{"embedding": 0},
		},
	}
}

// CreateCollection creates the Atlas Vector Search index for a collection.
// Index builds are asynchronous; on deployments without Atlas search (plain
// mongod) this returns an error the caller may treat as non-fatal.
func (m *MongoVectorStore) CreateCollection(ctx context.Context, collection string, vectorSize uint64) error {
	definition := map[string]interface{}{
		"fields": []interface{}{
			map[string]interface{}{
				"type":          "vector",
				"path":          "embedding",
				"numDimensions": int(vectorSize),
				"similarity":    "cosine",
			},
		},
	}
	return m.store.CreateVectorSearchIndex(ctx, collection, m.indexFor(collection), definition)
}

// DeleteCollection removes all indexed documents. The collection and its
// search index stay in place for the next rebuild.
func (m *MongoVectorStore) DeleteCollection(ctx context.Context, collection string) error {
	return m.store.DeleteAll(ctx, collection)
}

// Close is a no-op; the underlying connection is owned by the caller
func (m *MongoVectorStore) Close() error {
	return nil
}

func stringID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprint(v)
	}
}

var _ VectorStore = (*MongoVectorStore)(nil)
