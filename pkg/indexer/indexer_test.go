package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/embedders"
	"github.com/inferyx/queryagent/pkg/vector"
)

// ============================================================================
// TEST FAKES
// ============================================================================

type fakeSource struct {
	collections []string
	listErr     error
	samples     map[string][]bson.D
	sampleErr   error

	sampledSizes map[string]int
}

func (f *fakeSource) ListCollectionNames(ctx context.Context) ([]string, error) {
	return f.collections, f.listErr
}

func (f *fakeSource) SampleDocuments(ctx context.Context, collection string, limit int) ([]bson.D, error) {
	if f.sampledSizes == nil {
		f.sampledSizes = make(map[string]int)
	}
	f.sampledSizes[collection] = limit
	return f.samples[collection], f.sampleErr
}

type fakeEmbedder struct {
	batches  [][]string
	vectors  [][]float32 // overrides the generated batch result when set
	batchErr error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	copied := append([]string(nil), texts...)
	f.batches = append(f.batches, copied)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{float32(i) + 1}
	}
	return out, nil
}

func (f *fakeEmbedder) GetDimension() int {
	return 4
}

func (f *fakeEmbedder) GetModelName() string {
	return "voyage-3"
}

func (f *fakeEmbedder) Close() error {
	return nil
}

type upsertCall struct {
	collection string
	id         string
	vector     []float32
	metadata   map[string]interface{}
}

type fakeVectors struct {
	upserts   []upsertCall
	created   map[string]uint64
	upsertErr error
	createErr error
}

func (f *fakeVectors) Upsert(ctx context.Context, collection string, id string, vec []float32, metadata map[string]interface{}) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, upsertCall{collection: collection, id: id, vector: vec, metadata: metadata})
	return nil
}

func (f *fakeVectors) Search(ctx context.Context, collection string, vec []float32, topK int) ([]vector.SearchResult, error) {
	return nil, nil
}

func (f *fakeVectors) CreateCollection(ctx context.Context, collection string, vectorSize uint64) error {
	if f.created == nil {
		f.created = make(map[string]uint64)
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.created[collection] = vectorSize
	return nil
}

func (f *fakeVectors) DeleteCollection(ctx context.Context, collection string) error {
	return nil
}

func (f *fakeVectors) Close() error {
	return nil
}

func newTestIndexer(t *testing.T, source *fakeSource, embedder *fakeEmbedder, vectors *fakeVectors) *Indexer {
	t.Helper()
	ix, err := New(&config.RetrievalConfig{}, source, embedder, vectors)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ix
}

// ============================================================================
// CONSTRUCTION
// ============================================================================

func TestNewRequiresDependencies(t *testing.T) {
	source := &fakeSource{}
	embedder := &fakeEmbedder{}
	vectors := &fakeVectors{}

	tests := []struct {
		name     string
		source   SchemaSource
		embedder embedders.EmbedderProvider
		vectors  vector.VectorStore
		wantErr  string
	}{
		{"nil_source", nil, embedder, vectors, "schema source"},
		{"nil_embedder", source, nil, vectors, "embedder"},
		{"nil_vectors", source, embedder, nil, "vector store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, tt.source, tt.embedder, tt.vectors)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// ============================================================================
// SCHEMA TEXT
// ============================================================================

func TestSchemaText(t *testing.T) {
	oid, _ := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")

	tests := []struct {
		name string
		docs []bson.D
		want string
	}{
		{
			name: "empty_collection",
			docs: nil,
			want: "Collection orders (empty)",
		},
		{
			name: "fields_first_seen_across_samples",
			docs: []bson.D{
				{{Key: "_id", Value: oid}, {Key: "name", Value: "a"}},
				{{Key: "_id", Value: oid}, {Key: "name", Value: "b"}, {Key: "email", Value: "c"}},
			},
			want: "Collection: orders. Fields:\n" +
				"  _id: objectId\n" +
				"  name: string\n" +
				"  email: string",
		},
		{
			name: "nested_document_lists_keys",
			docs: []bson.D{
				{{Key: "meta", Value: bson.D{
					{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3},
					{Key: "d", Value: 4}, {Key: "e", Value: 5}, {Key: "f", Value: 6},
					{Key: "g", Value: 7},
				}}},
			},
			want: "Collection: orders. Fields:\n" +
				"  meta: object (keys: a, b, c, d, e, f)",
		},
		{
			name: "list_of_objects_annotated",
			docs: []bson.D{
				{{Key: "items", Value: bson.A{bson.D{{Key: "sku", Value: "x"}}}}},
			},
			want: "Collection: orders. Fields:\n" +
				"  items: array (list of objects)",
		},
		{
			name: "scalar_list_plain",
			docs: []bson.D{
				{{Key: "tags", Value: bson.A{"a", "b"}}},
			},
			want: "Collection: orders. Fields:\n" +
				"  tags: array",
		},
		{
			name: "date_and_long",
			docs: []bson.D{
				{{Key: "createdOn", Value: primitive.DateTime(1709288100000)}, {Key: "version", Value: int64(3)}},
			},
			want: "Collection: orders. Fields:\n" +
				"  createdOn: date\n" +
				"  version: long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schemaText("orders", tt.docs); got != tt.want {
				t.Errorf("schemaText = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================================
// SCHEMA INDEX
// ============================================================================

func TestBuildSchemaIndexSkipsInternalCollections(t *testing.T) {
	source := &fakeSource{
		collections: []string{"datapod", "schema_metadata", "query_examples", "system.profile", "system.indexes", "datasource"},
		samples: map[string][]bson.D{
			"datapod":    {{{Key: "uuid", Value: "u1"}}},
			"datasource": {{{Key: "name", Value: "ds"}}},
		},
	}
	embedder := &fakeEmbedder{}
	vectors := &fakeVectors{}
	ix := newTestIndexer(t, source, embedder, vectors)

	written, err := ix.BuildSchemaIndex(context.Background(), 0)
	if err != nil {
		t.Fatalf("BuildSchemaIndex: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	if len(embedder.batches) != 1 || len(embedder.batches[0]) != 2 {
		t.Fatalf("embedder batches = %v", embedder.batches)
	}
	if !strings.HasPrefix(embedder.batches[0][0], "Collection: datapod. Fields:") {
		t.Errorf("first text = %q", embedder.batches[0][0])
	}

	if len(vectors.upserts) != 2 {
		t.Fatalf("got %d upserts, want 2", len(vectors.upserts))
	}
	first := vectors.upserts[0]
	if first.collection != "schema_metadata" || first.id != "datapod" {
		t.Errorf("first upsert = %s/%s", first.collection, first.id)
	}
	if first.metadata["collection_name"] != "datapod" {
		t.Errorf("metadata collection_name = %v", first.metadata["collection_name"])
	}
	if text, _ := first.metadata["text"].(string); !strings.HasPrefix(text, "Collection: datapod") {
		t.Errorf("metadata text = %q", text)
	}

	// The default sample size applies when none is given.
	if source.sampledSizes["datapod"] != defaultSchemaSampleSize {
		t.Errorf("sample size = %d, want %d", source.sampledSizes["datapod"], defaultSchemaSampleSize)
	}

	if vectors.created["schema_metadata"] != 4 {
		t.Errorf("created = %v, want schema_metadata with dimension 4", vectors.created)
	}
}

func TestBuildSchemaIndexNothingToIndex(t *testing.T) {
	source := &fakeSource{collections: []string{"schema_metadata", "query_examples", "system.views"}}
	embedder := &fakeEmbedder{}
	ix := newTestIndexer(t, source, embedder, &fakeVectors{})

	written, err := ix.BuildSchemaIndex(context.Background(), 3)
	if err != nil {
		t.Fatalf("BuildSchemaIndex: %v", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}
	if len(embedder.batches) != 0 {
		t.Errorf("embedder called with nothing to index: %v", embedder.batches)
	}
}

func TestBuildSchemaIndexSkipsEmptyEmbeddings(t *testing.T) {
	source := &fakeSource{
		collections: []string{"datapod", "datasource"},
		samples:     map[string][]bson.D{},
	}
	embedder := &fakeEmbedder{vectors: [][]float32{{0.5}, {}}}
	vectors := &fakeVectors{}
	ix := newTestIndexer(t, source, embedder, vectors)

	written, err := ix.BuildSchemaIndex(context.Background(), 3)
	if err != nil {
		t.Fatalf("BuildSchemaIndex: %v", err)
	}
	if written != 1 {
		t.Errorf("written = %d, want 1", written)
	}
	if len(vectors.upserts) != 1 || vectors.upserts[0].id != "datapod" {
		t.Errorf("upserts = %+v", vectors.upserts)
	}
}

func TestBuildSchemaIndexErrors(t *testing.T) {
	t.Run("list_failure", func(t *testing.T) {
		source := &fakeSource{listErr: errors.New("no server")}
		ix := newTestIndexer(t, source, &fakeEmbedder{}, &fakeVectors{})

		_, err := ix.BuildSchemaIndex(context.Background(), 3)
		if err == nil || !strings.Contains(err.Error(), "failed to list collections") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("embed_failure", func(t *testing.T) {
		source := &fakeSource{collections: []string{"datapod"}}
		ix := newTestIndexer(t, source, &fakeEmbedder{batchErr: errors.New("quota")}, &fakeVectors{})

		_, err := ix.BuildSchemaIndex(context.Background(), 3)
		if err == nil || !strings.Contains(err.Error(), "failed to embed schema texts") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("create_collection_failure_tolerated", func(t *testing.T) {
		source := &fakeSource{collections: []string{"datapod"}}
		vectors := &fakeVectors{createErr: errors.New("no permissions")}
		ix := newTestIndexer(t, source, &fakeEmbedder{}, vectors)

		written, err := ix.BuildSchemaIndex(context.Background(), 3)
		if err != nil {
			t.Fatalf("BuildSchemaIndex: %v", err)
		}
		if written != 1 {
			t.Errorf("written = %d, want 1", written)
		}
	})
}
