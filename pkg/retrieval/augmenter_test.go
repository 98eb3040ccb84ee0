package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/inferyx/queryagent/pkg/config"
	"github.com/inferyx/queryagent/pkg/vector"
)

type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.embedding, f.err
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.embedding
	}
	return out, f.err
}

func (f *fakeEmbedder) GetDimension() int { return len(f.embedding) }

func (f *fakeEmbedder) GetModelName() string { return "fake" }

func (f *fakeEmbedder) Close() error { return nil }

type fakeVectorStore struct {
	results []vector.SearchResult
	err     error

	gotCollection string
	gotTopK       int
}

func (f *fakeVectorStore) Upsert(ctx context.Context, collection, id string, vec []float32, metadata map[string]interface{}) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, collection string, vec []float32, topK int) ([]vector.SearchResult, error) {
	f.gotCollection = collection
	f.gotTopK = topK
	return f.results, f.err
}

func (f *fakeVectorStore) CreateCollection(ctx context.Context, collection string, vectorSize uint64) error {
	return nil
}

func (f *fakeVectorStore) DeleteCollection(ctx context.Context, collection string) error {
	return nil
}

func (f *fakeVectorStore) Close() error { return nil }

func schemaHit(name, text string) vector.SearchResult {
	return vector.SearchResult{
		ID:    name,
		Score: 0.9,
		Metadata: map[string]interface{}{
			"collection_name": name,
			"text":            text,
		},
	}
}

func TestAugmentFormatsSchemaContext(t *testing.T) {
	store := &fakeVectorStore{results: []vector.SearchResult{
		schemaHit("orders", "Collection: orders. Fields:\n  _id: objectId\n  total: double"),
		schemaHit("users", "Collection: users. Fields:\n  _id: objectId\n  name: string"),
	}}
	a := NewAugmenter(&config.RetrievalConfig{}, &fakeEmbedder{embedding: []float32{0.1}}, store)

	got := a.Augment(context.Background(), "total order value per user")
	want := "Relevant schema metadata (from vector search; use this to prioritize which collections/fields to use):\n" +
		"\n" +
		"- [orders] Collection: orders. Fields:\n  _id: objectId\n  total: double\n" +
		"- [users] Collection: users. Fields:\n  _id: objectId\n  name: string"
	if got != want {
		t.Errorf("Augment =\n%q\nwant\n%q", got, want)
	}
}

func TestAugmentUsesConfiguredIndex(t *testing.T) {
	store := &fakeVectorStore{results: []vector.SearchResult{schemaHit("orders", "text")}}
	a := NewAugmenter(&config.RetrievalConfig{}, &fakeEmbedder{embedding: []float32{0.1}}, store)

	a.Augment(context.Background(), "anything")
	if store.gotCollection != "schema_metadata" {
		t.Errorf("collection = %q, want schema_metadata", store.gotCollection)
	}
	if store.gotTopK != 8 {
		t.Errorf("topK = %d, want 8", store.gotTopK)
	}

	a.AugmentExamples(context.Background(), "anything")
	if store.gotCollection != "query_examples" {
		t.Errorf("collection = %q, want query_examples", store.gotCollection)
	}
	if store.gotTopK != 3 {
		t.Errorf("topK = %d, want 3", store.gotTopK)
	}
}

func TestAugmentDegradesToEmpty(t *testing.T) {
	hit := schemaHit("orders", "text")

	tests := []struct {
		name     string
		embedder *fakeEmbedder
		store    *fakeVectorStore
	}{
		{
			name:     "embedder_error",
			embedder: &fakeEmbedder{err: errors.New("api down")},
			store:    &fakeVectorStore{results: []vector.SearchResult{hit}},
		},
		{
			name:     "empty_embedding",
			embedder: &fakeEmbedder{},
			store:    &fakeVectorStore{results: []vector.SearchResult{hit}},
		},
		{
			name:     "search_error",
			embedder: &fakeEmbedder{embedding: []float32{0.1}},
			store:    &fakeVectorStore{err: errors.New("index missing")},
		},
		{
			name:     "no_hits",
			embedder: &fakeEmbedder{embedding: []float32{0.1}},
			store:    &fakeVectorStore{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAugmenter(&config.RetrievalConfig{}, tt.embedder, tt.store)
			if got := a.Augment(context.Background(), "question"); got != "" {
				t.Errorf("Augment = %q, want empty", got)
			}
			if got := a.AugmentExamples(context.Background(), "question"); got != "" {
				t.Errorf("AugmentExamples = %q, want empty", got)
			}
		})
	}
}

func TestAugmentNilDependencies(t *testing.T) {
	a := NewAugmenter(&config.RetrievalConfig{}, nil, nil)
	if got := a.Augment(context.Background(), "question"); got != "" {
		t.Errorf("Augment = %q, want empty", got)
	}
	if got := a.AugmentExamples(context.Background(), "question"); got != "" {
		t.Errorf("AugmentExamples = %q, want empty", got)
	}
}

func TestAugmentSkipsHitsWithoutText(t *testing.T) {
	store := &fakeVectorStore{results: []vector.SearchResult{
		{ID: "orders", Metadata: map[string]interface{}{"collection_name": "orders"}},
	}}
	a := NewAugmenter(&config.RetrievalConfig{}, &fakeEmbedder{embedding: []float32{0.1}}, store)

	if got := a.Augment(context.Background(), "question"); got != "" {
		t.Errorf("Augment = %q, want empty when no hit has text", got)
	}
}

func TestAugmentExamplesFormat(t *testing.T) {
	store := &fakeVectorStore{results: []vector.SearchResult{
		{
			ID: "ex1",
			Metadata: map[string]interface{}{
				"natural_language": "How many orders per customer?",
				"query":            `execute_aggregation(collection_name="orders", pipeline_json='[{"$group": {"_id": "$userId", "count": {"$sum": 1}}}]')`,
			},
		},
		{
			ID: "ex2",
			Metadata: map[string]interface{}{
				"question": "What collections exist?",
				"pipeline": "list_collections",
			},
		},
	}}
	a := NewAugmenter(&config.RetrievalConfig{}, &fakeEmbedder{embedding: []float32{0.1}}, store)

	got := a.AugmentExamples(context.Background(), "orders per customer")
	want := "Similar example questions and how they were answered (use as reference for tool usage and query shape):\n" +
		"\n" +
		"Q: How many orders per customer?\n" +
		"  → execute_aggregation(collection_name=\"orders\", pipeline_json='[{\"$group\": {\"_id\": \"$userId\", \"count\": {\"$sum\": 1}}}]')\n" +
		"\n" +
		"Q: What collections exist?\n" +
		"  → list_collections"
	if got != want {
		t.Errorf("AugmentExamples =\n%q\nwant\n%q", got, want)
	}
}

func TestAugmentExamplesWithoutQueryLine(t *testing.T) {
	store := &fakeVectorStore{results: []vector.SearchResult{
		{ID: "ex", Metadata: map[string]interface{}{"natural_language": "List all users"}},
	}}
	a := NewAugmenter(&config.RetrievalConfig{}, &fakeEmbedder{embedding: []float32{0.1}}, store)

	got := a.AugmentExamples(context.Background(), "users")
	want := "Similar example questions and how they were answered (use as reference for tool usage and query shape):\n" +
		"\n" +
		"Q: List all users"
	if got != want {
		t.Errorf("AugmentExamples =\n%q\nwant\n%q", got, want)
	}
}
