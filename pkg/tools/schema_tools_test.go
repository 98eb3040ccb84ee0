package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListCollections(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
		want  string
	}{
		{
			name:  "names_joined",
			store: &fakeStore{collections: []string{"orders", "users", "datasets"}},
			want:  "Collections in database 'inferyx': orders, users, datasets",
		},
		{
			name:  "empty_database",
			store: &fakeStore{},
			want:  "Collections in database 'inferyx': None",
		},
		{
			name:  "list_error",
			store: &fakeStore{listErr: errors.New("connection reset")},
			want:  "Error listing collections: connection reset",
		},
		{
			name:  "custom_database_name",
			store: &fakeStore{dbName: "analytics", collections: []string{"events"}},
			want:  "Collections in database 'analytics': events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewListCollectionsTool(tt.store)
			if got := tool.Execute(context.Background(), nil); got != tt.want {
				t.Errorf("result = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollectionSchema(t *testing.T) {
	oid, _ := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	store := &fakeStore{samples: []bson.D{
		{
			{Key: "_id", Value: oid},
			{Key: "customer", Value: bson.D{{Key: "name", Value: "Ada"}, {Key: "email", Value: "ada@example.com"}}},
			{Key: "items", Value: bson.A{bson.D{{Key: "sku", Value: "A1"}, {Key: "qty", Value: int32(2)}}}},
			{Key: "total", Value: 12.5},
		},
		{
			{Key: "_id", Value: oid},
			{Key: "total", Value: int32(7)},
		},
	}}

	tool := NewCollectionSchemaTool(store)
	got := tool.Execute(context.Background(), map[string]interface{}{
		"collection_name": "orders",
		"sample_size":     3,
	})

	want := "Collection: orders\n" +
		"Sample size: 2\n" +
		"\n" +
		"--- Document 1 ---\n" +
		"  _id: objectId\n" +
		"  customer: object (keys: ['name', 'email'])\n" +
		"  items: array (list of dicts, first keys: ['sku', 'qty'])\n" +
		"  total: double\n" +
		"\n" +
		"--- Document 2 ---\n" +
		"  _id: objectId\n" +
		"  total: int\n"
	if got != want {
		t.Errorf("schema =\n%q\nwant\n%q", got, want)
	}
	if store.gotCollection != "orders" || store.gotSampleSize != 3 {
		t.Errorf("sampled %q with size %d", store.gotCollection, store.gotSampleSize)
	}
}

func TestCollectionSchemaEmptyCollection(t *testing.T) {
	tool := NewCollectionSchemaTool(&fakeStore{})

	got := tool.Execute(context.Background(), map[string]interface{}{"collection_name": "ghost"})
	want := "Collection 'ghost' is empty or does not exist."
	if got != want {
		t.Errorf("result = %q, want %q", got, want)
	}
}

func TestCollectionSchemaError(t *testing.T) {
	tool := NewCollectionSchemaTool(&fakeStore{sampleErr: errors.New("cursor timeout")})

	got := tool.Execute(context.Background(), map[string]interface{}{"collection_name": "orders"})
	want := "Error getting schema for 'orders': cursor timeout"
	if got != want {
		t.Errorf("result = %q, want %q", got, want)
	}
}

func TestCollectionSchemaKeyPreviewCaps(t *testing.T) {
	nested := bson.D{}
	for _, k := range []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", "k9", "k10"} {
		nested = append(nested, bson.E{Key: k, Value: 1})
	}
	store := &fakeStore{samples: []bson.D{{{Key: "blob", Value: nested}}}}

	tool := NewCollectionSchemaTool(store)
	got := tool.Execute(context.Background(), map[string]interface{}{"collection_name": "pods"})

	if !strings.Contains(got, "blob: object (keys: ['k1', 'k2', 'k3', 'k4', 'k5', 'k6', 'k7', 'k8'])") {
		t.Errorf("nested keys not capped at 8:\n%s", got)
	}
	if strings.Contains(got, "k9") {
		t.Errorf("key beyond cap leaked into preview:\n%s", got)
	}
}
