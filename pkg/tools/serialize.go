package tools

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// serializeDocs converts query results into JSON-renderable values. The
// slice is always non-nil so empty results render as [].
func serializeDocs(docs []bson.M) []interface{} {
	out := make([]interface{}, len(docs))
	for i, doc := range docs {
		out[i] = serializeValue(doc)
	}
	return out
}

// serializeValue rewrites driver types into plain JSON values: ObjectIDs
// become hex strings, dates RFC 3339 strings, ordered documents plain maps.
func serializeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case primitive.Decimal128:
		return v.String()
	case primitive.Timestamp:
		return fmt.Sprintf("Timestamp(%d, %d)", v.T, v.I)
	case primitive.Binary:
		return base64.StdEncoding.EncodeToString(v.Data)
	case bson.D:
		m := make(map[string]interface{}, len(v))
		for _, elem := range v {
			m[elem.Key] = serializeValue(elem.Value)
		}
		return m
	case bson.M:
		m := make(map[string]interface{}, len(v))
		for key, val := range v {
			m[key] = serializeValue(val)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for key, val := range v {
			m[key] = serializeValue(val)
		}
		return m
	case bson.A:
		return serializeSlice(v)
	case []interface{}:
		return serializeSlice(v)
	default:
		return v
	}
}

func serializeSlice(values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = serializeValue(v)
	}
	return out
}

// renderResults renders serialized documents as indented JSON
func renderResults(docs []bson.M) string {
	data, err := json.MarshalIndent(serializeDocs(docs), "", "  ")
	if err != nil {
		return fmt.Sprintf("Error serializing results: %v", err)
	}
	return string(data)
}
