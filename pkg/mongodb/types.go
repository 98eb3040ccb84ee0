package mongodb

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TypeName returns a short BSON-flavored label for a decoded value. Schema
// previews shown to the model are built from these.
func TypeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int32:
		return "int"
	case int64:
		return "long"
	case float32, float64:
		return "double"
	case primitive.ObjectID:
		return "objectId"
	case primitive.DateTime, time.Time:
		return "date"
	case primitive.Decimal128:
		return "decimal"
	case primitive.Timestamp:
		return "timestamp"
	case primitive.Binary:
		return "binData"
	case bson.D, bson.M, map[string]interface{}:
		return "object"
	case bson.A, []interface{}:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// DocumentKeys returns up to limit field names of a decoded document value,
// or nil when the value is not a document. bson.D keys keep document order;
// map-backed documents are sorted for stable output.
func DocumentKeys(value interface{}, limit int) []string {
	var keys []string
	switch v := value.(type) {
	case bson.D:
		keys = make([]string, 0, len(v))
		for _, elem := range v {
			keys = append(keys, elem.Key)
		}
	case bson.M:
		keys = make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	case map[string]interface{}:
		keys = make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	default:
		return nil
	}
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
