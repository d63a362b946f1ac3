package engine

import (
	"fmt"
	"strings"

	"mockmongo/src/models"

	"go.mongodb.org/mongo-driver/bson"
)

// parseIndexKeys accepts a field name, a bson.D of field/direction pairs or a
// single-key bson.M.
func parseIndexKeys(keys interface{}) ([]models.IndexKey, error) {
	switch k := keys.(type) {
	case string:
		if k == "" {
			return nil, fmt.Errorf("%w: index key cannot be empty", models.ErrInvalidArgumentValue)
		}
		return []models.IndexKey{{Field: k}}, nil
	case bson.D:
		if len(k) == 0 {
			return nil, fmt.Errorf("%w: index keys cannot be empty", models.ErrInvalidArgumentValue)
		}
		result := make([]models.IndexKey, 0, len(k))
		for _, e := range k {
			key, err := parseIndexKey(e.Key, e.Value)
			if err != nil {
				return nil, err
			}
			result = append(result, key)
		}
		return result, nil
	case bson.M:
		if len(k) != 1 {
			return nil, fmt.Errorf("%w: unordered index keys must have exactly one field, use bson.D", models.ErrInvalidArgumentValue)
		}
		for field, dir := range k {
			key, err := parseIndexKey(field, dir)
			if err != nil {
				return nil, err
			}
			return []models.IndexKey{key}, nil
		}
	}
	return nil, fmt.Errorf("%w: index keys must be a string, bson.D or bson.M, not %T", models.ErrInvalidArgumentType, keys)
}

func parseIndexKey(field string, direction interface{}) (models.IndexKey, error) {
	if field == "" {
		return models.IndexKey{}, fmt.Errorf("%w: index key cannot be empty", models.ErrInvalidArgumentValue)
	}
	dir, ok := toFloat(normalizeDirection(direction))
	if !ok || (dir != 1 && dir != -1) {
		return models.IndexKey{}, models.Unsupported("index type %v on field %s", direction, field)
	}
	return models.IndexKey{Field: field, Descending: dir < 0}, nil
}

func normalizeDirection(direction interface{}) interface{} {
	switch d := direction.(type) {
	case int:
		return int64(d)
	case int8:
		return int64(d)
	case int16:
		return int64(d)
	default:
		return d
	}
}

// indexName builds the default index name, e.g. "foo_1" or "a_1_b_-1".
func indexName(keys []models.IndexKey) string {
	parts := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		dir := "1"
		if k.Descending {
			dir = "-1"
		}
		parts = append(parts, k.Field, dir)
	}
	return strings.Join(parts, "_")
}

// indexTuple extracts the values a document holds for the index fields.
// Missing fields index as nil.
func indexTuple(document models.Document, keys []models.IndexKey) []interface{} {
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = document[k.Field]
	}
	return values
}

func tuplesEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if !ValuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
