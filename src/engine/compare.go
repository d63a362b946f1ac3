package engine

import (
	"reflect"
	"strings"

	"mockmongo/src/helpers"
	"mockmongo/src/models"

	"go.mongodb.org/mongo-driver/bson"
)

// ValuesEqual reports whether two values are equal the way the server
// compares them: numbers by value regardless of their width, documents and
// arrays element by element, everything else structurally after a BSON
// round trip.
func ValuesEqual(a, b interface{}) bool {
	na, err := helpers.NormalizeValue(a)
	if err != nil {
		return false
	}
	nb, err := helpers.NormalizeValue(b)
	if err != nil {
		return false
	}
	return normalizedEqual(na, nb)
}

func normalizedEqual(a, b interface{}) bool {
	if equal, numeric := numbersEqual(a, b); numeric {
		return equal
	}

	switch av := a.(type) {
	case bson.M:
		bv, ok := b.(bson.M)
		if !ok || len(av) != len(bv) {
			return false
		}
		for key, value := range av {
			other, exists := bv[key]
			if !exists || !normalizedEqual(value, other) {
				return false
			}
		}
		return true
	case bson.A:
		bv, ok := b.(bson.A)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !normalizedEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// numbersEqual compares two numbers. Integers are compared exactly; only a
// float64 on either side makes it a float comparison. numeric is false when
// either value is not a number.
func numbersEqual(a, b interface{}) (equal, numeric bool) {
	aInt, aIsInt := toInt(a)
	bInt, bIsInt := toInt(b)
	if aIsInt && bIsInt {
		return aInt == bInt, true
	}

	aNum, aIsNum := toFloat(a)
	bNum, bIsNum := toFloat(b)
	if aIsNum || bIsNum {
		return aIsNum && bIsNum && aNum == bNum, true
	}
	return false, false
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// checkFilter rejects filters the in-memory store cannot evaluate.
func checkFilter(filter bson.M) error {
	for key, value := range filter {
		if strings.HasPrefix(key, "$") {
			return models.Unsupported("query operator %s", key)
		}
		if sub, ok := value.(bson.M); ok {
			for op := range sub {
				if strings.HasPrefix(op, "$") {
					return models.Unsupported("query operator %s on field %s", op, key)
				}
			}
		}
		if sub, ok := value.(bson.D); ok {
			for _, e := range sub {
				if strings.HasPrefix(e.Key, "$") {
					return models.Unsupported("query operator %s on field %s", e.Key, key)
				}
			}
		}
	}
	return nil
}

// matchesFilter reports whether every top-level filter field equals the
// document's field. A missing document field only matches a nil filter value.
func matchesFilter(document models.Document, filter bson.M) bool {
	for key, want := range filter {
		got, exists := document[key]
		if !exists {
			if want != nil {
				return false
			}
			continue
		}
		if !ValuesEqual(got, want) {
			return false
		}
	}
	return true
}
