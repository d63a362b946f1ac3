package directors

import (
	"fmt"

	"mockmongo/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toDBRef accepts a models.DBRef (or pointer), a DBRef document (bson.M,
// bson.D or plain map) with $ref, $id and optional $db, or a
// primitive.DBPointer. A DBRef document without $db points into defaultDB.
func toDBRef(ref interface{}, defaultDB string) (models.DBRef, error) {
	switch r := ref.(type) {
	case models.DBRef:
		return r, nil
	case *models.DBRef:
		if r != nil {
			return *r, nil
		}
	case primitive.DBPointer:
		ns := models.ParseNamespace(r.DB)
		if ns.Collection == "" {
			return models.DBRef{}, fmt.Errorf("%w: DBPointer namespace %q is not of the form db.collection",
				models.ErrInvalidArgumentValue, r.DB)
		}
		return models.DBRef{Database: ns.DB, Collection: ns.Collection, ID: r.Pointer}, nil
	case bson.M:
		return dbRefFromDocument(r, ref, defaultDB)
	case map[string]interface{}:
		return dbRefFromDocument(bson.M(r), ref, defaultDB)
	case bson.D:
		doc := make(bson.M, len(r))
		for _, e := range r {
			doc[e.Key] = e.Value
		}
		return dbRefFromDocument(doc, ref, defaultDB)
	}
	return models.DBRef{}, fmt.Errorf("%w: cannot dereference a %T", models.ErrInvalidArgumentType, ref)
}

func dbRefFromDocument(doc bson.M, original interface{}, defaultDB string) (models.DBRef, error) {
	collection, hasRef := doc["$ref"].(string)
	id, hasID := doc["$id"]
	if !hasRef || !hasID {
		return models.DBRef{}, fmt.Errorf("%w: cannot dereference a %T without $ref and $id", models.ErrInvalidArgumentType, original)
	}
	database := defaultDB
	if db, exists := doc["$db"]; exists {
		name, ok := db.(string)
		if !ok {
			return models.DBRef{}, fmt.Errorf("%w: $db must be a string, not %T", models.ErrInvalidArgumentType, db)
		}
		database = name
	}
	return models.DBRef{Database: database, Collection: collection, ID: id}, nil
}
