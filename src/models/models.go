package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Document is a stored document. Every stored document carries an _id field.
type Document = bson.M

// CommandResponse is the reply of an administrative command.
type CommandResponse = bson.M

// SystemPrefix marks collections that are hidden from default listings.
const SystemPrefix = "system."

// IDField is the identifier field of every document.
const IDField = "_id"

// IDIndexName is the name of the index every collection has on _id.
const IDIndexName = "_id_"

// DBRef points at a single document inside a collection of a database.
type DBRef struct {
	// Database is the name of the database holding the collection.
	Database string

	// Collection is the name of the collection holding the document.
	Collection string

	// ID is the _id of the referenced document.
	ID interface{}
}

// NewDBRef returns a reference to the document with the given id.
func NewDBRef(database, collection string, id interface{}) DBRef {
	return DBRef{Database: database, Collection: collection, ID: id}
}

// Namespace encapsulates a database and collection name, which together
// identify a collection.
type Namespace struct {
	DB         string
	Collection string
}

// ParseNamespace splits "db.collection" on the first dot. A string without a
// dot yields the zero Namespace.
func ParseNamespace(name string) Namespace {
	db, coll, found := strings.Cut(name, ".")
	if !found || db == "" || coll == "" {
		return Namespace{}
	}
	return Namespace{DB: db, Collection: coll}
}

// FullName joins the database and collection names with a dot.
func (ns Namespace) FullName() string {
	if ns.Collection == "" {
		return ns.DB
	}
	return ns.DB + "." + ns.Collection
}

// IndexKey is a single field of an index and its sort direction.
type IndexKey struct {
	Field      string
	Descending bool
}

// IndexReference stores information about an index
type IndexReference struct {
	IndexName  string
	Keys       []IndexKey
	Unique     bool
	CreateTime time.Time
}

// KeyDocument renders the index keys the way the server reports them.
func (r IndexReference) KeyDocument() bson.D {
	keys := make(bson.D, 0, len(r.Keys))
	for _, k := range r.Keys {
		dir := int32(1)
		if k.Descending {
			dir = -1
		}
		keys = append(keys, bson.E{Key: k.Field, Value: dir})
	}
	return keys
}

// OkResponse is the reply of a command that succeeded.
func OkResponse() CommandResponse {
	return CommandResponse{"ok": float64(1)}
}
