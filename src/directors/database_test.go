package directors

import (
	"strings"
	"testing"

	"mockmongo/src/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"pgregory.net/rapid"
)

type fakeClient struct{}

func (fakeClient) String() string { return "mockmongo.MongoClient('localhost', 27017)" }

// fakeSession satisfies mongo.Session; none of its methods may be called.
type fakeSession struct {
	mongo.Session
}

func newTestDatabase() *Database {
	return NewDatabase("somedb", fakeClient{}, nil, nil)
}

func TestDatabase_AttrUnderscore(t *testing.T) {
	db := newTestDatabase()

	_, err := db.Attr("_users")
	require.ErrorIs(t, err, models.ErrAttributeNotFound)
	require.Contains(t, err.Error(), "Database has no attribute '_users'")

	users := db.Get("_users")
	_, err = users.InsertOne(bson.M{"a": 1})
	require.NoError(t, err)

	doc, err := db.Get("_users").FindOne(nil)
	require.NoError(t, err)
	require.Equal(t, int32(1), doc["a"])
}

func TestDatabase_AttrAndGetShareInstances(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		db := newTestDatabase()
		name := rapid.StringMatching(`[a-z][a-z0-9_.]{0,12}`).Draw(rt, "name")

		byAttr, err := db.Attr(name)
		if err != nil {
			rt.Fatalf("Attr(%q): %v", name, err)
		}
		again, _ := db.Attr(name)
		if byAttr != db.Get(name) || byAttr != again {
			rt.Fatalf("Attr and Get returned different collections for %q", name)
		}
	})
}

func TestDatabase_UnderscoreNamesOnlyByKey(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		db := newTestDatabase()
		name := rapid.StringMatching(`_[a-z0-9_]{0,12}`).Draw(rt, "name")

		if _, err := db.Attr(name); err == nil {
			rt.Fatalf("Attr(%q) succeeded", name)
		}
		if db.Get(name) != db.Get(name) {
			rt.Fatalf("Get(%q) is not stable", name)
		}
	})
}

func TestDatabase_CollectionNames(t *testing.T) {
	db := newTestDatabase()
	_, err := db.Get("a").CreateIndex("foo", false)
	require.NoError(t, err)
	_, err = db.Get("system.bar").CreateIndex("foo", false)
	require.NoError(t, err)

	names, err := db.CollectionNames(NewListCollectionNamesOptions().SetIncludeSystemCollections(false))
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, names)

	names, err = db.CollectionNames()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "system.bar"}, names)
}

func TestDatabase_ListCollectionNames(t *testing.T) {
	db := newTestDatabase()
	_, err := db.Get("test1").CreateIndex("foo", false)
	require.NoError(t, err)
	db.Get("system.indexes")

	names, err := db.ListCollectionNames()
	require.NoError(t, err)
	require.Equal(t, []string{"test1"}, names)

	names, err = db.ListCollectionNames(NewListCollectionNamesOptions().SetIncludeSystemCollections(true))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"test1", "system.indexes"}, names)
}

func TestDatabase_ListCollectionNamesFilter(t *testing.T) {
	db := newTestDatabase()
	for _, name := range []string{"users", "user_logs", "orders"} {
		db.Get(name)
	}

	list := func(filter bson.M) []string {
		names, err := db.ListCollectionNames(NewListCollectionNamesOptions().SetFilter(filter))
		require.NoError(t, err)
		return names
	}

	require.Equal(t, []string{"orders"}, list(bson.M{"name": "orders"}))
	require.Equal(t, []string{"user_logs", "users"}, list(bson.M{"name": bson.M{"$regex": "^user"}}))
	require.Equal(t, []string{"users"}, list(bson.M{"name": primitive.Regex{Pattern: "^USERS$", Options: "i"}}))
	require.Equal(t, []string{"orders", "users"}, list(bson.M{"name": bson.M{"$in": bson.A{"users", "orders", "nope"}}}))
	require.Equal(t, []string{"orders", "user_logs"}, list(bson.M{"name": bson.M{"$ne": "users"}}))

	_, err := db.ListCollectionNames(NewListCollectionNamesOptions().SetFilter(bson.M{"type": "view"}))
	require.ErrorIs(t, err, models.ErrUnsupported)

	_, err = db.ListCollectionNames(NewListCollectionNamesOptions().SetFilter(bson.M{"name": bson.M{"$gt": "a"}}))
	require.ErrorIs(t, err, models.ErrUnsupported)
}

func TestDatabase_ListCollections(t *testing.T) {
	db := newTestDatabase()
	users := db.Get("users")
	db.Get("system.views")

	specs, err := db.ListCollections()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	require.Equal(t, "users", specs[0]["name"])
	require.Equal(t, "collection", specs[0]["type"])
	require.Equal(t, users.ID(), specs[0]["info"].(bson.M)["uuid"])
}

func TestDatabase_SessionsRejected(t *testing.T) {
	db := newTestDatabase()
	session := fakeSession{}

	_, err := db.ListCollectionNames(NewListCollectionNamesOptions().SetSession(session))
	require.ErrorIs(t, err, models.ErrUnsupported)

	_, err = db.CollectionNames(&ListCollectionNamesOptions{Session: session})
	require.ErrorIs(t, err, models.ErrUnsupported)

	require.ErrorIs(t, db.DropCollection("a", WithSession(session)), models.ErrUnsupported)

	_, err = db.CreateCollection("a", WithSession(session))
	require.ErrorIs(t, err, models.ErrUnsupported)

	_, err = db.Command("ping", WithSession(session))
	require.ErrorIs(t, err, models.ErrUnsupported)

	_, err = db.Dereference(models.NewDBRef("somedb", "a", "b"), WithSession(session))
	require.ErrorIs(t, err, models.ErrUnsupported)

	_, err = db.GetCollection("a", NewCollectionOptions().SetSession(session))
	require.ErrorIs(t, err, models.ErrUnsupported)

	_, err = db.RenameCollection("a", "b", &RenameCollectionOptions{Session: session})
	require.ErrorIs(t, err, models.ErrUnsupported)

	names, err := db.CollectionNames()
	require.NoError(t, err)
	require.Empty(t, names, "rejected calls must not create collections")
}

func TestDatabase_NilOptionsAreDefaults(t *testing.T) {
	db := newTestDatabase()

	_, err := db.CreateCollection("a", nil)
	require.NoError(t, err)
	_, err = db.GetCollection("a", nil, NewCollectionOptions())
	require.NoError(t, err)
	names, err := db.ListCollectionNames(nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, names)
}

func TestDatabase_CommandPing(t *testing.T) {
	db := newTestDatabase()

	resp, err := db.Command(bson.M{"ping": 1})
	require.NoError(t, err)
	require.Equal(t, models.CommandResponse{"ok": float64(1)}, resp)

	resp, err = db.Command("ping")
	require.NoError(t, err)
	require.Equal(t, models.CommandResponse{"ok": float64(1)}, resp)

	resp, err = db.Command(bson.M{"ping": "anything"})
	require.NoError(t, err)
	require.Equal(t, models.OkResponse(), resp)

	resp, err = db.Command(bson.D{{Key: "ping", Value: 1}, {Key: "comment", Value: "hi"}})
	require.NoError(t, err)
	require.Equal(t, models.OkResponse(), resp)
}

func TestDatabase_CommandUnsupported(t *testing.T) {
	db := newTestDatabase()

	_, err := db.Command("a_nice_ping")
	require.ErrorIs(t, err, models.ErrUnsupported)
	require.Contains(t, err.Error(), "a_nice_ping")

	_, err = db.Command("unknownCmd")
	require.ErrorIs(t, err, models.ErrUnsupported)

	_, err = db.Command(bson.M{"count": "user"})
	require.ErrorIs(t, err, models.ErrUnsupported)
	require.Contains(t, err.Error(), "count")
}

func TestDatabase_CommandShape(t *testing.T) {
	db := newTestDatabase()

	_, err := db.Command(42)
	require.ErrorIs(t, err, models.ErrInvalidArgumentType)

	_, err = db.Command(bson.M{})
	require.ErrorIs(t, err, models.ErrInvalidArgumentValue)

	_, err = db.Command(bson.M{"ping": 1, "count": "x"})
	require.ErrorIs(t, err, models.ErrInvalidArgumentValue)

	_, err = db.Command(bson.D{})
	require.ErrorIs(t, err, models.ErrInvalidArgumentValue)

	_, err = db.Command("")
	require.ErrorIs(t, err, models.ErrInvalidArgumentValue)
}

func TestDatabase_String(t *testing.T) {
	db := newTestDatabase()
	require.Equal(t, "Database(mockmongo.MongoClient('localhost', 27017), 'somedb')", db.String())

	require.Equal(t, "Database(None, 'x')", NewDatabase("x", nil, nil, nil).String())
}

func TestDatabase_RenameUnknownCollection(t *testing.T) {
	db := newTestDatabase()

	_, err := db.RenameCollection("a", "b")
	require.ErrorIs(t, err, models.ErrOperationFailure)

	var failure *models.OperationFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, models.CodeNamespaceNotFound, failure.Code)
}

func TestDatabase_RenameCollection(t *testing.T) {
	db := newTestDatabase()
	_, err := db.Get("a").InsertOne(bson.M{"_id": 1, "v": "kept"})
	require.NoError(t, err)

	resp, err := db.RenameCollection("a", "b")
	require.NoError(t, err)
	require.Equal(t, models.OkResponse(), resp)

	names, err := db.ListCollectionNames()
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, names)

	doc, err := db.Get("b").FindOne(bson.M{"_id": 1})
	require.NoError(t, err)
	require.Equal(t, "kept", doc["v"])
}

func TestDatabase_RenameCollectionTarget(t *testing.T) {
	db := newTestDatabase()
	db.Get("a")
	db.Get("b")

	_, err := db.RenameCollection("a", "b")
	require.ErrorIs(t, err, models.ErrOperationFailure)

	_, err = db.RenameCollection("a", "b", &RenameCollectionOptions{DropTarget: true})
	require.NoError(t, err)

	names, err := db.ListCollectionNames()
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, names)
}

func TestDatabase_RenameCollectionInvalidName(t *testing.T) {
	db := newTestDatabase()
	db.Get("a")

	for _, name := range []string{"", "a..b", ".a", "a.", "a$b", "a\x00b"} {
		_, err := db.RenameCollection("a", name)
		require.ErrorIs(t, err, models.ErrInvalidName, "name %q", name)
	}

	err := ValidateCollectionName("a..b")
	require.NotContains(t, err.Error(), "cannot be empty")
	require.Contains(t, err.Error(), "'..'")
	require.Contains(t, ValidateCollectionName("").Error(), "cannot be empty")
	require.True(t, db.registry.Has("a"))
}

func TestDatabase_CreateAndDropCollection(t *testing.T) {
	db := newTestDatabase()

	created, err := db.CreateCollection("a")
	require.NoError(t, err)
	require.Same(t, created, db.Get("a"))

	require.NoError(t, db.DropCollection("a"))
	require.NoError(t, db.DropCollection("a"), "dropping twice is not an error")

	names, err := db.ListCollectionNames()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestDatabase_WriteThroughHandleAfterDrop(t *testing.T) {
	db := newTestDatabase()
	handle := db.Get("a")
	require.NoError(t, db.DropCollection("a"))

	_, err := handle.InsertOne(bson.M{"_id": 1, "v": "kept"})
	require.NoError(t, err)

	names, err := db.ListCollectionNames()
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, names)
	require.Same(t, handle, db.Get("a"))

	doc, err := db.Dereference(models.NewDBRef("somedb", "a", 1))
	require.NoError(t, err)
	require.Equal(t, "kept", doc["v"])
}

func TestDatabase_DereferenceLargeIntegerIDs(t *testing.T) {
	db := newTestDatabase()
	_, err := db.Get("a").InsertOne(bson.M{"_id": int64(1 << 53), "val": "first"})
	require.NoError(t, err)
	_, err = db.Get("a").InsertOne(bson.M{"_id": int64(1<<53 + 1), "val": "second"})
	require.NoError(t, err)

	doc, err := db.Dereference(models.NewDBRef("somedb", "a", int64(1<<53+1)))
	require.NoError(t, err)
	require.Equal(t, "second", doc["val"])

	doc, err = db.Dereference(models.NewDBRef("somedb", "a", int64(1<<53+2)))
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestDatabase_PlainMapArguments(t *testing.T) {
	db := newTestDatabase()
	_, err := db.Get("a").InsertOne(bson.M{"_id": "b"})
	require.NoError(t, err)

	resp, err := db.Command(map[string]interface{}{"ping": 1})
	require.NoError(t, err)
	require.Equal(t, models.OkResponse(), resp)

	_, err = db.Command(map[string]interface{}{"count": "a"})
	require.ErrorIs(t, err, models.ErrUnsupported)

	doc, err := db.Dereference(map[string]interface{}{"$ref": "a", "$id": "b"})
	require.NoError(t, err)
	require.Equal(t, "b", doc["_id"])
}

func TestDatabase_Dereference(t *testing.T) {
	db := newTestDatabase()
	_, err := db.Get("a").InsertOne(bson.M{"_id": "b", "val": 42})
	require.NoError(t, err)

	doc, err := db.Dereference(models.NewDBRef("somedb", "a", "b"))
	require.NoError(t, err)
	require.Equal(t, models.Document{"_id": "b", "val": int32(42)}, doc)

	doc, err = db.Dereference(models.NewDBRef("somedb", "a", "a"))
	require.NoError(t, err)
	require.Nil(t, doc)

	doc, err = db.Dereference(&models.DBRef{Database: "somedb", Collection: "b", ID: "b"})
	require.NoError(t, err)
	require.Nil(t, doc)
	require.False(t, db.registry.Has("b"), "dereferencing must not create collections")

	_, err = db.Dereference(models.NewDBRef("otherdb", "a", "b"))
	require.ErrorIs(t, err, models.ErrInvalidArgumentValue)

	_, err = db.Dereference(models.NewDBRef("", "a", "b"))
	require.ErrorIs(t, err, models.ErrInvalidArgumentValue)

	_, err = db.Dereference("b")
	require.ErrorIs(t, err, models.ErrInvalidArgumentType)

	var nilRef *models.DBRef
	_, err = db.Dereference(nilRef)
	require.ErrorIs(t, err, models.ErrInvalidArgumentType)
}

func TestDatabase_DereferenceDocumentForms(t *testing.T) {
	db := newTestDatabase()
	oid := primitive.NewObjectID()
	_, err := db.Get("a").InsertOne(bson.M{"_id": oid, "val": 1})
	require.NoError(t, err)

	doc, err := db.Dereference(bson.M{"$ref": "a", "$id": oid})
	require.NoError(t, err)
	require.Equal(t, oid, doc["_id"])

	doc, err = db.Dereference(bson.D{{Key: "$ref", Value: "a"}, {Key: "$id", Value: oid}, {Key: "$db", Value: "somedb"}})
	require.NoError(t, err)
	require.NotNil(t, doc)

	doc, err = db.Dereference(primitive.DBPointer{DB: "somedb.a", Pointer: oid})
	require.NoError(t, err)
	require.NotNil(t, doc)

	_, err = db.Dereference(bson.M{"$ref": "a", "$id": oid, "$db": "otherdb"})
	require.ErrorIs(t, err, models.ErrInvalidArgumentValue)

	_, err = db.Dereference(bson.M{"$ref": "a"})
	require.ErrorIs(t, err, models.ErrInvalidArgumentType)

	_, err = db.Dereference(primitive.DBPointer{DB: "nodot", Pointer: oid})
	require.ErrorIs(t, err, models.ErrInvalidArgumentValue)
}

func TestDatabase_GetCollection(t *testing.T) {
	db := newTestDatabase()

	c, err := db.GetCollection("a")
	require.NoError(t, err)
	require.Same(t, c, db.Get("a"))

	_, err = db.GetCollection("a", NewCollectionOptions().SetReadConcern(readconcern.Majority()))
	require.ErrorIs(t, err, models.ErrUnsupported)
	require.Contains(t, err.Error(), "read concern")

	_, err = db.GetCollection("b", NewCollectionOptions().
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary()).
		SetRegistry(bson.DefaultRegistry))
	require.ErrorIs(t, err, models.ErrUnsupported)
	require.True(t, strings.Contains(err.Error(), "write concern, read preference, codec options"), err.Error())
	require.False(t, db.registry.Has("b"))
}
