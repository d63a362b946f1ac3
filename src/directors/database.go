package directors

import (
	"fmt"
	"strings"

	"mockmongo/src/engine"
	"mockmongo/src/helpers"
	"mockmongo/src/models"
	"mockmongo/src/settings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Database is the entry point to a set of lazily created collections. It
// validates every request before touching the registry.
type Database struct {
	name     string
	client   fmt.Stringer
	registry *engine.CollectionRegistry
	commands *CommandDirector
	logger   *zap.SugaredLogger
}

// NewDatabase creates a database named name. client is only used by String
// and must outlive the database. A nil registry starts the database empty.
func NewDatabase(name string, client fmt.Stringer, registry *engine.CollectionRegistry, logger *zap.SugaredLogger) *Database {
	logger = helpers.LoggerOrNop(logger)
	if registry == nil {
		registry = engine.NewCollectionRegistry(engine.NewCollectionFactory(logger), logger)
	}
	return &Database{
		name:     name,
		client:   client,
		registry: registry,
		commands: NewCommandDirector(logger),
		logger:   logger,
	}
}

// Name returns the database name.
func (db *Database) Name() string {
	return db.name
}

// String renders the database as Database(<client>, '<name>').
func (db *Database) String() string {
	client := "None"
	if db.client != nil {
		client = db.client.String()
	}
	return fmt.Sprintf("Database(%s, '%s')", client, db.name)
}

// Attr is attribute-style access to a collection. Names starting with an
// underscore are reserved and must go through Get.
func (db *Database) Attr(name string) (*engine.Collection, error) {
	if strings.HasPrefix(name, "_") {
		return nil, fmt.Errorf("%w: Database has no attribute '%s'. To access the %s collection, use Get(%q)",
			models.ErrAttributeNotFound, name, name, name)
	}
	return db.registry.GetOrCreate(name), nil
}

// Get is keyed access to a collection. Any name is accepted.
func (db *Database) Get(name string) *engine.Collection {
	return db.registry.GetOrCreate(name)
}

// GetCollection returns the named collection. Read and write concerns, read
// preferences, codec options and sessions are not supported.
func (db *Database) GetCollection(name string, opts ...*CollectionOptions) (*engine.Collection, error) {
	for _, opt := range opts {
		if err := opt.validate(); err != nil {
			return nil, err
		}
	}
	return db.registry.GetOrCreate(name), nil
}

// ListCollectionNames returns the collection names, leaving out system
// collections unless asked to include them.
func (db *Database) ListCollectionNames(opts ...*ListCollectionNamesOptions) ([]string, error) {
	return db.listNames(false, opts)
}

// CollectionNames is the legacy spelling of ListCollectionNames. Unlike
// ListCollectionNames it includes system collections by default.
func (db *Database) CollectionNames(opts ...*ListCollectionNamesOptions) ([]string, error) {
	return db.listNames(true, opts)
}

func (db *Database) listNames(includeSystemDefault bool, opts []*ListCollectionNamesOptions) ([]string, error) {
	merged, includeSystem := mergeListCollectionNamesOptions(includeSystemDefault, opts)
	if err := merged.validate(); err != nil {
		return nil, err
	}
	return filterNames(db.registry.ListNames(includeSystem), merged.Filter)
}

// ListCollections returns a listCollections-style description of every
// collection ListCollectionNames would return.
func (db *Database) ListCollections(opts ...*ListCollectionNamesOptions) ([]bson.M, error) {
	names, err := db.ListCollectionNames(opts...)
	if err != nil {
		return nil, err
	}

	specs := make([]bson.M, 0, len(names))
	for _, name := range names {
		collection, exists := db.registry.Get(name)
		if !exists {
			continue
		}
		specs = append(specs, collectionSpec(collection))
	}
	return specs, nil
}

// CreateCollection returns the named collection, creating it if needed.
func (db *Database) CreateCollection(name string, opts ...*SessionOptions) (*engine.Collection, error) {
	if err := mergeSessionOptions(opts).validate(); err != nil {
		return nil, err
	}
	return db.registry.GetOrCreate(name), nil
}

// DropCollection removes the named collection's documents and indexes and
// hides it from listings. Dropping a collection that does not exist is not an
// error. Handles obtained earlier keep pointing at the same collection: a
// write through one, or a later Get, makes it listed again.
func (db *Database) DropCollection(name string, opts ...*SessionOptions) error {
	if err := mergeSessionOptions(opts).validate(); err != nil {
		return err
	}
	db.registry.Drop(name)
	return nil
}

// RenameCollection moves the collection oldName to newName.
func (db *Database) RenameCollection(oldName, newName string, opts ...*RenameCollectionOptions) (models.CommandResponse, error) {
	merged := mergeRenameCollectionOptions(opts)
	if err := (SessionOptions{Session: merged.Session}).validate(); err != nil {
		return nil, err
	}
	if err := ValidateCollectionName(newName); err != nil {
		return nil, err
	}
	if err := db.registry.Rename(oldName, newName, merged.DropTarget); err != nil {
		return nil, err
	}
	return models.OkResponse(), nil
}

// Command runs an administrative command given as a name, a single-key
// document or a bson.D. Only ping is implemented.
func (db *Database) Command(cmd interface{}, opts ...*SessionOptions) (models.CommandResponse, error) {
	if err := mergeSessionOptions(opts).validate(); err != nil {
		return nil, err
	}
	return db.commands.Execute(db, cmd)
}

// Dereference resolves a reference to a document of this database. It
// returns nil without an error when the collection or the document does not
// exist. References into other databases are rejected.
func (db *Database) Dereference(ref interface{}, opts ...*SessionOptions) (models.Document, error) {
	if err := mergeSessionOptions(opts).validate(); err != nil {
		return nil, err
	}

	dbRef, err := toDBRef(ref, db.name)
	if err != nil {
		return nil, err
	}
	if dbRef.Database != db.name {
		return nil, fmt.Errorf("%w: trying to dereference a DBRef that points to another database ('%s' not '%s')",
			models.ErrInvalidArgumentValue, dbRef.Database, db.name)
	}

	collection, exists := db.registry.Get(dbRef.Collection)
	if !exists {
		if settings.GetSettings().Debug {
			db.logger.Debugf("Dereference of %s.%s: collection does not exist", db.name, dbRef.Collection)
		}
		return nil, nil
	}
	return collection.FindOne(bson.M{models.IDField: dbRef.ID})
}
