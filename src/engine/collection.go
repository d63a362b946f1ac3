package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"mockmongo/src/helpers"
	"mockmongo/src/models"
	"mockmongo/src/settings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Collection is an in-memory set of documents. Safe for concurrent use.
type Collection struct {
	mu           sync.RWMutex
	collectionID string
	name         string
	createTime   time.Time

	// documents in insertion order
	documents []models.Document
	indexes   map[string]models.IndexReference

	// dropped hides the collection from its registry until the next write
	// or keyed access.
	dropped bool

	logger *zap.SugaredLogger
}

func newCollection(id, name string, logger *zap.SugaredLogger) *Collection {
	c := &Collection{
		collectionID: id,
		name:         name,
		createTime:   time.Now(),
		indexes:      make(map[string]models.IndexReference),
		logger:       helpers.LoggerOrNop(logger),
	}
	c.resetIndexes()
	return c
}

func (c *Collection) resetIndexes() {
	c.indexes = map[string]models.IndexReference{
		models.IDIndexName: {
			IndexName:  models.IDIndexName,
			Keys:       []models.IndexKey{{Field: models.IDField}},
			Unique:     true,
			CreateTime: c.createTime,
		},
	}
}

// Name returns the collection's current name.
func (c *Collection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// ID returns the collection's UUID.
func (c *Collection) ID() string {
	return c.collectionID
}

func (c *Collection) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// InsertOne stores a copy of document and returns its _id, generating an
// ObjectID when the document has none.
func (c *Collection) InsertOne(document interface{}) (interface{}, error) {
	doc, err := helpers.CopyDocument(document)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot insert %T: %v", models.ErrInvalidArgumentType, document, err)
	}
	if _, exists := doc[models.IDField]; !exists {
		doc[models.IDField] = primitive.NewObjectID()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkUniqueLocked(doc); err != nil {
		return nil, err
	}
	c.documents = append(c.documents, doc)
	c.dropped = false

	if settings.GetSettings().Debug {
		c.logger.Debugf("Inserted document %v into collection '%s'", doc[models.IDField], c.name)
	}
	return doc[models.IDField], nil
}

// InsertMany inserts documents in order and stops at the first failure. The
// ids of the documents inserted so far are returned with the error.
func (c *Collection) InsertMany(documents []interface{}) ([]interface{}, error) {
	ids := make([]interface{}, 0, len(documents))
	for _, document := range documents {
		id, err := c.InsertOne(document)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Collection) checkUniqueLocked(doc models.Document) error {
	for _, index := range c.sortedIndexesLocked() {
		if !index.Unique {
			continue
		}
		tuple := indexTuple(doc, index.Keys)
		for _, existing := range c.documents {
			if tuplesEqual(tuple, indexTuple(existing, index.Keys)) {
				return models.NewOperationFailure(models.CodeDuplicateKey,
					"E11000 duplicate key error collection: %s index: %s dup key: %v",
					c.name, index.IndexName, tuple)
			}
		}
	}
	return nil
}

func (c *Collection) sortedIndexesLocked() []models.IndexReference {
	names := make([]string, 0, len(c.indexes))
	for name := range c.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	result := make([]models.IndexReference, 0, len(names))
	for _, name := range names {
		result = append(result, c.indexes[name])
	}
	return result
}

// FindOne returns a copy of the first document, in insertion order, whose
// top-level fields equal those of filter. It returns nil without an error
// when nothing matches.
func (c *Collection) FindOne(filter bson.M) (models.Document, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, doc := range c.documents {
		if matchesFilter(doc, filter) {
			return helpers.CopyDocument(doc)
		}
	}
	return nil, nil
}

// Find returns copies of every document matching filter.
func (c *Collection) Find(filter bson.M) ([]models.Document, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]models.Document, 0)
	for _, doc := range c.documents {
		if !matchesFilter(doc, filter) {
			continue
		}
		docCopy, err := helpers.CopyDocument(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, docCopy)
	}
	return result, nil
}

// CountDocuments returns the number of documents matching filter.
func (c *Collection) CountDocuments(filter bson.M) (int64, error) {
	if err := checkFilter(filter); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var count int64
	for _, doc := range c.documents {
		if matchesFilter(doc, filter) {
			count++
		}
	}
	return count, nil
}

// CreateIndex adds an index on keys and returns its name. Creating an index
// that already exists with the same options is a no-op.
func (c *Collection) CreateIndex(keys interface{}, unique bool) (string, error) {
	indexKeys, err := parseIndexKeys(keys)
	if err != nil {
		return "", err
	}
	name := indexName(indexKeys)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, exists := c.indexes[name]; exists {
		if existing.Unique != unique {
			return "", models.NewOperationFailure(models.CodeIndexOptionsConflict,
				"Index with name: %s already exists with different options", name)
		}
		c.dropped = false
		return name, nil
	}

	if unique {
		for i, doc := range c.documents {
			tuple := indexTuple(doc, indexKeys)
			for _, other := range c.documents[i+1:] {
				if tuplesEqual(tuple, indexTuple(other, indexKeys)) {
					return "", models.NewOperationFailure(models.CodeDuplicateKey,
						"E11000 duplicate key error collection: %s index: %s dup key: %v", c.name, name, tuple)
				}
			}
		}
	}

	c.indexes[name] = models.IndexReference{
		IndexName:  name,
		Keys:       indexKeys,
		Unique:     unique,
		CreateTime: time.Now(),
	}
	c.dropped = false

	if settings.GetSettings().Debug {
		c.logger.Infof("Created index '%s' on collection '%s'", name, c.name)
	}
	return name, nil
}

// IndexInformation returns the collection's indexes keyed by name.
func (c *Collection) IndexInformation() map[string]models.IndexReference {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string]models.IndexReference, len(c.indexes))
	for name, index := range c.indexes {
		result[name] = index
	}
	return result
}

// drop discards every document and every index but _id_ and hides the
// collection from listings. Handles taken before the drop stay usable; a
// write through one brings the collection back.
func (c *Collection) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.documents = nil
	c.resetIndexes()
	c.dropped = true
}

func (c *Collection) revive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropped = false
}

func (c *Collection) isDropped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropped
}
