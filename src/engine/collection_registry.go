package engine

import (
	"sort"
	"strings"
	"sync"

	"mockmongo/src/helpers"
	"mockmongo/src/models"
	"mockmongo/src/settings"

	"go.uber.org/zap"
)

// CollectionRegistry owns the mapping from collection name to Collection.
// Collections are created lazily and keep their identity for the registry's
// lifetime: dropping empties and hides a collection but keeps the instance
// registered under its name.
type CollectionRegistry struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	factory     CollectionFactory
	logger      *zap.SugaredLogger
}

// NewCollectionRegistry creates an empty registry. A nil factory uses the
// default one.
func NewCollectionRegistry(factory CollectionFactory, logger *zap.SugaredLogger) *CollectionRegistry {
	logger = helpers.LoggerOrNop(logger)
	if factory == nil {
		factory = NewCollectionFactory(logger)
	}
	return &CollectionRegistry{
		collections: make(map[string]*Collection),
		factory:     factory,
		logger:      logger,
	}
}

// IsSystemCollection reports whether name carries the reserved system. prefix.
func IsSystemCollection(name string) bool {
	return strings.HasPrefix(name, models.SystemPrefix)
}

// GetOrCreate returns the collection registered under name, creating and
// registering an empty one if there is none. A dropped collection is
// brought back.
func (r *CollectionRegistry) GetOrCreate(name string) *Collection {
	r.mu.RLock()
	collection, exists := r.collections[name]
	r.mu.RUnlock()
	if exists {
		collection.revive()
		return collection
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if collection, exists := r.collections[name]; exists {
		collection.revive()
		return collection
	}

	collection = r.factory.NewCollection(name)
	r.collections[name] = collection

	if settings.GetSettings().Debug {
		r.logger.Infof("Created collection '%s' (ID: %s)", name, collection.ID())
	}
	return collection
}

// Get returns the live collection registered under name without creating
// or reviving it.
func (r *CollectionRegistry) Get(name string) (*Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveLocked(name)
}

func (r *CollectionRegistry) liveLocked(name string) (*Collection, bool) {
	collection, exists := r.collections[name]
	if !exists || collection.isDropped() {
		return nil, false
	}
	return collection, true
}

// Has reports whether name is registered.
func (r *CollectionRegistry) Has(name string) bool {
	_, exists := r.Get(name)
	return exists
}

// Drop removes the collection's data and hides it from listings. It reports
// whether the collection existed; dropping an unknown name is not an error.
// The instance stays registered, so handles taken before the drop and later
// calls to GetOrCreate share it.
func (r *CollectionRegistry) Drop(name string) bool {
	r.mu.Lock()
	collection, exists := r.liveLocked(name)
	if exists {
		collection.drop()
	}
	r.mu.Unlock()

	if !exists {
		return false
	}

	if settings.GetSettings().Debug {
		r.logger.Infof("Dropped collection '%s' (ID: %s)", name, collection.ID())
	}
	return true
}

// ListNames returns the registered names in sorted order. System collections
// are left out unless includeSystem is set.
func (r *CollectionRegistry) ListNames(includeSystem bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collections))
	for name, collection := range r.collections {
		if collection.isDropped() || (!includeSystem && IsSystemCollection(name)) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of live collections.
func (r *CollectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, collection := range r.collections {
		if !collection.isDropped() {
			count++
		}
	}
	return count
}

// Rename re-keys the collection registered under oldName to newName,
// keeping its documents, indexes and identity. An existing target is
// dropped first when dropTarget is set and is an error otherwise. The
// instance previously registered under newName, dropped or not, is detached.
func (r *CollectionRegistry) Rename(oldName, newName string, dropTarget bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	collection, exists := r.liveLocked(oldName)
	if !exists {
		return models.NewOperationFailure(models.CodeNamespaceNotFound,
			"The collection \"%s\" does not exist.", oldName)
	}
	if oldName == newName {
		return models.NewOperationFailure(models.CodeIllegalOperation,
			"Can't rename a collection to itself")
	}

	if target, exists := r.liveLocked(newName); exists {
		if !dropTarget {
			return models.NewOperationFailure(models.CodeNamespaceExists,
				"The target collection \"%s\" already exists", newName)
		}
		delete(r.collections, newName)
		target.drop()
	}

	delete(r.collections, oldName)
	collection.setName(newName)
	r.collections[newName] = collection

	if settings.GetSettings().Debug {
		r.logger.Infof("Renamed collection '%s' to '%s' (ID: %s)", oldName, newName, collection.ID())
	}
	return nil
}
