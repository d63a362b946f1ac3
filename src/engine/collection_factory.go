package engine

import (
	"mockmongo/src/helpers"

	"go.uber.org/zap"
)

// CollectionFactory creates new Collection instances
type CollectionFactory interface {
	NewCollection(name string) *Collection
}

// CollectionFactoryImpl is a concrete implementation of CollectionFactory
type CollectionFactoryImpl struct {
	logger *zap.SugaredLogger
}

// NewCollectionFactory creates a new instance of CollectionFactory
func NewCollectionFactory(logger *zap.SugaredLogger) CollectionFactory {
	return &CollectionFactoryImpl{
		logger: helpers.LoggerOrNop(logger),
	}
}

// NewCollection creates an empty collection with a fresh UUID.
func (f *CollectionFactoryImpl) NewCollection(name string) *Collection {
	return newCollection(helpers.GenerateUUID(), name, f.logger)
}
