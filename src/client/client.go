package client

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"mockmongo/src/directors"
	"mockmongo/src/engine"
	"mockmongo/src/helpers"
	"mockmongo/src/settings"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

// MongoClient owns a set of in-memory databases. It never opens a connection;
// host and port only identify it.
type MongoClient struct {
	Host string
	Port int

	mu        sync.RWMutex
	databases map[string]*directors.Database
	factory   engine.CollectionFactory
	logger    *zap.SugaredLogger
}

// NewClient creates a client for uri. An empty uri uses the host and port
// from the global settings.
func NewClient(uri string, logger *zap.SugaredLogger) (*MongoClient, error) {
	logger = helpers.LoggerOrNop(logger)
	args := settings.GetSettings()

	host, port := args.Host, args.Port
	if uri != "" {
		var err error
		host, port, err = parseURI(uri)
		if err != nil {
			return nil, err
		}
	}

	client := &MongoClient{
		Host:      host,
		Port:      port,
		databases: make(map[string]*directors.Database),
		factory:   engine.NewCollectionFactory(logger),
		logger:    logger,
	}

	if args.Verbose {
		logger.Infof("Created client for %s:%d", host, port)
	}
	return client, nil
}

// parseURI returns the first host of a mongodb:// connection string.
func parseURI(uri string) (string, int, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", 0, fmt.Errorf("invalid connection string: %w", err)
	}
	if len(cs.Hosts) == 0 {
		return "", 0, fmt.Errorf("connection string %q has no host", uri)
	}

	hostPort := cs.Hosts[0]
	if !strings.Contains(hostPort, ":") {
		return hostPort, settings.DefaultPort, nil
	}
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return "", 0, fmt.Errorf("invalid host %q: %w", hostPort, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port number: %v", err)
	}
	return host, port, nil
}

// String renders the client as mockmongo.MongoClient('<host>', <port>).
func (c *MongoClient) String() string {
	return fmt.Sprintf("mockmongo.MongoClient('%s', %d)", c.Host, c.Port)
}

// Database returns the named database, creating it on first use.
func (c *MongoClient) Database(name string) *directors.Database {
	c.mu.RLock()
	db, exists := c.databases[name]
	c.mu.RUnlock()
	if exists {
		return db
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if db, exists := c.databases[name]; exists {
		return db
	}

	db = directors.NewDatabase(name, c, engine.NewCollectionRegistry(c.factory, c.logger), c.logger)
	c.databases[name] = db

	if settings.GetSettings().Debug {
		c.logger.Infof("Created database '%s'", name)
	}
	return db
}

// ListDatabaseNames returns the sorted names of the databases holding at
// least one collection.
func (c *MongoClient) ListDatabaseNames() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.databases))
	for name, db := range c.databases {
		collections, err := db.CollectionNames()
		if err != nil {
			return nil, err
		}
		if len(collections) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// DropDatabase drops every collection of the named database and forgets it.
// Dropping an unknown database is not an error.
func (c *MongoClient) DropDatabase(name string) error {
	c.mu.Lock()
	db, exists := c.databases[name]
	delete(c.databases, name)
	c.mu.Unlock()

	if !exists {
		return nil
	}

	collections, err := db.CollectionNames()
	if err != nil {
		return err
	}
	for _, collection := range collections {
		if err := db.DropCollection(collection); err != nil {
			return err
		}
	}

	if settings.GetSettings().Debug {
		c.logger.Infof("Dropped database '%s'", name)
	}
	return nil
}
