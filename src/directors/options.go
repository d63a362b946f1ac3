package directors

import (
	"strings"

	"mockmongo/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// SessionOptions is taken by operations whose only tuning parameter is the
// session. Sessions are not supported: a non-nil Session is rejected.
type SessionOptions struct {
	Session mongo.Session
}

// WithSession returns options carrying the given session.
func WithSession(session mongo.Session) *SessionOptions {
	return &SessionOptions{Session: session}
}

func mergeSessionOptions(opts []*SessionOptions) SessionOptions {
	merged := SessionOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.Session != nil {
			merged.Session = opt.Session
		}
	}
	return merged
}

func (o SessionOptions) validate() error {
	if o.Session != nil {
		return models.Unsupported("sessions are not supported")
	}
	return nil
}

// ListCollectionNamesOptions tunes ListCollectionNames, CollectionNames and
// ListCollections.
type ListCollectionNamesOptions struct {
	// IncludeSystemCollections lists system.* collections too. Left nil, the
	// default of the called operation applies.
	IncludeSystemCollections *bool

	// Filter restricts the listing on the collection name.
	Filter bson.M

	Session mongo.Session
}

// NewListCollectionNamesOptions returns an empty ListCollectionNamesOptions.
func NewListCollectionNamesOptions() *ListCollectionNamesOptions {
	return &ListCollectionNamesOptions{}
}

// SetIncludeSystemCollections sets IncludeSystemCollections.
func (o *ListCollectionNamesOptions) SetIncludeSystemCollections(include bool) *ListCollectionNamesOptions {
	o.IncludeSystemCollections = &include
	return o
}

// SetFilter sets Filter.
func (o *ListCollectionNamesOptions) SetFilter(filter bson.M) *ListCollectionNamesOptions {
	o.Filter = filter
	return o
}

// SetSession sets Session.
func (o *ListCollectionNamesOptions) SetSession(session mongo.Session) *ListCollectionNamesOptions {
	o.Session = session
	return o
}

func mergeListCollectionNamesOptions(includeSystemDefault bool, opts []*ListCollectionNamesOptions) (ListCollectionNamesOptions, bool) {
	merged := ListCollectionNamesOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.IncludeSystemCollections != nil {
			merged.IncludeSystemCollections = opt.IncludeSystemCollections
		}
		if opt.Filter != nil {
			merged.Filter = opt.Filter
		}
		if opt.Session != nil {
			merged.Session = opt.Session
		}
	}

	includeSystem := includeSystemDefault
	if merged.IncludeSystemCollections != nil {
		includeSystem = *merged.IncludeSystemCollections
	}
	return merged, includeSystem
}

func (o ListCollectionNamesOptions) validate() error {
	return SessionOptions{Session: o.Session}.validate()
}

// CollectionOptions tunes GetCollection. None of these concerns is modelled
// by the in-memory store, so each field must stay nil.
type CollectionOptions struct {
	ReadConcern    *readconcern.ReadConcern
	WriteConcern   *writeconcern.WriteConcern
	ReadPreference *readpref.ReadPref

	// Registry stands in for codec options.
	Registry *bsoncodec.Registry

	Session mongo.Session
}

// NewCollectionOptions returns an empty CollectionOptions.
func NewCollectionOptions() *CollectionOptions {
	return &CollectionOptions{}
}

// SetReadConcern sets ReadConcern.
func (o *CollectionOptions) SetReadConcern(rc *readconcern.ReadConcern) *CollectionOptions {
	o.ReadConcern = rc
	return o
}

// SetWriteConcern sets WriteConcern.
func (o *CollectionOptions) SetWriteConcern(wc *writeconcern.WriteConcern) *CollectionOptions {
	o.WriteConcern = wc
	return o
}

// SetReadPreference sets ReadPreference.
func (o *CollectionOptions) SetReadPreference(rp *readpref.ReadPref) *CollectionOptions {
	o.ReadPreference = rp
	return o
}

// SetRegistry sets Registry.
func (o *CollectionOptions) SetRegistry(r *bsoncodec.Registry) *CollectionOptions {
	o.Registry = r
	return o
}

// SetSession sets Session.
func (o *CollectionOptions) SetSession(session mongo.Session) *CollectionOptions {
	o.Session = session
	return o
}

// validate names every option that was set, in declaration order.
func (o *CollectionOptions) validate() error {
	if o == nil {
		return nil
	}
	var set []string
	if o.ReadConcern != nil {
		set = append(set, "read concern")
	}
	if o.WriteConcern != nil {
		set = append(set, "write concern")
	}
	if o.ReadPreference != nil {
		set = append(set, "read preference")
	}
	if o.Registry != nil {
		set = append(set, "codec options")
	}
	if o.Session != nil {
		set = append(set, "session")
	}
	if len(set) > 0 {
		return models.Unsupported("collection option(s) %s", strings.Join(set, ", "))
	}
	return nil
}

// RenameCollectionOptions tunes RenameCollection.
type RenameCollectionOptions struct {
	// DropTarget drops an existing collection named like the target first.
	DropTarget bool

	Session mongo.Session
}

func mergeRenameCollectionOptions(opts []*RenameCollectionOptions) RenameCollectionOptions {
	merged := RenameCollectionOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.DropTarget {
			merged.DropTarget = true
		}
		if opt.Session != nil {
			merged.Session = opt.Session
		}
	}
	return merged
}
