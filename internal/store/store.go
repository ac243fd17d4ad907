// Package store persists topic maps: topics with their base names,
// occurrences, attributes and associations, all scoped by a topic-map
// identifier.
//
// The schema does not enforce referential integrity, so the store does:
// deleting a topic removes its attributes, occurrences, base names and the
// associations it takes part in; deleting an occurrence or association
// removes its attributes.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/agentic-research/topicmap/api"
	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingIdentifier = errors.New("missing identifier")
	ErrStoreOperation    = errors.New("topic store operation failed")
)

// OperationError wraps a backend failure with the store operation that hit it.
// It matches both ErrStoreOperation and the underlying error.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("topic store: %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() []error {
	return []error{ErrStoreOperation, e.Err}
}

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OperationError
	if errors.As(err, &oe) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrMissingIdentifier) {
		return err
	}
	return &OperationError{Op: op, Err: err}
}

// Store is the persistence contract for topic maps. Every call is its own
// unit of work: it either fully applies or returns an error.
type Store interface {
	TopicExists(ctx context.Context, mapID int, identifier string) (bool, error)
	// SetTopic writes the topic, its base names and any attached
	// occurrences and attributes, replacing an existing topic's record.
	SetTopic(ctx context.Context, mapID int, topic api.Topic) error
	// CreateTopicIfMissing behaves like SetTopic when the topic is absent and
	// does nothing otherwise. It reports whether the topic was created.
	CreateTopicIfMissing(ctx context.Context, mapID int, topic api.Topic) (bool, error)
	GetTopic(ctx context.Context, mapID int, identifier string, opts api.RetrievalOption) (*api.Topic, error)
	GetTopicIdentifiers(ctx context.Context, mapID int) ([]string, error)
	DeleteTopic(ctx context.Context, mapID int, identifier string) error

	SetOccurrence(ctx context.Context, mapID int, occurrence api.Occurrence) error
	GetOccurrence(ctx context.Context, mapID int, identifier string, opts api.RetrievalOption) (*api.Occurrence, error)
	GetOccurrences(ctx context.Context, mapID int, topicIdentifier string, opts api.RetrievalOption) ([]api.Occurrence, error)
	DeleteOccurrence(ctx context.Context, mapID int, identifier string) error
	DeleteOccurrences(ctx context.Context, mapID int, topicIdentifier string) error

	SetAttribute(ctx context.Context, mapID int, attribute api.Attribute) error
	GetAttributes(ctx context.Context, mapID int, entityIdentifier string) ([]api.Attribute, error)
	DeleteAttribute(ctx context.Context, mapID int, identifier string) error
	DeleteAttributes(ctx context.Context, mapID int, entityIdentifier string) error

	SetAssociation(ctx context.Context, mapID int, association api.Association) error
	// CreateAssociationIfMissing writes the association unless an association
	// with the same edge (api.Association.SameEdge) already exists.
	CreateAssociationIfMissing(ctx context.Context, mapID int, association api.Association) (bool, error)
	GetAssociation(ctx context.Context, mapID int, identifier string) (*api.Association, error)
	// GetAssociations returns associations with the topic at either end,
	// ordered by type, source topic, source role, destination topic,
	// destination role and identifier (byte-wise string order).
	GetAssociations(ctx context.Context, mapID int, topicIdentifier string) ([]api.Association, error)
	DeleteAssociation(ctx context.Context, mapID int, identifier string) error

	Close() error
}

// Backend driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. dsn is a file path for sqlite and a
// connection string for postgres; memory ignores it.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, "":
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func requireIdentifier(identifier string) error {
	if identifier == "" {
		return ErrMissingIdentifier
	}
	return nil
}

func newIdentifier() string { return uuid.NewString() }

// prepareTopic fills generated identifiers and back-references on a copy of
// topic so its dependents point at it.
func prepareTopic(topic api.Topic) api.Topic {
	if topic.InstanceOf == "" {
		topic.InstanceOf = api.TopicType
	}
	names := make([]api.BaseName, len(topic.BaseNames))
	for i, bn := range topic.BaseNames {
		if bn.Identifier == "" {
			bn.Identifier = newIdentifier()
		}
		if bn.Language == "" {
			bn.Language = api.English
		}
		names[i] = bn
	}
	topic.BaseNames = names

	attrs := make([]api.Attribute, len(topic.Attributes))
	for i, a := range topic.Attributes {
		if a.EntityIdentifier == "" {
			a.EntityIdentifier = topic.Identifier
		}
		attrs[i] = prepareAttribute(a)
	}
	topic.Attributes = attrs

	occs := make([]api.Occurrence, len(topic.Occurrences))
	for i, o := range topic.Occurrences {
		if o.TopicIdentifier == "" {
			o.TopicIdentifier = topic.Identifier
		}
		occs[i] = prepareOccurrence(o)
	}
	topic.Occurrences = occs
	return topic
}

func prepareOccurrence(o api.Occurrence) api.Occurrence {
	if o.Identifier == "" {
		o.Identifier = newIdentifier()
	}
	if o.Scope == "" {
		o.Scope = api.UniversalScope
	}
	if o.Language == "" {
		o.Language = api.English
	}
	attrs := make([]api.Attribute, len(o.Attributes))
	for i, a := range o.Attributes {
		if a.EntityIdentifier == "" {
			a.EntityIdentifier = o.Identifier
		}
		attrs[i] = prepareAttribute(a)
	}
	o.Attributes = attrs
	return o
}

func prepareAttribute(a api.Attribute) api.Attribute {
	if a.Identifier == "" {
		a.Identifier = newIdentifier()
	}
	if a.Scope == "" {
		a.Scope = api.UniversalScope
	}
	if a.Language == "" {
		a.Language = api.English
	}
	return a
}

// sortAssociations puts assocs in the order GetAssociations promises. Both
// backends sort in Go so database collation cannot change it.
func sortAssociations(assocs []api.Association) {
	sort.Slice(assocs, func(i, j int) bool {
		a, b := assocs[i], assocs[j]
		switch {
		case a.InstanceOf != b.InstanceOf:
			return a.InstanceOf < b.InstanceOf
		case a.SrcTopicRef != b.SrcTopicRef:
			return a.SrcTopicRef < b.SrcTopicRef
		case a.SrcRoleSpec != b.SrcRoleSpec:
			return a.SrcRoleSpec < b.SrcRoleSpec
		case a.DestTopicRef != b.DestTopicRef:
			return a.DestTopicRef < b.DestTopicRef
		case a.DestRoleSpec != b.DestRoleSpec:
			return a.DestRoleSpec < b.DestRoleSpec
		}
		return a.Identifier < b.Identifier
	})
}

func prepareAssociation(a api.Association) api.Association {
	if a.Identifier == "" {
		a.Identifier = newIdentifier()
	}
	if a.InstanceOf == "" {
		a.InstanceOf = api.AssociationType
	}
	if a.Scope == "" {
		a.Scope = api.UniversalScope
	}
	attrs := make([]api.Attribute, len(a.Attributes))
	for i, attr := range a.Attributes {
		if attr.EntityIdentifier == "" {
			attr.EntityIdentifier = a.Identifier
		}
		attrs[i] = prepareAttribute(attr)
	}
	a.Attributes = attrs
	return a
}
