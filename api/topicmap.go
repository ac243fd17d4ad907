package api

import (
	"fmt"
	"strings"
)

// Well-known identifiers used by the importer and the store.
const (
	// UniversalScope applies an occurrence or association everywhere.
	UniversalScope = "*"

	// TopicType is the generic type every untyped topic is an instance of.
	// The "topic" topic is itself an instance of "topic".
	TopicType = "topic"

	// TextOccurrence is the instance-of for plain text occurrences.
	TextOccurrence = "text"

	// ModificationTimestamp is the attribute name stamped on imported topics.
	ModificationTimestamp = "modification-timestamp"

	// AssociationType types structural (parent/child) associations.
	AssociationType = "association"

	// NavigationType types derived navigational associations.
	NavigationType = "navigation"
)

// DataType is the value type of an Attribute.
type DataType int

const (
	String DataType = iota
	Number
	Timestamp
	Boolean
)

var dataTypeNames = [...]string{"string", "number", "timestamp", "boolean"}

func (d DataType) String() string {
	if d < 0 || int(d) >= len(dataTypeNames) {
		return fmt.Sprintf("datatype(%d)", int(d))
	}
	return dataTypeNames[d]
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	for i, name := range dataTypeNames {
		if strings.EqualFold(s, name) {
			return DataType(i), nil
		}
	}
	return String, fmt.Errorf("unknown data type %q", s)
}

// Language is an ISO 639-2 language code attached to names, occurrences and attributes.
type Language string

const (
	English Language = "eng"
	Spanish Language = "spa"
	German  Language = "deu"
	French  Language = "fra"
	Italian Language = "ita"
	Dutch   Language = "nld"
)

// RetrievalOption selects which dependent records GetTopic and friends resolve.
type RetrievalOption uint8

const (
	ResolveAttributes RetrievalOption = 1 << iota
	ResolveOccurrences

	DontResolve RetrievalOption = 0
)

// Has reports whether all bits of o are set.
func (r RetrievalOption) Has(o RetrievalOption) bool { return r&o == o }

// BaseName is a display name of a topic in a given language.
type BaseName struct {
	Identifier string
	Name       string
	Language   Language
}

// Attribute is a typed name/value fact attached to a topic, occurrence or association.
type Attribute struct {
	Identifier       string
	Name             string
	Value            string
	EntityIdentifier string
	DataType         DataType
	Scope            string
	Language         Language
}

// Occurrence is a resource attached to a topic under a scope.
type Occurrence struct {
	Identifier      string
	InstanceOf      string
	TopicIdentifier string
	Scope           string
	ResourceRef     string
	ResourceData    string
	Language        Language

	// Attributes is only populated when resolved.
	Attributes []Attribute
}

// Topic is a subject within a topic map. InstanceOf must itself name a topic.
type Topic struct {
	Identifier string
	InstanceOf string
	BaseNames  []BaseName

	// Attributes and Occurrences are only populated when resolved, or when the
	// topic is handed to the store for creation together with its dependents.
	Attributes  []Attribute
	Occurrences []Occurrence
}

// NewTopic returns a topic with a single English base name.
func NewTopic(identifier, instanceOf, name string) Topic {
	if instanceOf == "" {
		instanceOf = TopicType
	}
	return Topic{
		Identifier: identifier,
		InstanceOf: instanceOf,
		BaseNames:  []BaseName{{Name: name, Language: English}},
	}
}

// Name returns the first base name, or "" when the topic has none.
func (t Topic) Name() string {
	if len(t.BaseNames) == 0 {
		return ""
	}
	return t.BaseNames[0].Name
}

// Association is a typed, scoped relationship between two topics.
// Direction is carried by the role specs, not by field order.
type Association struct {
	Identifier   string
	InstanceOf   string
	Scope        string
	SrcTopicRef  string
	SrcRoleSpec  string
	DestTopicRef string
	DestRoleSpec string

	Attributes []Attribute
}

// SameEdge reports whether two associations describe the same typed edge,
// ignoring their identifiers and attributes.
func (a Association) SameEdge(b Association) bool {
	return a.InstanceOf == b.InstanceOf &&
		a.Scope == b.Scope &&
		a.SrcTopicRef == b.SrcTopicRef &&
		a.SrcRoleSpec == b.SrcRoleSpec &&
		a.DestTopicRef == b.DestTopicRef &&
		a.DestRoleSpec == b.DestRoleSpec
}

// Involves reports whether topic is at either end of the association.
func (a Association) Involves(topic string) bool {
	return a.SrcTopicRef == topic || a.DestTopicRef == topic
}

func (a Association) String() string {
	return fmt.Sprintf("%s[%s] %s(%s) -> %s(%s)",
		a.InstanceOf, a.Scope, a.SrcTopicRef, a.SrcRoleSpec, a.DestTopicRef, a.DestRoleSpec)
}
