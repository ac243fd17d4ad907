package store

import (
	"context"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/topicmap/api"
)

// MemoryStore keeps topic maps in process memory. It is used by tests and by
// dry runs; nothing survives Close.
type MemoryStore struct {
	mu   sync.RWMutex
	maps map[int]*memoryMap
}

// memoryMap holds one topic map.
type memoryMap struct {
	topics      map[string]api.Topic // without attributes/occurrences
	occurrences map[string]api.Occurrence
	attributes  map[string]api.Attribute

	// Associations are addressed by an internal uint32 so each topic can keep
	// a roaring bitmap of the associations it takes part in. Cascading a topic
	// delete is then O(k) in its associations instead of a full scan.
	associations map[uint32]api.Association
	assocIntID   map[string]uint32          // Association.Identifier -> internal ID
	topicAssocs  map[string]*roaring.Bitmap // topic identifier -> internal IDs
	nextIntID    uint32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{maps: make(map[int]*memoryMap)}
}

// topicMap returns the map for mapID, creating it when create is set.
// Must be called with s.mu held (write lock when create is set).
func (s *MemoryStore) topicMap(mapID int, create bool) *memoryMap {
	m, ok := s.maps[mapID]
	if !ok && create {
		m = &memoryMap{
			topics:       make(map[string]api.Topic),
			occurrences:  make(map[string]api.Occurrence),
			attributes:   make(map[string]api.Attribute),
			associations: make(map[uint32]api.Association),
			assocIntID:   make(map[string]uint32),
			topicAssocs:  make(map[string]*roaring.Bitmap),
		}
		s.maps[mapID] = m
	}
	return m
}

func (s *MemoryStore) TopicExists(_ context.Context, mapID int, identifier string) (bool, error) {
	if err := requireIdentifier(identifier); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return false, nil
	}
	_, ok := m.topics[identifier]
	return ok, nil
}

func (s *MemoryStore) SetTopic(_ context.Context, mapID int, topic api.Topic) error {
	if err := requireIdentifier(topic.Identifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicMap(mapID, true).putTopic(prepareTopic(topic))
	return nil
}

func (s *MemoryStore) CreateTopicIfMissing(_ context.Context, mapID int, topic api.Topic) (bool, error) {
	if err := requireIdentifier(topic.Identifier); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.topicMap(mapID, true)
	if _, ok := m.topics[topic.Identifier]; ok {
		return false, nil
	}
	m.putTopic(prepareTopic(topic))
	return true, nil
}

func (m *memoryMap) putTopic(topic api.Topic) {
	for _, o := range topic.Occurrences {
		m.putOccurrence(o)
	}
	for _, a := range topic.Attributes {
		m.attributes[a.Identifier] = a
	}
	topic.Occurrences = nil
	topic.Attributes = nil
	m.topics[topic.Identifier] = topic
}

func (m *memoryMap) putOccurrence(o api.Occurrence) {
	for _, a := range o.Attributes {
		m.attributes[a.Identifier] = a
	}
	o.Attributes = nil
	m.occurrences[o.Identifier] = o
}

func (s *MemoryStore) GetTopic(_ context.Context, mapID int, identifier string, opts api.RetrievalOption) (*api.Topic, error) {
	if err := requireIdentifier(identifier); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil, ErrNotFound
	}
	t, ok := m.topics[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	t.BaseNames = append([]api.BaseName(nil), t.BaseNames...)
	if opts.Has(api.ResolveAttributes) {
		t.Attributes = m.attributesOf(identifier)
	}
	if opts.Has(api.ResolveOccurrences) {
		t.Occurrences = m.occurrencesOf(identifier, opts)
	}
	return &t, nil
}

func (s *MemoryStore) GetTopicIdentifiers(_ context.Context, mapID int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil, nil
	}
	ids := make([]string, 0, len(m.topics))
	for id := range m.topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) DeleteTopic(_ context.Context, mapID int, identifier string) error {
	if err := requireIdentifier(identifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil
	}
	m.deleteAttributesOf(identifier)
	m.deleteOccurrencesOf(identifier)
	if bm, ok := m.topicAssocs[identifier]; ok {
		for _, intID := range bm.ToArray() {
			m.deleteAssociation(intID)
		}
		delete(m.topicAssocs, identifier)
	}
	delete(m.topics, identifier)
	return nil
}

func (s *MemoryStore) SetOccurrence(_ context.Context, mapID int, occurrence api.Occurrence) error {
	if err := requireIdentifier(occurrence.TopicIdentifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicMap(mapID, true).putOccurrence(prepareOccurrence(occurrence))
	return nil
}

func (s *MemoryStore) GetOccurrence(_ context.Context, mapID int, identifier string, opts api.RetrievalOption) (*api.Occurrence, error) {
	if err := requireIdentifier(identifier); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil, ErrNotFound
	}
	o, ok := m.occurrences[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	if opts.Has(api.ResolveAttributes) {
		o.Attributes = m.attributesOf(identifier)
	}
	return &o, nil
}

func (s *MemoryStore) GetOccurrences(_ context.Context, mapID int, topicIdentifier string, opts api.RetrievalOption) ([]api.Occurrence, error) {
	if err := requireIdentifier(topicIdentifier); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil, nil
	}
	return m.occurrencesOf(topicIdentifier, opts), nil
}

func (s *MemoryStore) DeleteOccurrence(_ context.Context, mapID int, identifier string) error {
	if err := requireIdentifier(identifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil
	}
	delete(m.occurrences, identifier)
	m.deleteAttributesOf(identifier)
	return nil
}

func (s *MemoryStore) DeleteOccurrences(_ context.Context, mapID int, topicIdentifier string) error {
	if err := requireIdentifier(topicIdentifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.topicMap(mapID, false); m != nil {
		m.deleteOccurrencesOf(topicIdentifier)
	}
	return nil
}

func (s *MemoryStore) SetAttribute(_ context.Context, mapID int, attribute api.Attribute) error {
	if err := requireIdentifier(attribute.EntityIdentifier); err != nil {
		return err
	}
	a := prepareAttribute(attribute)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicMap(mapID, true).attributes[a.Identifier] = a
	return nil
}

func (s *MemoryStore) GetAttributes(_ context.Context, mapID int, entityIdentifier string) ([]api.Attribute, error) {
	if err := requireIdentifier(entityIdentifier); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil, nil
	}
	return m.attributesOf(entityIdentifier), nil
}

func (s *MemoryStore) DeleteAttribute(_ context.Context, mapID int, identifier string) error {
	if err := requireIdentifier(identifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.topicMap(mapID, false); m != nil {
		delete(m.attributes, identifier)
	}
	return nil
}

func (s *MemoryStore) DeleteAttributes(_ context.Context, mapID int, entityIdentifier string) error {
	if err := requireIdentifier(entityIdentifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.topicMap(mapID, false); m != nil {
		m.deleteAttributesOf(entityIdentifier)
	}
	return nil
}

func (s *MemoryStore) SetAssociation(_ context.Context, mapID int, association api.Association) error {
	if err := requireEnds(association); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicMap(mapID, true).putAssociation(prepareAssociation(association))
	return nil
}

func (s *MemoryStore) CreateAssociationIfMissing(_ context.Context, mapID int, association api.Association) (bool, error) {
	if err := requireEnds(association); err != nil {
		return false, err
	}
	a := prepareAssociation(association)
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.topicMap(mapID, true)
	if bm, ok := m.topicAssocs[a.SrcTopicRef]; ok {
		it := bm.Iterator()
		for it.HasNext() {
			if m.associations[it.Next()].SameEdge(a) {
				return false, nil
			}
		}
	}
	m.putAssociation(a)
	return true, nil
}

func (m *memoryMap) putAssociation(a api.Association) {
	for _, attr := range a.Attributes {
		m.attributes[attr.Identifier] = attr
	}
	a.Attributes = nil

	intID, ok := m.assocIntID[a.Identifier]
	if ok {
		// Replacing: the ends may have moved.
		old := m.associations[intID]
		m.unindex(old.SrcTopicRef, intID)
		m.unindex(old.DestTopicRef, intID)
	} else {
		intID = m.nextIntID
		m.nextIntID++
		m.assocIntID[a.Identifier] = intID
	}
	m.associations[intID] = a
	m.index(a.SrcTopicRef, intID)
	m.index(a.DestTopicRef, intID)
}

func (m *memoryMap) index(topic string, intID uint32) {
	bm, ok := m.topicAssocs[topic]
	if !ok {
		bm = roaring.New()
		m.topicAssocs[topic] = bm
	}
	bm.Add(intID)
}

func (m *memoryMap) unindex(topic string, intID uint32) {
	if bm, ok := m.topicAssocs[topic]; ok {
		bm.Remove(intID)
		if bm.IsEmpty() {
			delete(m.topicAssocs, topic)
		}
	}
}

func (s *MemoryStore) GetAssociation(_ context.Context, mapID int, identifier string) (*api.Association, error) {
	if err := requireIdentifier(identifier); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil, ErrNotFound
	}
	intID, ok := m.assocIntID[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	a := m.associations[intID]
	a.Attributes = m.attributesOf(identifier)
	return &a, nil
}

func (s *MemoryStore) GetAssociations(_ context.Context, mapID int, topicIdentifier string) ([]api.Association, error) {
	if err := requireIdentifier(topicIdentifier); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil, nil
	}
	bm, ok := m.topicAssocs[topicIdentifier]
	if !ok {
		return nil, nil
	}
	out := make([]api.Association, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, m.associations[it.Next()])
	}
	sortAssociations(out)
	return out, nil
}

func (s *MemoryStore) DeleteAssociation(_ context.Context, mapID int, identifier string) error {
	if err := requireIdentifier(identifier); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.topicMap(mapID, false)
	if m == nil {
		return nil
	}
	if intID, ok := m.assocIntID[identifier]; ok {
		m.deleteAssociation(intID)
	}
	return nil
}

func (m *memoryMap) deleteAssociation(intID uint32) {
	a, ok := m.associations[intID]
	if !ok {
		return
	}
	m.unindex(a.SrcTopicRef, intID)
	m.unindex(a.DestTopicRef, intID)
	m.deleteAttributesOf(a.Identifier)
	delete(m.associations, intID)
	delete(m.assocIntID, a.Identifier)
}

func (m *memoryMap) attributesOf(entity string) []api.Attribute {
	var out []api.Attribute
	for _, a := range m.attributes {
		if a.EntityIdentifier == entity {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}

func (m *memoryMap) occurrencesOf(topic string, opts api.RetrievalOption) []api.Occurrence {
	var out []api.Occurrence
	for _, o := range m.occurrences {
		if o.TopicIdentifier != topic {
			continue
		}
		if opts.Has(api.ResolveAttributes) {
			o.Attributes = m.attributesOf(o.Identifier)
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].InstanceOf != out[j].InstanceOf {
			return out[i].InstanceOf < out[j].InstanceOf
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}

func (m *memoryMap) deleteAttributesOf(entity string) {
	for id, a := range m.attributes {
		if a.EntityIdentifier == entity {
			delete(m.attributes, id)
		}
	}
}

func (m *memoryMap) deleteOccurrencesOf(topic string) {
	for id, o := range m.occurrences {
		if o.TopicIdentifier == topic {
			m.deleteAttributesOf(id)
			delete(m.occurrences, id)
		}
	}
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps = make(map[int]*memoryMap)
	return nil
}

func requireEnds(a api.Association) error {
	if err := requireIdentifier(a.SrcTopicRef); err != nil {
		return err
	}
	return requireIdentifier(a.DestTopicRef)
}

// Interface compliance
var _ Store = (*MemoryStore)(nil)
