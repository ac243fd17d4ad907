package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/agentic-research/topicmap/api"
	"github.com/agentic-research/topicmap/internal/logger"
	"github.com/agentic-research/topicmap/internal/metrics"
	"github.com/agentic-research/topicmap/internal/slug"
	"github.com/agentic-research/topicmap/internal/store"
)

// DefaultOccurrenceText is the text occurrence attached to every topic the
// importer creates.
const DefaultOccurrenceText = "Topic automatically created."

// MaterializeStats counts node topics. Type topics created on demand are
// counted in TypesCreated.
type MaterializeStats struct {
	Created      int
	Skipped      int
	TypesCreated int
}

// Materializer turns tree nodes into stored topics. Existing topics are never
// modified.
type Materializer struct {
	Store   store.Store
	MapID   int
	Clock   func() time.Time
	Log     *logger.Logger
	Metrics *metrics.Import
}

func (m *Materializer) Materialize(ctx context.Context, tree *Tree) (MaterializeStats, error) {
	var stats MaterializeStats
	log := m.Log
	if log == nil {
		log = logger.Nop()
	}

	err := tree.Walk(func(n *TreeNode) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		typeID := n.Topic.InstanceOf
		exists, err := m.Store.TopicExists(ctx, m.MapID, typeID)
		if err != nil {
			return fmt.Errorf("check type topic %s: %w", typeID, err)
		}
		if !exists {
			created, err := m.Store.CreateTopicIfMissing(ctx, m.MapID, m.decorate(api.NewTopic(typeID, api.TopicType, slug.Name(typeID))))
			if err != nil {
				return fmt.Errorf("create type topic %s: %w", typeID, err)
			}
			if created {
				stats.TypesCreated++
				m.Metrics.TopicCreated()
				log.Debug("created type topic", "topic", typeID)
			}
		}

		created, err := m.Store.CreateTopicIfMissing(ctx, m.MapID, m.decorate(n.Topic))
		if err != nil {
			return fmt.Errorf("create topic %s (line %d): %w", n.Identifier, n.Line, err)
		}
		if created {
			stats.Created++
			m.Metrics.TopicCreated()
			log.Debug("created topic", "topic", n.Identifier, "type", typeID)
		} else {
			stats.Skipped++
			m.Metrics.TopicSkipped()
			log.Debug("topic exists, left untouched", "topic", n.Identifier)
		}
		return nil
	})
	return stats, err
}

// decorate attaches the default text occurrence and modification timestamp
// to a copy of topic.
func (m *Materializer) decorate(topic api.Topic) api.Topic {
	now := time.Now
	if m.Clock != nil {
		now = m.Clock
	}
	topic.Occurrences = []api.Occurrence{{
		InstanceOf:   api.TextOccurrence,
		Scope:        api.UniversalScope,
		ResourceData: DefaultOccurrenceText,
		Language:     api.English,
	}}
	topic.Attributes = []api.Attribute{{
		Name:     api.ModificationTimestamp,
		Value:    now().UTC().Format(time.RFC3339Nano),
		DataType: api.Timestamp,
		Scope:    api.UniversalScope,
		Language: api.English,
	}}
	return topic
}
