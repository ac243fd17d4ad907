package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentic-research/topicmap/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMap = 3

// backends returns a constructor per available backend. Postgres runs only
// when TOPICMAP_TEST_POSTGRES_DSN points at a scratch database.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	b := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "topicmap.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
	if dsn := os.Getenv("TOPICMAP_TEST_POSTGRES_DSN"); dsn != "" {
		b["postgres"] = func(t *testing.T) Store {
			s, err := OpenPostgres(context.Background(), dsn)
			require.NoError(t, err)
			for _, table := range []string{"topic", "basename", "occurrence", "attribute", "association"} {
				_, err := s.DB().Exec("DELETE FROM " + table)
				require.NoError(t, err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		}
	}
	return b
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func seededTopic(identifier string) api.Topic {
	topic := api.NewTopic(identifier, api.TopicType, "Name of "+identifier)
	topic.Occurrences = []api.Occurrence{{
		InstanceOf:   api.TextOccurrence,
		Scope:        api.UniversalScope,
		ResourceData: "Topic automatically created.",
		Attributes: []api.Attribute{{
			Name:     "source",
			Value:    "test",
			DataType: api.String,
		}},
	}}
	topic.Attributes = []api.Attribute{{
		Name:     api.ModificationTimestamp,
		Value:    "2026-10-19T10:00:00Z",
		DataType: api.Timestamp,
	}}
	return topic
}

func TestStore_TopicLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		exists, err := s.TopicExists(ctx, testMap, "python")
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, s.SetTopic(ctx, testMap, seededTopic("python")))

		exists, err = s.TopicExists(ctx, testMap, "python")
		require.NoError(t, err)
		assert.True(t, exists)

		// Identifiers are scoped by map.
		exists, err = s.TopicExists(ctx, testMap+1, "python")
		require.NoError(t, err)
		assert.False(t, exists)

		topic, err := s.GetTopic(ctx, testMap, "python", api.DontResolve)
		require.NoError(t, err)
		assert.Equal(t, "python", topic.Identifier)
		assert.Equal(t, api.TopicType, topic.InstanceOf)
		assert.Equal(t, "Name of python", topic.Name())
		assert.Empty(t, topic.Attributes, "attributes resolved without being asked for")
		assert.Empty(t, topic.Occurrences, "occurrences resolved without being asked for")

		ids, err := s.GetTopicIdentifiers(ctx, testMap)
		require.NoError(t, err)
		assert.Equal(t, []string{"python"}, ids)
	})
}

func TestStore_GetTopicResolution(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.SetTopic(ctx, testMap, seededTopic("go")))

		t.Run("attributes only", func(t *testing.T) {
			topic, err := s.GetTopic(ctx, testMap, "go", api.ResolveAttributes)
			require.NoError(t, err)
			require.Len(t, topic.Attributes, 1)
			assert.Equal(t, api.ModificationTimestamp, topic.Attributes[0].Name)
			assert.Equal(t, api.Timestamp, topic.Attributes[0].DataType)
			assert.Equal(t, "go", topic.Attributes[0].EntityIdentifier)
			assert.Empty(t, topic.Occurrences)
		})

		t.Run("occurrences only", func(t *testing.T) {
			topic, err := s.GetTopic(ctx, testMap, "go", api.ResolveOccurrences)
			require.NoError(t, err)
			assert.Empty(t, topic.Attributes)
			require.Len(t, topic.Occurrences, 1)
			occ := topic.Occurrences[0]
			assert.Equal(t, api.TextOccurrence, occ.InstanceOf)
			assert.Equal(t, api.UniversalScope, occ.Scope)
			assert.Equal(t, "Topic automatically created.", occ.ResourceData)
			assert.NotEmpty(t, occ.Identifier, "occurrence identifier should be generated")
			assert.Empty(t, occ.Attributes)
		})

		t.Run("everything", func(t *testing.T) {
			topic, err := s.GetTopic(ctx, testMap, "go", api.ResolveAttributes|api.ResolveOccurrences)
			require.NoError(t, err)
			require.Len(t, topic.Occurrences, 1)
			require.Len(t, topic.Occurrences[0].Attributes, 1)
			assert.Equal(t, "source", topic.Occurrences[0].Attributes[0].Name)
		})
	})
}

func TestStore_GetTopicMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		_, err := s.GetTopic(context.Background(), testMap, "nope", api.DontResolve)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetTopic(context.Background(), testMap, "", api.DontResolve)
		assert.ErrorIs(t, err, ErrMissingIdentifier)
	})
}

func TestStore_CreateTopicIfMissingNeverOverwrites(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		created, err := s.CreateTopicIfMissing(ctx, testMap, seededTopic("rust"))
		require.NoError(t, err)
		assert.True(t, created)

		second := seededTopic("rust")
		second.InstanceOf = "language"
		second.BaseNames[0].Name = "Overwritten"
		created, err = s.CreateTopicIfMissing(ctx, testMap, second)
		require.NoError(t, err)
		assert.False(t, created)

		topic, err := s.GetTopic(ctx, testMap, "rust", api.ResolveAttributes|api.ResolveOccurrences)
		require.NoError(t, err)
		assert.Equal(t, api.TopicType, topic.InstanceOf)
		assert.Equal(t, "Name of rust", topic.Name())
		assert.Len(t, topic.Attributes, 1, "second call must not add dependents")
		assert.Len(t, topic.Occurrences, 1, "second call must not add dependents")
	})
}

func TestStore_DeleteTopicCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.SetTopic(ctx, testMap, seededTopic("parent")))
		require.NoError(t, s.SetTopic(ctx, testMap, seededTopic("child")))
		require.NoError(t, s.SetTopic(ctx, testMap, seededTopic("sibling")))

		edge := api.Association{
			Identifier:   "edge-1",
			InstanceOf:   api.AssociationType,
			SrcTopicRef:  "child",
			SrcRoleSpec:  "child",
			DestTopicRef: "parent",
			DestRoleSpec: "parent",
			Attributes:   []api.Attribute{{Name: "weight", Value: "1", DataType: api.Number}},
		}
		require.NoError(t, s.SetAssociation(ctx, testMap, edge))
		require.NoError(t, s.SetAssociation(ctx, testMap, api.Association{
			Identifier:   "edge-2",
			InstanceOf:   api.NavigationType,
			SrcTopicRef:  "sibling",
			SrcRoleSpec:  "previous",
			DestTopicRef: "parent",
			DestRoleSpec: "next",
		}))

		child, err := s.GetTopic(ctx, testMap, "child", api.ResolveOccurrences)
		require.NoError(t, err)
		require.Len(t, child.Occurrences, 1)
		occID := child.Occurrences[0].Identifier

		require.NoError(t, s.DeleteTopic(ctx, testMap, "child"))

		exists, err := s.TopicExists(ctx, testMap, "child")
		require.NoError(t, err)
		assert.False(t, exists)

		attrs, err := s.GetAttributes(ctx, testMap, "child")
		require.NoError(t, err)
		assert.Empty(t, attrs, "topic attributes should be deleted")

		occs, err := s.GetOccurrences(ctx, testMap, "child", api.DontResolve)
		require.NoError(t, err)
		assert.Empty(t, occs, "occurrences should be deleted")

		attrs, err = s.GetAttributes(ctx, testMap, occID)
		require.NoError(t, err)
		assert.Empty(t, attrs, "occurrence attributes should be deleted")

		_, err = s.GetAssociation(ctx, testMap, "edge-1")
		assert.ErrorIs(t, err, ErrNotFound, "associations involving the topic should be deleted")
		attrs, err = s.GetAttributes(ctx, testMap, "edge-1")
		require.NoError(t, err)
		assert.Empty(t, attrs, "association attributes should be deleted")

		// Unrelated data survives.
		remaining, err := s.GetAssociations(ctx, testMap, "parent")
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "edge-2", remaining[0].Identifier)

		parent, err := s.GetTopic(ctx, testMap, "parent", api.ResolveAttributes|api.ResolveOccurrences)
		require.NoError(t, err)
		assert.Len(t, parent.Attributes, 1)
		assert.Len(t, parent.Occurrences, 1)

		// Deleting again is a no-op.
		require.NoError(t, s.DeleteTopic(ctx, testMap, "child"))
	})
}

func TestStore_OccurrenceCommands(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.SetTopic(ctx, testMap, api.NewTopic("go", api.TopicType, "Go")))

		occ := api.Occurrence{
			Identifier:      "occ-1",
			InstanceOf:      "url",
			TopicIdentifier: "go",
			ResourceRef:     "https://go.dev",
			Attributes:      []api.Attribute{{Name: "checked", Value: "true", DataType: api.Boolean}},
		}
		require.NoError(t, s.SetOccurrence(ctx, testMap, occ))

		got, err := s.GetOccurrence(ctx, testMap, "occ-1", api.DontResolve)
		require.NoError(t, err)
		assert.Equal(t, "https://go.dev", got.ResourceRef)
		assert.Equal(t, api.UniversalScope, got.Scope, "scope defaults to universal")
		assert.Empty(t, got.Attributes)

		got, err = s.GetOccurrence(ctx, testMap, "occ-1", api.ResolveAttributes)
		require.NoError(t, err)
		require.Len(t, got.Attributes, 1)
		assert.Equal(t, api.Boolean, got.Attributes[0].DataType)

		require.NoError(t, s.DeleteOccurrence(ctx, testMap, "occ-1"))
		_, err = s.GetOccurrence(ctx, testMap, "occ-1", api.DontResolve)
		assert.ErrorIs(t, err, ErrNotFound)
		attrs, err := s.GetAttributes(ctx, testMap, "occ-1")
		require.NoError(t, err)
		assert.Empty(t, attrs, "DeleteOccurrence should cascade to attributes")

		assert.ErrorIs(t, s.DeleteOccurrence(ctx, testMap, ""), ErrMissingIdentifier)
		assert.ErrorIs(t, s.SetOccurrence(ctx, testMap, api.Occurrence{InstanceOf: "text"}), ErrMissingIdentifier)
	})
}

func TestStore_DeleteOccurrences(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.SetTopic(ctx, testMap, seededTopic("go")))
		require.NoError(t, s.SetOccurrence(ctx, testMap, api.Occurrence{
			InstanceOf: "note", TopicIdentifier: "go", ResourceData: "second",
		}))

		occs, err := s.GetOccurrences(ctx, testMap, "go", api.DontResolve)
		require.NoError(t, err)
		require.Len(t, occs, 2)

		require.NoError(t, s.DeleteOccurrences(ctx, testMap, "go"))
		occs, err = s.GetOccurrences(ctx, testMap, "go", api.DontResolve)
		require.NoError(t, err)
		assert.Empty(t, occs)

		topic, err := s.GetTopic(ctx, testMap, "go", api.ResolveAttributes)
		require.NoError(t, err)
		assert.Len(t, topic.Attributes, 1, "topic attributes are not occurrence attributes")
	})
}

func TestStore_AttributeCommands(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.SetAttribute(ctx, testMap, api.Attribute{
			Identifier: "a1", Name: "b", Value: "1", EntityIdentifier: "e", DataType: api.Number,
		}))
		require.NoError(t, s.SetAttribute(ctx, testMap, api.Attribute{
			Identifier: "a2", Name: "a", Value: "x", EntityIdentifier: "e",
		}))

		attrs, err := s.GetAttributes(ctx, testMap, "e")
		require.NoError(t, err)
		require.Len(t, attrs, 2)
		assert.Equal(t, "a", attrs[0].Name, "attributes are ordered by name")
		assert.Equal(t, api.UniversalScope, attrs[0].Scope)
		assert.Equal(t, api.English, attrs[0].Language)

		// Set replaces by identifier.
		require.NoError(t, s.SetAttribute(ctx, testMap, api.Attribute{
			Identifier: "a1", Name: "b", Value: "2", EntityIdentifier: "e", DataType: api.Number,
		}))
		attrs, err = s.GetAttributes(ctx, testMap, "e")
		require.NoError(t, err)
		require.Len(t, attrs, 2)
		assert.Equal(t, "2", attrs[1].Value)

		require.NoError(t, s.DeleteAttribute(ctx, testMap, "a2"))
		attrs, err = s.GetAttributes(ctx, testMap, "e")
		require.NoError(t, err)
		assert.Len(t, attrs, 1)

		require.NoError(t, s.DeleteAttributes(ctx, testMap, "e"))
		attrs, err = s.GetAttributes(ctx, testMap, "e")
		require.NoError(t, err)
		assert.Empty(t, attrs)

		assert.ErrorIs(t, s.SetAttribute(ctx, testMap, api.Attribute{Name: "orphan"}), ErrMissingIdentifier)
	})
}

func TestStore_AssociationCommands(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		nav := api.Association{
			InstanceOf:   api.NavigationType,
			Scope:        api.UniversalScope,
			SrcTopicRef:  "a",
			SrcRoleSpec:  "down",
			DestTopicRef: "root",
			DestRoleSpec: "up",
		}

		created, err := s.CreateAssociationIfMissing(ctx, testMap, nav)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.CreateAssociationIfMissing(ctx, testMap, nav)
		require.NoError(t, err)
		assert.False(t, created, "same edge should not be written twice")

		other := nav
		other.SrcRoleSpec = "topic"
		created, err = s.CreateAssociationIfMissing(ctx, testMap, other)
		require.NoError(t, err)
		assert.True(t, created, "different role is a different edge")

		// The unguarded write always adds.
		require.NoError(t, s.SetAssociation(ctx, testMap, nav))

		fromA, err := s.GetAssociations(ctx, testMap, "a")
		require.NoError(t, err)
		assert.Len(t, fromA, 3)
		fromRoot, err := s.GetAssociations(ctx, testMap, "root")
		require.NoError(t, err)
		assert.Len(t, fromRoot, 3, "associations are returned for either end")

		got, err := s.GetAssociation(ctx, testMap, fromA[0].Identifier)
		require.NoError(t, err)
		assert.True(t, got.Involves("a"))

		require.NoError(t, s.DeleteAssociation(ctx, testMap, fromA[0].Identifier))
		fromA, err = s.GetAssociations(ctx, testMap, "a")
		require.NoError(t, err)
		assert.Len(t, fromA, 2)

		assert.ErrorIs(t, s.SetAssociation(ctx, testMap, api.Association{SrcTopicRef: "a"}), ErrMissingIdentifier)
	})
}

func TestStore_GetAssociationsOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		// Written in reverse of the expected order.
		writes := []api.Association{
			{Identifier: "a6", InstanceOf: api.NavigationType, SrcTopicRef: "root", SrcRoleSpec: "up", DestTopicRef: "childa", DestRoleSpec: "topic"},
			{Identifier: "a5", InstanceOf: api.NavigationType, SrcTopicRef: "child-one", SrcRoleSpec: "topic", DestTopicRef: "root", DestRoleSpec: "up"},
			{Identifier: "a4", InstanceOf: api.NavigationType, SrcTopicRef: "child-one", SrcRoleSpec: "previous", DestTopicRef: "root", DestRoleSpec: "next"},
			{Identifier: "a3", InstanceOf: api.AssociationType, SrcTopicRef: "childa", SrcRoleSpec: "child", DestTopicRef: "root", DestRoleSpec: "parent"},
			{Identifier: "a2", InstanceOf: api.AssociationType, SrcTopicRef: "child-one", SrcRoleSpec: "child", DestTopicRef: "root", DestRoleSpec: "parent"},
			{Identifier: "a1", InstanceOf: api.AssociationType, SrcTopicRef: "child-one", SrcRoleSpec: "child", DestTopicRef: "root", DestRoleSpec: "parent"},
		}
		for _, a := range writes {
			require.NoError(t, s.SetAssociation(ctx, testMap, a))
		}

		got, err := s.GetAssociations(ctx, testMap, "root")
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, a := range got {
			ids = append(ids, a.Identifier)
		}
		assert.Equal(t, []string{"a1", "a2", "a3", "a4", "a5", "a6"}, ids)
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongodb", "")
	require.Error(t, err)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), DriverMemory, "")
	require.NoError(t, err)
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())
}
