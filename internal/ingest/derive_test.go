package ingest

import (
	"context"
	"testing"

	"github.com/agentic-research/topicmap/api"
	"github.com/agentic-research/topicmap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeStrings(assocs []api.Association) []string {
	out := make([]string, 0, len(assocs))
	for _, a := range assocs {
		out = append(out, a.String())
	}
	return out
}

func navigation(t *testing.T, tree *Tree, id string) []string {
	t.Helper()
	n, ok := tree.Node(id)
	require.True(t, ok, id)
	return edgeStrings(NavigationFor(tree, n))
}

func TestNavigationFor_ThreeSiblings(t *testing.T) {
	tree, err := BuildTree(mustRecords(t, "p\n    a\n    b\n    c\n"))
	require.NoError(t, err)

	assert.Empty(t, navigation(t, tree, "p"))
	assert.Equal(t, []string{
		"association[*] a(child) -> p(parent)",
		"navigation[*] a(down) -> p(up)",
	}, navigation(t, tree, "a"))
	assert.Equal(t, []string{
		"association[*] b(child) -> p(parent)",
		"navigation[*] a(previous) -> b(next)",
	}, navigation(t, tree, "b"))
	assert.Equal(t, []string{
		"association[*] c(child) -> p(parent)",
		"navigation[*] c(topic) -> p(up)",
		"navigation[*] b(previous) -> c(next)",
	}, navigation(t, tree, "c"))
}

func TestNavigationFor_SingleChild(t *testing.T) {
	tree, err := BuildTree(mustRecords(t, "p\n    a\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"association[*] a(child) -> p(parent)",
		"navigation[*] a(down) -> p(up)",
		"navigation[*] a(topic) -> p(up)",
	}, navigation(t, tree, "a"))
}

func TestNavigationFor_EndToEndExample(t *testing.T) {
	tree, err := BuildTree(mustRecords(t, "root\n    child-one;Child One\n    child-two\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"child-one", "child-two"}, childIDs(tree.Root))
	assert.Equal(t, []string{
		"association[*] child-one(child) -> root(parent)",
		"navigation[*] child-one(down) -> root(up)",
	}, navigation(t, tree, "child-one"))
	assert.Equal(t, []string{
		"association[*] child-two(child) -> root(parent)",
		"navigation[*] child-two(topic) -> root(up)",
		"navigation[*] child-one(previous) -> child-two(next)",
	}, navigation(t, tree, "child-two"))
}

func TestDeriver_Derive(t *testing.T) {
	ctx := context.Background()
	tree, err := BuildTree(mustRecords(t, "p\n    a\n    b\n    c\n"))
	require.NoError(t, err)

	s := store.NewMemoryStore()
	d := &Deriver{Store: s, MapID: 1}

	stats, err := d.Derive(ctx, tree)
	require.NoError(t, err)
	assert.Equal(t, DeriveStats{Created: 7}, stats)

	assocs, err := s.GetAssociations(ctx, 1, "p")
	require.NoError(t, err)
	assert.Len(t, assocs, 5, "three child/parent, down/up and topic/up")

	stats, err = d.Derive(ctx, tree)
	require.NoError(t, err)
	assert.Equal(t, DeriveStats{Skipped: 7}, stats)

	d.AllowDuplicates = true
	stats, err = d.Derive(ctx, tree)
	require.NoError(t, err)
	assert.Equal(t, DeriveStats{Created: 7}, stats)

	assocs, err = s.GetAssociations(ctx, 1, "p")
	require.NoError(t, err)
	assert.Len(t, assocs, 10)
}

func TestDeriver_CancelledContext(t *testing.T) {
	tree, err := BuildTree(mustRecords(t, "p\n    a\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Deriver{Store: store.NewMemoryStore(), MapID: 1}).Derive(ctx, tree)
	assert.ErrorIs(t, err, context.Canceled)
}
