package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/agentic-research/topicmap/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_Rebind(t *testing.T) {
	q := `SELECT 1 FROM topic WHERE topicmap_identifier = ? AND identifier = ?`
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t,
		`SELECT 1 FROM topic WHERE topicmap_identifier = $1 AND identifier = $2`,
		Postgres.Rebind(q))
	assert.Equal(t, "no placeholders", Postgres.Rebind("no placeholders"))
}

func TestSQLStore_InMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.SetTopic(ctx, 1, api.NewTopic("a", "", "A")))
	exists, err := s.TopicExists(ctx, 1, "a")
	require.NoError(t, err)
	assert.True(t, exists, "single connection keeps :memory: shared across transactions")
}

func TestSQLStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SetTopic(ctx, 7, api.NewTopic("kept", "", "Kept")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	topic, err := s.GetTopic(ctx, 7, "kept", api.DontResolve)
	require.NoError(t, err)
	assert.Equal(t, "Kept", topic.Name())
}

func TestSQLStore_BackendErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.TopicExists(ctx, 1, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreOperation)

	var oe *OperationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "topic exists", oe.Op)
}

func TestSQLStore_FailedOperationRollsBack(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "rollback.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	// The topic row is written before the occurrence insert fails on the
	// dropped table; the whole call must leave nothing behind.
	_, err = s.DB().Exec(`DROP TABLE occurrence`)
	require.NoError(t, err)

	err = s.SetTopic(ctx, 1, seededTopic("half"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreOperation)

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM topic`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := opError("set topic", cause)
	assert.ErrorIs(t, err, ErrStoreOperation)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "set topic")

	assert.Equal(t, ErrNotFound, opError("get topic", ErrNotFound))
	assert.Nil(t, opError("noop", nil))
}
