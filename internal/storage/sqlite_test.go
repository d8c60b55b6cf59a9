package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drafter/internal/docir"
	"drafter/internal/version"
)

func TestSQLiteStore_SaveAndLoadSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	sess := version.NewSession("doc-1")
	sess.DocText = "# A\n\nfirst body\n"
	sess.DocStructure = docir.Split("doc", sess.DocText)
	v1 := version.AutoCommit(sess, "auto: after update", "system", nil)
	require.NotEmpty(t, v1)

	sess.DocText = "# A\n\nsecond body\n"
	sess.DocStructure = docir.Split("doc", sess.DocText)
	v2 := version.AutoCommit(sess, "auto: after update", "system", nil)
	require.NotEmpty(t, v2)
	require.NoError(t, version.CreateBranch(sess, "alt", v1))

	require.NoError(t, store.SaveSession(ctx, sess))

	loaded, err := store.LoadSession(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, sess.DocText, loaded.DocText)
	assert.Equal(t, v2, loaded.CurrentVersionID)
	assert.True(t, docir.Equal(sess.DocStructure, loaded.DocStructure))

	require.Len(t, loaded.Versions, 2)
	node := loaded.Versions[v2]
	require.NotNil(t, node)
	assert.Equal(t, v1, node.ParentID)
	assert.Equal(t, []string{"minor", "auto"}, node.Tags)
	assert.Equal(t, "main", node.BranchName)
	assert.False(t, node.Timestamp.IsZero())

	assert.Equal(t, map[string]string{"main": v2, "alt": v1}, loaded.Branches)

	// history survives a reload round-trip
	entries := version.Log(loaded, "main", 10)
	require.Len(t, entries, 2)
	assert.Equal(t, v2, entries[0].VersionID)
}

func TestSQLiteStore_SaveIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	sess := version.NewSession("doc-1")
	sess.DocText = "body"
	_, err = version.Commit(sess, "first", "user", nil, "major")
	require.NoError(t, err)

	require.NoError(t, store.SaveSession(ctx, sess))
	require.NoError(t, store.SaveSession(ctx, sess))

	loaded, err := store.LoadSession(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Versions, 1)
}

func TestSQLiteStore_LoadUnknownDocument(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.LoadSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLiteStore_ListDocuments(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for _, id := range []string{"b-doc", "a-doc"} {
		sess := version.NewSession(id)
		sess.DocText = "text"
		require.NoError(t, store.SaveSession(ctx, sess))
	}

	ids, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-doc", "b-doc"}, ids)
}
