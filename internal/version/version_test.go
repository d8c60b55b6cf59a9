package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drafter/internal/docir"
)

func sessionWithText(t *testing.T, text string) *Session {
	t.Helper()
	s := NewSession("doc-1")
	s.DocText = text
	s.DocStructure = docir.Split("doc", text)
	return s
}

func TestAutoCommit_EmptyTextIsNoop(t *testing.T) {
	s := sessionWithText(t, "   ")
	assert.Equal(t, "", AutoCommit(s, "auto: before update", "system", nil))
	assert.Empty(t, s.Versions)
}

func TestAutoCommit_CreatesNodeWithAutoTags(t *testing.T) {
	s := sessionWithText(t, "# A\n\nhello\n")
	id := AutoCommit(s, "auto: after update", "system", []string{"minor"})
	require.NotEmpty(t, id)

	node := s.Versions[id]
	require.NotNil(t, node)
	assert.Equal(t, []string{"minor", "auto"}, node.Tags, "tags folded in without duplication")
	assert.Equal(t, "", node.ParentID, "first commit is a root")
	assert.Equal(t, "main", node.BranchName)
	assert.Equal(t, id, s.CurrentVersionID)
	assert.Equal(t, id, s.Branches["main"])
}

func TestAutoCommit_DedupesUnchangedState(t *testing.T) {
	s := sessionWithText(t, "# A\n\nhello\n")
	first := AutoCommit(s, "auto", "system", nil)
	require.NotEmpty(t, first)

	second := AutoCommit(s, "auto", "system", nil)
	assert.Equal(t, "", second, "identical tip suppresses the commit")
	assert.Len(t, s.Versions, 1)

	s.DocText = "# A\n\nchanged\n"
	s.DocStructure = docir.Split("doc", s.DocText)
	third := AutoCommit(s, "auto", "system", nil)
	require.NotEmpty(t, third)
	assert.Equal(t, first, s.Versions[third].ParentID)
	assert.Len(t, s.Versions, 2)
}

func TestCommit_DefaultsToMajor(t *testing.T) {
	s := sessionWithText(t, "body text")
	id, err := Commit(s, "", "user", nil, "")
	require.NoError(t, err)
	node := s.Versions[id]
	require.NotNil(t, node)
	assert.Equal(t, []string{"major"}, node.Tags)
	assert.Equal(t, "save version", node.Message)
	assert.Equal(t, "major", KindFromTags(node.Tags))
}

func TestKindFromTags(t *testing.T) {
	assert.Equal(t, "major", KindFromTags([]string{"minor", "major"}))
	assert.Equal(t, "minor", KindFromTags([]string{"auto", "minor"}))
	assert.Equal(t, "", KindFromTags([]string{"auto"}))
	assert.Equal(t, "", KindFromTags(nil))
}

func TestCurrentBranch(t *testing.T) {
	s := sessionWithText(t, "text")
	assert.Equal(t, "main", CurrentBranch(s), "uncommitted document sits on main")

	id, err := Commit(s, "first", "user", nil, "major")
	require.NoError(t, err)
	assert.Equal(t, "main", CurrentBranch(s))
	assert.Equal(t, id, s.Branches["main"])
}

func TestCheckoutAndBranch(t *testing.T) {
	s := sessionWithText(t, "# A\n\nv1\n")
	v1 := AutoCommit(s, "auto", "system", nil)
	require.NotEmpty(t, v1)

	s.DocText = "# A\n\nv2\n"
	s.DocStructure = docir.Split("doc", s.DocText)
	v2 := AutoCommit(s, "auto", "system", nil)
	require.NotEmpty(t, v2)

	require.NoError(t, Checkout(s, v1))
	assert.Equal(t, "# A\n\nv1\n", s.DocText)
	assert.Equal(t, v1, s.CurrentVersionID)

	require.NoError(t, CreateBranch(s, "draft-2", v1))
	assert.Equal(t, v1, s.Branches["draft-2"])
	assert.Error(t, CreateBranch(s, "draft-2", v1), "duplicate branch rejected")
	assert.Error(t, CreateBranch(s, "  ", v1))
	assert.Error(t, CreateBranch(s, "bad-base", "missing-id"))

	assert.Error(t, Checkout(s, "missing-id"))
}

func TestTag(t *testing.T) {
	s := sessionWithText(t, "text")
	id, err := Commit(s, "m", "user", nil, "minor")
	require.NoError(t, err)

	require.NoError(t, Tag(s, id, "reviewed"))
	require.NoError(t, Tag(s, id, "reviewed"))
	assert.Equal(t, []string{"minor", "reviewed"}, s.Versions[id].Tags)

	assert.Error(t, Tag(s, "missing", "x"))
	assert.Error(t, Tag(s, id, " "))
}

func TestLog_WalksParentsNewestFirst(t *testing.T) {
	s := sessionWithText(t, "# A\n\none\n")
	v1 := AutoCommit(s, "first", "system", nil)
	s.DocText = "# A\n\ntwo\n"
	s.DocStructure = docir.Split("doc", s.DocText)
	v2 := AutoCommit(s, "second", "system", nil)

	entries := Log(s, "main", 10)
	require.Len(t, entries, 2)
	assert.Equal(t, v2, entries[0].VersionID)
	assert.True(t, entries[0].IsCurrent)
	assert.Equal(t, v1, entries[1].VersionID)
	assert.Equal(t, "minor", entries[0].Kind)
	// one paragraph rewritten between v1 and v2
	assert.Equal(t, Summary{Replace: 1}, entries[0].Summary)
	assert.Equal(t, Summary{}, entries[1].Summary, "root has no parent to diff")

	assert.Empty(t, Log(s, "nonexistent", 10))
	assert.Len(t, Log(s, "main", 1), 1)
}

func TestTree(t *testing.T) {
	s := sessionWithText(t, "# A\n\none\n")
	v1 := AutoCommit(s, "first", "system", nil)
	s.DocText = "# A\n\ntwo\n"
	s.DocStructure = docir.Split("doc", s.DocText)
	v2 := AutoCommit(s, "second", "system", nil)

	nodes, edges := Tree(s)
	assert.Len(t, nodes, 2)
	require.Len(t, edges, 1)
	assert.Equal(t, TreeEdge{From: v1, To: v2}, edges[0])
}

func TestDiffSummary(t *testing.T) {
	prev := docir.Split("doc", "# A\n\nkeep\n\ndrop me\n")
	next := docir.Split("doc", "# A\n\nkeep\n\nfresh paragraph\n\nanother one\n")
	sum := DiffSummary(prev, next)
	assert.Equal(t, Summary{Replace: 1}, sum, "delete+insert runs coalesce into one replace")
}

func TestDiffText(t *testing.T) {
	s := sessionWithText(t, "line one\nline two\n")
	v1, err := Commit(s, "a", "u", nil, "major")
	require.NoError(t, err)
	s.DocText = "line one\nline 2\n"
	v2, err := Commit(s, "b", "u", nil, "major")
	require.NoError(t, err)

	lines, err := DiffText(s, v1, v2)
	require.NoError(t, err)
	assert.Contains(t, lines, "-line two")
	assert.Contains(t, lines, "+line 2")
	assert.Contains(t, lines, " line one")

	_, err = DiffText(s, v1, "missing")
	assert.Error(t, err)
}
