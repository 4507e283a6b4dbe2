package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/minhvt/gongbu/internal/deck"
	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/progress"
	"github.com/minhvt/gongbu/internal/storage"
)

func testManager(t *testing.T) (*Manager, *deck.Service, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	keys := domain.Keys{NS: "gongbu"}
	decks := deck.NewService(store, keys, progress.NewLedger(store, keys))
	return NewManager(store, keys, decks, filepath.Join(t.TempDir(), "repos")), decks, store
}

func TestScopeFromFilename(t *testing.T) {
	for _, tt := range []struct {
		name  string
		scope domain.Scope
		ok    bool
	}{
		{"vocab.csv", domain.Scope{Category: domain.CategoryVocab}, true},
		{"grammar.csv", domain.Scope{Category: domain.CategoryGrammar}, true},
		{"sentences.travel.csv", domain.Scope{Category: domain.CategorySentences, CardID: "travel"}, true},
		{"VOCAB.TOPIK1.CSV", domain.Scope{Category: domain.CategoryVocab, CardID: "topik1"}, true},
		{"vocab.topik.level1.csv", domain.Scope{Category: domain.CategoryVocab, CardID: "topik.level1"}, true},
		{"notes.csv", domain.Scope{}, false},
		{"vocab.txt", domain.Scope{}, false},
		{"vocab..csv", domain.Scope{}, false},
		{"readme.md", domain.Scope{}, false},
	} {
		scope, ok := scopeFromFilename(tt.name)
		require.Equal(t, tt.ok, ok, tt.name)
		if ok {
			require.Equal(t, tt.scope, scope, tt.name)
		}
	}
}

func TestGitPathFor(t *testing.T) {
	got, err := gitPathFor("repos", "https://github.com/minhvt/korean-decks.git")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("repos", "github.com", "minhvt", "korean-decks"), got)

	got, err = gitPathFor("repos", "git@github.com:minhvt/korean-decks.git")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("repos", "github.com", "minhvt", "korean-decks"), got)

	_, err = gitPathFor("repos", "not a repo")
	require.Error(t, err)
}

func TestAddAndRemoveSources(t *testing.T) {
	m, _, _ := testManager(t)
	dir := t.TempDir()

	local, err := m.Add(dir)
	require.NoError(t, err)
	require.Equal(t, "local", local.Type)
	require.NoError(t, uuid.Validate(local.ID))

	remote, err := m.Add("git@github.com:minhvt/korean-decks.git")
	require.NoError(t, err)
	require.Equal(t, "git", remote.Type)

	require.Len(t, m.Sources(), 2)

	_, err = m.Add(dir)
	require.Error(t, err, "adding the same path twice is rejected")

	require.True(t, m.Remove(local.ID))
	require.False(t, m.Remove(local.ID), "removing an unknown id reports false")
	require.Len(t, m.Sources(), 1)
}

func TestAddRejectsMissingLocalPath(t *testing.T) {
	m, _, _ := testManager(t)
	_, err := m.Add(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestSourcesSurviveReload(t *testing.T) {
	m, _, store := testManager(t)
	dir := t.TempDir()
	src, err := m.Add(dir)
	require.NoError(t, err)

	raw, ok := store.Get("gongbu:sources")
	require.True(t, ok)
	require.Contains(t, raw, src.ID)

	keys := domain.Keys{NS: "gongbu"}
	again := NewManager(store, keys, deck.NewService(store, keys, progress.NewLedger(store, keys)), t.TempDir())
	require.Equal(t, m.Sources(), again.Sources())
}

func TestUnreadableSourceListReadsEmpty(t *testing.T) {
	m, _, store := testManager(t)
	store.Set("gongbu:sources", "{broken")

	require.Nil(t, m.Sources())
	_, ok := store.Get("gongbu:sources")
	require.True(t, ok, "the stored value is left for inspection")
}

func TestRunImportsLocalDeckFiles(t *testing.T) {
	m, decks, _ := testManager(t)
	dir := t.TempDir()

	vocabCSV := "id,korean,vietnamese\n\"v1\",\"학교\",\"trường học\"\n"
	sentCSV := "id,sentence,vietnamese\n\"s1\",\"나는 학교에 간다\",\"tôi đến trường\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vocab.csv"), []byte(vocabCSV), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "sentences.travel.csv"), []byte(sentCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grammar.csv"), []byte("id,vietnamese\n\"g\",\"x\"\n"), 0o644))

	_, err := m.Add(dir)
	require.NoError(t, err)

	rep, err := m.Run()
	require.NoError(t, err)
	require.Equal(t, 1, rep.Sources)
	require.Equal(t, 2, rep.Files)
	require.Equal(t, 2, rep.Items)
	require.Equal(t, 1, rep.Errors, "the grammar file is missing its answer column")

	require.Len(t, decks.Load(domain.Scope{Category: domain.CategoryVocab}), 1)
	require.Len(t, decks.Load(domain.Scope{Category: domain.CategorySentences, CardID: "travel"}), 1)
	require.Nil(t, decks.Load(domain.Scope{Category: domain.CategoryGrammar}))
}

func TestRunIsIdempotent(t *testing.T) {
	m, _, _ := testManager(t)
	dir := t.TempDir()
	csv := "id,korean,vietnamese\n\"v1\",\"학교\",\"trường học\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vocab.csv"), []byte(csv), 0o644))
	_, err := m.Add(dir)
	require.NoError(t, err)

	first, err := m.Run()
	require.NoError(t, err)
	require.Zero(t, first.Errors)

	second, err := m.Run()
	require.NoError(t, err)
	require.Equal(t, first.Files, second.Files)
	require.Equal(t, first.Items, second.Items)
}

func TestRunWithNoSources(t *testing.T) {
	m, _, _ := testManager(t)
	rep, err := m.Run()
	require.NoError(t, err)
	require.Zero(t, rep.Sources)
}
