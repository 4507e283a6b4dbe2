package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// stores builds one of each Store implementation so the whole contract is
// exercised against both.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "gongbu.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"sqlite": db,
		"memory": NewMemory(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := s.Get("missing")
			require.False(t, ok)

			s.Set("gongbu:vocab", `[{"id":"a"}]`)
			got, ok := s.Get("gongbu:vocab")
			require.True(t, ok)
			require.Equal(t, `[{"id":"a"}]`, got)

			s.Set("gongbu:vocab", `[]`)
			got, ok = s.Get("gongbu:vocab")
			require.True(t, ok)
			require.Equal(t, `[]`, got, "set overwrites")

			s.Delete("gongbu:vocab")
			_, ok = s.Get("gongbu:vocab")
			require.False(t, ok)

			s.Delete("gongbu:vocab") // deleting twice stays silent
		})
	}
}

func TestStoreKeysPrefixScan(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Set("gongbu:vocab", "v")
			s.Set("gongbu:vocab:topik1", "v")
			s.Set("gongbu:vocab:topik2", "v")
			s.Set("gongbu:vocabulary", "decoy") // shares a prefix but not the separator
			s.Set("gongbu:wrong:vocab", "v")

			got := s.Keys("gongbu:vocab:")
			require.Equal(t, []string{"gongbu:vocab:topik1", "gongbu:vocab:topik2"}, got)
		})
	}
}

func TestStoreKeysHandlesHangul(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Set("gongbu:vocab:한국어", "v")
			s.Set("gongbu:vocab:여행", "v")

			got := s.Keys("gongbu:vocab:")
			require.Len(t, got, 2)
			require.Contains(t, got, "gongbu:vocab:한국어")
			require.Contains(t, got, "gongbu:vocab:여행")
		})
	}
}

func TestStoreKeysEmptyResult(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.Empty(t, s.Keys("gongbu:nothing:"))
		})
	}
}

func TestSQLiteValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gongbu.db")

	db, err := Open(path)
	require.NoError(t, err)
	db.Set("gongbu:vocab", `[{"id":"a"}]`)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, ok := db.Get("gongbu:vocab")
	require.True(t, ok)
	require.Equal(t, `[{"id":"a"}]`, got)
}
