package progress

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/storage"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func testLedger() (*Ledger, *storage.Memory, *clock) {
	store := storage.NewMemory()
	c := &clock{t: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)}
	l := NewLedger(store, domain.Keys{NS: "gongbu"})
	l.now = c.now
	return l, store, c
}

func TestMasteryRoundTrip(t *testing.T) {
	l, store, c := testLedger()
	scope := domain.Scope{Category: domain.CategoryVocab}

	l.SaveMastery(scope, false, []string{"a", "b"})

	raw, ok := store.Get("gongbu:check:vocab")
	require.True(t, ok)
	want := fmt.Sprintf(`{"ids":["a","b"],"savedAt":%d}`, c.t.UnixMilli())
	require.JSONEq(t, want, raw)

	require.Equal(t, []string{"a", "b"}, l.LoadMastery(scope, false))
}

func TestMasteryModesAreIndependent(t *testing.T) {
	l, store, _ := testLedger()
	scope := domain.Scope{Category: domain.CategoryGrammar, CardID: "topik1"}

	l.SaveMastery(scope, false, []string{"full"})
	l.SaveMastery(scope, true, []string{"replay"})

	_, ok := store.Get("gongbu:check:grammar:topik1")
	require.True(t, ok)
	_, ok = store.Get("gongbu:check-wrong:grammar:topik1")
	require.True(t, ok)

	require.Equal(t, []string{"full"}, l.LoadMastery(scope, false))
	require.Equal(t, []string{"replay"}, l.LoadMastery(scope, true))
}

func TestSentenceMasteryKeyFamily(t *testing.T) {
	l, store, _ := testLedger()

	l.SaveMastery(domain.Scope{Category: domain.CategorySentences}, false, []string{"s1"})
	l.SaveMastery(domain.Scope{Category: domain.CategorySentences, CardID: "travel"}, true, []string{"s2"})

	_, ok := store.Get("gongbu:sentence-correct:all")
	require.True(t, ok)
	_, ok = store.Get("gongbu:sentence-correct-wrong:travel:all")
	require.True(t, ok)
}

func TestRecordExpiry(t *testing.T) {
	l, store, c := testLedger()
	scope := domain.Scope{Category: domain.CategoryVocab}
	l.SaveMastery(scope, false, []string{"a"})

	t.Run("valid at exactly the window edge", func(t *testing.T) {
		c.t = c.t.Add(MaxAge)
		require.Equal(t, []string{"a"}, l.LoadMastery(scope, false))
	})

	t.Run("deleted just past the window", func(t *testing.T) {
		c.t = c.t.Add(time.Millisecond)
		require.Nil(t, l.LoadMastery(scope, false))
		_, ok := store.Get("gongbu:check:vocab")
		require.False(t, ok, "expired record should be removed on read")
	})
}

func TestLegacyBareArrayMigratesOnRead(t *testing.T) {
	l, store, c := testLedger()
	scope := domain.Scope{Category: domain.CategoryVocab}
	store.Set("gongbu:check:vocab", `["a","b"]`)

	got := l.LoadMastery(scope, false)
	require.Equal(t, []string{"a", "b"}, got)

	raw, ok := store.Get("gongbu:check:vocab")
	require.True(t, ok)
	var rec record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.Equal(t, []string{"a", "b"}, rec.IDs)
	require.Equal(t, c.t.UnixMilli(), rec.SavedAt, "migration stamps the read time")
}

func TestMalformedRecordIsDeleted(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":      `{broken`,
		"wrong type":    `42`,
		"object no ids": `{"ids":"oops","savedAt":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			l, store, _ := testLedger()
			store.Set("gongbu:check:vocab", raw)

			require.Nil(t, l.LoadMastery(domain.Scope{Category: domain.CategoryVocab}, false))
			_, ok := store.Get("gongbu:check:vocab")
			require.False(t, ok)
		})
	}
}

func TestEmptyMasterySavesEmptyArray(t *testing.T) {
	l, store, c := testLedger()
	scope := domain.Scope{Category: domain.CategoryVocab}

	l.SaveMastery(scope, false, nil)

	raw, ok := store.Get("gongbu:check:vocab")
	require.True(t, ok)
	require.JSONEq(t, fmt.Sprintf(`{"ids":[],"savedAt":%d}`, c.t.UnixMilli()), raw)
}

func TestWrongHistoryRoundTrip(t *testing.T) {
	l, store, _ := testLedger()
	scope := domain.Scope{Category: domain.CategorySentences, CardID: "travel"}

	l.SaveWrong(scope, []string{"s1", "s2"})
	_, ok := store.Get("gongbu:wrong:sentences:travel")
	require.True(t, ok)
	require.Equal(t, []string{"s1", "s2"}, l.LoadWrong(scope))

	l.ClearWrong(scope)
	require.Nil(t, l.LoadWrong(scope))
}

func TestWrongOnlyFlag(t *testing.T) {
	l, store, _ := testLedger()
	scope := domain.Scope{Category: domain.CategoryVocab}

	require.False(t, l.WrongOnly(scope))

	l.SetWrongOnly(scope, true)
	raw, ok := store.Get("gongbu:check-wrong-only:vocab")
	require.True(t, ok)
	require.Equal(t, "true", raw)
	require.True(t, l.WrongOnly(scope))

	l.SetWrongOnly(scope, false)
	_, ok = store.Get("gongbu:check-wrong-only:vocab")
	require.False(t, ok, "turning the mode off removes the sentinel")
}

func TestAttemptRoundTrip(t *testing.T) {
	l, store, _ := testLedger()
	scope := domain.Scope{Category: domain.CategorySentences}

	l.SaveAttempt(scope, "s1", "나는 학교 간다")
	raw, ok := store.Get("gongbu:sentence-input-history:s1")
	require.True(t, ok)
	require.Equal(t, "나는 학교 간다", raw)

	got, ok := l.Attempt(scope, "s1")
	require.True(t, ok)
	require.Equal(t, "나는 학교 간다", got)

	l.ClearAttempt(scope, "s1")
	_, ok = l.Attempt(scope, "s1")
	require.False(t, ok)
}

func TestAttemptKeyCarriesCardID(t *testing.T) {
	l, store, _ := testLedger()
	scope := domain.Scope{Category: domain.CategorySentences, CardID: "travel"}

	l.SaveAttempt(scope, "s1", "attempt")
	_, ok := store.Get("gongbu:sentence-input-history:travel:s1")
	require.True(t, ok)
}

func TestInvalidateClearsEverything(t *testing.T) {
	l, store, _ := testLedger()
	scope := domain.Scope{Category: domain.CategorySentences}

	l.SaveMastery(scope, false, []string{"s1"})
	l.SaveMastery(scope, true, []string{"s2"})
	l.SaveWrong(scope, []string{"s1", "s2"})
	l.SaveAttempt(scope, "s1", "attempt one")
	l.SaveAttempt(scope, "s2", "attempt two")

	l.Invalidate(scope, []string{"s1", "s2"})

	require.Zero(t, store.Len(), "no progress records should survive invalidation")
}
