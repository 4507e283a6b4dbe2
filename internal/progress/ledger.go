// Package progress keeps the cross-session drill bookkeeping: which items
// were mastered inside the current review window, which were ever answered
// wrong, and the last wrong sentence attempt per item.
package progress

import (
	"encoding/json"
	"time"

	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/storage"
)

// MaxAge is how long a saved record stays valid. Records older than this are
// treated as absent and removed on read, so a new day starts with a clean
// mastery view.
const MaxAge = 8 * time.Hour

// record is the stored shape of a mastery or wrong set. SavedAt is Unix
// milliseconds, the epoch format the historical records were written with.
type record struct {
	IDs     []string `json:"ids"`
	SavedAt int64    `json:"savedAt"`
}

// Ledger reads and writes progress records for any scope.
type Ledger struct {
	store storage.Store
	keys  domain.Keys
	now   func() time.Time
}

// NewLedger returns a Ledger over the given store and key namespace.
func NewLedger(store storage.Store, keys domain.Keys) *Ledger {
	return &Ledger{store: store, keys: keys, now: time.Now}
}

// loadIDs reads one record, migrating the legacy bare-array format in place
// and deleting the key when the record is expired or unreadable.
func (l *Ledger) loadIDs(key string) []string {
	raw, ok := l.store.Get(key)
	if !ok {
		return nil
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// Early versions stored a bare id array with no timestamp. Upgrade it
		// on first read, stamping the current time.
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			l.store.Delete(key)
			return nil
		}
		l.saveIDs(key, ids)
		return ids
	}

	age := l.now().UnixMilli() - rec.SavedAt
	if age > MaxAge.Milliseconds() {
		l.store.Delete(key)
		return nil
	}
	return rec.IDs
}

func (l *Ledger) saveIDs(key string, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(record{IDs: ids, SavedAt: l.now().UnixMilli()})
	if err != nil {
		return
	}
	l.store.Set(key, string(raw))
}

// LoadMastery returns the ids mastered within the current window for a scope
// and review mode, in the order they were recorded.
func (l *Ledger) LoadMastery(scope domain.Scope, wrongOnly bool) []string {
	return l.loadIDs(l.keys.Mastery(scope, wrongOnly))
}

// SaveMastery overwrites the mastery record with a fresh timestamp.
func (l *Ledger) SaveMastery(scope domain.Scope, wrongOnly bool, ids []string) {
	l.saveIDs(l.keys.Mastery(scope, wrongOnly), ids)
}

// ClearMastery removes the mastery record for one review mode.
func (l *Ledger) ClearMastery(scope domain.Scope, wrongOnly bool) {
	l.store.Delete(l.keys.Mastery(scope, wrongOnly))
}

// LoadWrong returns the cumulative wrong-answer history for a scope. The
// record carries the same expiry as mastery even though the history is
// otherwise append-only; that matches how these records have always behaved.
func (l *Ledger) LoadWrong(scope domain.Scope) []string {
	return l.loadIDs(l.keys.Wrong(scope))
}

// SaveWrong overwrites the wrong record with a fresh timestamp. Ids are only
// ever added by the quiz; removal happens through ClearWrong or a
// deck-changing import.
func (l *Ledger) SaveWrong(scope domain.Scope, ids []string) {
	l.saveIDs(l.keys.Wrong(scope), ids)
}

// ClearWrong removes the wrong-answer history for a scope.
func (l *Ledger) ClearWrong(scope domain.Scope) {
	l.store.Delete(l.keys.Wrong(scope))
}

// WrongOnly reports whether wrong-only review mode is active for a scope.
func (l *Ledger) WrongOnly(scope domain.Scope) bool {
	v, ok := l.store.Get(l.keys.WrongOnlyFlag(scope))
	return ok && v == "true"
}

// SetWrongOnly toggles wrong-only review mode.
func (l *Ledger) SetWrongOnly(scope domain.Scope, on bool) {
	key := l.keys.WrongOnlyFlag(scope)
	if on {
		l.store.Set(key, "true")
	} else {
		l.store.Delete(key)
	}
}

// Attempt returns the last wrong free-text submission for a sentence item.
func (l *Ledger) Attempt(scope domain.Scope, itemID string) (string, bool) {
	return l.store.Get(l.keys.InputHistory(scope, itemID))
}

// SaveAttempt stores the raw text of a wrong sentence submission so the user
// sees their previous try when they come back to the item.
func (l *Ledger) SaveAttempt(scope domain.Scope, itemID, raw string) {
	l.store.Set(l.keys.InputHistory(scope, itemID), raw)
}

// ClearAttempt removes the stored submission, done on a correct answer.
func (l *Ledger) ClearAttempt(scope domain.Scope, itemID string) {
	l.store.Delete(l.keys.InputHistory(scope, itemID))
}

// Invalidate removes every progress record for a scope: both mastery modes,
// the wrong history, and any stored sentence attempts for the given item ids.
// Deck imports call this when the imported deck differs from the stored one,
// since progress only means anything against a stable item set.
func (l *Ledger) Invalidate(scope domain.Scope, itemIDs []string) {
	l.ClearMastery(scope, false)
	l.ClearMastery(scope, true)
	l.ClearWrong(scope)
	for _, id := range itemIDs {
		l.ClearAttempt(scope, id)
	}
}
