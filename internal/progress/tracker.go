package progress

import "github.com/minhvt/gongbu/internal/domain"

// Tracker binds a Ledger to one scope and review mode for the lifetime of a
// quiz session. It holds the loaded sets in memory and writes through on
// every change, so progress survives the session ending at any point.
type Tracker struct {
	ledger    *Ledger
	scope     domain.Scope
	wrongOnly bool

	masteredIDs []string
	mastered    map[string]bool
	wrongIDs    []string
	wrong       map[string]bool
}

// Track loads the progress sets for a scope under its currently selected
// review mode.
func (l *Ledger) Track(scope domain.Scope) *Tracker {
	return l.TrackMode(scope, l.WrongOnly(scope))
}

// TrackMode loads the progress sets for a scope under an explicit mode.
func (l *Ledger) TrackMode(scope domain.Scope, wrongOnly bool) *Tracker {
	t := &Tracker{
		ledger:      l,
		scope:       scope,
		wrongOnly:   wrongOnly,
		masteredIDs: l.LoadMastery(scope, wrongOnly),
		wrongIDs:    l.LoadWrong(scope),
		mastered:    make(map[string]bool),
		wrong:       make(map[string]bool),
	}
	for _, id := range t.masteredIDs {
		t.mastered[id] = true
	}
	for _, id := range t.wrongIDs {
		t.wrong[id] = true
	}
	return t
}

// Scope returns the scope this tracker is bound to.
func (t *Tracker) Scope() domain.Scope { return t.scope }

// WrongOnly reports the review mode this tracker was loaded under.
func (t *Tracker) WrongOnly() bool { return t.wrongOnly }

// Mastered returns the mastered id set, shared with the tracker.
func (t *Tracker) Mastered() map[string]bool { return t.mastered }

// Wrong returns the wrong-history id set, shared with the tracker.
func (t *Tracker) Wrong() map[string]bool { return t.wrong }

// MarkMastered records a correct answer and persists immediately. The stored
// sentence attempt for the item, if any, is cleared: the hint has served its
// purpose.
func (t *Tracker) MarkMastered(id string) {
	if !t.mastered[id] {
		t.mastered[id] = true
		t.masteredIDs = append(t.masteredIDs, id)
	}
	t.ledger.SaveMastery(t.scope, t.wrongOnly, t.masteredIDs)
	if t.scope.Category.Sentence() {
		t.ledger.ClearAttempt(t.scope, id)
	}
}

// MarkWrong records a wrong answer and persists immediately. Ids accumulate;
// a later correct answer never removes one.
func (t *Tracker) MarkWrong(id string) {
	if !t.wrong[id] {
		t.wrong[id] = true
		t.wrongIDs = append(t.wrongIDs, id)
	}
	t.ledger.SaveWrong(t.scope, t.wrongIDs)
}

// SaveAttempt stores a wrong sentence submission for later display.
func (t *Tracker) SaveAttempt(id, raw string) {
	if t.scope.Category.Sentence() {
		t.ledger.SaveAttempt(t.scope, id, raw)
	}
}

// Attempt returns the stored wrong submission for an item, if any.
func (t *Tracker) Attempt(id string) (string, bool) {
	return t.ledger.Attempt(t.scope, id)
}
