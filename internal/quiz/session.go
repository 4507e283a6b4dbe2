// Package quiz runs one drill session: a shuffled pass over a deck's
// unmastered items, typed answers checked against each item, missed items
// requeued to the back of the pass. A session lives in memory for one screen
// visit; all durable bookkeeping goes through the recorder it is given.
package quiz

import (
	"math/rand/v2"

	"github.com/minhvt/gongbu/internal/compare"
	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/shuffle"
)

// Phase is the session's observable state.
type Phase int

const (
	// PhasePresenting shows an item and waits for an answer.
	PhasePresenting Phase = iota
	// PhaseAnswered shows the comparison outcome and waits for an advance.
	PhaseAnswered
	// PhaseComplete means no drillable items remain.
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePresenting:
		return "presenting"
	case PhaseAnswered:
		return "answered"
	default:
		return "complete"
	}
}

// recorder is what a session needs from the progress layer. progress.Tracker
// implements it; tests substitute a fake.
type recorder interface {
	WrongOnly() bool
	Mastered() map[string]bool
	Wrong() map[string]bool
	MarkMastered(id string)
	MarkWrong(id string)
	SaveAttempt(id, raw string)
	Attempt(id string) (string, bool)
}

// Result is the outcome of one submitted answer. Tokens carries the
// word-by-word detail for sentence items and is nil for vocabulary items.
type Result struct {
	Correct bool
	Tokens  []compare.Token
}

// Snapshot is the observable state after any operation. Item is nil once the
// session is complete; Result is set only in the answered phase; Hint carries
// the user's previous wrong attempt when presenting a sentence item.
type Snapshot struct {
	Phase     Phase
	Item      domain.Item
	Position  int
	Remaining int
	Result    *Result
	Hint      string
}

// Session is the drill state machine. It is not safe for concurrent use; the
// serving layer guards each session with its own lock.
type Session struct {
	rec      recorder
	deck     []domain.Item   // session permutation; requeueing reorders it
	mastered map[string]bool // ids mastered during this session
	cursor   int             // index into the filtered view
	phase    Phase
	current  domain.Item
	result   *Result
}

// NewSession filters the deck down to drillable candidates and shuffles them
// once. Already-mastered items are excluded; in wrong-only mode only items
// from the wrong history are kept. An empty candidate set is a valid session
// that starts complete.
func NewSession(items []domain.Item, rec recorder) *Session {
	return newSession(items, rec, nil)
}

func newSession(items []domain.Item, rec recorder, r *rand.Rand) *Session {
	mastered := rec.Mastered()
	wrong := rec.Wrong()
	wrongOnly := rec.WrongOnly()

	candidates := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.Blank() || mastered[it.ItemID()] {
			continue
		}
		if wrongOnly && !wrong[it.ItemID()] {
			continue
		}
		candidates = append(candidates, it)
	}

	s := &Session{
		rec:      rec,
		deck:     shuffle.ItemsWith(r, candidates),
		mastered: make(map[string]bool),
	}
	s.present()
	return s
}

// filtered is the deck as the user sees it: the permutation minus items
// mastered since the session started.
func (s *Session) filtered() []domain.Item {
	out := make([]domain.Item, 0, len(s.deck))
	for _, it := range s.deck {
		if !s.mastered[it.ItemID()] {
			out = append(out, it)
		}
	}
	return out
}

// present points the session at the item under the cursor, or completes the
// session when the filtered deck is empty. The cursor wraps rather than ever
// pointing past the end.
func (s *Session) present() {
	f := s.filtered()
	if len(f) == 0 {
		s.phase = PhaseComplete
		s.current = nil
		s.result = nil
		s.cursor = 0
		return
	}
	s.cursor %= len(f)
	s.current = f[s.cursor]
	s.phase = PhasePresenting
	s.result = nil
}

// Submit evaluates the user's input against the current item and moves to the
// answered phase. A correct answer is recorded as mastered immediately; a
// wrong answer joins the wrong history, and for sentences the raw input is
// kept as the next hint. Outside the presenting phase this is a no-op.
func (s *Session) Submit(input string) Snapshot {
	if s.phase != PhasePresenting || s.current == nil {
		return s.Snapshot()
	}

	res := evaluate(s.current, input)
	id := s.current.ItemID()
	if res.Correct {
		s.rec.MarkMastered(id)
		s.mastered[id] = true
	} else {
		s.rec.MarkWrong(id)
		if _, ok := s.current.(domain.SentenceItem); ok {
			s.rec.SaveAttempt(id, input)
		}
	}

	s.result = &res
	s.phase = PhaseAnswered
	return s.Snapshot()
}

func evaluate(item domain.Item, input string) Result {
	if _, ok := item.(domain.SentenceItem); ok {
		tokens := compare.Sentence(input, item.Target())
		return Result{Correct: compare.SentenceCorrect(tokens), Tokens: tokens}
	}
	return Result{Correct: compare.Vocabulary(input, item.Target())}
}

// Advance leaves the answered phase. After a correct answer the item has
// already dropped out of the filtered view, so the deck shrinks in place and
// the cursor lands on the next item. After a wrong answer the item moves to
// the back of the permutation to come around again later, except when it is
// the only item left, in which case the session simply presents it again for
// another try. Outside the answered phase this is a no-op.
func (s *Session) Advance() Snapshot {
	if s.phase != PhaseAnswered || s.result == nil {
		return s.Snapshot()
	}

	if s.result.Correct {
		s.present()
		return s.Snapshot()
	}

	f := s.filtered()
	if len(f) <= 1 {
		s.result = nil
		s.phase = PhasePresenting
		return s.Snapshot()
	}

	missed := s.current
	s.requeue(missed)
	f = s.filtered()
	s.cursor %= len(f)
	if f[s.cursor].ItemID() == missed.ItemID() {
		// The missed item was last in the view and came straight back around;
		// start the next lap instead of showing it twice in a row.
		s.cursor = 0
	}
	s.present()
	return s.Snapshot()
}

// requeue moves an item to the tail of the session permutation.
func (s *Session) requeue(item domain.Item) {
	id := item.ItemID()
	for i, it := range s.deck {
		if it.ItemID() == id {
			s.deck = append(append(s.deck[:i:i], s.deck[i+1:]...), it)
			return
		}
	}
}

// Next moves to the following item without answering. Navigation is cyclic
// and a no-op when fewer than two items remain.
func (s *Session) Next() Snapshot { return s.step(1) }

// Prev moves to the preceding item without answering.
func (s *Session) Prev() Snapshot { return s.step(-1) }

func (s *Session) step(delta int) Snapshot {
	if s.phase == PhaseComplete {
		return s.Snapshot()
	}
	f := s.filtered()
	if len(f) < 2 {
		return s.Snapshot()
	}
	s.cursor = ((s.cursor+delta)%len(f) + len(f)) % len(f)
	s.current = f[s.cursor]
	s.phase = PhasePresenting
	s.result = nil
	return s.Snapshot()
}

// Snapshot returns the current observable state without changing it.
func (s *Session) Snapshot() Snapshot {
	f := s.filtered()
	snap := Snapshot{Phase: s.phase, Remaining: len(f)}
	if s.current == nil {
		return snap
	}

	snap.Item = s.current
	if len(f) > 0 {
		pos := s.cursor
		if pos >= len(f) {
			pos = 0
		}
		snap.Position = pos + 1
	}
	if s.phase == PhaseAnswered && s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	if s.phase == PhasePresenting {
		if _, ok := s.current.(domain.SentenceItem); ok {
			if prev, ok := s.rec.Attempt(s.current.ItemID()); ok {
				snap.Hint = prev
			}
		}
	}
	return snap
}
