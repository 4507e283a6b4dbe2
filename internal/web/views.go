package web

import (
	"net/http"
	"time"

	"github.com/minhvt/gongbu/internal/annotate"
	"github.com/minhvt/gongbu/internal/compare"
	"github.com/minhvt/gongbu/internal/deck"
	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/quiz"
	decksync "github.com/minhvt/gongbu/internal/sync"
)

type deckRow struct {
	Category string
	Card     string
	Label    string
	Count    int
	Sentence bool
}

type decksView struct {
	Decks   []deckRow
	Message string
}

func deckRows(infos []deck.Info) []deckRow {
	rows := make([]deckRow, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, deckRow{
			Category: string(info.Scope.Category),
			Card:     info.Scope.CardID,
			Label:    info.Scope.String(),
			Count:    info.Count,
			Sentence: info.Scope.Category.Sentence(),
		})
	}
	return rows
}

// quizView is everything either drill screen needs for any phase. The
// template shows the prompt fields while presenting, the verdict fields once
// answered, and the completion block at the end.
type quizView struct {
	Session   string
	Category  string
	Card      string
	Label     string
	Sentence  bool
	WrongOnly bool

	Complete bool
	Answered bool

	Position  int
	Remaining int
	Mastered  int
	Wrong     int

	Prompt      string
	English     string
	Description string
	Hint        string

	Correct    bool
	Expected   string
	Tokens     []compare.Token
	Examples   []domain.Example
	VocabNotes []annotate.VocabEntry
	Grammar    annotate.Grammar
	HasGrammar bool

	AutoAdvanceMS int64
}

// renderQuiz renders the drill screen matching the session's deck family.
// The caller holds the session lock.
func (s *Server) renderQuiz(w http.ResponseWriter, token string, qs *quizSession, snap quiz.Snapshot) {
	view := quizView{
		Session:   token,
		Category:  string(qs.scope.Category),
		Card:      qs.scope.CardID,
		Label:     qs.scope.String(),
		Sentence:  qs.scope.Category.Sentence(),
		WrongOnly: qs.tracker.WrongOnly(),
		Complete:  snap.Phase == quiz.PhaseComplete,
		Answered:  snap.Phase == quiz.PhaseAnswered,
		Position:  snap.Position,
		Remaining: snap.Remaining,
		Mastered:  len(qs.tracker.Mastered()),
		Wrong:     len(qs.tracker.Wrong()),
		Hint:      snap.Hint,
	}

	switch it := snap.Item.(type) {
	case domain.VocabularyItem:
		view.Prompt = it.Vietnamese
		view.English = it.English
		view.Description = it.Description
		view.Examples = it.Examples
		view.Expected = it.Korean
	case domain.SentenceItem:
		view.Prompt = it.Vietnamese
		view.Expected = it.Sentence
		view.VocabNotes = annotate.ParseVocabulary(it.Vocabulary)
		view.Grammar = annotate.ParseGrammar(it.Grammar)
		view.HasGrammar = view.Grammar.Analysis != "" || len(view.Grammar.Examples) > 0
	}

	if snap.Result != nil {
		view.Correct = snap.Result.Correct
		view.Tokens = snap.Result.Tokens
	}
	if s.shouldAutoAdvance(qs, snap) {
		// The poll lands just after the server-side timer has advanced.
		view.AutoAdvanceMS = s.autoAdvance.Milliseconds() + 100
	}

	name := "check"
	if view.Sentence {
		name = "sentence"
	}
	s.render(w, name, view)
}

type flashcard struct {
	Front       string
	Back        string
	English     string
	Description string
	Examples    []domain.Example
}

type flashcardsScreen struct {
	Label    string
	Category string
	Card     string
	Cards    []flashcard
}

func flashcardsView(scope domain.Scope, items []domain.Item) flashcardsScreen {
	screen := flashcardsScreen{
		Label:    scope.String(),
		Category: string(scope.Category),
		Card:     scope.CardID,
	}
	for _, item := range items {
		switch it := item.(type) {
		case domain.VocabularyItem:
			screen.Cards = append(screen.Cards, flashcard{
				Front:       it.Vietnamese,
				Back:        it.Korean,
				English:     it.English,
				Description: it.Description,
				Examples:    it.Examples,
			})
		case domain.SentenceItem:
			screen.Cards = append(screen.Cards, flashcard{
				Front: it.Vietnamese,
				Back:  it.Sentence,
			})
		}
	}
	return screen
}

type sourceRow struct {
	ID    string
	Type  string
	Path  string
	Added string
}

type sourcesView struct {
	Sources []sourceRow
	Message string
}

func sourceRows(sources []decksync.Source) []sourceRow {
	rows := make([]sourceRow, 0, len(sources))
	for _, src := range sources {
		rows = append(rows, sourceRow{
			ID:    src.ID,
			Type:  src.Type,
			Path:  src.Path,
			Added: time.UnixMilli(src.AddedAt).Format("2006-01-02"),
		})
	}
	return rows
}
