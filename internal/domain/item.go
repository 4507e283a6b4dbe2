package domain

import (
	"slices"
	"strings"
)

// Item is a single drillable entry. Vocabulary and grammar decks hold
// VocabularyItem values; sentence decks hold SentenceItem values.
type Item interface {
	// ItemID returns the stable id, unique within a deck.
	ItemID() string
	// Target returns the Korean string the user is asked to type.
	Target() string
	// Blank reports whether the item has nothing to drill. Blank items are
	// kept in the deck but excluded from quiz candidates.
	Blank() bool
}

// Example is one parallel-language example attached to a vocabulary item.
type Example struct {
	Korean     string `json:"ko"`
	Vietnamese string `json:"vi"`
	English    string `json:"en"`
}

// Empty reports whether no language of the example is filled in.
func (e Example) Empty() bool {
	return e.Korean == "" && e.Vietnamese == "" && e.English == ""
}

// VocabularyItem is a word or grammar pattern: the Korean form to type plus
// its translations and up to two examples.
type VocabularyItem struct {
	ID          string    `json:"id"`
	Korean      string    `json:"korean"`
	Vietnamese  string    `json:"vietnamese"`
	English     string    `json:"english"`
	Description string    `json:"description,omitempty"`
	Examples    []Example `json:"examples,omitempty"`
}

func (v VocabularyItem) ItemID() string { return v.ID }
func (v VocabularyItem) Target() string { return v.Korean }

func (v VocabularyItem) Blank() bool {
	return strings.TrimSpace(v.Korean) == ""
}

// Equal reports field-for-field equality, examples included.
func (v VocabularyItem) Equal(o VocabularyItem) bool {
	return v.ID == o.ID &&
		v.Korean == o.Korean &&
		v.Vietnamese == o.Vietnamese &&
		v.English == o.English &&
		v.Description == o.Description &&
		slices.Equal(v.Examples, o.Examples)
}

// SentenceItem is a full sentence to reconstruct, with its translation and
// the raw annotation strings rendered as drill feedback.
type SentenceItem struct {
	ID         string `json:"id"`
	Sentence   string `json:"sentence"`
	Vietnamese string `json:"vietnamese"`
	Vocabulary string `json:"vocabulary,omitempty"`
	Grammar    string `json:"grammar,omitempty"`
}

func (s SentenceItem) ItemID() string { return s.ID }
func (s SentenceItem) Target() string { return s.Sentence }

func (s SentenceItem) Blank() bool {
	return strings.TrimSpace(s.Sentence) == ""
}

// Equal reports field-for-field equality.
func (s SentenceItem) Equal(o SentenceItem) bool {
	return s == o
}

// ItemsEqual reports whether two decks hold the same items in the same order.
// Progress records are only meaningful against a stable item set, so deck
// imports use this to decide whether to invalidate them.
func ItemsEqual(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch av := a[i].(type) {
		case VocabularyItem:
			bv, ok := b[i].(VocabularyItem)
			if !ok || !av.Equal(bv) {
				return false
			}
		case SentenceItem:
			bs, ok := b[i].(SentenceItem)
			if !ok || !av.Equal(bs) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
