package domain

import (
	"fmt"
	"strings"
)

// Category names one of the three deck families.
type Category string

const (
	CategoryVocab     Category = "vocab"
	CategoryGrammar   Category = "grammar"
	CategorySentences Category = "sentences"
)

// Categories lists every deck family in display order.
var Categories = []Category{CategoryVocab, CategoryGrammar, CategorySentences}

// ParseCategory validates a category name from user input.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryVocab, CategoryGrammar, CategorySentences:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q (want vocab, grammar or sentences)", s)
	}
}

// Sentence reports whether decks in this category hold SentenceItem values.
func (c Category) Sentence() bool { return c == CategorySentences }

// Scope identifies which sub-deck a stored record belongs to: a category plus
// an optional card (sub-deck) name. An empty CardID is the category's default
// deck.
type Scope struct {
	Category Category
	CardID   string
}

func (s Scope) String() string {
	if s.CardID == "" {
		return string(s.Category)
	}
	return string(s.Category) + ":" + s.CardID
}

// Keys builds the storage key layout for one namespace. Every persisted blob
// the tool owns lives under a single namespace prefix, mirroring the flat
// key-value surface the records were designed for.
type Keys struct {
	NS string
}

func (k Keys) join(parts ...string) string {
	return k.NS + ":" + strings.Join(parts, ":")
}

// Deck is the key of the ordered item array for a scope.
func (k Keys) Deck(s Scope) string {
	if s.CardID == "" {
		return k.join(string(s.Category))
	}
	return k.join(string(s.Category), s.CardID)
}

// DeckPrefix is the prefix shared by every named sub-deck of a category.
func (k Keys) DeckPrefix(c Category) string {
	return k.join(string(c)) + ":"
}

// Mastery is the key of the mastery record for a scope. Quiz decks keep two
// independent records, one per review mode, so wrong-only progress never
// collides with full-deck progress. Sentence decks use their own historical
// key family with a literal "all" suffix.
func (k Keys) Mastery(s Scope, wrongOnly bool) string {
	if s.Category.Sentence() {
		kind := "sentence-correct"
		if wrongOnly {
			kind = "sentence-correct-wrong"
		}
		if s.CardID == "" {
			return k.join(kind, "all")
		}
		return k.join(kind, s.CardID, "all")
	}
	kind := "check"
	if wrongOnly {
		kind = "check-wrong"
	}
	if s.CardID == "" {
		return k.join(kind, string(s.Category))
	}
	return k.join(kind, string(s.Category), s.CardID)
}

// Wrong is the key of the cumulative wrong-answer record. It is not split by
// review mode: a single history drives wrong-only replay.
func (k Keys) Wrong(s Scope) string {
	if s.CardID == "" {
		return k.join("wrong", string(s.Category))
	}
	return k.join("wrong", string(s.Category), s.CardID)
}

// WrongOnlyFlag is the key of the sentinel selecting wrong-only review mode.
func (k Keys) WrongOnlyFlag(s Scope) string {
	if s.CardID == "" {
		return k.join("check-wrong-only", string(s.Category))
	}
	return k.join("check-wrong-only", string(s.Category), s.CardID)
}

// InputHistory is the key of the last wrong free-text submission for one
// sentence item.
func (k Keys) InputHistory(s Scope, itemID string) string {
	if s.CardID == "" {
		return k.join("sentence-input-history", itemID)
	}
	return k.join("sentence-input-history", s.CardID, itemID)
}

// Sources is the key of the registered deck source list.
func (k Keys) Sources() string {
	return k.join("sources")
}
