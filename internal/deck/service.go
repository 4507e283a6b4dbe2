// Package deck owns the stored decks: loading and saving the item arrays,
// listing what exists, and the CSV import/export operations around them.
// Progress bookkeeping is delegated to the ledger; the one rule enforced here
// is that a deck-changing import resets the progress recorded against the old
// deck.
package deck

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minhvt/gongbu/internal/csvio"
	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/progress"
	"github.com/minhvt/gongbu/internal/storage"
)

// Service reads and writes decks for one namespace.
type Service struct {
	store  storage.Store
	keys   domain.Keys
	ledger *progress.Ledger
}

func NewService(store storage.Store, keys domain.Keys, ledger *progress.Ledger) *Service {
	return &Service{store: store, keys: keys, ledger: ledger}
}

// Load returns the deck for a scope, or nil when absent. An unreadable deck
// reads as empty but is left in place; deck content is never auto-deleted.
func (s *Service) Load(scope domain.Scope) []domain.Item {
	raw, ok := s.store.Get(s.keys.Deck(scope))
	if !ok {
		return nil
	}
	items, err := decodeItems(scope.Category, raw)
	if err != nil {
		slog.Warn("deck is unreadable, treating as empty", "scope", scope.String(), "error", err)
		return nil
	}
	return items
}

// Save overwrites the deck for a scope.
func (s *Service) Save(scope domain.Scope, items []domain.Item) {
	raw, err := encodeItems(scope.Category, items)
	if err != nil {
		slog.Error("deck encode failed, nothing saved", "scope", scope.String(), "error", err)
		return
	}
	s.store.Set(s.keys.Deck(scope), raw)
}

// Delete removes a deck together with all progress recorded against it,
// including the wrong-only mode selection.
func (s *Service) Delete(scope domain.Scope) {
	ids := itemIDs(s.Load(scope))
	s.store.Delete(s.keys.Deck(scope))
	s.ledger.Invalidate(scope, ids)
	s.ledger.SetWrongOnly(scope, false)
}

// Info describes one stored deck.
type Info struct {
	Scope domain.Scope
	Count int
}

// List returns every stored deck in display order: each category's default
// deck first, then its named sub-decks sorted by card id.
func (s *Service) List() []Info {
	var infos []Info
	for _, c := range domain.Categories {
		scope := domain.Scope{Category: c}
		if _, ok := s.store.Get(s.keys.Deck(scope)); ok {
			infos = append(infos, Info{Scope: scope, Count: len(s.Load(scope))})
		}
		prefix := s.keys.DeckPrefix(c)
		for _, key := range s.store.Keys(prefix) {
			sub := domain.Scope{Category: c, CardID: strings.TrimPrefix(key, prefix)}
			infos = append(infos, Info{Scope: sub, Count: len(s.Load(sub))})
		}
	}
	return infos
}

// ImportResult summarizes one CSV import.
type ImportResult struct {
	Imported int // rows read from the file
	Added    int
	Updated  int
	Total    int  // merged deck size
	Changed  bool // deck content changed and progress was reset
}

// Import merges a CSV file into the stored deck: rows with a known id
// overwrite that item in place, new ids append in file order. When the merged
// deck differs from what was stored, the deck is saved and every progress
// record for the scope is invalidated; an import that changes nothing leaves
// progress untouched.
func (s *Service) Import(scope domain.Scope, r io.Reader) (ImportResult, error) {
	incoming, err := csvio.ReadItems(r, scope.Category)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import into %s: %w", scope.String(), err)
	}

	current := s.Load(scope)
	merged, added, updated := merge(current, incoming)

	res := ImportResult{
		Imported: len(incoming),
		Added:    added,
		Updated:  updated,
		Total:    len(merged),
	}
	if !domain.ItemsEqual(current, merged) {
		s.Save(scope, merged)
		s.ledger.Invalidate(scope, itemIDs(merged))
		res.Changed = true
	}
	return res, nil
}

// Export writes the deck as CSV and reports how many items it held.
func (s *Service) Export(scope domain.Scope, w io.Writer) (int, error) {
	items := s.Load(scope)
	if err := csvio.WriteItems(w, scope.Category, items); err != nil {
		return 0, fmt.Errorf("export %s: %w", scope.String(), err)
	}
	return len(items), nil
}

func merge(current, incoming []domain.Item) (merged []domain.Item, added, updated int) {
	merged = make([]domain.Item, len(current))
	copy(merged, current)

	position := make(map[string]int, len(merged))
	for i, it := range merged {
		position[it.ItemID()] = i
	}

	for _, it := range incoming {
		if i, ok := position[it.ItemID()]; ok {
			merged[i] = it
			updated++
			continue
		}
		position[it.ItemID()] = len(merged)
		merged = append(merged, it)
		added++
	}
	return merged, added, updated
}

func itemIDs(items []domain.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ItemID())
	}
	return ids
}

func decodeItems(category domain.Category, raw string) ([]domain.Item, error) {
	if category.Sentence() {
		var sentences []domain.SentenceItem
		if err := json.Unmarshal([]byte(raw), &sentences); err != nil {
			return nil, err
		}
		items := make([]domain.Item, 0, len(sentences))
		for _, s := range sentences {
			items = append(items, s)
		}
		return items, nil
	}

	var words []domain.VocabularyItem
	if err := json.Unmarshal([]byte(raw), &words); err != nil {
		return nil, err
	}
	items := make([]domain.Item, 0, len(words))
	for _, v := range words {
		items = append(items, v)
	}
	return items, nil
}

func encodeItems(category domain.Category, items []domain.Item) (string, error) {
	if category.Sentence() {
		sentences := make([]domain.SentenceItem, 0, len(items))
		for _, it := range items {
			s, ok := it.(domain.SentenceItem)
			if !ok {
				return "", fmt.Errorf("item %q is not a sentence item", it.ItemID())
			}
			sentences = append(sentences, s)
		}
		raw, err := json.Marshal(sentences)
		return string(raw), err
	}

	words := make([]domain.VocabularyItem, 0, len(items))
	for _, it := range items {
		v, ok := it.(domain.VocabularyItem)
		if !ok {
			return "", fmt.Errorf("item %q is not a vocabulary item", it.ItemID())
		}
		words = append(words, v)
	}
	raw, err := json.Marshal(words)
	return string(raw), err
}
