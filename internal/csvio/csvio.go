// Package csvio reads and writes deck CSV files. Import is deliberately
// tolerant of spreadsheet output: headers match case-insensitively, missing
// ids are synthesized, rows with no content are dropped and short rows read
// as empty cells. Export is strict so that an exported file round-trips
// through the same importer unchanged.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minhvt/gongbu/internal/domain"
)

var vocabColumns = []string{
	"id", "korean", "vietnamese", "english", "description",
	"example1_ko", "example1_vi", "example1_en",
	"example2_ko", "example2_vi", "example2_en",
}

var sentenceColumns = []string{"id", "sentence", "vietnamese", "vocabulary", "grammar"}

// answerColumn is the one column an import cannot do without.
func answerColumn(c domain.Category) string {
	if c.Sentence() {
		return "sentence"
	}
	return "korean"
}

func columns(c domain.Category) []string {
	if c.Sentence() {
		return sentenceColumns
	}
	return vocabColumns
}

// ReadItems parses a deck CSV for the given category. The header row is
// required and must contain the category's answer column; anything else about
// it is forgiven. Rows whose drill-relevant cells are all empty are skipped.
func ReadItems(r io.Reader, category domain.Category) ([]domain.Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv has no header row")
	}

	index := headerIndex(records[0])
	if _, ok := index[answerColumn(category)]; !ok {
		return nil, fmt.Errorf("csv is missing the %q column", answerColumn(category))
	}

	stamp := time.Now().UnixMilli()
	var items []domain.Item
	for i, row := range records[1:] {
		cell := func(name string) string {
			col, ok := index[name]
			if !ok || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}

		id := cell("id")
		if id == "" {
			id = fmt.Sprintf("%d-%d", stamp, i)
		}

		if category.Sentence() {
			item := domain.SentenceItem{
				ID:         id,
				Sentence:   cell("sentence"),
				Vietnamese: cell("vietnamese"),
				Vocabulary: cell("vocabulary"),
				Grammar:    cell("grammar"),
			}
			if item.Sentence == "" && item.Vietnamese == "" && item.Vocabulary == "" && item.Grammar == "" {
				continue
			}
			items = append(items, item)
			continue
		}

		item := domain.VocabularyItem{
			ID:          id,
			Korean:      cell("korean"),
			Vietnamese:  cell("vietnamese"),
			English:     cell("english"),
			Description: cell("description"),
		}
		for _, n := range []string{"1", "2"} {
			ex := domain.Example{
				Korean:     cell("example" + n + "_ko"),
				Vietnamese: cell("example" + n + "_vi"),
				English:    cell("example" + n + "_en"),
			}
			if !ex.Empty() {
				item.Examples = append(item.Examples, ex)
			}
		}
		if item.Korean == "" && item.Vietnamese == "" && item.English == "" &&
			item.Description == "" && len(item.Examples) == 0 {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// headerIndex maps lowercased column names to their position. The first
// occurrence of a duplicated name wins.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return index
}

// WriteItems writes a deck CSV: the fixed header unquoted, then one fully
// quoted row per item, lines ending in a bare newline. The writer is
// hand-rolled because encoding/csv quotes only when it must, and the format
// these files have always used quotes every data cell.
func WriteItems(w io.Writer, category domain.Category, items []domain.Item) error {
	var b strings.Builder
	b.WriteString(strings.Join(columns(category), ","))
	b.WriteByte('\n')

	for _, it := range items {
		row, err := rowFor(category, it)
		if err != nil {
			return err
		}
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func rowFor(category domain.Category, it domain.Item) ([]string, error) {
	if category.Sentence() {
		s, ok := it.(domain.SentenceItem)
		if !ok {
			return nil, fmt.Errorf("item %q is not a sentence item", it.ItemID())
		}
		return []string{s.ID, s.Sentence, s.Vietnamese, s.Vocabulary, s.Grammar}, nil
	}

	v, ok := it.(domain.VocabularyItem)
	if !ok {
		return nil, fmt.Errorf("item %q is not a vocabulary item", it.ItemID())
	}
	var ex1, ex2 domain.Example
	if len(v.Examples) > 0 {
		ex1 = v.Examples[0]
	}
	if len(v.Examples) > 1 {
		ex2 = v.Examples[1]
	}
	return []string{
		v.ID, v.Korean, v.Vietnamese, v.English, v.Description,
		ex1.Korean, ex1.Vietnamese, ex1.English,
		ex2.Korean, ex2.Vietnamese, ex2.English,
	}, nil
}
