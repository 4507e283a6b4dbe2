// Package annotate decodes the two delimited mini-formats embedded in
// sentence records. Sentence decks carry a vocabulary annotation (one
// pipe-delimited gloss per line) and a grammar annotation (free-text analysis
// followed by example strings); both render under a sentence drill as
// feedback.
package annotate

import (
	"bufio"
	"strings"
)

const grammarDelimiter = "\n---\n"

// VocabEntry is one word gloss from a sentence's vocabulary annotation.
// PartOfSpeech and SinoKorean are optional trailing fields.
type VocabEntry struct {
	Word         string
	PartOfSpeech string
	SinoKorean   string
}

// Grammar is a parsed grammar annotation: analysis prose plus zero or more
// example strings.
type Grammar struct {
	Analysis string
	Examples []string
}

// ParseVocabulary reads a vocabulary annotation, one entry per line in the
// form `word|partOfSpeech|sino-KoreanReading`. Trailing fields may be
// omitted; blank lines are skipped. A pipe inside a reading is not supported,
// so everything after the second delimiter belongs to the last field.
func ParseVocabulary(s string) []VocabEntry {
	var entries []VocabEntry

	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "|", 3)
		entry := VocabEntry{Word: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			entry.PartOfSpeech = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			entry.SinoKorean = strings.TrimSpace(parts[2])
		}
		if entry.Word == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// ParseGrammar splits a grammar annotation into its analysis text and example
// strings. The first `---` line ends the analysis; every further one
// separates examples. An annotation without the delimiter is all analysis.
func ParseGrammar(s string) Grammar {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	parts := strings.Split(s, grammarDelimiter)

	g := Grammar{Analysis: strings.TrimSpace(parts[0])}
	for _, part := range parts[1:] {
		if example := strings.TrimSpace(part); example != "" {
			g.Examples = append(g.Examples, example)
		}
	}
	return g
}
