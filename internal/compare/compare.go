// Package compare decides whether a typed answer matches its target. All
// functions are pure; the quiz session owns what happens to the verdict.
package compare

import "strings"

// normalize cleans one side of a vocabulary comparison. Deck content written
// in spreadsheets often carries a literal backslash-n where a line break is
// meant, so those become real newlines before comparing.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `\n`, "\n")
	return s
}

// Vocabulary reports whether the user's input matches the target word or
// pattern: exact equality after trimming, lowercasing and newline
// normalization on both sides. No partial credit.
func Vocabulary(input, target string) bool {
	return normalize(input) == normalize(target)
}

// Token is one position of a sentence comparison. Text is the user's word at
// that position, empty when the user supplied fewer words than the target.
type Token struct {
	Text    string
	Correct bool
}

// stripPunct removes sentence punctuation so that "간다." and "간다" compare
// equal.
func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ';', ':':
			return -1
		}
		return r
	}, s)
}

// Sentence compares the user's input against the target sentence word by
// word. Both sides are stripped of punctuation and split on whitespace runs;
// position i of the input is compared with position i of the target,
// case-insensitively. A missing word is an incorrect empty token; an extra
// word is always incorrect. The comparison is strictly positional: one
// inserted or dropped word shifts everything after it out of alignment, which
// is the intended precision trade-off, not a bug.
func Sentence(input, target string) []Token {
	inputWords := strings.Fields(stripPunct(input))
	targetWords := strings.Fields(stripPunct(target))

	n := len(targetWords)
	if len(inputWords) > n {
		n = len(inputWords)
	}

	tokens := make([]Token, 0, n)
	for i := 0; i < n; i++ {
		var in, want string
		if i < len(inputWords) {
			in = inputWords[i]
		}
		if i < len(targetWords) {
			want = targetWords[i]
		}
		tokens = append(tokens, Token{
			Text:    in,
			Correct: in != "" && want != "" && strings.EqualFold(in, want),
		})
	}
	return tokens
}

// SentenceCorrect reports whether a Sentence comparison is fully correct:
// every position matched and at least one word was compared. Empty input
// against a non-empty target is never correct.
func SentenceCorrect(tokens []Token) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !t.Correct {
			return false
		}
	}
	return true
}
