package annotate

import (
	"reflect"
	"testing"
)

func TestParseVocabulary(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []VocabEntry
	}{
		{
			name:  "full entry",
			input: "학교|noun|學校",
			expected: []VocabEntry{
				{Word: "학교", PartOfSpeech: "noun", SinoKorean: "學校"},
			},
		},
		{
			name:  "trailing fields optional",
			input: "가다|verb\n나",
			expected: []VocabEntry{
				{Word: "가다", PartOfSpeech: "verb"},
				{Word: "나"},
			},
		},
		{
			name:  "multiple entries with blank lines",
			input: "학교|noun|學校\n\n가다|verb\n",
			expected: []VocabEntry{
				{Word: "학교", PartOfSpeech: "noun", SinoKorean: "學校"},
				{Word: "가다", PartOfSpeech: "verb"},
			},
		},
		{
			name:  "fields are trimmed",
			input: " 학교 | noun | 學校 ",
			expected: []VocabEntry{
				{Word: "학교", PartOfSpeech: "noun", SinoKorean: "學校"},
			},
		},
		{
			name:     "entry without a word is dropped",
			input:    "|noun|學校",
			expected: nil,
		},
		{
			name:     "empty annotation",
			input:    "",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseVocabulary(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("ParseVocabulary(%q) = %+v, want %+v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseGrammar(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Grammar
	}{
		{
			name:  "analysis with two examples",
			input: "-(으)ㄹ 거예요: future tense\n---\n내일 갈 거예요\n---\n비가 올 거예요",
			expected: Grammar{
				Analysis: "-(으)ㄹ 거예요: future tense",
				Examples: []string{"내일 갈 거예요", "비가 올 거예요"},
			},
		},
		{
			name:     "analysis only",
			input:    "은/는: topic marker",
			expected: Grammar{Analysis: "은/는: topic marker"},
		},
		{
			name:  "multiline analysis",
			input: "first line\nsecond line\n---\nexample",
			expected: Grammar{
				Analysis: "first line\nsecond line",
				Examples: []string{"example"},
			},
		},
		{
			name:  "windows line endings",
			input: "analysis\r\n---\r\nexample",
			expected: Grammar{
				Analysis: "analysis",
				Examples: []string{"example"},
			},
		},
		{
			name:  "empty example segments dropped",
			input: "analysis\n---\n\n---\nexample",
			expected: Grammar{
				Analysis: "analysis",
				Examples: []string{"example"},
			},
		},
		{
			name:     "empty annotation",
			input:    "",
			expected: Grammar{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseGrammar(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("ParseGrammar(%q) = %+v, want %+v", tc.input, got, tc.expected)
			}
		})
	}
}
