package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercase tokens with stopword removal.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a Tokenizer dropping the given stopwords. A nil list
// selects DefaultStopwords.
func NewTokenizer(stopwords []string) *Tokenizer {
	if stopwords == nil {
		stopwords = DefaultStopwords
	}
	m := make(map[string]struct{}, len(stopwords))
	for _, s := range stopwords {
		m[s] = struct{}{}
	}
	return &Tokenizer{stopwords: m}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := Words(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// Words splits text on anything that is not a letter, digit or apostrophe
// and lowercases the result. Diacritics are kept (tužno != tuzno).
func Words(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// DefaultStopwords holds common English and Croatian function words.
var DefaultStopwords = []string{
	// en
	"a", "an", "and", "are", "as", "at", "be", "by", "for",
	"from", "has", "in", "is", "it", "its", "of", "on",
	"that", "the", "to", "was", "with", "this", "some", "me",
	// hr
	"i", "u", "s", "sa", "na", "za", "od", "do", "je", "su",
	"se", "da", "ili", "ali", "koja", "koji", "koje", "mi",
}
