// Package sentiment maps a mood query to positive, negative or neutral.
package sentiment

import (
	"strings"

	"musicrec/internal/domain"
)

// Keyword and emoji signals always win over the computed polarity.
var (
	NegativeKeywords = []string{"tužno", "tužan", "melankolično", "žalostan", "tuga", "melankolija"}
	NegativeEmojis   = []string{"😢", "😭", "😞"}
	PositiveEmojis   = []string{"😊", "😃", "🎉", "🥳", "❤️"}
)

// PolarityThreshold is the dead band around zero that still counts as neutral.
const PolarityThreshold = 0.1

// Classifier applies the rules in order; the first match decides.
type Classifier struct {
	lexicon *Lexicon
}

// NewClassifier uses DefaultLexicon when lex is nil.
func NewClassifier(lex *Lexicon) *Classifier {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Classifier{lexicon: lex}
}

// Classify never fails; unknown input is neutral.
func (c *Classifier) Classify(text string, emotions []string) domain.Sentiment {
	lower := strings.ToLower(text)
	for _, kw := range NegativeKeywords {
		if strings.Contains(lower, kw) {
			return domain.Negative
		}
	}

	if containsAny(emotions, NegativeEmojis) {
		return domain.Negative
	}
	if containsAny(emotions, PositiveEmojis) {
		return domain.Positive
	}

	score := c.lexicon.Polarity(text)
	switch {
	case score > PolarityThreshold:
		return domain.Positive
	case score < -PolarityThreshold:
		return domain.Negative
	default:
		return domain.Neutral
	}
}

// Polarity exposes the lexicon score of text in [-1, 1].
func (c *Classifier) Polarity(text string) float64 {
	return c.lexicon.Polarity(text)
}

func containsAny(list, set []string) bool {
	for _, v := range list {
		for _, s := range set {
			if v == s {
				return true
			}
		}
	}
	return false
}
