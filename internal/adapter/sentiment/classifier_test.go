package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"musicrec/internal/domain"
)

func TestClassify_RuleOrder(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name     string
		text     string
		emotions []string
		want     domain.Sentiment
	}{
		{"negative keyword", "nešto tužno za večeras", nil, domain.Negative},
		{"keyword case insensitive", "TUŽNO i sporo", nil, domain.Negative},
		{"keyword beats positive emoji", "tužno", []string{"😊", "🥳"}, domain.Negative},
		{"keyword beats positive polarity", "happy wonderful great tužno", nil, domain.Negative},
		{"keyword as substring", "melankolija", nil, domain.Negative},
		{"negative emoji", "nešto za večeras", []string{"😞"}, domain.Negative},
		{"negative emoji beats positive emoji", "pjesma", []string{"😊", "😭"}, domain.Negative},
		{"negative emoji beats positive polarity", "happy happy", []string{"😢"}, domain.Negative},
		{"positive emoji", "pjesma", []string{"🎉"}, domain.Positive},
		{"positive emoji with variation selector", "pjesma", []string{"❤️"}, domain.Positive},
		{"positive emoji beats negative polarity", "terrible awful", []string{"😃"}, domain.Positive},
		{"positive polarity", "sretna pop pjesma", nil, domain.Positive},
		{"negative polarity", "a really depressing evening", nil, domain.Negative},
		{"neutral", "pjesma s gitarom", nil, domain.Neutral},
		{"unrelated emoji", "pjesma", []string{"🔥"}, domain.Neutral},
		{"empty", "", nil, domain.Neutral},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.text, tc.emotions))
		})
	}
}

func TestClassify_IsDeterministic(t *testing.T) {
	c := NewClassifier(nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, domain.Negative, c.Classify("tužno ali sretno", []string{"🥳"}))
	}
}

func TestPolarity(t *testing.T) {
	lex := DefaultLexicon()

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"no known words", "pjesma s gitarom", 0},
		{"single positive", "happy", 0.8},
		{"average", "happy sad", 0.15},
		{"negation flips and halves", "not happy", -0.4},
		{"croatian negation", "nije dobro", -0.3},
		{"intensifier", "very good", 0.91},
		{"clamped", "extremely wonderful", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, lex.Polarity(tc.text), 1e-9)
		})
	}
}

func TestPolarityRange(t *testing.T) {
	lex := DefaultLexicon()
	for _, text := range []string{
		"extremely extremely terrible awful miserable",
		"really really wonderful best amazing",
		"not not not",
	} {
		p := lex.Polarity(text)
		assert.GreaterOrEqual(t, p, -1.0, text)
		assert.LessOrEqual(t, p, 1.0, text)
	}
}
