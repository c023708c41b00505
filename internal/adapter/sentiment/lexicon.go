package sentiment

import (
	"musicrec/internal/adapter/analyzer"
)

// Lexicon scores text by averaging the polarity of the words it knows.
// A negator flips and halves the next polar word; an intensifier scales it.
type Lexicon struct {
	polarity     map[string]float64
	intensifiers map[string]float64
	negators     map[string]struct{}
}

// NewLexicon builds a lexicon from word polarities in [-1, 1].
func NewLexicon(polarity map[string]float64, intensifiers map[string]float64, negators []string) *Lexicon {
	neg := make(map[string]struct{}, len(negators))
	for _, n := range negators {
		neg[n] = struct{}{}
	}
	return &Lexicon{
		polarity:     polarity,
		intensifiers: intensifiers,
		negators:     neg,
	}
}

// Polarity returns the mean polarity of the scored words, clamped to [-1, 1].
// Text with no known words scores 0.
func (l *Lexicon) Polarity(text string) float64 {
	var sum float64
	var n int

	negate := false
	scale := 1.0
	for _, w := range analyzer.Words(text) {
		if _, ok := l.negators[w]; ok {
			negate = true
			continue
		}
		if m, ok := l.intensifiers[w]; ok {
			scale *= m
			continue
		}

		p, ok := l.polarity[w]
		if !ok {
			continue
		}
		p *= scale
		if negate {
			p *= -0.5
		}
		sum += clamp(p)
		n++
		negate = false
		scale = 1.0
	}

	if n == 0 {
		return 0
	}
	return clamp(sum / float64(n))
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// DefaultLexicon covers everyday English mood words and their Croatian
// counterparts used by the web client.
func DefaultLexicon() *Lexicon {
	return NewLexicon(defaultPolarity, defaultIntensifiers, defaultNegators)
}

var defaultPolarity = map[string]float64{
	// en positive
	"happy": 0.8, "joyful": 0.8, "cheerful": 0.8, "good": 0.7, "great": 0.8,
	"love": 0.5, "lovely": 0.5, "fun": 0.3, "upbeat": 0.6, "energetic": 0.4,
	"bright": 0.7, "sunny": 0.6, "excited": 0.4, "amazing": 0.6, "beautiful": 0.85,
	"calm": 0.3, "relaxing": 0.4, "peaceful": 0.5, "party": 0.4, "dance": 0.3,
	"wonderful": 1.0, "best": 1.0, "nice": 0.6, "positive": 0.2, "celebrate": 0.5,
	// en negative
	"sad": -0.5, "unhappy": -0.6, "depressed": -0.7, "depressing": -0.7, "lonely": -0.5,
	"angry": -0.5, "dark": -0.15, "gloomy": -0.6, "bad": -0.7, "terrible": -1.0,
	"awful": -1.0, "cry": -0.4, "crying": -0.4, "heartbroken": -0.8, "miserable": -1.0,
	"melancholic": -0.5, "melancholy": -0.5, "tired": -0.4, "boring": -1.0, "hate": -0.8,
	// hr positive
	"sretan": 0.8, "sretna": 0.8, "sretno": 0.8, "vesel": 0.7, "vesela": 0.7,
	"veselo": 0.7, "radostan": 0.8, "radosna": 0.8, "dobar": 0.6, "dobra": 0.6,
	"dobro": 0.6, "lijep": 0.6, "lijepa": 0.6, "lijepo": 0.6, "super": 0.7,
	"odličan": 0.9, "odlična": 0.9, "odlično": 0.9, "opušten": 0.4, "opuštena": 0.4,
	"opušteno": 0.4, "mirno": 0.3, "mirna": 0.3, "ljubav": 0.5, "zabava": 0.4,
	"plesna": 0.3, "energična": 0.4, "optimistična": 0.6, "vedra": 0.6, "vedro": 0.6,
	// hr negative
	"tužna": -0.6, "loš": -0.7, "loša": -0.7, "loše": -0.7, "ljut": -0.5,
	"ljuta": -0.5, "usamljen": -0.5, "usamljena": -0.5, "depresivan": -0.7, "depresivna": -0.7,
	"umoran": -0.4, "umorna": -0.4, "mračna": -0.3, "mračno": -0.3, "plač": -0.4,
	"bijesan": -0.6, "bijesna": -0.6, "očajan": -0.8, "očajna": -0.8, "dosadno": -0.8,
}

var defaultIntensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "so": 1.2, "extremely": 1.5,
	"jako": 1.3, "vrlo": 1.3, "baš": 1.2, "izuzetno": 1.5, "strašno": 1.4,
}

var defaultNegators = []string{
	"not", "no", "never", "don't", "isn't", "wasn't", "aren't", "nothing",
	"ne", "nije", "nisam", "nismo", "nisu", "nikad", "nimalo", "bez",
}
