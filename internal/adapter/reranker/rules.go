package reranker

import (
	"strings"

	"musicrec/internal/domain"
)

// RuleKind says which query signal a rule reads.
type RuleKind int

const (
	// SentimentRule fires once when the query sentiment matches.
	SentimentRule RuleKind = iota
	// EmotionRule fires once per matching emoji in the query.
	EmotionRule
	// InstrumentRule fires once per matching instrument (case-insensitive).
	InstrumentRule
)

// Rule adds Delta to a candidate whose genre is in Genres when its
// condition holds.
type Rule struct {
	Name      string
	Kind      RuleKind
	Sentiment domain.Sentiment // SentimentRule only
	Signals   []string         // EmotionRule / InstrumentRule
	Genres    []domain.Genre
	Delta     float64
}

// Signal carries the per-query inputs the rules look at.
type Signal struct {
	Sentiment   domain.Sentiment
	Emotions    []string
	Instruments []string
}

// RuleSet is an ordered table of additive score rules.
//
// Within a kind, each emoji or instrument is credited by at most one rule,
// the first that lists it and covers the genre. Every occurrence in the
// query counts; duplicates are not collapsed.
type RuleSet struct {
	rules []Rule
}

func NewRuleSet(rules ...Rule) *RuleSet {
	return &RuleSet{rules: rules}
}

// Rules returns a copy of the table.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Delta sums the adjustments for one candidate genre.
func (rs *RuleSet) Delta(sig Signal, genre domain.Genre) float64 {
	var delta float64

	for _, r := range rs.rules {
		if r.Kind == SentimentRule && r.Sentiment == sig.Sentiment && hasGenre(r.Genres, genre) {
			delta += r.Delta
		}
	}
	for _, e := range sig.Emotions {
		delta += rs.signalDelta(EmotionRule, e, genre)
	}
	for _, instr := range sig.Instruments {
		delta += rs.signalDelta(InstrumentRule, strings.ToLower(instr), genre)
	}

	return delta
}

func (rs *RuleSet) signalDelta(kind RuleKind, value string, genre domain.Genre) float64 {
	for _, r := range rs.rules {
		if r.Kind != kind || !hasSignal(r.Signals, value) {
			continue
		}
		if hasGenre(r.Genres, genre) {
			return r.Delta
		}
	}
	return 0
}

func hasGenre(list []domain.Genre, g domain.Genre) bool {
	for _, v := range list {
		if v == g {
			return true
		}
	}
	return false
}

func hasSignal(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultRules is the production rule table.
func DefaultRules() *RuleSet {
	return NewRuleSet(
		Rule{
			Name:      "positive-upbeat-genres",
			Kind:      SentimentRule,
			Sentiment: domain.Positive,
			Genres:    []domain.Genre{domain.Pop, domain.Disco, domain.Country},
			Delta:     0.8,
		},
		Rule{
			Name:      "negative-mellow-genres",
			Kind:      SentimentRule,
			Sentiment: domain.Negative,
			Genres:    []domain.Genre{domain.Blues, domain.Jazz, domain.Classical},
			Delta:     1.0,
		},
		Rule{
			Name:      "negative-heavy-genres",
			Kind:      SentimentRule,
			Sentiment: domain.Negative,
			Genres:    []domain.Genre{domain.Rock, domain.Metal, domain.HipHop},
			Delta:     -2.0,
		},
		Rule{
			Name:    "happy-emoji",
			Kind:    EmotionRule,
			Signals: []string{"😊", "😃", "🥳"},
			Genres:  []domain.Genre{domain.Pop, domain.Disco, domain.Rock},
			Delta:   0.15,
		},
		Rule{
			Name:    "crying-emoji",
			Kind:    EmotionRule,
			Signals: []string{"😢", "😭"},
			Genres:  []domain.Genre{domain.Blues, domain.Jazz, domain.Classical},
			Delta:   0.15,
		},
		Rule{
			Name:    "cool-emoji",
			Kind:    EmotionRule,
			Signals: []string{"🔥", "😎"},
			Genres:  []domain.Genre{domain.Rock, domain.Metal},
			Delta:   0.15,
		},
		Rule{
			Name:    "guitar",
			Kind:    InstrumentRule,
			Signals: []string{"guitar", "gitara", "el.gitara"},
			Genres:  []domain.Genre{domain.Rock, domain.Metal, domain.Country},
			Delta:   0.15,
		},
		Rule{
			Name:    "piano",
			Kind:    InstrumentRule,
			Signals: []string{"piano", "klavir"},
			Genres:  []domain.Genre{domain.Classical, domain.Jazz},
			Delta:   0.15,
		},
	)
}
