package describer

import (
	"math/rand/v2"
	"sync"

	"musicrec/internal/domain"
)

// Synthesizer assigns each track a natural-language description picked
// uniformly at random from its genre's template pool. The text is what
// gets embedded, so two builds with different seeds yield different
// (equally valid) indexes.
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer uses rng for every template choice. Pass a fixed-seed
// source for reproducible descriptions.
func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	return &Synthesizer{rng: rng}
}

// Describe returns one description for genre.
func (s *Synthesizer) Describe(genre domain.Genre) string {
	pool := templates[genre]
	if len(pool) == 0 {
		return FallbackDescription
	}

	s.mu.Lock()
	i := s.rng.IntN(len(pool))
	s.mu.Unlock()

	return pool[i]
}

// DescribeAll returns a copy of tracks with Description filled in.
func (s *Synthesizer) DescribeAll(tracks []domain.Track) []domain.Track {
	out := make([]domain.Track, len(tracks))
	for i, t := range tracks {
		t.Description = s.Describe(t.Genre)
		out[i] = t
	}
	return out
}
