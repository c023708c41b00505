package reranker

import (
	"math/rand/v2"
	"sort"

	"musicrec/internal/domain"
)

// CapPerGenre walks candidates in their given order and admits each one
// while fewer than limit of its genre have been admitted.
func CapPerGenre(candidates []domain.Candidate, limit int) []domain.Candidate {
	counts := make(map[domain.Genre]int)
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		g := c.Track.Genre
		if counts[g] >= limit {
			continue
		}
		out = append(out, c)
		counts[g]++
	}
	return out
}

// ExcludeGenres drops candidates whose genre is in genres.
func ExcludeGenres(candidates []domain.Candidate, genres []domain.Genre) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !hasGenre(genres, c.Track.Genre) {
			out = append(out, c)
		}
	}
	return out
}

// KeepGenres keeps only candidates whose genre is in genres.
func KeepGenres(candidates []domain.Candidate, genres []domain.Genre) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if hasGenre(genres, c.Track.Genre) {
			out = append(out, c)
		}
	}
	return out
}

// ShuffleSort randomizes order with rng and then stable-sorts by descending
// adjusted score, so equal scores come out in random order.
func ShuffleSort(candidates []domain.Candidate, rng *rand.Rand) {
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AdjustedScore > candidates[j].AdjustedScore
	})
}
