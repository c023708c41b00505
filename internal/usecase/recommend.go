package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path"
	"strings"
	"sync"
	"time"

	"musicrec/internal/adapter/reranker"
	"musicrec/internal/adapter/sentiment"
	"musicrec/internal/domain"
	"musicrec/internal/logging"
	"musicrec/internal/metrics"
	"musicrec/internal/port"
)

const (
	// FetchLimit is how many nearest tracks are pulled per query. Filtering
	// and the fallback work on this set; the index is never queried twice.
	FetchLimit = 50

	// DefaultK is used when the caller asks for k <= 0 and no other default
	// was configured.
	DefaultK = 5

	// MaxPerGenre caps any single genre in the working set.
	MaxPerGenre = 2

	// MinNegativeResults is the size below which negative queries fall back.
	MinNegativeResults = 3
)

var (
	// NegativeExcluded genres are removed from negative-sentiment results.
	NegativeExcluded = []domain.Genre{domain.Pop, domain.Disco, domain.Rock, domain.Metal, domain.HipHop}

	// NegativeFallback genres are all a negative query falls back to.
	NegativeFallback = []domain.Genre{domain.Blues, domain.Jazz, domain.Classical}
)

// RecommendUseCase turns a mood query into a ranked, genre-diverse list.
type RecommendUseCase struct {
	index       port.VectorIndex
	embedder    port.Embedder
	classifier  *sentiment.Classifier
	rules       *reranker.RuleSet
	collection  string
	audioPrefix string
	fetchLimit  int
	defaultK    int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// RecommendOptions configures a RecommendUseCase. Zero values pick defaults.
type RecommendOptions struct {
	Collection  string
	AudioPrefix string
	FetchLimit  int
	DefaultK    int
	Rules       *reranker.RuleSet
	Classifier  *sentiment.Classifier
	// Rand orders ties. Seed it for reproducible output.
	Rand *rand.Rand
}

// NewRecommendUseCase creates a new recommend use case.
func NewRecommendUseCase(index port.VectorIndex, embedder port.Embedder, opts RecommendOptions) *RecommendUseCase {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = FetchLimit
	}
	if opts.DefaultK <= 0 {
		opts.DefaultK = DefaultK
	}
	if opts.Rules == nil {
		opts.Rules = reranker.DefaultRules()
	}
	if opts.Classifier == nil {
		opts.Classifier = sentiment.NewClassifier(nil)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if opts.AudioPrefix == "" {
		opts.AudioPrefix = "/audio"
	}

	return &RecommendUseCase{
		index:       index,
		embedder:    embedder,
		classifier:  opts.Classifier,
		rules:       opts.Rules,
		collection:  opts.Collection,
		audioPrefix: strings.TrimRight(opts.AudioPrefix, "/"),
		fetchLimit:  opts.FetchLimit,
		defaultK:    opts.DefaultK,
		rng:         opts.Rand,
	}
}

// RecommendResult is a ranked list plus how it was produced.
type RecommendResult struct {
	Sentiment       domain.Sentiment
	Fallback        bool
	Candidates      []domain.Candidate
	Recommendations []domain.Recommendation
}

// Recommend returns at most k recommendations for q.
func (u *RecommendUseCase) Recommend(ctx context.Context, q domain.Query, k int) ([]domain.Recommendation, error) {
	res, err := u.Explain(ctx, q, k)
	if err != nil {
		return nil, err
	}
	return res.Recommendations, nil
}

// Explain runs the full pipeline and keeps the intermediate decisions.
func (u *RecommendUseCase) Explain(ctx context.Context, q domain.Query, k int) (*RecommendResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(q.Text) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k <= 0 {
		k = u.defaultK
	}

	mood := u.classifier.Classify(q.Text, q.Emotions)
	metrics.RecommendRequests.WithLabelValues(string(mood)).Inc()

	retrieved, err := u.retrieve(ctx, q.Text)
	if err != nil {
		metrics.RecommendErrors.Inc()
		return nil, err
	}

	log := logging.Ctx(ctx)
	sig := reranker.Signal{
		Sentiment:   mood,
		Emotions:    q.Emotions,
		Instruments: q.Instruments,
	}
	for i := range retrieved {
		c := &retrieved[i]
		c.AdjustedScore = c.Similarity + u.rules.Delta(sig, c.Track.Genre)
		log.Debug().
			Str("genre", string(c.Track.Genre)).
			Float64("base", c.Similarity).
			Float64("adjusted", c.AdjustedScore).
			Msg("scored candidate")
	}

	working := reranker.CapPerGenre(retrieved, MaxPerGenre)

	fallback := false
	if mood == domain.Negative {
		working = reranker.ExcludeGenres(working, NegativeExcluded)
		if len(working) < MinNegativeResults {
			fallback = true
			metrics.RecommendFallbacks.Inc()
			working = reranker.KeepGenres(retrieved, NegativeFallback)
			for i := range working {
				working[i].AdjustedScore = working[i].Similarity
			}
		}
	}

	u.rngMu.Lock()
	reranker.ShuffleSort(working, u.rng)
	u.rngMu.Unlock()

	if len(working) > k {
		working = working[:k]
	}

	recs := make([]domain.Recommendation, len(working))
	for i, c := range working {
		recs[i] = u.project(c)
	}

	log.Info().
		Str("sentiment", string(mood)).
		Bool("fallback", fallback).
		Int("retrieved", len(retrieved)).
		Int("returned", len(recs)).
		Msg("recommendation served")

	return &RecommendResult{
		Sentiment:       mood,
		Fallback:        fallback,
		Candidates:      working,
		Recommendations: recs,
	}, nil
}

// retrieve embeds text and fetches the nearest tracks of the active collection.
func (u *RecommendUseCase) retrieve(ctx context.Context, text string) ([]domain.Candidate, error) {
	embeddings, err := u.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	hits, err := u.index.Search(ctx, u.collection, embeddings[0], u.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, domain.Candidate{
			Track: domain.Track{
				ID:          h.ID,
				Filename:    h.Payload.Filename,
				Genre:       domain.Genre(h.Payload.Genre),
				FilePath:    h.Payload.FilePath,
				Description: h.Payload.Description,
			},
			Similarity: h.Score,
		})
	}
	return candidates, nil
}

func (u *RecommendUseCase) project(c domain.Candidate) domain.Recommendation {
	return domain.Recommendation{
		Filename:      c.Track.Filename,
		AudioURL:      u.AudioURL(c.Track.FilePath),
		Genre:         c.Track.Genre,
		Description:   c.Track.Description,
		AdjustedScore: c.AdjustedScore,
	}
}

// AudioURL maps a stored file path to the path the audio server exposes.
func (u *RecommendUseCase) AudioURL(filePath string) string {
	return u.audioPrefix + "/" + path.Clean(strings.TrimLeft(filePath, "/"))
}
