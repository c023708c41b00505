package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"musicrec/config"
	"musicrec/internal/adapter/corpus"
	"musicrec/internal/adapter/describer"
	"musicrec/internal/adapter/embedding"
	"musicrec/internal/adapter/store"
	"musicrec/internal/port"
	"musicrec/internal/usecase"
)

// openStore opens the bbolt index, creating its directory first.
func openStore(cfg *config.Config) (*store.BoltStore, error) {
	if err := cfg.EnsureDBDir(); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	st, err := store.NewBoltStore(cfg.Index.DBPath, cfg.Index.OpenTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	return st, nil
}

// newRand returns a seeded source; seed 0 means time based.
func newRand(seed int64) *rand.Rand {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(s, s>>1|1))
}

func newRecommender(cfg *config.Config, index port.VectorIndex, emb port.Embedder) *usecase.RecommendUseCase {
	return usecase.NewRecommendUseCase(index, emb, usecase.RecommendOptions{
		Collection:  cfg.Index.Collection,
		AudioPrefix: cfg.Recommend.AudioPrefix,
		FetchLimit:  cfg.Recommend.FetchLimit,
		DefaultK:    cfg.Recommend.DefaultK,
		Rand:        newRand(cfg.Recommend.Seed),
	})
}

func newReindexer(cfg *config.Config, index port.VectorIndex, emb port.Embedder) *usecase.ReindexUseCase {
	indexer := usecase.NewIndexUseCase(index, emb, usecase.IndexOptions{
		Collection:  cfg.Index.Collection,
		Dimension:   cfg.Index.Dimension,
		BatchSize:   cfg.Embedding.BatchSize,
		Concurrency: cfg.Embedding.Concurrency,
	})
	reindexer := usecase.NewReindexUseCase(
		corpus.CSVSource{Path: cfg.Corpus.CSVPath},
		describer.NewSynthesizer(newRand(cfg.Index.Seed)),
		indexer,
	)
	// A bbolt index remembers which configuration built it, whichever path
	// (CLI or HTTP) ran the reindex.
	if st, ok := index.(*store.BoltStore); ok {
		reindexer.OnIndexed(func(ctx context.Context, res *usecase.IndexResult) error {
			if err := st.Migrate(cfg); err != nil {
				return fmt.Errorf("failed to update schema info: %w", err)
			}
			return nil
		})
	}
	return reindexer
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return emb, nil
}
