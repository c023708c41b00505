package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"musicrec/internal/domain"
	"musicrec/internal/logging"
	"musicrec/internal/metrics"
	"musicrec/internal/port"
)

// IndexUseCase embeds track descriptions and publishes them as the active
// collection.
type IndexUseCase struct {
	index       port.VectorIndex
	embedder    port.Embedder
	collection  string
	dimension   int
	batchSize   int
	concurrency int
}

// IndexOptions configures an IndexUseCase.
type IndexOptions struct {
	Collection  string
	Dimension   int
	BatchSize   int
	Concurrency int
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(index port.VectorIndex, embedder port.Embedder, opts IndexOptions) *IndexUseCase {
	if opts.Dimension <= 0 {
		opts.Dimension = embedder.Dimension()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &IndexUseCase{
		index:       index,
		embedder:    embedder,
		collection:  opts.Collection,
		dimension:   opts.Dimension,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	Collection    string
	Version       string
	TracksIndexed int
	Duration      time.Duration
}

// ProgressFunc is called after each embedded batch.
type ProgressFunc func(processed, total int)

// Index replaces the collection with the given tracks. Tracks must already
// carry descriptions. Nothing is written unless every track is valid and
// every embedding succeeds.
func (u *IndexUseCase) Index(ctx context.Context, tracks []domain.Track, progress ProgressFunc) (*IndexResult, error) {
	start := time.Now()

	result, err := u.build(ctx, tracks, progress)
	metrics.ReindexDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ReindexRuns.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.ReindexRuns.WithLabelValues("ok").Inc()
	metrics.IndexedTracks.Set(float64(result.TracksIndexed))

	result.Duration = time.Since(start)
	logging.Ctx(ctx).Info().
		Str("collection", result.Collection).
		Str("version", result.Version).
		Int("tracks", result.TracksIndexed).
		Dur("duration", result.Duration).
		Msg("collection replaced")

	return result, nil
}

func (u *IndexUseCase) build(ctx context.Context, tracks []domain.Track, progress ProgressFunc) (*IndexResult, error) {
	if err := ValidateTracks(tracks); err != nil {
		return nil, err
	}

	texts := make([]string, len(tracks))
	for i, t := range tracks {
		texts[i] = t.Description
	}

	vectors, err := u.embed(ctx, texts, progress)
	if err != nil {
		return nil, err
	}

	entries := make([]port.IndexEntry, len(tracks))
	for i, t := range tracks {
		if len(vectors[i]) != u.dimension {
			return nil, fmt.Errorf("%w: model %s returned %d, index expects %d",
				domain.ErrDimensionMismatch, u.embedder.ModelName(), len(vectors[i]), u.dimension)
		}
		entries[i] = port.IndexEntry{
			ID:     t.ID,
			Vector: vectors[i],
			Payload: port.Payload{
				Filename:    t.Filename,
				Genre:       string(t.Genre),
				Description: t.Description,
				FilePath:    t.FilePath,
			},
		}
	}

	info, err := u.index.ReplaceCollection(ctx, u.collection, u.dimension, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to replace collection: %w", err)
	}

	return &IndexResult{
		Collection:    info.Name,
		Version:       info.Version,
		TracksIndexed: info.Count,
	}, nil
}

// embed runs batches concurrently and returns vectors in input order.
func (u *IndexUseCase) embed(ctx context.Context, texts []string, progress ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	var (
		progressMu sync.Mutex
		done       int
	)

	for start := 0; start < len(texts); start += u.batchSize {
		end := min(start+u.batchSize, len(texts))

		g.Go(func() error {
			batch, err := u.embedder.Embed(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embedding batch %d-%d failed: %w", start, end, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("embedding batch %d-%d returned %d vectors", start, end, len(batch))
			}
			copy(vectors[start:end], batch)

			progressMu.Lock()
			done += end - start
			if progress != nil {
				progress(done, len(texts))
			}
			progressMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// ValidateTracks checks the fields every indexed track needs.
func ValidateTracks(tracks []domain.Track) error {
	for i, t := range tracks {
		var missing []string
		if t.Filename == "" {
			missing = append(missing, "filename")
		}
		if t.Genre == "" {
			missing = append(missing, "label")
		}
		if t.FilePath == "" {
			missing = append(missing, "filepath")
		}
		if strings.TrimSpace(t.Description) == "" {
			missing = append(missing, "description")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: track %d (row %d) has no %s",
				domain.ErrMissingField, t.ID, i+1, strings.Join(missing, ", "))
		}
	}
	return nil
}

// ReindexUseCase is the full pipeline behind a reindex: load the corpus,
// describe every track, embed and swap the collection in. Only one run is
// allowed at a time.
type ReindexUseCase struct {
	source    port.TrackSource
	describer port.Describer
	indexer   *IndexUseCase
	onIndexed func(ctx context.Context, result *IndexResult) error
	running   sync.Mutex
}

// ErrReindexRunning is returned by TryReindex while another run is active.
var ErrReindexRunning = errors.New("reindex already running")

func NewReindexUseCase(source port.TrackSource, describer port.Describer, indexer *IndexUseCase) *ReindexUseCase {
	return &ReindexUseCase{
		source:    source,
		describer: describer,
		indexer:   indexer,
	}
}

// OnIndexed registers fn to run after every successful swap, still inside
// the single-flight section. An error from fn fails the reindex, although
// the new collection is already active.
func (u *ReindexUseCase) OnIndexed(fn func(ctx context.Context, result *IndexResult) error) {
	u.onIndexed = fn
}

// Reindex waits for any running reindex and then runs one.
func (u *ReindexUseCase) Reindex(ctx context.Context, progress ProgressFunc) (*IndexResult, error) {
	u.running.Lock()
	defer u.running.Unlock()
	return u.run(ctx, progress)
}

// TryReindex runs a reindex unless one is already in progress.
func (u *ReindexUseCase) TryReindex(ctx context.Context, progress ProgressFunc) (*IndexResult, error) {
	if !u.running.TryLock() {
		return nil, ErrReindexRunning
	}
	defer u.running.Unlock()
	return u.run(ctx, progress)
}

func (u *ReindexUseCase) run(ctx context.Context, progress ProgressFunc) (*IndexResult, error) {
	tracks, err := u.source.Tracks()
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	logging.Ctx(ctx).Info().Int("tracks", len(tracks)).Msg("corpus loaded")

	result, err := u.indexer.Index(ctx, u.describer.DescribeAll(tracks), progress)
	if err != nil {
		return nil, err
	}
	if u.onIndexed != nil {
		if err := u.onIndexed(ctx, result); err != nil {
			return nil, fmt.Errorf("collection %s is active but post-index step failed: %w", result.Version, err)
		}
	}
	return result, nil
}
