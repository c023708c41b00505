package store

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"musicrec/config"
	"musicrec/internal/domain"
	"musicrec/internal/logging"
	"musicrec/internal/port"
)

func openTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	st, err := NewBoltStore(path, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, path
}

func testEntries(n int) []port.IndexEntry {
	entries := make([]port.IndexEntry, n)
	for i := 0; i < n; i++ {
		vec := []float32{0, 0, 0}
		vec[i%3] = 1
		vec[(i+1)%3] = float32(i) / 10
		entries[i] = port.IndexEntry{
			ID:     int64(i + 1),
			Vector: vec,
			Payload: port.Payload{
				Filename:    fmt.Sprintf("track%02d.wav", i),
				Genre:       "jazz",
				Description: "Jazz pjesma s nježnim saksofonom.",
				FilePath:    fmt.Sprintf("jazz/track%02d.wav", i),
			},
		}
	}
	return entries
}

func TestReplaceAndSearch(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	info, err := st.ReplaceCollection(ctx, "tracks", 3, testEntries(6))
	require.NoError(t, err)
	assert.Equal(t, 6, info.Count)
	assert.Equal(t, "cosine", info.Distance)
	assert.True(t, info.Active)

	hits, err := st.Search(ctx, "tracks", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "jazz", hits[0].Payload.Genre)
}

func TestReplaceTwiceLeavesOneCollection(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	first, err := st.ReplaceCollection(ctx, "tracks", 3, testEntries(10))
	require.NoError(t, err)
	second, err := st.ReplaceCollection(ctx, "tracks", 3, testEntries(10))
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, second.Version)

	cols, err := st.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, second.Version, cols[0].Version)
	assert.Equal(t, 10, cols[0].Count)
	assert.True(t, cols[0].Active)
}

func TestReplaceDeduplicatesIDs(t *testing.T) {
	st, _ := openTestStore(t)
	entries := testEntries(3)
	dup := entries[0]
	dup.Payload.Filename = "replaced.wav"
	entries = append(entries, dup)

	info, err := st.ReplaceCollection(context.Background(), "tracks", 3, entries)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Count)
}

func TestReplaceRejectsWrongDimension(t *testing.T) {
	st, _ := openTestStore(t)
	entries := testEntries(2)
	entries[1].Vector = []float32{1, 2}

	_, err := st.ReplaceCollection(context.Background(), "tracks", 3, entries)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = st.Collection(context.Background(), "tracks")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound, "failed replace must not create the collection")
}

func TestSearchMissingCollection(t *testing.T) {
	st, _ := openTestStore(t)
	_, err := st.Search(context.Background(), "nope", []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestSearchDimensionMismatch(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	_, err := st.ReplaceCollection(ctx, "tracks", 3, testEntries(2))
	require.NoError(t, err)

	_, err = st.Search(ctx, "tracks", []float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearchCancelledContext(t *testing.T) {
	st, _ := openTestStore(t)
	_, err := st.ReplaceCollection(context.Background(), "tracks", 3, testEntries(4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = st.Search(ctx, "tracks", []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReopenLoadsActiveCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	st, err := NewBoltStore(path, time.Second)
	require.NoError(t, err)
	_, err = st.ReplaceCollection(context.Background(), "tracks", 3, testEntries(5))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := NewBoltStore(path, time.Second)
	require.NoError(t, err)
	defer reopened.Close()

	info, err := reopened.Collection(context.Background(), "tracks")
	require.NoError(t, err)
	assert.Equal(t, 5, info.Count)

	hits, err := reopened.Search(context.Background(), "tracks", []float32{0, 1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, hits, 5)
}

func TestDropCollection(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	_, err := st.ReplaceCollection(ctx, "tracks", 3, testEntries(3))
	require.NoError(t, err)

	require.NoError(t, st.DropCollection(ctx, "tracks"))

	cols, err := st.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, cols)
	_, err = st.Search(ctx, "tracks", []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestSearchDuringReplaceNeverMissing(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	_, err := st.ReplaceCollection(ctx, "tracks", 3, testEntries(20))
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			hits, err := st.Search(ctx, "tracks", []float32{1, 0, 0}, 50)
			if err == nil && len(hits) != 20 {
				err = fmt.Errorf("saw %d hits mid-reindex", len(hits))
			}
			if err != nil {
				select {
				case errs <- err:
				default:
				}
				return
			}
		}
	}()

	for i := 0; i < 5; i++ {
		_, err := st.ReplaceCollection(ctx, "tracks", 3, testEntries(20))
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	select {
	case err := <-errs:
		t.Fatal(err)
	default:
	}
}

func TestMigrationTracksConfigHash(t *testing.T) {
	st, _ := openTestStore(t)
	cfg := config.DefaultConfig()

	result, err := st.CheckMigration(cfg)
	require.NoError(t, err)
	assert.True(t, result.NeedsMigration)

	require.NoError(t, st.Migrate(cfg))
	result, err = st.CheckMigration(cfg)
	require.NoError(t, err)
	assert.False(t, result.NeedsMigration)
	assert.False(t, result.NeedsRebuild)

	cfg.Embedding.Model = "nomic-embed-text"
	result, err = st.CheckMigration(cfg)
	require.NoError(t, err)
	assert.True(t, result.NeedsRebuild)
}

// writeUnversioned lays out a collection the way databases did before
// aliases: a bucket named after the collection with no version suffix.
func writeUnversioned(t *testing.T, path, name string, entries []port.IndexEntry) {
	t.Helper()
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	defer db.Close()

	err = db.Update(func(tx *bbolt.Tx) error {
		cols, err := tx.CreateBucketIfNotExists(bucketCollections)
		if err != nil {
			return err
		}
		b, err := cols.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		points, err := b.CreateBucket(bucketPoints)
		if err != nil {
			return err
		}
		for _, e := range entries {
			data, err := json.Marshal(storedPoint{Vector: e.Vector, Payload: e.Payload})
			if err != nil {
				return err
			}
			if err := points.Put(idKey(e.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestMigrateAdoptsUnversionedCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	writeUnversioned(t, path, "tracks", testEntries(4))
	ctx := context.Background()

	st, err := NewBoltStore(path, time.Second)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Collection(ctx, "tracks")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound, "not visible before migration")

	cfg := config.DefaultConfig()
	result, err := st.CheckMigration(cfg)
	require.NoError(t, err)
	require.True(t, result.NeedsMigration)
	require.NoError(t, st.Migrate(cfg))

	info, err := st.Collection(ctx, "tracks")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Version, "tracks@"), info.Version)
	assert.Equal(t, 4, info.Count)
	assert.Equal(t, 3, info.Dimension)

	hits, err := st.Search(ctx, "tracks", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 4)

	cols, err := st.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1, "legacy bucket is removed after adoption")
	assert.Equal(t, info.Version, cols[0].Version)

	// A second migrate finds nothing left to adopt.
	require.NoError(t, st.Migrate(cfg))
	again, err := st.Collection(ctx, "tracks")
	require.NoError(t, err)
	assert.Equal(t, info.Version, again.Version)
}

func TestRunMigrationUnknownPath(t *testing.T) {
	st, _ := openTestStore(t)
	assert.Error(t, st.runMigration(1, 2))
}

func TestReopenSkipsUnreadablePoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	st, err := NewBoltStore(path, time.Second)
	require.NoError(t, err)
	info, err := st.ReplaceCollection(context.Background(), "tracks", 3, testEntries(4))
	require.NoError(t, err)

	err = st.db.Update(func(tx *bbolt.Tx) error {
		points := tx.Bucket(bucketCollections).Bucket([]byte(info.Version)).Bucket(bucketPoints)
		return points.Put(idKey(2), []byte("{not json"))
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "warn", Format: "json", Output: &buf})
	defer logging.Init(logging.Config{Level: "info", Format: "console"})

	reopened, err := NewBoltStore(path, time.Second)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Collection(context.Background(), "tracks")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Count)

	out := buf.String()
	assert.Contains(t, out, "skipping unreadable point")
	assert.Contains(t, out, `"id":2`)
	assert.Contains(t, out, info.Version)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, CosineSimilarity(tc.a, tc.b), 1e-9)
		})
	}
}
