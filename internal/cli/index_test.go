package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicrec/config"
	"musicrec/internal/adapter/corpus"
	"musicrec/internal/adapter/embedding"
	"musicrec/internal/adapter/memstore"
	"musicrec/internal/adapter/store"
	"musicrec/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	c := config.DefaultConfig()
	c.Embedding.Provider = "hash"
	c.Index.DBPath = filepath.Join(dir, "index.db")
	c.Index.OpenTimeout = time.Second
	c.Index.Seed = 7
	c.Corpus.CSVPath = filepath.Join(dir, "tracks.csv")

	tracks := make([]domain.Track, 20)
	for i := range tracks {
		g := domain.Genres[i%len(domain.Genres)]
		name := fmt.Sprintf("%s.%05d.wav", g, i)
		tracks[i] = domain.Track{ID: int64(i + 1), Filename: name, Genre: g, FilePath: string(g) + "/" + name}
	}
	require.NoError(t, corpus.WriteCSV(c.Corpus.CSVPath, tracks))
	return c
}

// useConfig installs c as the loaded configuration for the duration of t.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func activeCollection(t *testing.T, c *config.Config) (string, int) {
	t.Helper()
	st, err := store.NewBoltStore(c.Index.DBPath, time.Second)
	require.NoError(t, err)
	defer st.Close()

	info, err := st.Collection(context.Background(), c.Index.Collection)
	require.NoError(t, err)
	return info.Version, info.Count
}

func TestRunIndex_FailedRebuildKeepsPreviousCollection(t *testing.T) {
	tests := []struct {
		name  string
		spoil func(t *testing.T, c *config.Config)
	}{
		{"missing corpus file", func(t *testing.T, c *config.Config) {
			c.Corpus.CSVPath = filepath.Join(t.TempDir(), "absent.csv")
		}},
		{"missing label column", func(t *testing.T, c *config.Config) {
			path := filepath.Join(t.TempDir(), "broken.csv")
			require.NoError(t, os.WriteFile(path, []byte("id,filename,filepath\n1,a.wav,jazz/a.wav\n"), 0o644))
			c.Corpus.CSVPath = path
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := testConfig(t)
			useConfig(t, c)

			require.NoError(t, runIndex(indexCmd, nil))
			version, count := activeCollection(t, c)
			require.Equal(t, 20, count)

			// A different model marks the index for rebuild.
			c.Embedding.Model = "other-model"
			tc.spoil(t, c)

			require.Error(t, runIndex(indexCmd, nil))

			after, afterCount := activeCollection(t, c)
			assert.Equal(t, version, after, "previous version stays active")
			assert.Equal(t, 20, afterCount)
		})
	}
}

func TestRunIndex_RebuildReplacesCollection(t *testing.T) {
	c := testConfig(t)
	useConfig(t, c)

	require.NoError(t, runIndex(indexCmd, nil))
	first, _ := activeCollection(t, c)

	c.Embedding.Model = "other-model"
	require.NoError(t, runIndex(indexCmd, nil))
	second, count := activeCollection(t, c)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 20, count)

	st, err := store.NewBoltStore(c.Index.DBPath, time.Second)
	require.NoError(t, err)
	defer st.Close()
	result, err := st.CheckMigration(c)
	require.NoError(t, err)
	assert.False(t, result.NeedsRebuild)
}

func TestReindexer_RecordsConfigOnBoltStore(t *testing.T) {
	c := testConfig(t)
	ctx := context.Background()

	st, err := store.NewBoltStore(c.Index.DBPath, time.Second)
	require.NoError(t, err)
	defer st.Close()

	stale := *c
	stale.Embedding.Model = "older-model"
	require.NoError(t, st.Migrate(&stale))

	result, err := st.CheckMigration(c)
	require.NoError(t, err)
	require.True(t, result.NeedsRebuild)

	emb := embedding.NewHashEmbedder(c.Embedding.Dimension)
	res, err := newReindexer(c, st, emb).TryReindex(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, res.TracksIndexed)

	result, err = st.CheckMigration(c)
	require.NoError(t, err)
	assert.False(t, result.NeedsRebuild)
	assert.False(t, result.NeedsMigration)
}

func TestReindexer_MemoryIndex(t *testing.T) {
	c := testConfig(t)
	idx := memstore.NewIndex()

	res, err := newReindexer(c, idx, embedding.NewHashEmbedder(c.Embedding.Dimension)).Reindex(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 20, res.TracksIndexed)
}
