package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"musicrec/internal/adapter/store"
	"musicrec/internal/domain"
	"musicrec/internal/port"
)

// Index is an in-memory VectorIndex with the same replace semantics as the
// bbolt store. It keeps nothing across restarts.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
	seq         int
}

type collection struct {
	info    port.CollectionInfo
	entries []port.IndexEntry
}

func NewIndex() *Index {
	return &Index{
		collections: make(map[string]*collection),
	}
}

func (x *Index) ReplaceCollection(ctx context.Context, name string, dimension int, entries []port.IndexEntry) (port.CollectionInfo, error) {
	if name == "" || strings.Contains(name, "@") {
		return port.CollectionInfo{}, fmt.Errorf("invalid collection name %q", name)
	}

	pos := make(map[int64]int, len(entries))
	built := make([]port.IndexEntry, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return port.CollectionInfo{}, err
		}
		if len(e.Vector) != dimension {
			return port.CollectionInfo{}, fmt.Errorf("%w: entry %d has %d, collection has %d", domain.ErrDimensionMismatch, e.ID, len(e.Vector), dimension)
		}
		if i, ok := pos[e.ID]; ok {
			built[i] = e
			continue
		}
		pos[e.ID] = len(built)
		built = append(built, e)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.seq++
	c := &collection{
		info: port.CollectionInfo{
			Name:      name,
			Version:   fmt.Sprintf("%s@%d", name, x.seq),
			Dimension: dimension,
			Distance:  "cosine",
			Count:     len(built),
			CreatedAt: time.Now().UTC(),
			Active:    true,
		},
		entries: built,
	}
	x.collections[name] = c
	return c.info, nil
}

func (x *Index) Search(ctx context.Context, name string, query []float32, limit int) ([]port.SearchHit, error) {
	x.mu.RLock()
	c, ok := x.collections[name]
	x.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if len(query) != c.info.Dimension {
		return nil, fmt.Errorf("%w: query has %d, collection has %d", domain.ErrDimensionMismatch, len(query), c.info.Dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	hits := make([]port.SearchHit, len(c.entries))
	for i, e := range c.entries {
		hits[i] = port.SearchHit{
			ID:      e.ID,
			Score:   store.CosineSimilarity(query, e.Vector),
			Payload: e.Payload,
		}
	}
	return store.TopK(hits, limit), nil
}

func (x *Index) Collection(ctx context.Context, name string) (port.CollectionInfo, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	c, ok := x.collections[name]
	if !ok {
		return port.CollectionInfo{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return c.info, nil
}

func (x *Index) Collections(ctx context.Context) ([]port.CollectionInfo, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	infos := make([]port.CollectionInfo, 0, len(x.collections))
	for _, c := range x.collections {
		infos = append(infos, c.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

func (x *Index) DropCollection(ctx context.Context, name string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.collections, name)
	return nil
}
