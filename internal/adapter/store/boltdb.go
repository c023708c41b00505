package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"musicrec/internal/domain"
	"musicrec/internal/logging"
	"musicrec/internal/port"
)

var (
	bucketCollections = []byte("collections")
	bucketAliases     = []byte("aliases")
	bucketMeta        = []byte("meta")
	bucketPoints      = []byte("points")
	keyInfo           = []byte("info")
)

const distanceCosine = "cosine"

// BoltStore is a bbolt-backed VectorIndex.
//
// Every ReplaceCollection writes a new physical collection "<name>@<uuid>"
// and then repoints the alias name at it in a second transaction, deleting
// the version it replaced. Searches run against an in-memory snapshot of
// the aliased version; the set of snapshots is swapped atomically so a
// search never observes a half-built or missing collection.
type BoltStore struct {
	db *bbolt.DB

	// writeMu serializes replace/drop; readers never take it.
	writeMu   sync.Mutex
	snapshots atomic.Pointer[map[string]*snapshot]
}

type collectionMeta struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Distance  string    `json:"distance"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

type storedPoint struct {
	Vector  []float32    `json:"v"`
	Payload port.Payload `json:"p"`
}

// NewBoltStore opens (or creates) the index at path. timeout bounds how long
// we wait for the file lock held by another process.
func NewBoltStore(path string, timeout time.Duration) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketCollections, bucketAliases, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	empty := make(map[string]*snapshot)
	s.snapshots.Store(&empty)

	if err := s.removeOrphans(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to clean orphaned collections: %w", err)
	}
	if err := s.loadSnapshots(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}

	return s, nil
}

// removeOrphans deletes versions no alias points at. They are left behind
// when a process dies between building a collection and swapping it in.
func (s *BoltStore) removeOrphans() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		live := make(map[string]bool)
		if err := tx.Bucket(bucketAliases).ForEach(func(k, v []byte) error {
			live[string(v)] = true
			return nil
		}); err != nil {
			return err
		}

		var orphans [][]byte
		cols := tx.Bucket(bucketCollections)
		if err := cols.ForEach(func(k, v []byte) error {
			// Unversioned buckets predate aliases and are adopted by Migrate.
			if !bytes.Contains(k, []byte("@")) {
				return nil
			}
			if !live[string(k)] {
				orphans = append(orphans, bytes.Clone(k))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, k := range orphans {
			logging.Warn().Str("version", string(k)).Msg("removing orphaned collection version")
			if err := cols.DeleteBucket(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) loadSnapshots() error {
	loaded := make(map[string]*snapshot)

	err := s.db.View(func(tx *bbolt.Tx) error {
		cols := tx.Bucket(bucketCollections)
		return tx.Bucket(bucketAliases).ForEach(func(name, version []byte) error {
			b := cols.Bucket(version)
			if b == nil {
				return nil
			}
			snap, err := readSnapshot(b, string(version))
			if err != nil {
				return fmt.Errorf("collection %s: %w", version, err)
			}
			loaded[string(name)] = snap
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.snapshots.Store(&loaded)
	return nil
}

func readSnapshot(b *bbolt.Bucket, version string) (*snapshot, error) {
	var meta collectionMeta
	if data := b.Get(keyInfo); data != nil {
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, err
		}
	}

	snap := newSnapshot(port.CollectionInfo{
		Name:      meta.Name,
		Version:   version,
		Dimension: meta.Dimension,
		Distance:  meta.Distance,
		CreatedAt: meta.CreatedAt,
		Active:    true,
	}, meta.Count)

	points := b.Bucket(bucketPoints)
	if points == nil {
		return snap, nil
	}

	err := points.ForEach(func(k, v []byte) error {
		id := int64(binary.BigEndian.Uint64(k))
		var p storedPoint
		if err := json.Unmarshal(v, &p); err != nil {
			logging.Warn().Err(err).Str("version", version).Int64("id", id).Msg("skipping unreadable point")
			return nil
		}
		if len(p.Vector) != meta.Dimension {
			logging.Warn().Str("version", version).Int64("id", id).Int("dimension", len(p.Vector)).Msg("skipping point with wrong dimension")
			return nil
		}
		snap.add(id, p.Vector, p.Payload)
		return nil
	})
	snap.info.Count = len(snap.ids)
	return snap, err
}

// ReplaceCollection builds a new version of name from entries and swaps it in.
func (s *BoltStore) ReplaceCollection(ctx context.Context, name string, dimension int, entries []port.IndexEntry) (port.CollectionInfo, error) {
	if name == "" || strings.Contains(name, "@") {
		return port.CollectionInfo{}, fmt.Errorf("invalid collection name %q", name)
	}
	entries, err := dedupeEntries(entries, dimension)
	if err != nil {
		return port.CollectionInfo{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	version := name + "@" + uuid.NewString()
	meta := collectionMeta{
		Name:      name,
		Dimension: dimension,
		Distance:  distanceCosine,
		Count:     len(entries),
		CreatedAt: time.Now().UTC(),
	}

	// Build the new version next to the live one.
	snap := newSnapshot(port.CollectionInfo{
		Name:      name,
		Version:   version,
		Dimension: dimension,
		Distance:  distanceCosine,
		Count:     len(entries),
		CreatedAt: meta.CreatedAt,
		Active:    true,
	}, len(entries))

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketCollections).CreateBucket([]byte(version))
		if err != nil {
			return err
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := b.Put(keyInfo, data); err != nil {
			return err
		}

		points, err := b.CreateBucket(bucketPoints)
		if err != nil {
			return err
		}
		for i, e := range entries {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			data, err := json.Marshal(storedPoint{Vector: e.Vector, Payload: e.Payload})
			if err != nil {
				return err
			}
			if err := points.Put(idKey(e.ID), data); err != nil {
				return err
			}
			snap.add(e.ID, e.Vector, e.Payload)
		}
		return nil
	})
	if err != nil {
		return port.CollectionInfo{}, fmt.Errorf("failed to build collection %s: %w", version, err)
	}

	// Swap the alias and drop the previous version in one transaction.
	var previous string
	err = s.db.Update(func(tx *bbolt.Tx) error {
		aliases := tx.Bucket(bucketAliases)
		if old := aliases.Get([]byte(name)); old != nil {
			previous = string(old)
		}
		if err := aliases.Put([]byte(name), []byte(version)); err != nil {
			return err
		}
		if previous != "" {
			if err := tx.Bucket(bucketCollections).DeleteBucket([]byte(previous)); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Leave the new version for removeOrphans; the old one is still live.
		return port.CollectionInfo{}, fmt.Errorf("failed to activate collection %s: %w", version, err)
	}

	s.swap(name, snap)

	logging.Info().
		Str("collection", name).
		Str("version", version).
		Str("previous", previous).
		Int("count", len(entries)).
		Msg("collection replaced")

	return snap.info, nil
}

// dedupeEntries checks dimensions and keeps the last entry per id, the way
// an upsert keyed by id would.
func dedupeEntries(entries []port.IndexEntry, dimension int) ([]port.IndexEntry, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	pos := make(map[int64]int, len(entries))
	out := make([]port.IndexEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector) != dimension {
			return nil, fmt.Errorf("%w: entry %d has %d, collection has %d", domain.ErrDimensionMismatch, e.ID, len(e.Vector), dimension)
		}
		if i, ok := pos[e.ID]; ok {
			out[i] = e
			continue
		}
		pos[e.ID] = len(out)
		out = append(out, e)
	}
	return out, nil
}

func (s *BoltStore) swap(name string, snap *snapshot) {
	current := *s.snapshots.Load()
	next := make(map[string]*snapshot, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	if snap == nil {
		delete(next, name)
	} else {
		next[name] = snap
	}
	s.snapshots.Store(&next)
}

func (s *BoltStore) active(name string) (*snapshot, error) {
	snap, ok := (*s.snapshots.Load())[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	return snap, nil
}

// Search finds the limit nearest vectors of the active collection.
func (s *BoltStore) Search(ctx context.Context, name string, query []float32, limit int) ([]port.SearchHit, error) {
	snap, err := s.active(name)
	if err != nil {
		return nil, err
	}
	return snap.search(ctx, query, limit)
}

func (s *BoltStore) Collection(ctx context.Context, name string) (port.CollectionInfo, error) {
	snap, err := s.active(name)
	if err != nil {
		return port.CollectionInfo{}, err
	}
	return snap.info, nil
}

// Collections lists every physical version stored in the database.
func (s *BoltStore) Collections(ctx context.Context) ([]port.CollectionInfo, error) {
	var infos []port.CollectionInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		live := make(map[string]bool)
		tx.Bucket(bucketAliases).ForEach(func(k, v []byte) error {
			live[string(v)] = true
			return nil
		})

		cols := tx.Bucket(bucketCollections)
		return cols.ForEach(func(k, v []byte) error {
			b := cols.Bucket(k)
			if b == nil {
				return nil
			}
			var meta collectionMeta
			if data := b.Get(keyInfo); data != nil {
				if err := json.Unmarshal(data, &meta); err != nil {
					return err
				}
			}
			infos = append(infos, port.CollectionInfo{
				Name:      meta.Name,
				Version:   string(k),
				Dimension: meta.Dimension,
				Distance:  meta.Distance,
				Count:     meta.Count,
				CreatedAt: meta.CreatedAt,
				Active:    live[string(k)],
			})
			return nil
		})
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Version < infos[j].Version
	})
	return infos, err
}

// DropCollection removes the alias and every stored version of name.
func (s *BoltStore) DropCollection(ctx context.Context, name string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketAliases).Delete([]byte(name)); err != nil {
			return err
		}
		cols := tx.Bucket(bucketCollections)
		prefix := []byte(name + "@")
		var versions [][]byte
		c := cols.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			versions = append(versions, bytes.Clone(k))
		}
		for _, v := range versions {
			if err := cols.DeleteBucket(v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.swap(name, nil)
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}
