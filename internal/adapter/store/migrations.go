package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"musicrec/config"
	"musicrec/internal/logging"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
)

// SchemaInfo stores schema version and configuration hash.
type SchemaInfo struct {
	Version    int    `json:"version"`
	ConfigHash string `json:"config_hash"`
}

// GetSchemaInfo retrieves the current schema info from the database.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}

		if versionData := b.Get(keySchemaVersion); versionData != nil {
			if err := json.Unmarshal(versionData, &info.Version); err != nil {
				info.Version = 0
			}
		}
		if hashData := b.Get(keyConfigHash); hashData != nil {
			info.ConfigHash = string(hashData)
		}
		return nil
	})
	return &info, err
}

// SetSchemaInfo stores the schema info in the database.
func (s *BoltStore) SetSchemaInfo(info *SchemaInfo) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)

		versionData, err := json.Marshal(info.Version)
		if err != nil {
			return err
		}
		if err := b.Put(keySchemaVersion, versionData); err != nil {
			return err
		}
		return b.Put(keyConfigHash, []byte(info.ConfigHash))
	})
}

// ComputeConfigHash fingerprints the settings that decide which vector
// space the index lives in. Query vectors built under a different hash are
// not comparable with the stored ones.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		Collection string `json:"collection"`
		Dimension  int    `json:"dimension"`
		Provider   string `json:"provider"`
		Model      string `json:"model"`
	}{
		Collection: cfg.Index.Collection,
		Dimension:  cfg.Index.Dimension,
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	NeedsRebuild   bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// CheckMigration checks if migration or rebuild is needed.
func (s *BoltStore) CheckMigration(cfg *config.Config) (*MigrationResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
	case info.Version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", info.Version, CurrentSchemaVersion)
	case info.Version > CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("database created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
		return result, nil
	}

	if info.ConfigHash != "" && info.ConfigHash != ComputeConfigHash(cfg) {
		result.NeedsRebuild = true
		result.Reason = "embedding configuration changed since last index"
	}

	return result, nil
}

// Migrate performs any necessary schema migrations and records the
// configuration the index was built with.
func (s *BoltStore) Migrate(cfg *config.Config) error {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return err
	}

	for v := info.Version; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}

	return s.SetSchemaInfo(&SchemaInfo{
		Version:    CurrentSchemaVersion,
		ConfigHash: ComputeConfigHash(cfg),
	})
}

func (s *BoltStore) runMigration(from, to int) error {
	switch {
	case from == 0 && to == 1:
		return s.adoptUnversioned()
	default:
		return fmt.Errorf("no migration path from v%d to v%d", from, to)
	}
}

// adoptUnversioned moves collections written before aliases existed, stored
// directly under their name, into a versioned bucket and points the alias at
// it. A name that already has an alias keeps it and the legacy copy is
// dropped.
func (s *BoltStore) adoptUnversioned() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var adopted []string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		cols := tx.Bucket(bucketCollections)
		aliases := tx.Bucket(bucketAliases)

		var legacy [][]byte
		if err := cols.ForEach(func(k, v []byte) error {
			if v == nil && !bytes.Contains(k, []byte("@")) {
				legacy = append(legacy, bytes.Clone(k))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, name := range legacy {
			if aliases.Get(name) == nil {
				version := string(name) + "@" + uuid.NewString()
				dst, err := cols.CreateBucket([]byte(version))
				if err != nil {
					return err
				}
				if err := adoptBucket(dst, cols.Bucket(name), string(name)); err != nil {
					return fmt.Errorf("collection %s: %w", name, err)
				}
				if err := aliases.Put(name, []byte(version)); err != nil {
					return err
				}
				adopted = append(adopted, version)
			}
			if err := cols.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, v := range adopted {
		logging.Info().Str("version", v).Msg("adopted unversioned collection")
	}
	if len(adopted) == 0 {
		return nil
	}
	return s.loadSnapshots()
}

// adoptBucket copies the points of a legacy collection into dst and writes
// collection info that matches what was copied.
func adoptBucket(dst, src *bbolt.Bucket, name string) error {
	var meta collectionMeta
	if data := src.Get(keyInfo); data != nil {
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
	}
	meta.Name = name
	meta.Distance = distanceCosine
	meta.Count = 0
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}

	points, err := dst.CreateBucket(bucketPoints)
	if err != nil {
		return err
	}
	if old := src.Bucket(bucketPoints); old != nil {
		err := old.ForEach(func(k, v []byte) error {
			if meta.Dimension == 0 {
				var p storedPoint
				if err := json.Unmarshal(v, &p); err == nil {
					meta.Dimension = len(p.Vector)
				}
			}
			meta.Count++
			return points.Put(bytes.Clone(k), bytes.Clone(v))
		})
		if err != nil {
			return err
		}
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return dst.Put(keyInfo, data)
}
