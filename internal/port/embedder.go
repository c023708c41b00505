package port

import (
	"context"
	"time"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex stores named collections of track vectors.
//
// A collection is only ever replaced as a whole. Implementations build the
// new contents aside and swap them in so a concurrent Search sees either the
// previous collection or the new one, never a partial state.
type VectorIndex interface {
	// ReplaceCollection builds a fresh collection from entries and makes it
	// the active one under name, discarding the previous version.
	ReplaceCollection(ctx context.Context, name string, dimension int, entries []IndexEntry) (CollectionInfo, error)

	// Search returns up to limit entries of the active collection ordered by
	// descending cosine similarity.
	Search(ctx context.Context, name string, query []float32, limit int) ([]SearchHit, error)

	// Collection describes the active version of name.
	Collection(ctx context.Context, name string) (CollectionInfo, error)

	// Collections lists every physical collection, active or not.
	Collections(ctx context.Context) ([]CollectionInfo, error)

	// DropCollection removes name and every version behind it.
	DropCollection(ctx context.Context, name string) error
}

// Payload is the metadata stored next to each vector.
type Payload struct {
	Filename    string `json:"filename"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	FilePath    string `json:"filepath"`
}

// IndexEntry represents a vector to be stored.
type IndexEntry struct {
	ID      int64
	Vector  []float32
	Payload Payload
}

// SearchHit represents a search result.
type SearchHit struct {
	ID      int64
	Score   float64 // Cosine similarity (higher is better)
	Payload Payload
}

// CollectionInfo describes one physical collection.
type CollectionInfo struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Dimension int       `json:"dimension"`
	Distance  string    `json:"distance"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}
