package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"musicrec/internal/adapter/analyzer"
	"musicrec/internal/port"
)

// HashEmbedder is an offline embedder based on feature hashing of word
// unigrams and character trigrams (stopwords removed). It is deterministic, needs no model
// download and keeps texts with shared vocabulary close in cosine space.
type HashEmbedder struct {
	dimension int
	tokenizer port.Tokenizer
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	return NewHashEmbedderWithTokenizer(dimension, analyzer.NewTokenizer(nil))
}

// NewHashEmbedderWithTokenizer uses tok to split text into words.
func NewHashEmbedderWithTokenizer(dimension int, tok port.Tokenizer) *HashEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashEmbedder{dimension: dimension, tokenizer: tok}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embedOne(text)
	}
	return embeddings, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)

	for _, word := range e.tokenizer.Tokenize(text) {
		e.add(vec, "w:"+word, 1.0)

		runes := []rune("^" + word + "$")
		for j := 0; j+3 <= len(runes); j++ {
			e.add(vec, "t:"+string(runes[j:j+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// add hashes feature into a bucket; a second hash bit picks the sign so
// collisions cancel out on average.
func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dimension))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return "hash"
}
