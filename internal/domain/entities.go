package domain

import "errors"

// Genre is one of the fixed corpus labels.
type Genre string

const (
	Blues     Genre = "blues"
	Classical Genre = "classical"
	Country   Genre = "country"
	Disco     Genre = "disco"
	HipHop    Genre = "hiphop"
	Jazz      Genre = "jazz"
	Metal     Genre = "metal"
	Pop       Genre = "pop"
	Reggae    Genre = "reggae"
	Rock      Genre = "rock"
)

// Genres lists every valid label.
var Genres = []Genre{Blues, Classical, Country, Disco, HipHop, Jazz, Metal, Pop, Reggae, Rock}

// Valid reports whether g is one of the fixed labels.
func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Track is one catalog entry. Tracks are immutable between reindexes.
type Track struct {
	ID          int64
	Filename    string
	Genre       Genre
	FilePath    string
	Description string
	Embedding   []float32
}

type Query struct {
	Text        string
	Emotions    []string
	Instruments []string
}

// Candidate is a track returned by the index joined with its scores.
type Candidate struct {
	Track         Track
	Similarity    float64
	AdjustedScore float64
}

type Recommendation struct {
	Filename      string  `json:"filename"`
	AudioURL      string  `json:"audio_url"`
	Genre         Genre   `json:"genre"`
	Description   string  `json:"description"`
	AdjustedScore float64 `json:"adjusted_score"`
}

var (
	// ErrEmptyQuery is returned when a recommendation is asked for without text.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrMissingField marks a corpus that lacks a required column or value.
	ErrMissingField = errors.New("corpus is missing a required field")

	ErrCollectionNotFound = errors.New("collection not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)
