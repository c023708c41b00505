package port

import "musicrec/internal/domain"

// TrackSource loads the labeled corpus to index.
type TrackSource interface {
	Tracks() ([]domain.Track, error)
}

// Describer fills in the text that gets embedded for each track.
type Describer interface {
	DescribeAll(tracks []domain.Track) []domain.Track
}
