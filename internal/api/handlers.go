package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"musicrec/internal/domain"
	"musicrec/internal/usecase"
)

const maxBodyBytes = 1 << 20

// recommendRequest accepts "text" and, for older clients, "opis".
type recommendRequest struct {
	Text        string   `json:"text" validate:"required,max=1000"`
	Opis        string   `json:"opis"`
	Emotions    []string `json:"emotions" validate:"max=32,dive,max=16"`
	Instruments []string `json:"instruments" validate:"max=32,dive,max=64"`
	K           int      `json:"k" validate:"gte=0"`
}

type recommendResponse struct {
	Sentiment       domain.Sentiment        `json:"sentiment"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

type reindexResponse struct {
	Message       string `json:"message"`
	Collection    string `json:"collection"`
	Version       string `json:"version"`
	TracksIndexed int    `json:"tracks_indexed"`
	DurationMS    int64  `json:"duration_ms"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Collection string `json:"collection"`
	Version    string `json:"version,omitempty"`
	Tracks     int    `json:"tracks"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if req.Text == "" {
		req.Text = req.Opis
	}
	req.Text = strings.TrimSpace(req.Text)
	if msg := validateRequest(&req); msg != "" {
		respondError(w, r, http.StatusBadRequest, msg, nil)
		return
	}

	res, err := s.recommender.Explain(r.Context(), domain.Query{
		Text:        req.Text,
		Emotions:    req.Emotions,
		Instruments: req.Instruments,
	}, req.K)
	if err != nil {
		respondError(w, r, statusFor(err), "recommendation failed", err)
		return
	}

	recs := res.Recommendations
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	respondJSON(w, http.StatusOK, recommendResponse{
		Sentiment:       res.Sentiment,
		Recommendations: recs,
	})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	// A reindex outlives a disconnected client; the swap is all or nothing.
	ctx := context.WithoutCancel(r.Context())

	res, err := s.reindexer.TryReindex(ctx, nil)
	if err != nil {
		if errors.Is(err, usecase.ErrReindexRunning) {
			respondError(w, r, http.StatusConflict, "reindex already running", nil)
			return
		}
		respondError(w, r, statusFor(err), "reindex failed", err)
		return
	}

	respondJSON(w, http.StatusOK, reindexResponse{
		Message:       "embeddings updated",
		Collection:    res.Collection,
		Version:       res.Version,
		TracksIndexed: res.TracksIndexed,
		DurationMS:    res.Duration.Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	info, err := s.index.Collection(ctx, s.collection)
	if err != nil {
		status := statusFor(err)
		respondJSON(w, status, healthResponse{
			Status:     "unavailable",
			Collection: s.collection,
		})
		return
	}

	respondJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Collection: info.Name,
		Version:    info.Version,
		Tracks:     info.Count,
	})
}

// audioHandler serves files under dir at prefix. Directory listings are not
// exposed.
func audioHandler(prefix, dir string) http.Handler {
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
