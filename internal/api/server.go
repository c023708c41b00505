// Package api exposes the recommender over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"musicrec/config"
	"musicrec/internal/domain"
	"musicrec/internal/logging"
	"musicrec/internal/port"
	"musicrec/internal/usecase"
)

// Recommender answers mood queries.
type Recommender interface {
	Explain(ctx context.Context, q domain.Query, k int) (*usecase.RecommendResult, error)
}

// Reindexer rebuilds the active collection, refusing overlapping runs.
type Reindexer interface {
	TryReindex(ctx context.Context, progress usecase.ProgressFunc) (*usecase.IndexResult, error)
}

// Options configures a Server.
type Options struct {
	Server      config.ServerConfig
	Collection  string
	AudioDir    string
	AudioPrefix string
}

type Server struct {
	opts        Options
	recommender Recommender
	reindexer   Reindexer
	index       port.VectorIndex
	collection  string
	router      chi.Router
}

func NewServer(rec Recommender, reindexer Reindexer, index port.VectorIndex, opts Options) *Server {
	if opts.AudioPrefix == "" {
		opts.AudioPrefix = "/audio"
	}
	opts.AudioPrefix = "/" + strings.Trim(opts.AudioPrefix, "/")

	s := &Server{
		opts:        opts,
		recommender: rec,
		reindexer:   reindexer,
		index:       index,
		collection:  opts.Collection,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger())
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(s.opts.Server.CORSOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.opts.Server.RateLimit, s.opts.Server.RateWindow))
		r.Post("/recommend", s.handleRecommend)
		r.Post("/reindex", s.handleReindex)
	})

	if s.opts.AudioDir != "" {
		r.Handle(s.opts.AudioPrefix+"/*", audioHandler(s.opts.AudioPrefix, s.opts.AudioDir))
	}

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.opts.Server
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logging.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
