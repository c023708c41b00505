package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"musicrec/internal/adapter/memstore"
	"musicrec/internal/adapter/store"
	"musicrec/internal/api"
	"musicrec/internal/domain"
	"musicrec/internal/logging"
	"musicrec/internal/port"
)

var (
	serveAddr    string
	serveReindex bool
	serveMemory  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve POST /recommend, POST /reindex, GET /audio/*, GET /healthz and
GET /metrics.

Examples:
  musicrec serve
  musicrec serve --addr :8080 --reindex
  musicrec serve --memory`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveReindex, "reindex", false, "build the index at startup when it is missing")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "keep the index in memory and build it at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		index port.VectorIndex
		st    *store.BoltStore
	)
	if serveMemory {
		index = memstore.NewIndex()
	} else {
		var err error
		st, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		migrationResult, err := st.CheckMigration(cfg)
		if err != nil {
			return fmt.Errorf("failed to check migration: %w", err)
		}
		if migrationResult.NeedsRebuild {
			logging.Warn().Str("reason", migrationResult.Reason).Msg("index was built with a different configuration, POST /reindex to rebuild")
		} else if migrationResult.NeedsMigration {
			if err := st.Migrate(cfg); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
		}
		index = st
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	recommender := newRecommender(cfg, index, emb)
	reindexer := newReindexer(cfg, index, emb)

	if _, err := index.Collection(ctx, cfg.Index.Collection); errors.Is(err, domain.ErrCollectionNotFound) {
		if !serveReindex && !serveMemory {
			logging.Warn().Str("collection", cfg.Index.Collection).Msg("no index yet, POST /reindex to build it")
		} else {
			res, err := reindexer.Reindex(ctx, nil)
			if err != nil {
				return fmt.Errorf("startup reindex failed: %w", err)
			}
			logging.Info().Int("tracks", res.TracksIndexed).Msg("startup reindex complete")
		}
	}

	server := api.NewServer(recommender, reindexer, index, api.Options{
		Server:      cfg.Server,
		Collection:  cfg.Index.Collection,
		AudioDir:    cfg.Corpus.AudioDir,
		AudioPrefix: cfg.Recommend.AudioPrefix,
	})

	return server.ListenAndServe(ctx)
}
