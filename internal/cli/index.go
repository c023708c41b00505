package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Describe, embed and index the corpus",
	Long: `Read the corpus CSV, give every track a synthesized description, embed
the descriptions and replace the active collection in one swap.

Queries keep using the previous collection until the new one is complete.

Examples:
  musicrec index
  musicrec index --seed 42   # reproducible descriptions`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexSeed int64

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().Int64Var(&indexSeed, "seed", 0, "description seed (default from config, 0 = random)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if indexSeed != 0 {
		cfg.Index.Seed = indexSeed
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Check for schema migration or rebuild
	migrationResult, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}
	if migrationResult.NeedsRebuild {
		// The swap below replaces the old version; until it succeeds the
		// previous collection stays active.
		fmt.Printf("Index rebuild required: %s\n", migrationResult.Reason)
	} else if migrationResult.NeedsMigration {
		fmt.Printf("Running schema migration: %s\n", migrationResult.Reason)
		if err := st.Migrate(cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Embedding config: provider=%s, model=%s, dimension=%d\n",
		cfg.Embedding.Provider, emb.ModelName(), emb.Dimension())

	reindexer := newReindexer(cfg, st, emb)

	fmt.Printf("Loading %s...\n", cfg.Corpus.CSVPath)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(processed, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := reindexer.Reindex(ctx, progressCallback)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Collection:     %s\n", result.Collection)
	fmt.Printf("  Version:        %s\n", result.Version)
	fmt.Printf("  Tracks indexed: %d\n", result.TracksIndexed)
	fmt.Printf("  Duration:       %s\n", formatDuration(result.Duration))
	fmt.Printf("\nIndex stored at: %s\n", cfg.Index.DBPath)
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
