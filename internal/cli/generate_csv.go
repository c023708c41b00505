package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"musicrec/internal/adapter/corpus"
)

var generateCSVCmd = &cobra.Command{
	Use:   "generate-csv [audio-dir]",
	Short: "Build the corpus CSV from an audio tree",
	Long: `Walk <audio-dir>/<genre>/<file>.wav and write one row per track with
columns id, filename, label and filepath. filepath is relative to audio-dir.

Examples:
  musicrec generate-csv                       # uses corpus.audio_dir
  musicrec generate-csv data/genres_original -o data/tracks.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerateCSV,
}

var generateOutput string

func init() {
	rootCmd.AddCommand(generateCSVCmd)
	generateCSVCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "output CSV (default corpus.csv_path)")
}

func runGenerateCSV(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	audioDir := cfg.Corpus.AudioDir
	if len(args) > 0 {
		var err error
		audioDir, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(audioDir)
	if err != nil {
		return fmt.Errorf("audio directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", audioDir)
	}

	output := cfg.Corpus.CSVPath
	if generateOutput != "" {
		output = generateOutput
	}

	fmt.Printf("Scanning %s...\n", audioDir)
	tracks, err := corpus.NewScanner(cfg.Corpus.Includes, cfg.Corpus.Excludes).Scan(audioDir)
	if err != nil {
		return fmt.Errorf("failed to scan audio directory: %w", err)
	}

	if err := corpus.WriteCSV(output, tracks); err != nil {
		return err
	}

	fmt.Printf("CSV generated with %d tracks: %s\n", len(tracks), output)
	return nil
}
