package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"musicrec/config"
	"musicrec/internal/logging"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "musicrec",
	Short: "Mood-driven music recommender",
	Long: `musicrec recommends tracks from a labeled audio corpus for a free-text
mood description, optional emoji and instruments.

Each track gets a synthesized genre description, the descriptions are
embedded into a vector index, and queries are ranked by similarity adjusted
with sentiment, emoji and instrument rules.

Example usage:
  musicrec generate-csv                      # Build data/gtzan_data.csv from the audio tree
  musicrec index                             # Embed and index the corpus
  musicrec recommend -q "sretna pop pjesma"  # Ask for recommendations
  musicrec serve                             # Start the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Resolve(rootDir)

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./musicrec.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
