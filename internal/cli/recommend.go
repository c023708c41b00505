package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"musicrec/internal/domain"
)

var (
	recText        string
	recEmotions    []string
	recInstruments []string
	recK           int
	recJSON        bool
	recExplain     bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend tracks for a mood description",
	Long: `Classify the mood of the text, search the index and rank the hits with
the genre rules.

Examples:
  musicrec recommend -q "sretna pop pjesma" -e 😊
  musicrec recommend -q "tužno mi je" -i klavir -k 3 --json`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVarP(&recText, "query", "q", "", "mood description (required)")
	recommendCmd.Flags().StringSliceVarP(&recEmotions, "emotion", "e", nil, "emoji, repeatable or comma separated")
	recommendCmd.Flags().StringSliceVarP(&recInstruments, "instrument", "i", nil, "instrument, repeatable or comma separated")
	recommendCmd.Flags().IntVarP(&recK, "top-k", "k", 0, "number of results (default from config)")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "output as JSON")
	recommendCmd.Flags().BoolVar(&recExplain, "explain", false, "show sentiment and base similarity")
	recommendCmd.MarkFlagRequired("query")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := newRecommender(cfg, st, emb).Explain(ctx, domain.Query{
		Text:        recText,
		Emotions:    recEmotions,
		Instruments: recInstruments,
	}, recK)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return fmt.Errorf("no index found. Run 'musicrec index' first")
	}
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	if recJSON {
		output, _ := json.MarshalIndent(res.Recommendations, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if recExplain {
		fmt.Printf("Sentiment: %s", res.Sentiment)
		if res.Fallback {
			fmt.Print(" (fallback to blues/jazz/classical)")
		}
		fmt.Println()
	}

	if len(res.Recommendations) == 0 {
		fmt.Println("No recommendations found.")
		return nil
	}

	fmt.Printf("%d recommendations for: %s\n\n", len(res.Recommendations), recText)
	for i, r := range res.Recommendations {
		fmt.Printf("[%d] %-22s %-10s score %.3f", i+1, r.Filename, r.Genre, r.AdjustedScore)
		if recExplain {
			fmt.Printf("  (similarity %.3f)", res.Candidates[i].Similarity)
		}
		fmt.Println()
		fmt.Printf("    %s\n", r.Description)
		fmt.Printf("    %s\n", r.AudioURL)
	}
	return nil
}
