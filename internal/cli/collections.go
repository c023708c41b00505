package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	collectionsJSON bool
	collectionsDrop string
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List or drop vector collections",
	Long: `List every collection version stored in the index. The active version of
each name is marked with *.

Examples:
  musicrec collections
  musicrec collections --drop music-recommender-v2`,
	Args: cobra.NoArgs,
	RunE: runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	collectionsCmd.Flags().BoolVar(&collectionsJSON, "json", false, "output as JSON")
	collectionsCmd.Flags().StringVar(&collectionsDrop, "drop", "", "drop a collection and all its versions")
}

func runCollections(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if collectionsDrop != "" {
		if err := st.DropCollection(ctx, collectionsDrop); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
		fmt.Printf("Dropped %s\n", collectionsDrop)
		return nil
	}

	infos, err := st.Collections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if collectionsJSON {
		output, _ := json.MarshalIndent(infos, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(infos) == 0 {
		fmt.Println("No collections. Run 'musicrec index' first.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tVERSION\tTRACKS\tDIM\tCREATED")
	for _, info := range infos {
		mark := ""
		if info.Active {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", mark, info.Version, info.Count, info.Dimension, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
