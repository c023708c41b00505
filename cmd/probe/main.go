// Command probe prints the raw similarity hits for a query, before any
// sentiment or genre rules are applied.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"musicrec/config"
	"musicrec/internal/adapter/embedding"
	"musicrec/internal/adapter/sentiment"
	"musicrec/internal/adapter/store"
)

func main() {
	dir := flag.String("dir", ".", "Project directory")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/probe -dir . -q \"query\"")
		fmt.Println("\nShows:")
		fmt.Println("  1. Embedding model and index in use")
		fmt.Println("  2. Sentiment and lexicon polarity of the query")
		fmt.Println("  3. Nearest tracks by raw cosine similarity and their genre mix")
		os.Exit(1)
	}

	root, err := filepath.Abs(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(root)

	st, err := store.NewBoltStore(cfg.Index.DBPath, cfg.Index.OpenTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	info, err := st.Collection(ctx, cfg.Index.Collection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No index: %v (run 'musicrec index')\n", err)
		os.Exit(1)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SIMILARITY PROBE")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Collection: %s (%d tracks)\n", info.Version, info.Count)
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	classifier := sentiment.NewClassifier(nil)
	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Printf("Sentiment: %s (polarity %.2f)\n", classifier.Classify(*query, nil), classifier.Polarity(*query))
	fmt.Println(strings.Repeat("-", 70))

	queryVec, err := embedder.Embed(ctx, []string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}

	results, err := st.Search(ctx, cfg.Index.Collection, queryVec[0], *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	genres := make(map[string]int)
	for i, r := range results {
		totalScore += r.Score
		genres[r.Payload.Genre]++

		rating := "LOW"
		if r.Score > 0.7 {
			rating = "HIGH"
		} else if r.Score > 0.5 {
			rating = "GOOD"
		} else if r.Score > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s (%s)\n", i+1, rating, r.Score, r.Payload.Filename, r.Payload.Genre)
		fmt.Printf("   %s\n\n", r.Payload.Description)
	}

	names := make([]string, 0, len(genres))
	for g := range genres {
		names = append(names, g)
	}
	sort.Slice(names, func(i, j int) bool {
		if genres[names[i]] != genres[names[j]] {
			return genres[names[i]] > genres[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("SUMMARY:\n")
	fmt.Printf("  Average similarity: %.3f\n", totalScore/float64(len(results)))
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Genre mix:         ")
	for _, g := range names {
		fmt.Printf(" %s=%d", g, genres[g])
	}
	fmt.Println()
}
