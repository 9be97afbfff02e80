package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"furnish/config"
	"furnish/internal/adapter/embedding"
	"furnish/internal/adapter/store"
	"furnish/internal/domain"
)

// Checks how well the configured embedder separates catalog items for a
// query, without the contextualizer or any filtering in the way.
func main() {
	dir := flag.String("dir", ".", "directory holding furnish.yaml and the catalog")
	query := flag.String("q", "", "query to test")
	topK := flag.Int("k", 10, "number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"grey linen sofa\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Catalog size and embedding model")
		fmt.Println("  2. Raw similarity of the nearest items")
		fmt.Println("  3. Whether the top match clears the perfect-match gate")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	cat, err := store.OpenBoltCatalog(config.CatalogPath(*dir, cfg), embedder.ModelName(), embedder.Dimension())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening catalog: %v\n", err)
		os.Exit(1)
	}
	defer cat.Close()

	ctx := context.Background()
	count, _ := cat.Count(ctx)
	if count == 0 {
		fmt.Fprintln(os.Stderr, "Catalog is empty - run 'furnish catalog import' first")
		os.Exit(1)
	}

	fmt.Println("CATALOG SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Items indexed: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	vec, err := embedder.Embed(ctx, *query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}

	results, err := cat.NearestNeighbors(ctx, vec, *topK, domain.Filters{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		totalScore += r.Score

		rating := "LOW"
		if r.Score > 0.7 {
			rating = "HIGH"
		} else if r.Score > 0.5 {
			rating = "GOOD"
		} else if r.Score > 0.3 {
			rating = "OK"
		}

		price := "n/a"
		if r.Item.HasPrice() {
			price = fmt.Sprintf("$%.2f", r.Item.Price)
		}
		fmt.Printf("%d. [%s %.3f] %s (%s)\n", i+1, rating, r.Score, r.Item.Title, price)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	if len(results) > 1 {
		gap := results[0].Score - results[1].Score
		perfect := results[0].Score >= cfg.Retrieve.PerfectMatchScore && gap >= cfg.Retrieve.PerfectMatchMargin
		fmt.Printf("  Top-1 gap:          %.3f (perfect match: %v)\n", gap, perfect)
	}

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - the embedder separates this query well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - consider a stronger embedding model")
	}
}
