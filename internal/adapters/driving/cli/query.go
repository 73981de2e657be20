package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

var (
	queryTopK          int
	queryMinSimilarity float64
	queryFilters       []string
	queryJSON          bool
	queryNoSources     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Answers a question using retrieval-augmented generation: the question
is embedded, the most similar document fragments are retrieved, and an
answer is generated from them with a confidence assessment.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "maximum fragments to retrieve (0 = configured default)")
	queryCmd.Flags().Float64Var(&queryMinSimilarity, "min-similarity", 0, "similarity floor (0 = configured default)")
	queryCmd.Flags().StringArrayVarP(&queryFilters, "filter", "f", nil, "metadata filter key=value (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the full response as JSON")
	queryCmd.Flags().BoolVar(&queryNoSources, "no-sources", false, "omit the source list")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	filters, err := parseFilters(queryFilters)
	if err != nil {
		return err
	}

	resp, err := queryService.Answer(ctx, domain.QueryRequest{
		Query:          args[0],
		Filters:        filters,
		TopK:           queryTopK,
		MinSimilarity:  queryMinSimilarity,
		IncludeSources: !queryNoSources,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printAnswer(cmd, resp)
	return nil
}

func printAnswer(cmd *cobra.Command, resp *domain.QueryResponse) {
	cmd.Println(resp.Answer)
	cmd.Println()
	cmd.Printf("Confidence: %s (max %.2f, avg %.2f, %d fragments)\n",
		resp.Confidence.Level, resp.Confidence.MaxSimilarity,
		resp.Confidence.AvgSimilarity, resp.Confidence.ChunksRetrieved)

	if len(resp.Sources) > 0 {
		cmd.Println("Sources:")
		for i, src := range resp.Sources {
			name := src.Filename
			if name == "" {
				name = src.DocumentID
			}
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, name, src.Score)
		}
	}

	suffix := ""
	if resp.FromCache {
		suffix = ", cached"
	}
	cmd.Printf("(%.2fs%s)\n", resp.ResponseTime, suffix)
}

// parseFilters converts key=value pairs into a filter map.
func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		filters[key] = value
	}
	return filters, nil
}
