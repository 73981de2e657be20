package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

var (
	ingestSource string
	ingestMeta   []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Index documents",
	Long: `Extracts text from the given files, splits it into chunks, embeds
them and writes the fragments to the vector index. Supported formats:
txt, md, html, docx, pdf. Re-ingesting a file replaces its fragments.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "local", "logical source of the documents")
	ingestCmd.Flags().StringArrayVarP(&ingestMeta, "meta", "m", nil, "metadata key=value attached to every fragment (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	pairs, err := parseFilters(ingestMeta)
	if err != nil {
		return err
	}
	var metadata map[string]any
	if len(pairs) > 0 {
		metadata = make(map[string]any, len(pairs))
		for k, v := range pairs {
			metadata[k] = v
		}
	}

	failed := 0
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("skipping %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := ingestService.Ingest(ctx, domain.IngestRequest{
			Content:  content,
			Filename: filepath.Base(path),
			Source:   ingestSource,
			Metadata: metadata,
		})
		if err != nil {
			cmd.PrintErrf("skipping %s: %v\n", path, err)
			failed++
			continue
		}

		cmd.Printf("indexed %s: %d fragments (document %s)\n",
			result.Filename, result.FragmentCount, result.DocumentID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
