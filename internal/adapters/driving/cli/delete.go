package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove a document or fragment from the index",
	Long: `Removes every fragment of the given document ID, or a single
fragment when given a fragment ID.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	removed, err := ingestService.Delete(ctx, args[0])
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	if removed == 0 {
		cmd.Printf("nothing matched %s\n", args[0])
		return nil
	}
	cmd.Printf("removed %d fragments\n", removed)
	return nil
}
