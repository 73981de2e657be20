package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atrium-labs/ragcore/internal/adapters/driving/watch"
)

var watchSource string

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep a directory in sync with the index",
	Long: `Watches a directory and mirrors its changes into the index: new and
modified files are re-ingested, removed files are deleted. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSource, "source", "s", "watched", "logical source of the documents")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureServices(ctx); err != nil {
		return err
	}

	w := watch.New(args[0], watchSource, ingestService)
	cmd.Printf("watching %s, press Ctrl-C to stop\n", args[0])

	err := w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
