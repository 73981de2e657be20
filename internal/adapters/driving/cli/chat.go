package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question answering",
	Long: `Starts an interactive session. Each question is answered from the
indexed documents; the conversation history feeds into subsequent
answers. Type 'exit' or press Ctrl-D to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureServices(ctx); err != nil {
		return err
	}

	var history []domain.ChatTurn
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		resp, err := queryService.Answer(ctx, domain.QueryRequest{
			Query:          question,
			Conversational: true,
			History:        history,
		})
		if err != nil {
			cmd.PrintErrf("error: %v\n", err)
			continue
		}

		cmd.Println(resp.Answer)
		cmd.Printf("(confidence: %s)\n\n", resp.Confidence.Level)

		history = append(history,
			domain.ChatTurn{Role: "user", Content: question},
			domain.ChatTurn{Role: "assistant", Content: resp.Answer},
		)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
