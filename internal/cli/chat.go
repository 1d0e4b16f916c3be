package cli

import (
	"time"

	"github.com/spf13/cobra"

	"rocket-cli/internal/history"
	"rocket-cli/internal/llm"
	"rocket-cli/internal/prompts"
)

var chatNoStream bool

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the assistant anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		ctx := cmd.Context()
		r := newRenderer()
		start := time.Now()
		entry := history.Entry{Command: "chat", Prompt: args[0], Model: deps.Config.Model}

		opts := llm.GenerateOptions{
			Prompt:      args[0],
			System:      prompts.ChatSystem,
			Temperature: deps.Config.Temperature,
			MaxTokens:   deps.Config.MaxTokens,
		}

		// Chat is conversational; responses are never cached.
		if !chatNoStream {
			err := deps.Manager.Stream(ctx, opts, func(chunk string) error {
				r.Print(chunk)
				return nil
			})
			if err != nil {
				recordHistory(ctx, deps, entry, start)
				return err
			}
			r.Println("")
		} else {
			resp, err := deps.Manager.Generate(ctx, opts)
			if err != nil {
				recordHistory(ctx, deps, entry, start)
				return err
			}
			r.Markdown(resp.Text)
			entry.Provider = resp.Provider
			entry.TokensUsed = resp.Usage.TotalTokens
		}

		entry.Success = true
		recordHistory(ctx, deps, entry, start)
		return nil
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "wait for the full response instead of streaming")
	rootCmd.AddCommand(chatCmd)
}
