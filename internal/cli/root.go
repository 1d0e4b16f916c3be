// Package cli implements the rocket command tree.
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rocket-cli/internal/app"
	"rocket-cli/internal/history"
	"rocket-cli/internal/render"
)

var (
	flagProvider string
	flagModel    string
	flagPlain    bool
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "rocket",
	Short: "AI coding assistant for the terminal",
	Long: `Rocket dispatches prompts to generative AI backends and renders the
responses in the terminal. It works with your own OpenAI-compatible key, the
community proxy, or a local Ollama instance, and falls back between them.

Examples:
  $ rocket chat "how do goroutines leak?"
  $ rocket generate "a rate limiter" --language go
  $ rocket explain --file main.go
  $ rocket run "add input validation to the signup handler"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "force a provider (openai, proxy, ollama)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "override the model name")
	rootCmd.PersistentFlags().BoolVar(&flagPlain, "plain", false, "disable colors and decoration")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportFailure(os.Stderr, err)
		os.Exit(1)
	}
}

// reportFailure renders a command error. Errors go to stderr so piped model
// output stays clean.
func reportFailure(w io.Writer, err error) {
	render.New(w, flagPlain).Failure("%v", err)
}

// buildDeps applies global flag overrides and constructs the runtime
// dependencies.
func buildDeps(ctx context.Context) (app.Deps, error) {
	if flagProvider != "" {
		os.Setenv("ROCKET_PROVIDER", flagProvider)
	}
	if flagModel != "" {
		os.Setenv("ROCKET_MODEL", flagModel)
		os.Setenv("ROCKET_OLLAMA_MODEL", flagModel)
	}
	if flagVerbose {
		os.Setenv("ROCKET_LOG_LEVEL", "debug")
	}
	return app.Build(ctx)
}

func newRenderer() *render.Renderer {
	return render.New(os.Stdout, flagPlain)
}

// recordHistory appends an entry; history failures never fail the command.
func recordHistory(ctx context.Context, deps app.Deps, e history.Entry, start time.Time) {
	e.Time = time.Now()
	e.DurationMS = time.Since(start).Milliseconds()
	if err := deps.History.Append(ctx, e); err != nil {
		deps.Log.Warn("failed to record history", "err", err)
	}
}
