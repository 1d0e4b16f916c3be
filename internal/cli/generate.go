package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rocket-cli/internal/app"
	"rocket-cli/internal/cache"
	"rocket-cli/internal/history"
	"rocket-cli/internal/llm"
	"rocket-cli/internal/prompts"
	"rocket-cli/internal/render"
)

var (
	generateLanguage string
	generateOutput   string
	generateNoStream bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <description>",
	Short: "Generate code from a description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()
		return runPromptCommand(cmd.Context(), deps, promptCommand{
			name:     "generate",
			system:   prompts.System("generate", generateLanguage),
			prompt:   prompts.Generate(args[0], generateLanguage),
			history:  args[0],
			cache:    true,
			stream:   !generateNoStream && generateOutput == "",
			saveFile: generateOutput,
		})
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateLanguage, "language", "l", "python", "target programming language")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the generated code to a file")
	generateCmd.Flags().BoolVar(&generateNoStream, "no-stream", false, "wait for the full response instead of streaming")
	rootCmd.AddCommand(generateCmd)
}

// promptCommand is the shared shape of the one-shot prompt commands
// (generate, explain, debug, optimize, review).
type promptCommand struct {
	name     string
	system   string
	prompt   string
	history  string
	cache    bool
	stream   bool
	saveFile string
}

func runPromptCommand(ctx context.Context, deps app.Deps, pc promptCommand) error {
	r := newRenderer()
	start := time.Now()

	entry := history.Entry{Command: pc.name, Prompt: pc.history, Model: deps.Config.Model}

	if pc.cache {
		key := cache.Key(pc.name, deps.Config.Model, pc.system, pc.prompt)
		if cached, err := deps.Cache.GetResponse(ctx, key); err == nil && cached != nil {
			deps.Log.Debug("cache hit", "command", pc.name)
			r.Markdown(cached.Text)
			entry.Provider = cached.Provider
			entry.Model = cached.Model
			entry.Success = true
			recordHistory(ctx, deps, entry, start)
			return saveOutput(r, pc.saveFile, cached.Text)
		}
	}

	opts := llm.GenerateOptions{
		Prompt:      pc.prompt,
		System:      pc.system,
		Temperature: deps.Config.Temperature,
		MaxTokens:   deps.Config.MaxTokens,
	}

	var text string
	if pc.stream {
		err := deps.Manager.Stream(ctx, opts, func(chunk string) error {
			r.Print(chunk)
			text += chunk
			return nil
		})
		if err != nil {
			recordHistory(ctx, deps, entry, start)
			return err
		}
		r.Println("")
	} else {
		sp := r.Spinner("thinking")
		resp, err := deps.Manager.Generate(ctx, opts)
		sp.Stop()
		if err != nil {
			recordHistory(ctx, deps, entry, start)
			return err
		}
		text = resp.Text
		r.Markdown(text)
		entry.Provider = resp.Provider
		entry.Model = resp.Model
		entry.TokensUsed = resp.Usage.TotalTokens

		if pc.cache {
			key := cache.Key(pc.name, deps.Config.Model, pc.system, pc.prompt)
			ttl := time.Duration(deps.Config.CacheTTL) * time.Second
			if err := deps.Cache.SetResponse(ctx, key, &cache.Response{
				Text:     resp.Text,
				Model:    resp.Model,
				Provider: resp.Provider,
				Tokens:   resp.Usage.TotalTokens,
			}, ttl); err != nil {
				deps.Log.Warn("failed to cache response", "err", err)
			}
		}
	}

	entry.Success = true
	recordHistory(ctx, deps, entry, start)
	return saveOutput(r, pc.saveFile, text)
}

func saveOutput(r *render.Renderer, path, text string) error {
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(extractCode(text)), 0o644); err != nil {
		return err
	}
	r.Success("saved to %s", path)
	return nil
}
