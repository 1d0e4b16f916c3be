package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// puller is implemented by providers that can download models locally
// (ollama).
type puller interface {
	Pull(ctx context.Context, model string) error
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models each provider serves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		r := newRenderer()
		rows := [][]string{}
		for _, s := range deps.Manager.Statuses() {
			if !s.Available {
				continue
			}
			models, err := s.Provider.Models(cmd.Context())
			if err != nil {
				deps.Log.Warn("could not list models", "provider", s.Provider.Name(), "err", err)
				continue
			}
			for _, m := range models {
				rows = append(rows, []string{s.Provider.Name(), m})
			}
		}
		if len(rows) == 0 {
			r.Failure("no models available; set OPENAI_API_KEY or start ollama")
			return nil
		}
		r.Table([]string{"PROVIDER", "MODEL"}, rows)
		return nil
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <model>",
	Short: "Download a model to the local runner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		r := newRenderer()
		for _, s := range deps.Manager.Statuses() {
			p, ok := s.Provider.(puller)
			if !ok {
				continue
			}
			sp := r.Spinner("pulling " + args[0])
			err := p.Pull(cmd.Context(), args[0])
			sp.Stop()
			if err != nil {
				return err
			}
			r.Success("pulled %s", args[0])
			return nil
		}
		return fmt.Errorf("no local provider to pull into; start ollama and set ROCKET_OLLAMA_URL")
	},
}

func init() {
	modelsCmd.AddCommand(modelsPullCmd)
	rootCmd.AddCommand(modelsCmd)
}
