package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rocket-cli/internal/agent"
	"rocket-cli/internal/history"
	"rocket-cli/internal/render"
)

var (
	runMode     string
	runNoBranch bool
	runCommit   bool
	runStash    bool
	runPR       bool
)

var runCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Run an agent workflow with tool access",
	Long: `Let the model work on the request with tools: reading and writing
files, searching the workspace and running allowlisted commands. The mode is
selected automatically from the prompt unless --mode is given.

Examples:
  $ rocket run "add input validation to the signup handler"
  $ rocket run "why does TestLogin fail?" --mode debug`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		ctx := cmd.Context()
		r := newRenderer()
		start := time.Now()

		// The base branch is read before the workflow switches to a safety
		// branch; it is the merge target for --pr.
		baseBranch := ""
		if runPR {
			baseBranch, err = deps.Git.CurrentBranch(ctx)
			if err != nil {
				return fmt.Errorf("--pr needs a git repository: %w", err)
			}
		}

		if runStash {
			st := deps.Git.GetStatus(ctx)
			if st.IsRepo && !st.Clean {
				if err := deps.Git.Stash(ctx); err != nil {
					return err
				}
				r.Success("stashed %d uncommitted files", len(st.UncommittedFiles))
				defer func() {
					if err := deps.Git.StashPop(ctx); err != nil {
						deps.Log.Warn("could not restore stashed changes; run git stash pop", "err", err)
					}
				}()
			}
		}

		sp := r.Spinner("working")
		result, err := deps.Workflow.Execute(ctx, args[0], agent.Options{
			Mode:         runMode,
			CreateBranch: !runNoBranch,
			AutoCommit:   runCommit,
		})
		sp.Stop()

		recordHistory(ctx, deps, history.Entry{
			Command:    "run",
			Prompt:     args[0],
			Mode:       result.Mode,
			Provider:   result.Provider,
			Model:      result.Model,
			TokensUsed: result.TokensUsed,
			Success:    result.Success,
		}, start)

		if err != nil {
			return err
		}

		r.Markdown(result.Message)
		r.Println("")
		summarizeRun(r, result)

		if runPR && result.Success && result.Branch != "" && result.CommitHash != "" {
			pr, err := deps.Git.CreatePR(ctx, result.Branch, baseBranch,
				truncate(args[0], 60),
				fmt.Sprintf("Automated changes for: %s", args[0]), false)
			if err != nil {
				return err
			}
			r.Success("opened pull request #%d: %s", pr.Number, pr.URL)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "", "force a mode (read, debug, think, agent, enhance, analyze)")
	runCmd.Flags().BoolVar(&runNoBranch, "no-branch", false, "skip the safety branch even when the mode wants one")
	runCmd.Flags().BoolVar(&runCommit, "auto-commit", false, "commit changed files after a successful run")
	runCmd.Flags().BoolVar(&runStash, "stash", false, "stash uncommitted changes first and restore them after")
	runCmd.Flags().BoolVar(&runPR, "pr", false, "open a pull request for the safety branch (needs gh and --auto-commit)")
	rootCmd.AddCommand(runCmd)
}

func summarizeRun(r *render.Renderer, result agent.Result) {
	pairs := [][2]string{
		{"mode", result.Mode},
		{"tool calls", fmt.Sprint(result.ToolCalls)},
		{"tokens", fmt.Sprint(result.TokensUsed)},
		{"duration", result.Duration.Round(time.Millisecond).String()},
	}
	if result.Provider != "" {
		pairs = append(pairs, [2]string{"provider", result.Provider})
	}
	if len(result.FilesCreated) > 0 {
		pairs = append(pairs, [2]string{"created", strings.Join(result.FilesCreated, ", ")})
	}
	if len(result.FilesModified) > 0 {
		pairs = append(pairs, [2]string{"modified", strings.Join(result.FilesModified, ", ")})
	}
	if result.Branch != "" {
		pairs = append(pairs, [2]string{"branch", result.Branch})
	}
	if result.CommitHash != "" {
		pairs = append(pairs, [2]string{"commit", result.CommitHash})
	}
	r.Header("run summary")
	r.KeyValues(pairs)
}
