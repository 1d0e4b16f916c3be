package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider availability and rate limits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		r := newRenderer()
		statuses := deps.Manager.Statuses()

		rows := make([][]string, 0, len(statuses))
		for i := range statuses {
			s := &statuses[i]
			state := "unavailable"
			if s.Healthy() {
				state = "ready"
			} else if s.Available {
				state = "degraded"
			}
			limits := "-"
			if s.RateLimit != nil {
				limits = fmt.Sprintf("%d/%d", s.RateLimit.Remaining, s.RateLimit.Limit)
				if s.RateLimit.Limited() {
					limits += fmt.Sprintf(" (resets %s)", s.RateLimit.ResetAt.Format(time.Kitchen))
				}
			}
			rows = append(rows, []string{
				s.Provider.Name(),
				s.Provider.Tier().String(),
				state,
				limits,
				s.LastError,
			})
		}

		r.Table([]string{"PROVIDER", "TIER", "STATE", "REQUESTS", "LAST ERROR"}, rows)

		if p := deps.Manager.Active(); p != nil {
			r.Println("")
			r.Success("active provider: %s (%s)", p.Name(), p.Tier())
		} else {
			r.Println("")
			r.Failure("no provider available; set OPENAI_API_KEY or start ollama")
		}

		if st := deps.Git.GetStatus(cmd.Context()); st.IsRepo {
			r.Println("")
			r.Header("repository")
			clean := "yes"
			if !st.Clean {
				clean = fmt.Sprintf("no (%d files)", len(st.UncommittedFiles))
			}
			r.KeyValues([][2]string{
				{"branch", st.Branch},
				{"clean", clean},
			})
			if st.IsProductionBranch {
				r.Failure("working on production branch %q", st.Branch)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
