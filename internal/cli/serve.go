package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"rocket-cli/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rocket API on localhost",
	Long: `Expose generate, chat, run and status over a local HTTP API so
editors and scripts can reuse one running instance.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		router := server.New(deps)
		addr := fmt.Sprintf("127.0.0.1:%d", deps.Config.Port)
		deps.Log.Info("rocket API listening", "addr", addr)
		newRenderer().Println("listening on http://" + addr)

		if err := http.ListenAndServe(addr, router); err != nil {
			deps.Log.Error("server error", "err", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
