package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rocket-cli/internal/prompts"
)

var (
	optimizeFile     string
	optimizeLanguage string
	optimizeFocus    string
)

var optimizeFocuses = map[string]bool{
	"performance": true,
	"readability": true,
	"memory":      true,
	"security":    true,
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [code]",
	Short: "Suggest improvements for existing code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !optimizeFocuses[optimizeFocus] {
			return fmt.Errorf("invalid focus %q (performance, readability, memory, security)", optimizeFocus)
		}
		code, language, err := codeInput(args, optimizeFile, optimizeLanguage)
		if err != nil {
			return err
		}

		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		return runPromptCommand(cmd.Context(), deps, optimizePrompt(code, language, optimizeFocus, historyPreview(optimizeFile, code)))
	},
}

func optimizePrompt(code, language, focus, preview string) promptCommand {
	return promptCommand{
		name:    "optimize",
		system:  prompts.System("optimize", language),
		prompt:  prompts.Optimize(code, language, focus),
		history: preview,
		cache:   true,
	}
}

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeFile, "file", "f", "", "file containing the code")
	optimizeCmd.Flags().StringVarP(&optimizeLanguage, "language", "l", "", "programming language")
	optimizeCmd.Flags().StringVar(&optimizeFocus, "focus", "performance", "what to optimize for")
	rootCmd.AddCommand(optimizeCmd)
}
