package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rocket-cli/internal/prompts"
)

var (
	debugFile     string
	debugError    string
	debugLanguage string
)

var debugCmd = &cobra.Command{
	Use:   "debug [code]",
	Short: "Diagnose an error or buggy code",
	Long: `Analyze an error message, a piece of code, or both.

Examples:
  $ rocket debug --error 'panic: runtime error: index out of range'
  $ rocket debug --file handler.go --error 'nil pointer dereference'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var code string
		if debugFile != "" {
			data, err := os.ReadFile(debugFile)
			if err != nil {
				return fmt.Errorf("read %s: %w", debugFile, err)
			}
			code = string(data)
		} else if len(args) == 1 {
			code = args[0]
		}
		if code == "" && debugError == "" {
			return fmt.Errorf("provide code, --file, or --error")
		}

		language := debugLanguage
		if language == "" {
			language = languageFromPath(debugFile)
		}

		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		preview := debugError
		if preview == "" {
			preview = historyPreview(debugFile, code)
		}
		return runPromptCommand(cmd.Context(), deps, debugPrompt(code, debugError, language, preview))
	},
}

func debugPrompt(code, errText, language, preview string) promptCommand {
	return promptCommand{
		name:    "debug",
		system:  prompts.System("debug", language),
		prompt:  prompts.Debug(code, errText, language),
		history: preview,
		cache:   true,
	}
}

func init() {
	debugCmd.Flags().StringVarP(&debugFile, "file", "f", "", "file containing the code")
	debugCmd.Flags().StringVarP(&debugError, "error", "e", "", "error message or stack trace")
	debugCmd.Flags().StringVarP(&debugLanguage, "language", "l", "", "programming language")
	rootCmd.AddCommand(debugCmd)
}
