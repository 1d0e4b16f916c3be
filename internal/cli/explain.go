package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rocket-cli/internal/prompts"
)

var (
	explainFile     string
	explainLanguage string
)

var explainCmd = &cobra.Command{
	Use:   "explain [code]",
	Short: "Explain a piece of code",
	Long: `Explain code passed as an argument or read from a file.

Examples:
  $ rocket explain 'def fib(n): return fib(n-1)+fib(n-2)'
  $ rocket explain --file internal/llm/manager.go`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, language, err := codeInput(args, explainFile, explainLanguage)
		if err != nil {
			return err
		}

		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		return runPromptCommand(cmd.Context(), deps, promptCommand{
			name:    "explain",
			system:  prompts.System("explain", language),
			prompt:  prompts.Explain(code, language),
			history: historyPreview(explainFile, code),
			cache:   true,
		})
	},
}

func init() {
	explainCmd.Flags().StringVarP(&explainFile, "file", "f", "", "file containing the code")
	explainCmd.Flags().StringVarP(&explainLanguage, "language", "l", "", "programming language (guessed from the file extension when omitted)")
	rootCmd.AddCommand(explainCmd)
}

// codeInput resolves code either from an argument or a file, and picks a
// language when none was given.
func codeInput(args []string, file, language string) (code, lang string, err error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", file, err)
		}
		code = string(data)
	case len(args) == 1 && args[0] != "":
		code = args[0]
	default:
		return "", "", fmt.Errorf("provide code as an argument or with --file")
	}

	lang = language
	if lang == "" {
		lang = languageFromPath(file)
	}
	return code, lang, nil
}

var extLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".c":    "c",
	".cpp":  "c++",
	".sh":   "shell",
	".sql":  "sql",
}

func languageFromPath(path string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "python"
}

// historyPreview keeps history entries short when the prompt is a whole file.
func historyPreview(file, code string) string {
	if file != "" {
		return file
	}
	if len(code) > 120 {
		return code[:120]
	}
	return code
}
