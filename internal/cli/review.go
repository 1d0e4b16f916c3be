package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rocket-cli/internal/prompts"
)

const maxReviewFiles = 12

var reviewLanguage string

var reviewCmd = &cobra.Command{
	Use:   "review [path...]",
	Short: "Review source files for issues",
	Long: `Send one or more source files to the model for review. Directories
are walked for source files of the chosen language.

Examples:
  $ rocket review internal/llm
  $ rocket review main.go handler.go`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectReviewFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no reviewable files under %s", strings.Join(args, ", "))
		}

		language := reviewLanguage
		if language == "" {
			for path := range files {
				language = languageFromPath(path)
				break
			}
		}

		deps, err := buildDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		return runPromptCommand(cmd.Context(), deps, promptCommand{
			name:    "review",
			system:  prompts.System("review", language),
			prompt:  prompts.Review(files, language),
			history: strings.Join(args, " "),
		})
	},
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewLanguage, "language", "l", "", "programming language")
	rootCmd.AddCommand(reviewCmd)
}

func collectReviewFiles(paths []string) (map[string]string, error) {
	files := make(map[string]string)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := addReviewFile(files, p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if len(files) >= maxReviewFiles {
				return fs.SkipAll
			}
			if _, known := extLanguages[strings.ToLower(filepath.Ext(path))]; !known {
				return nil
			}
			return addReviewFile(files, path)
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func addReviewFile(files map[string]string, path string) error {
	if len(files) >= maxReviewFiles {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	files[path] = string(data)
	return nil
}
