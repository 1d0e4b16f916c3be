package tools

import (
	"bytes"
	"context"
	"os/exec"
	"sort"
	"strings"
	"time"

	"rocket-cli/internal/llm"
)

// allowedBinaries is the fixed allowlist of binaries the model may invoke.
// Anything else is refused regardless of mode.
var allowedBinaries = map[string]bool{
	"go":     true,
	"git":    true,
	"ls":     true,
	"cat":    true,
	"grep":   true,
	"make":   true,
	"python": true,
	"node":   true,
	"npm":    true,
	"pytest": true,
}

const commandTimeout = 60 * time.Second

// RunCommand executes an allowlisted command inside the workspace.
type RunCommand struct {
	workspace string
}

func NewRunCommand(workspace string) *RunCommand {
	return &RunCommand{workspace: workspace}
}

func (t *RunCommand) Name() string       { return "run_command" }
func (t *RunCommand) Category() Category { return CategoryExecute }
func (t *RunCommand) Description() string {
	return "Run an allowlisted shell command in the workspace and capture its output."
}

func (t *RunCommand) Schema() llm.ToolDef {
	return llm.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "description": "Binary to run, e.g. go"},
				"args":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Arguments"},
			},
			"required": []string{"command"},
		},
	}
}

func (t *RunCommand) Run(ctx context.Context, args map[string]any) Result {
	binary, err := stringArg(args, "command")
	if err != nil {
		return Fail("%v", err)
	}
	if !allowedBinaries[binary] {
		return Fail("command %q is not allowlisted; allowed: %s", binary, strings.Join(allowlist(), ", "))
	}

	var cmdArgs []string
	if raw, ok := args["args"].([]any); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				cmdArgs = append(cmdArgs, s)
			}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, cmdArgs...)
	cmd.Dir = t.workspace
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return Fail("command timed out after %s", commandTimeout)
	}

	exitCode := 0
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return Fail("run %s: %v", binary, runErr)
	}

	return Ok(map[string]any{
		"stdout":    truncateOutput(stdout.String()),
		"stderr":    truncateOutput(stderr.String()),
		"exit_code": exitCode,
	}, map[string]any{
		"command":     binary,
		"duration_ms": elapsed.Milliseconds(),
	})
}

const maxOutputBytes = 32 * 1024

func truncateOutput(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + "\n... (output truncated)"
}

func allowlist() []string {
	names := make([]string, 0, len(allowedBinaries))
	for name := range allowedBinaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
