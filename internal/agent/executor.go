package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rocket-cli/internal/llm"
	"rocket-cli/internal/modes"
	"rocket-cli/internal/tools"
)

// ToolNotAllowedError is returned when the model asks for a tool the active
// mode does not permit. It is an error rather than a tool failure so the
// workflow aborts instead of letting the model retry around the restriction.
type ToolNotAllowedError struct {
	Tool    string
	Mode    string
	Allowed []string
}

func (e *ToolNotAllowedError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("tool %q is not allowed in %s mode (allowed: %s)", e.Tool, e.Mode, allowed)
}

// Executor runs tools on behalf of the model, enforcing the active mode's
// permissions and recording every invocation on the run.
type Executor struct {
	mode     modes.Mode
	registry *tools.Registry
	run      *Run
	log      *slog.Logger
}

func NewExecutor(mode modes.Mode, registry *tools.Registry, run *Run, log *slog.Logger) *Executor {
	return &Executor{mode: mode, registry: registry, run: run, log: log}
}

// Allowed reports whether the named tool may run under the active mode.
func (e *Executor) Allowed(tool string) bool {
	return e.mode.Allows(tool)
}

// Schemas returns tool definitions for only the tools the mode permits.
func (e *Executor) Schemas() []llm.ToolDef {
	if e.mode.AllowedTools == nil {
		return e.registry.Schemas(nil)
	}
	return e.registry.Schemas(e.mode.AllowedTools)
}

// Execute runs one tool call. Permission violations and unknown tools return
// an error; a tool's own failure comes back as a failed Result with a nil
// error so the model can react to it.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (tools.Result, error) {
	if !e.Allowed(name) {
		return tools.Result{}, &ToolNotAllowedError{
			Tool:    name,
			Mode:    e.mode.Name,
			Allowed: allowedNames(e.mode, e.registry),
		}
	}

	tool := e.registry.Get(name)
	if tool == nil {
		return tools.Result{}, fmt.Errorf("unknown tool %q", name)
	}

	start := time.Now()
	res := tool.Run(ctx, args)
	elapsed := time.Since(start)

	e.run.RecordToolExecution(ToolExecution{
		Tool:       name,
		Args:       args,
		OK:         res.OK,
		Error:      res.Error,
		DurationMS: elapsed.Milliseconds(),
	})
	e.trackFiles(name, args, res)

	e.log.Debug("tool executed",
		"tool", name, "ok", res.OK, "duration_ms", elapsed.Milliseconds())
	return res, nil
}

// trackFiles maps tool calls onto the run's file sets.
func (e *Executor) trackFiles(name string, args map[string]any, res tools.Result) {
	if !res.OK {
		return
	}
	path, _ := args["path"].(string)
	if path == "" {
		return
	}
	switch name {
	case "read_file":
		e.run.RecordFileRead(path)
	case "write_file":
		created := false
		if data, ok := res.Data.(map[string]any); ok {
			created, _ = data["created"].(bool)
		}
		if created {
			e.run.RecordFileCreated(path)
		} else {
			e.run.RecordFileModified(path)
		}
	}
}

func allowedNames(mode modes.Mode, registry *tools.Registry) []string {
	if mode.AllowedTools == nil {
		return registry.Names()
	}
	return mode.AllowedTools
}
