package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"rocket-cli/internal/events"
	"rocket-cli/internal/llm"
	"rocket-cli/internal/modes"
	"rocket-cli/internal/tools"
)

// maxIterations caps the tool-calling loop; a model stuck calling tools
// without converging is cut off with whatever text it produced last.
const maxIterations = 15

// Generator is the slice of the provider manager the workflow needs.
type Generator interface {
	Generate(ctx context.Context, opts llm.GenerateOptions) (llm.Response, error)
}

// Git is the repository surface the workflow needs for safety branches and
// commits. A nil Git means git integration is disabled for the run.
type Git interface {
	IsRepo(ctx context.Context) bool
	CurrentBranch(ctx context.Context) (string, error)
	CreateBranch(ctx context.Context, name string) error
	HasChanges(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) (string, error)
}

// Options control one workflow execution.
type Options struct {
	// Mode forces a mode by name; empty means auto-select from the prompt.
	Mode string

	// CreateBranch allows a safety branch when the mode requires one.
	CreateBranch bool

	// AutoCommit commits changed files after a successful run.
	AutoCommit bool
}

// Workflow orchestrates a full agent run: mode selection, safety branch,
// the model's tool-calling loop, and commit.
type Workflow struct {
	gen       Generator
	selector  *modes.Selector
	registry  *modes.Registry
	tools     *tools.Registry
	git       Git
	publisher events.Publisher
	log       *slog.Logger
	workspace string
}

func NewWorkflow(
	gen Generator,
	selector *modes.Selector,
	registry *modes.Registry,
	toolRegistry *tools.Registry,
	git Git,
	publisher events.Publisher,
	log *slog.Logger,
	workspace string,
) *Workflow {
	return &Workflow{
		gen:       gen,
		selector:  selector,
		registry:  registry,
		tools:     toolRegistry,
		git:       git,
		publisher: publisher,
		log:       log,
		workspace: workspace,
	}
}

// Execute runs the complete workflow for prompt. The returned Result carries
// the outcome even when err is non-nil.
func (w *Workflow) Execute(ctx context.Context, prompt string, opts Options) (Result, error) {
	run := NewRun(prompt, w.workspace)
	run.Start()

	mode, err := w.selectMode(ctx, prompt, opts.Mode)
	if err != nil {
		run.Complete(err)
		return run.Result(), err
	}
	run.Mode = mode.Name
	w.log.Info("workflow started", "run_id", run.ID, "mode", mode.Name)
	w.publish(ctx, events.TypeRunStarted, run, "")

	if opts.CreateBranch && mode.RequiresBranch {
		w.createSafetyBranch(ctx, run)
	}

	executor := NewExecutor(mode, w.tools, run, w.log)
	message, err := w.generateLoop(ctx, prompt, mode, executor, run)
	if err != nil {
		run.Complete(err)
		w.publish(ctx, events.TypeRunFailed, run, err.Error())
		return run.Result(), err
	}

	if opts.AutoCommit {
		w.commitChanges(ctx, run)
	}

	run.Complete(nil)
	w.publish(ctx, events.TypeRunCompleted, run, "")
	w.log.Info("workflow completed",
		"run_id", run.ID, "tokens", run.TokensUsed, "tool_calls", len(run.Tools))

	result := run.Result()
	result.Message = message
	return result, nil
}

func (w *Workflow) selectMode(ctx context.Context, prompt, explicit string) (modes.Mode, error) {
	if explicit != "" {
		return w.registry.Get(explicit)
	}
	return w.selector.Select(ctx, prompt), nil
}

// generateLoop drives the model until it answers without requesting tools or
// the iteration cap is hit.
func (w *Workflow) generateLoop(
	ctx context.Context,
	prompt string,
	mode modes.Mode,
	executor *Executor,
	run *Run,
) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: mode.SystemPrompt},
		{Role: "user", Content: prompt},
	}
	toolDefs := executor.Schemas()

	var lastText string
	for i := 0; i < maxIterations; i++ {
		resp, err := w.gen.Generate(ctx, llm.GenerateOptions{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: mode.Temperature,
			MaxTokens:   mode.MaxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("generate: %w", err)
		}
		run.RecordUsage(resp.Usage.TotalTokens, resp.Model, resp.Provider)
		lastText = resp.Text

		if !resp.HasToolCalls() {
			return resp.Text, nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			res, err := executor.Execute(ctx, call.Name, call.Arguments)
			var denied *ToolNotAllowedError
			if errors.As(err, &denied) {
				return "", denied
			}
			if err != nil {
				res = tools.Fail("%v", err)
			}
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    encodeToolResult(res),
				ToolCallID: call.ID,
			})
		}
	}

	w.log.Warn("tool loop hit iteration cap", "run_id", run.ID, "iterations", maxIterations)
	if lastText == "" {
		return "", fmt.Errorf("no answer after %d tool iterations", maxIterations)
	}
	return lastText, nil
}

func encodeToolResult(res tools.Result) string {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprintf(`{"ok":false,"error":"encode result: %v"}`, err)
	}
	return string(data)
}

func (w *Workflow) createSafetyBranch(ctx context.Context, run *Run) {
	if w.git == nil || !w.git.IsRepo(ctx) {
		w.log.Debug("not a git repository, skipping safety branch")
		return
	}
	current, err := w.git.CurrentBranch(ctx)
	if err != nil {
		w.log.Warn("could not read current branch", "error", err)
		return
	}
	run.OriginalBranch = current

	name := BranchName(run.Mode, run.Prompt, run.ID)
	if err := w.git.CreateBranch(ctx, name); err != nil {
		w.log.Warn("could not create safety branch", "branch", name, "error", err)
		return
	}
	run.BranchCreated = name
	w.log.Info("created safety branch", "branch", name)
}

func (w *Workflow) commitChanges(ctx context.Context, run *Run) {
	if w.git == nil || !w.git.IsRepo(ctx) {
		return
	}
	changed, err := w.git.HasChanges(ctx)
	if err != nil || !changed {
		return
	}
	hash, err := w.git.Commit(ctx, commitMessage(run))
	if err != nil {
		w.log.Warn("auto-commit failed", "error", err)
		return
	}
	run.CommitHash = hash
	w.log.Info("committed changes", "commit", hash)
}

func commitMessage(run *Run) string {
	slug := run.Prompt
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return fmt.Sprintf("%s: %s", run.Mode, slug)
}

var branchSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// BranchName derives a safety-branch name from the mode and prompt, for
// example "rocket/agent/add-jwt-auth-1a2b3c4d".
func BranchName(mode, prompt string, id fmt.Stringer) string {
	slug := branchSlugRe.ReplaceAllString(strings.ToLower(prompt), "-")
	slug = strings.Trim(slug, "-")
	words := strings.Split(slug, "-")
	if len(words) > 4 {
		words = words[:4]
	}
	slug = strings.Join(words, "-")
	if len(slug) > 30 {
		slug = slug[:30]
	}
	short := strings.ReplaceAll(id.String(), "-", "")[:8]
	return fmt.Sprintf("rocket/%s/%s-%s", strings.ToLower(mode), slug, short)
}

func (w *Workflow) publish(ctx context.Context, typ events.Type, run *Run, detail string) {
	if w.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := w.publisher.Publish(pubCtx, events.Event{
		ID:     uuid.New(),
		Type:   typ,
		RunID:  run.ID,
		Prompt: run.Prompt,
		Mode:   run.Mode,
		Detail: detail,
		Time:   time.Now(),
	})
	if err != nil {
		w.log.Debug("event publish failed", "type", typ, "error", err)
	}
}
