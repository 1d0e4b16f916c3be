package agent

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Status of a workflow run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ToolExecution records one tool invocation during a run.
type ToolExecution struct {
	Tool       string         `json:"tool"`
	Args       map[string]any `json:"args,omitempty"`
	OK         bool           `json:"ok"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// Run tracks everything that happens while a prompt is being worked on:
// which files were touched, which tools ran, token usage and git state. It is
// not safe for concurrent use; a run belongs to one workflow invocation.
type Run struct {
	ID        uuid.UUID
	Prompt    string
	Mode      string
	Workspace string

	Status Status
	Err    string

	OriginalBranch string
	BranchCreated  string
	CommitHash     string

	filesRead     map[string]struct{}
	filesModified map[string]struct{}
	filesCreated  map[string]struct{}

	TokensUsed int
	LLMCalls   int
	Model      string
	Provider   string

	Tools []ToolExecution

	started time.Time
	ended   time.Time
}

// NewRun initializes a pending run.
func NewRun(prompt, workspace string) *Run {
	return &Run{
		ID:            uuid.New(),
		Prompt:        prompt,
		Workspace:     workspace,
		Status:        StatusPending,
		filesRead:     make(map[string]struct{}),
		filesModified: make(map[string]struct{}),
		filesCreated:  make(map[string]struct{}),
	}
}

func (r *Run) Start() {
	r.started = time.Now()
	r.Status = StatusRunning
}

// Complete marks the run finished. A nil err means success.
func (r *Run) Complete(err error) {
	r.ended = time.Now()
	if err != nil {
		r.Status = StatusFailed
		r.Err = err.Error()
		return
	}
	r.Status = StatusSuccess
}

func (r *Run) Cancel(reason string) {
	r.ended = time.Now()
	r.Status = StatusCancelled
	r.Err = reason
}

func (r *Run) RecordToolExecution(exec ToolExecution) {
	r.Tools = append(r.Tools, exec)
}

func (r *Run) RecordFileRead(path string)     { r.filesRead[path] = struct{}{} }
func (r *Run) RecordFileModified(path string) { r.filesModified[path] = struct{}{} }
func (r *Run) RecordFileCreated(path string)  { r.filesCreated[path] = struct{}{} }

// RecordUsage accumulates token usage from one model call.
func (r *Run) RecordUsage(tokens int, model, provider string) {
	r.TokensUsed += tokens
	r.LLMCalls++
	if r.Model == "" {
		r.Model = model
	}
	if r.Provider == "" {
		r.Provider = provider
	}
}

func (r *Run) FilesRead() []string     { return sortedKeys(r.filesRead) }
func (r *Run) FilesModified() []string { return sortedKeys(r.filesModified) }
func (r *Run) FilesCreated() []string  { return sortedKeys(r.filesCreated) }

// Duration is the elapsed run time; for an unfinished run it is the time
// since start.
func (r *Run) Duration() time.Duration {
	if r.started.IsZero() {
		return 0
	}
	end := r.ended
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(r.started)
}

// Result is the condensed outcome handed back to callers.
type Result struct {
	Success bool   `json:"success"`
	Mode    string `json:"mode"`
	Error   string `json:"error,omitempty"`

	// Message is the model's final answer.
	Message string `json:"message,omitempty"`

	FilesModified []string `json:"files_modified,omitempty"`
	FilesCreated  []string `json:"files_created,omitempty"`

	Branch     string `json:"branch,omitempty"`
	CommitHash string `json:"commit,omitempty"`

	TokensUsed int           `json:"tokens"`
	Provider   string        `json:"provider,omitempty"`
	Model      string        `json:"model,omitempty"`
	ToolCalls  int           `json:"tool_calls"`
	Duration   time.Duration `json:"duration"`
}

// Result condenses the run for callers and history.
func (r *Run) Result() Result {
	return Result{
		Success:       r.Status == StatusSuccess,
		Mode:          r.Mode,
		Error:         r.Err,
		FilesModified: r.FilesModified(),
		FilesCreated:  r.FilesCreated(),
		Branch:        r.BranchCreated,
		CommitHash:    r.CommitHash,
		TokensUsed:    r.TokensUsed,
		Provider:      r.Provider,
		Model:         r.Model,
		ToolCalls:     len(r.Tools),
		Duration:      r.Duration(),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
