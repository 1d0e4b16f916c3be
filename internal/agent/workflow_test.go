package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rocket-cli/internal/events"
	"rocket-cli/internal/llm"
	"rocket-cli/internal/logger"
	"rocket-cli/internal/modes"
	"rocket-cli/internal/tools"
)

func newWorkflow(t *testing.T, gen Generator, git Git) (*Workflow, string) {
	t.Helper()
	ws := t.TempDir()
	registry := modes.NewRegistry()
	log := logger.New("error")
	selector := modes.NewSelector(nil, registry, log)
	return NewWorkflow(
		gen, selector, registry, tools.DefaultRegistry(ws),
		git, events.NewNoOpPublisher(), log, ws,
	), ws
}

func TestExecutePlainAnswer(t *testing.T) {
	gen := &llm.MockProvider{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(llm.Response{
			Text:     "The retry logic uses exponential backoff.",
			Model:    "gpt-4o-mini",
			Provider: "openai",
			Usage:    llm.Usage{TotalTokens: 120},
		}, nil)

	w, _ := newWorkflow(t, gen, nil)
	res, err := w.Execute(context.Background(), "explain the retry logic", Options{Mode: "read"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "read", res.Mode)
	assert.Equal(t, "The retry logic uses exponential backoff.", res.Message)
	assert.Equal(t, 120, res.TokensUsed)
	assert.Equal(t, "openai", res.Provider)
	assert.Zero(t, res.ToolCalls)
}

func TestExecuteToolLoop(t *testing.T) {
	gen := &llm.MockProvider{}
	// First call requests a tool, second call answers.
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(llm.Response{
			ToolCalls: []llm.ToolCall{{
				ID:        "call_1",
				Name:      "read_file",
				Arguments: map[string]any{"path": "main.go"},
			}},
			Usage: llm.Usage{TotalTokens: 50},
		}, nil).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(opts llm.GenerateOptions) bool {
		// The tool result must come back as a tool message tied to the call.
		last := opts.Messages[len(opts.Messages)-1]
		return last.Role == "tool" && last.ToolCallID == "call_1"
	})).Return(llm.Response{
		Text:  "main.go declares the entry point.",
		Usage: llm.Usage{TotalTokens: 80},
	}, nil).Once()

	w, ws := newWorkflow(t, gen, nil)
	require.NoError(t, os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main"), 0o644))

	res, err := w.Execute(context.Background(), "anything", Options{Mode: "read"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "main.go declares the entry point.", res.Message)
	assert.Equal(t, 130, res.TokensUsed)
	assert.Equal(t, 1, res.ToolCalls)
	gen.AssertExpectations(t)
}

func TestExecuteDeniesForbiddenTool(t *testing.T) {
	gen := &llm.MockProvider{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(llm.Response{
			ToolCalls: []llm.ToolCall{{
				ID:        "call_1",
				Name:      "write_file",
				Arguments: map[string]any{"path": "x.txt", "content": "x"},
			}},
		}, nil)

	w, _ := newWorkflow(t, gen, nil)
	res, err := w.Execute(context.Background(), "anything", Options{Mode: "read"})

	require.Error(t, err)
	var denied *ToolNotAllowedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "write_file", denied.Tool)
	assert.Equal(t, "read", denied.Mode)
	assert.False(t, res.Success)
}

func TestExecuteCreatesSafetyBranch(t *testing.T) {
	gen := &llm.MockProvider{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(llm.Response{Text: "done"}, nil)

	git := &MockGit{}
	git.On("IsRepo", mock.Anything).Return(true)
	git.On("CurrentBranch", mock.Anything).Return("main", nil)
	git.On("CreateBranch", mock.Anything, mock.MatchedBy(func(name string) bool {
		return len(name) > 0 && name[:13] == "rocket/agent/"
	})).Return(nil)

	w, _ := newWorkflow(t, gen, git)
	res, err := w.Execute(context.Background(), "add jwt auth", Options{
		Mode: "agent", CreateBranch: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Branch)
	git.AssertExpectations(t)
}

func TestExecuteAutoCommit(t *testing.T) {
	gen := &llm.MockProvider{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(llm.Response{Text: "done"}, nil)

	git := &MockGit{}
	git.On("IsRepo", mock.Anything).Return(true)
	git.On("HasChanges", mock.Anything).Return(true, nil)
	git.On("Commit", mock.Anything, mock.Anything).Return("abc1234", nil)

	w, _ := newWorkflow(t, gen, git)
	res, err := w.Execute(context.Background(), "tidy imports", Options{
		Mode: "read", AutoCommit: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc1234", res.CommitHash)
}

func TestExecuteUnknownMode(t *testing.T) {
	gen := &llm.MockProvider{}
	w, _ := newWorkflow(t, gen, nil)
	_, err := w.Execute(context.Background(), "anything", Options{Mode: "warp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestExecutePublishesEvents(t *testing.T) {
	gen := &llm.MockProvider{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(llm.Response{Text: "ok"}, nil)

	pub := &events.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.TypeRunStarted
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.TypeRunCompleted
	})).Return(nil).Once()

	ws := t.TempDir()
	registry := modes.NewRegistry()
	log := logger.New("error")
	w := NewWorkflow(
		gen, modes.NewSelector(nil, registry, log), registry,
		tools.DefaultRegistry(ws), nil, pub, log, ws,
	)

	_, err := w.Execute(context.Background(), "anything", Options{Mode: "read"})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestBranchName(t *testing.T) {
	id := uuid.MustParse("1a2b3c4d-0000-0000-0000-000000000000")
	name := BranchName("agent", "Add JWT authentication to the API!", id)
	assert.Equal(t, "rocket/agent/add-jwt-authentication-to-1a2b3c4d", name)
}

func TestRunTracking(t *testing.T) {
	run := NewRun("prompt", "/ws")
	run.Start()
	run.RecordFileRead("a.go")
	run.RecordFileRead("a.go")
	run.RecordFileModified("b.go")
	run.RecordFileCreated("c.go")
	run.RecordUsage(100, "m1", "p1")
	run.RecordUsage(50, "m2", "p2")
	run.Complete(nil)

	assert.Equal(t, StatusSuccess, run.Status)
	assert.Equal(t, []string{"a.go"}, run.FilesRead())
	assert.Equal(t, []string{"b.go"}, run.FilesModified())
	assert.Equal(t, []string{"c.go"}, run.FilesCreated())
	assert.Equal(t, 150, run.TokensUsed)
	assert.Equal(t, 2, run.LLMCalls)
	// First call wins for model attribution.
	assert.Equal(t, "m1", run.Model)
}
