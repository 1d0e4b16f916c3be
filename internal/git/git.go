package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// productionBranches are never written to directly; workflows always branch
// off them first.
var productionBranches = map[string]bool{
	"main":       true,
	"master":     true,
	"production": true,
	"prod":       true,
	"release":    true,
}

// Status is a snapshot of the working tree.
type Status struct {
	IsRepo             bool
	Branch             string
	Clean              bool
	UncommittedFiles   []string
	IsProductionBranch bool
}

// Error wraps a failed git invocation with its stderr.
type Error struct {
	Op     string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %s: %s", e.Op, e.Stderr)
	}
	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client shells out to git for repository operations rooted at Dir.
type Client struct {
	Dir string
	log *slog.Logger
}

func NewClient(dir string, log *slog.Logger) *Client {
	return &Client{Dir: dir, log: log}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &Error{Op: strings.Join(args, " "), Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsRepo reports whether Dir is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	out, err := c.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// CurrentBranch returns the checked-out branch name.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	return c.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// HasChanges reports whether the working tree has uncommitted changes.
func (c *Client) HasChanges(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// GetStatus collects a full snapshot of the repository state.
func (c *Client) GetStatus(ctx context.Context) Status {
	if !c.IsRepo(ctx) {
		return Status{Clean: true}
	}
	branch, err := c.CurrentBranch(ctx)
	if err != nil {
		c.log.Warn("could not read current branch", "error", err)
	}
	porcelain, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		c.log.Warn("git status failed", "error", err)
	}
	files := ParsePorcelain(porcelain)
	return Status{
		IsRepo:             true,
		Branch:             branch,
		Clean:              len(files) == 0,
		UncommittedFiles:   files,
		IsProductionBranch: productionBranches[branch],
	}
}

// CreateBranch creates and checks out name. If the branch already exists a
// timestamp suffix is appended instead of failing.
func (c *Client) CreateBranch(ctx context.Context, name string) error {
	if c.branchExists(ctx, name) {
		name = fmt.Sprintf("%s-%s", name, time.Now().Format("20060102-150405"))
		c.log.Warn("branch exists, using suffixed name", "branch", name)
	}
	_, err := c.run(ctx, "checkout", "-b", name)
	return err
}

func (c *Client) branchExists(ctx context.Context, name string) bool {
	_, err := c.run(ctx, "rev-parse", "--verify", "refs/heads/"+name)
	return err == nil
}

// Stash saves uncommitted changes with a marker message so they can be found
// again.
func (c *Client) Stash(ctx context.Context) error {
	_, err := c.run(ctx, "stash", "push", "-m", "rocket: auto-stash before run")
	return err
}

// StashPop restores the most recent stash.
func (c *Client) StashPop(ctx context.Context) error {
	_, err := c.run(ctx, "stash", "pop")
	return err
}

// Commit stages everything and commits, returning the short hash.
func (c *Client) Commit(ctx context.Context, message string) (string, error) {
	if _, err := c.run(ctx, "add", "-A"); err != nil {
		return "", err
	}
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	return c.run(ctx, "rev-parse", "--short", "HEAD")
}

// ParsePorcelain extracts file paths from `git status --porcelain` output.
// Renames report the new path.
func ParsePorcelain(out string) []string {
	if out == "" {
		return nil
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		// Quoted paths contain spaces or unicode.
		path = strings.Trim(path, `"`)
		if path != "" {
			files = append(files, path)
		}
	}
	return files
}

// IsProductionBranch reports whether name is a protected branch.
func IsProductionBranch(name string) bool {
	return productionBranches[name]
}
