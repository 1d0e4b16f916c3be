package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// PR describes a created pull request.
type PR struct {
	Number int
	URL    string
	Title  string
	From   string
	To     string
}

// HasGH reports whether the GitHub CLI is installed.
func HasGH() bool {
	_, err := exec.LookPath("gh")
	return err == nil
}

// CreatePR opens a pull request with the GitHub CLI. The current branch must
// already be pushed or gh will push it.
func (c *Client) CreatePR(ctx context.Context, from, to, title, body string, draft bool) (PR, error) {
	if !HasGH() {
		return PR{}, fmt.Errorf("cannot create pull request: GitHub CLI (gh) is not installed")
	}

	args := []string{"pr", "create", "--base", to, "--head", from, "--title", title}
	if body != "" {
		args = append(args, "--body", body)
	}
	if draft {
		args = append(args, "--draft")
	}

	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return PR{}, fmt.Errorf("create pull request: %s", strings.TrimSpace(stderr.String()))
	}

	url := strings.TrimSpace(stdout.String())
	number, err := ParsePRNumber(url)
	if err != nil {
		return PR{}, err
	}

	c.log.Info("created pull request", "number", number, "url", url)
	return PR{Number: number, URL: url, Title: title, From: from, To: to}, nil
}

// ParsePRNumber extracts the PR number from a URL like
// https://github.com/user/repo/pull/123.
func ParsePRNumber(url string) (int, error) {
	i := strings.LastIndex(url, "/")
	if i < 0 || i == len(url)-1 {
		return 0, fmt.Errorf("cannot parse pull request number from %q", url)
	}
	n, err := strconv.Atoi(url[i+1:])
	if err != nil {
		return 0, fmt.Errorf("cannot parse pull request number from %q", url)
	}
	return n, nil
}
