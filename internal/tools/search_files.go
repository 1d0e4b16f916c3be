package tools

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"rocket-cli/internal/llm"
)

const (
	searchWorkers  = 8
	maxSearchHits  = 200
	maxScannedSize = 1024 * 1024
)

// Match is one search hit.
type Match struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SearchFiles greps the workspace tree for a regular expression, scanning
// files concurrently.
type SearchFiles struct {
	workspace string
}

func NewSearchFiles(workspace string) *SearchFiles {
	return &SearchFiles{workspace: workspace}
}

func (t *SearchFiles) Name() string       { return "search_files" }
func (t *SearchFiles) Category() Category { return CategoryRead }
func (t *SearchFiles) Description() string {
	return "Search workspace files for a regular expression and return matching lines."
}

func (t *SearchFiles) Schema() llm.ToolDef {
	return llm.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string", "description": "Go regular expression"},
				"path":    map[string]any{"type": "string", "description": "Subdirectory to search (default workspace root)"},
				"glob":    map[string]any{"type": "string", "description": "Filename glob filter, e.g. *.go"},
			},
			"required": []string{"pattern"},
		},
	}
}

func (t *SearchFiles) Run(ctx context.Context, args map[string]any) Result {
	pattern, err := stringArg(args, "pattern")
	if err != nil {
		return Fail("%v", err)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Fail("invalid pattern: %v", err)
	}

	rel := "."
	if v, ok := args["path"].(string); ok && v != "" {
		rel = v
	}
	glob, _ := args["glob"].(string)

	root, err := resolvePath(t.workspace, rel)
	if err != nil {
		return Fail("%v", err)
	}

	// Collect candidate files first, then scan them on a worker pool.
	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if skipDirs[name] || (strings.HasPrefix(name, ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if glob != "" {
			if ok, _ := filepath.Match(glob, name); !ok {
				return nil
			}
		}
		if info, err := d.Info(); err != nil || info.Size() > maxScannedSize {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return Fail("walk %s: %v", rel, walkErr)
	}

	var mu sync.Mutex
	var matches []Match

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchWorkers)
	for _, path := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			hits, err := scanFile(path, root, re)
			if err != nil || len(hits) == 0 {
				return nil // unreadable or binary files are skipped silently
			}
			mu.Lock()
			matches = append(matches, hits...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil && len(matches) == 0 {
		return Fail("search cancelled: %v", err)
	}

	truncated := false
	if len(matches) > maxSearchHits {
		matches = matches[:maxSearchHits]
		truncated = true
	}
	return Ok(map[string]any{"matches": matches}, map[string]any{
		"pattern":   pattern,
		"files":     len(files),
		"hits":      len(matches),
		"truncated": truncated,
	})
}

func scanFile(path, root string, re *regexp.Regexp) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}

	var hits []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScannedSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if bytes.IndexByte(line, 0) >= 0 {
			return nil, nil // binary file
		}
		if re.Match(line) {
			hits = append(hits, Match{Path: relPath, Line: lineNo, Text: string(line)})
		}
	}
	return hits, scanner.Err()
}
