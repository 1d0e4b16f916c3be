// Package render formats model output and status tables for the terminal.
// Model output always goes to the renderer's writer (stdout in the CLI) so it
// stays pipeable; diagnostics belong to the logger on stderr.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Renderer writes formatted output. Plain mode strips all color and
// decoration, for pipes and tests.
type Renderer struct {
	out   io.Writer
	plain bool

	header  *color.Color
	code    *color.Color
	success *color.Color
	failure *color.Color
	dim     *color.Color
}

func New(out io.Writer, plain bool) *Renderer {
	return &Renderer{
		out:     out,
		plain:   plain,
		header:  color.New(color.FgCyan, color.Bold),
		code:    color.New(color.FgGreen),
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		dim:     color.New(color.Faint),
	}
}

// Print writes s verbatim.
func (r *Renderer) Print(s string) {
	fmt.Fprint(r.out, s)
}

// Println writes s with a trailing newline.
func (r *Renderer) Println(s string) {
	fmt.Fprintln(r.out, s)
}

// Header writes a section heading.
func (r *Renderer) Header(s string) {
	if r.plain {
		fmt.Fprintf(r.out, "%s\n", s)
		return
	}
	r.header.Fprintln(r.out, s)
}

// Markdown writes model output, coloring fenced code blocks. It does not
// attempt full markdown rendering; code fences are the only structure that
// matters for readability in a terminal.
func (r *Renderer) Markdown(text string) {
	if r.plain {
		fmt.Fprintln(r.out, text)
		return
	}
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCode = !inCode
			r.dim.Fprintln(r.out, line)
			continue
		}
		if inCode {
			r.code.Fprintln(r.out, line)
		} else {
			fmt.Fprintln(r.out, line)
		}
	}
}

// Success writes a confirmation line.
func (r *Renderer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.plain {
		fmt.Fprintf(r.out, "ok: %s\n", msg)
		return
	}
	r.success.Fprintf(r.out, "✓ %s\n", msg)
}

// Failure writes an error line. The CLI uses this for user-facing errors;
// internal diagnostics go through the logger.
func (r *Renderer) Failure(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.plain {
		fmt.Fprintf(r.out, "error: %s\n", msg)
		return
	}
	r.failure.Fprintf(r.out, "✗ %s\n", msg)
}

// Table writes rows under a header, aligned with tabwriter.
func (r *Renderer) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	if len(headers) > 0 {
		if r.plain {
			fmt.Fprintln(w, strings.Join(headers, "\t"))
		} else {
			r.header.Fprintln(w, strings.Join(headers, "\t"))
		}
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows progress on stderr while a request is in flight. It stays
// silent in plain mode and when stderr is not a terminal, so pipes and logs
// never see control sequences.
type Spinner struct {
	w       io.Writer
	msg     string
	enabled bool
	stop    chan struct{}
	done    chan struct{}
}

// Spinner starts a spinner with the given message. Call Stop when the work
// finishes.
func (r *Renderer) Spinner(msg string) *Spinner {
	enabled := !r.plain && isatty.IsTerminal(os.Stderr.Fd())
	return newSpinner(os.Stderr, enabled, msg)
}

func newSpinner(w io.Writer, enabled bool, msg string) *Spinner {
	s := &Spinner{
		w:       w,
		msg:     msg,
		enabled: enabled,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if !enabled {
		close(s.done)
		return s
	}
	fmt.Fprintf(w, "\r%s %s", spinnerFrames[0], msg)
	go s.spin()
	return s
}

func (s *Spinner) spin() {
	defer close(s.done)
	t := time.NewTicker(120 * time.Millisecond)
	defer t.Stop()
	for i := 1; ; i++ {
		select {
		case <-s.stop:
			return
		case <-t.C:
			fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.msg)
		}
	}
}

// Stop halts the spinner and clears its line. Calling Stop on a suppressed
// spinner is a no-op.
func (s *Spinner) Stop() {
	if !s.enabled {
		return
	}
	s.enabled = false
	close(s.stop)
	<-s.done
	fmt.Fprint(s.w, "\r\033[K")
}

// KeyValues writes aligned key/value pairs, preserving order.
func (r *Renderer) KeyValues(pairs [][2]string) {
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	for _, p := range pairs {
		if r.plain {
			fmt.Fprintf(w, "%s\t%s\n", p[0], p[1])
		} else {
			fmt.Fprintf(w, "%s\t%s\n", r.dim.Sprint(p[0]), p[1])
		}
	}
	w.Flush()
}
