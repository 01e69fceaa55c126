package netlogolink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ReporterPrefix marks a REPL line as a reporter rather than a command.
const ReporterPrefix = "?"

// ErrREPLClosed is returned by Execute after Close.
var ErrREPLClosed = errors.New("REPL has been closed")

// REPL evaluates NetLogo source line by line against a Simulator. Lines are
// commands; lines starting with ReporterPrefix are reporters whose value is
// returned in the engine's print format:
//
//	repl := netlogolink.NewREPL(link)
//	repl.Execute(ctx, "set x 5")
//	out, _ := repl.Execute(ctx, "? x * 2") // "10"
//
// REPL is safe for concurrent use. Execute calls are serialized so a
// multi-line statement is never interleaved with another caller's.
type REPL struct {
	sim Simulator

	// Timeout bounds each statement sent to the engine, in Execute and
	// Run alike. Zero waits indefinitely.
	Timeout time.Duration

	// m protects the fields below
	m       sync.Mutex
	closed  bool
	pending []string
}

// NewREPL returns a REPL driving sim.
func NewREPL(sim Simulator) *REPL {
	return &REPL{sim: sim}
}

// Execute evaluates one statement. Blank lines and ';' comments yield "".
// A statement whose brackets are still open is buffered and Execute
// returns ("", nil) until the closing line arrives.
func (r *REPL) Execute(ctx context.Context, line string) (string, error) {
	r.m.Lock()
	defer r.m.Unlock()

	if r.closed {
		return "", ErrREPLClosed
	}

	line = strings.TrimRight(strings.ReplaceAll(line, "\r\n", "\n"), " \t\r\n")
	if len(r.pending) == 0 {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			return "", nil
		}
	}

	r.pending = append(r.pending, line)
	source := strings.Join(r.pending, "\n")
	if openBrackets(source) > 0 {
		return "", nil
	}
	r.pending = nil

	return r.eval(ctx, strings.TrimSpace(source))
}

// Pending reports whether a multi-line statement is being buffered.
func (r *REPL) Pending() bool {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.pending) > 0
}

func (r *REPL) eval(ctx context.Context, source string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if rest, ok := strings.CutPrefix(source, ReporterPrefix); ok {
		v, err := r.sim.Query(ctx, strings.TrimSpace(rest))
		if err != nil {
			return "", err
		}
		return v.String(), nil
	}
	return "", r.sim.Command(ctx, source)
}

// Run executes every statement read from in, writing reporter values to
// out one per line. It stops at the first failing statement and reports
// its line number.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), MaxFrameSize)

	lineNo, start := 0, 0
	for scanner.Scan() {
		lineNo++
		if !r.Pending() {
			start = lineNo
		}
		result, err := r.Execute(ctx, scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", start, err)
		}
		if result != "" {
			if _, err := fmt.Fprintln(out, result); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if r.Pending() {
		return fmt.Errorf("line %d: unterminated statement", start)
	}
	return nil
}

// Close releases the workspace's model and rejects further input.
func (r *REPL) Close(ctx context.Context) error {
	r.m.Lock()
	defer r.m.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.pending = nil
	return r.sim.Release(ctx)
}

// openBrackets counts '[' not yet closed, ignoring string literals and
// comments.
func openBrackets(source string) int {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == ';':
			// comment runs to end of line
			for i < len(source) && source[i] != '\n' {
				i++
			}
		case c == '[':
			depth++
		case c == ']':
			depth--
		}
	}
	return depth
}
