package netlogolink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestREPLExecute(t *testing.T) {
	link, _ := newTestLink(t)
	ctx := context.Background()
	if err := link.LoadModel(ctx, writeModel(t, "m.nlogo", "globals [x]")); err != nil {
		t.Fatal(err)
	}
	repl := NewREPL(link)

	out, err := repl.Execute(ctx, "set x 5\r\n")
	if err != nil || out != "" {
		t.Fatalf("Execute(command) = %q, %v", out, err)
	}
	out, err = repl.Execute(ctx, "? x")
	if err != nil {
		t.Fatalf("Execute(reporter) failed: %v", err)
	}
	if out != "5" {
		t.Errorf("Expected 5, got %q", out)
	}
	out, err = repl.Execute(ctx, `?"hi"`)
	if err != nil || out != `"hi"` {
		t.Errorf("Expected quoted string, got %q, %v", out, err)
	}

	for _, skip := range []string{"", "   ", "; a comment"} {
		if out, err := repl.Execute(ctx, skip); err != nil || out != "" {
			t.Errorf("Execute(%q) = %q, %v", skip, out, err)
		}
	}

	if _, err := repl.Execute(ctx, "frobnicate"); !errors.Is(err, ErrSimulation) {
		t.Errorf("Expected simulation error, got %v", err)
	}
}

func TestREPLMultiLine(t *testing.T) {
	link, launcher := newTestLink(t)
	ctx := context.Background()
	repl := NewREPL(link)

	if out, err := repl.Execute(ctx, "ask turtles ["); err != nil || out != "" {
		t.Fatalf("Expected buffering, got %q, %v", out, err)
	}
	if !repl.Pending() {
		t.Fatal("Expected a pending statement")
	}
	if _, err := repl.Execute(ctx, `  set label "]"`); err != nil {
		t.Fatal(err)
	}
	if !repl.Pending() {
		t.Fatal("A bracket inside a string must not close the statement")
	}
	_, err := repl.Execute(ctx, "]")
	if repl.Pending() {
		t.Error("Expected the statement to be complete")
	}
	// the fake engine does not know ask, so the whole block reached it as one command
	if !errors.Is(err, ErrSimulation) {
		t.Errorf("Expected the block to be sent, got %v", err)
	}
	ops := launcher.last.engine.ops()
	if n := len(ops); n != 2 || ops[1] != OpCommand {
		t.Errorf("Expected one command for the block, engine saw %v", ops)
	}
}

func TestREPLRun(t *testing.T) {
	link, _ := newTestLink(t)
	ctx := context.Background()
	if err := link.LoadModel(ctx, writeModel(t, "m.nlogo", "globals [x]")); err != nil {
		t.Fatal(err)
	}

	script := strings.Join([]string{
		"; setup",
		"set x 7",
		"? x",
		"",
		"? list true false true",
		`? ["a" "b"]`,
	}, "\n")

	var out bytes.Buffer
	if err := NewREPL(link).Run(ctx, strings.NewReader(script), &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := "7\n[true false true]\n[\"a\" \"b\"]\n"
	if out.String() != want {
		t.Errorf("Output = %q, want %q", out.String(), want)
	}
}

func TestREPLRunReportsLine(t *testing.T) {
	link, _ := newTestLink(t)

	script := "set x 1\n\nbogus 3\n"
	err := NewREPL(link).Run(context.Background(), strings.NewReader(script), &bytes.Buffer{})
	if err == nil || !strings.HasPrefix(err.Error(), "line 1:") {
		t.Errorf("Expected failure on line 1 (no model loaded), got %v", err)
	}

	err = NewREPL(link).Run(context.Background(), strings.NewReader("ask turtles [\n  fd 1\n"), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unterminated") {
		t.Errorf("Expected unterminated statement error, got %v", err)
	}
}

func TestREPLTimeout(t *testing.T) {
	link, _ := newTestLink(t)
	ctx := context.Background()
	repl := NewREPL(link)
	repl.Timeout = 50 * time.Millisecond

	err := repl.Run(ctx, strings.NewReader("? 2 + 2\n? hang\n"), &bytes.Buffer{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected the hanging statement to time out, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("Expected the error on line 2, got %v", err)
	}

	out, err := repl.Execute(ctx, "? 2 + 2")
	if err != nil || out != "4" {
		t.Errorf("Expected 4 after a timed out statement, got %q, %v", out, err)
	}
}

func TestREPLClose(t *testing.T) {
	link, launcher := newTestLink(t)
	ctx := context.Background()
	repl := NewREPL(link)

	if err := repl.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := repl.Execute(ctx, "? 2 + 2"); !errors.Is(err, ErrREPLClosed) {
		t.Errorf("Expected ErrREPLClosed, got %v", err)
	}
	if err := repl.Close(ctx); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
	ops := launcher.last.engine.ops()
	if ops[len(ops)-1] != OpKillWorkspace {
		t.Errorf("Expected Close to release the workspace, engine saw %v", ops)
	}
}

func TestOpenBrackets(t *testing.T) {
	tests := map[string]int{
		"ask turtles [ fd 1 ]":          0,
		"ask turtles [":                 1,
		`show "[["`:                     0,
		`show "\"[" [`:                  1,
		"foreach [1 2] [ ; comment [\n": 1,
		"]":                             -1,
	}
	for src, want := range tests {
		if got := openBrackets(src); got != want {
			t.Errorf("openBrackets(%q) = %d, want %d", src, got, want)
		}
	}
}
