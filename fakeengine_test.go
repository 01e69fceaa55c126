package netlogolink

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

// fakeEngine speaks the link protocol over in-memory pipes and evaluates a
// handful of canned commands and reporters.
type fakeEngine struct {
	transport *FrameTransport

	mu         sync.Mutex
	nextLink   int64
	workspaces map[int64]*fakeWorkspace
	requests   []request
}

type fakeWorkspace struct {
	gui, threeD bool
	model       string
	globals     map[string]int64
}

type fakeResult struct {
	tag   string
	value interface{}
}

var cannedReporters = map[string]fakeResult{
	"2 + 2":                 {TagInteger, int64(4)},
	"list true false true":  {TagBoolList, []int64{1, 0, 1}},
	"true":                  {TagBoolean, int64(1)},
	"false":                 {TagBoolean, int64(0)},
	"1.5 * 2":               {TagDouble, 3.0},
	`"hi"`:                  {TagString, "hi"},
	`["a" "b"]`:             {TagStringList, []string{"a", "b"}},
	"n-values 3 [ i -> i ]": {TagIntegerList, []int64{0, 1, 2}},
	"[0.5 1.5]":             {TagDoubleList, []float64{0.5, 1.5}},
	"patches":               {"AgentSet", []int64{}},
}

// fakeProcess is the Process side of a fakeEngine.
type fakeProcess struct {
	transport  *FrameTransport
	engine     *fakeEngine
	stderr     io.Reader
	terminated bool
}

func (p *fakeProcess) Transport() Transport { return p.transport }
func (p *fakeProcess) Stderr() io.Reader    { return p.stderr }

func (p *fakeProcess) Terminate() error {
	p.terminated = true
	p.transport.Close()
	return p.engine.transport.Close()
}

// fakeLauncher counts launches and optionally fails.
type fakeLauncher struct {
	mu       sync.Mutex
	launches int
	fail     error
	last     *fakeProcess
}

func (l *fakeLauncher) Launch(ctx context.Context) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.launches++
	l.last = startFakeEngine()
	return l.last, nil
}

func startFakeEngine() *fakeProcess {
	toEngineR, toEngineW := io.Pipe()
	fromEngineR, fromEngineW := io.Pipe()

	engine := &fakeEngine{
		transport:  NewFrameTransport(toEngineR, fromEngineW),
		workspaces: make(map[int64]*fakeWorkspace),
	}
	go engine.serve()

	return &fakeProcess{
		transport: NewFrameTransport(fromEngineR, toEngineW),
		engine:    engine,
		stderr:    strings.NewReader("fake engine booting\n"),
	}
}

func (e *fakeEngine) serve() {
	e.send(response{Op: opReady, OK: true, Version: "6.4.0"})
	for {
		frame, err := e.transport.Receive()
		if err != nil {
			return
		}
		var req request
		if err := msgpack.Unmarshal(frame, &req); err != nil {
			return
		}
		e.mu.Lock()
		e.requests = append(e.requests, req)
		e.mu.Unlock()

		if req.Op == OpExit {
			e.transport.Close()
			return
		}
		if req.Op == OpReport && req.Args["source"] == "hang" {
			continue
		}
		if req.Op == OpCommand && req.Args["source"] == "crash" {
			e.transport.Close()
			return
		}
		resp := e.handle(req)
		resp.ID = req.ID
		e.send(resp)
	}
}

func (e *fakeEngine) send(resp response) {
	data, err := msgpack.Marshal(&resp)
	if err != nil {
		panic(err)
	}
	e.transport.Send(data)
}

func (e *fakeEngine) handle(req request) response {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Op == OpOpen {
		e.nextLink++
		gui, _ := req.Args["gui"].(bool)
		threeD, _ := req.Args["threeD"].(bool)
		e.workspaces[e.nextLink] = &fakeWorkspace{gui: gui, threeD: threeD, globals: map[string]int64{}}
		return response{OK: true, Link: e.nextLink}
	}

	ws, ok := e.workspaces[req.Link]
	if !ok {
		return failure("java.lang.IllegalStateException", "no workspace "+strconv.FormatInt(req.Link, 10), "java.lang.RuntimeException", ClassException)
	}

	source, _ := req.Args["source"].(string)
	switch req.Op {
	case OpLoadModel:
		path, _ := req.Args["path"].(string)
		data, err := os.ReadFile(path)
		if err != nil {
			return failure("java.io.FileNotFoundException", path+" (No such file or directory)", ClassIOException, ClassException)
		}
		if strings.HasSuffix(path, ".interrupt") {
			return failure(ClassInterruptedException, "model load interrupted", ClassException)
		}
		if strings.Contains(string(data), "ERROR") {
			return failure(ClassCompilerException, "Nothing named ERROR has been defined.", "java.lang.RuntimeException", ClassException)
		}
		ws.model = path
		ws.globals = map[string]int64{"x": 0}
		return response{OK: true}

	case OpCommand:
		fields := strings.Fields(source)
		switch {
		case len(fields) == 3 && fields[0] == "set":
			if _, ok := ws.globals[fields[1]]; !ok {
				return failure(ClassCompilerException, "Nothing named "+strings.ToUpper(fields[1])+" has been defined.", "java.lang.RuntimeException", ClassException)
			}
			n, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil {
				return failure(ClassCompilerException, "Expected a number", "java.lang.RuntimeException", ClassException)
			}
			ws.globals[fields[1]] = n
			return response{OK: true}
		case source == "setup" || source == "go":
			if ws.model == "" {
				return failure("org.nlogo.nvm.EngineException", "You can't use SETUP without a model", ClassLogoException, ClassException)
			}
			return response{OK: true}
		case source == "fault":
			return failure("java.lang.NullPointerException", "workspace fault", "java.lang.RuntimeException", ClassException)
		default:
			return failure(ClassCompilerException, "Nothing named "+strings.ToUpper(firstWord(source))+" has been defined.", "java.lang.RuntimeException", ClassException)
		}

	case OpReport:
		if n, ok := ws.globals[source]; ok {
			return result(TagInteger, n)
		}
		if r, ok := cannedReporters[source]; ok {
			return result(r.tag, r.value)
		}
		if source == "fault" {
			return failure("java.lang.NullPointerException", "workspace fault", "java.lang.RuntimeException", ClassException)
		}
		return failure(ClassCompilerException, "Nothing named "+strings.ToUpper(firstWord(source))+" has been defined.", "java.lang.RuntimeException", ClassException)

	case OpKillWorkspace:
		ws.model = ""
		ws.globals = map[string]int64{}
		return response{OK: true}
	}
	return failure("java.lang.UnsupportedOperationException", req.Op, "java.lang.RuntimeException", ClassException)
}

func (e *fakeEngine) ops() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ops := make([]string, len(e.requests))
	for i, r := range e.requests {
		ops[i] = r.Op
	}
	return ops
}

func failure(class, message string, hierarchy ...string) response {
	return response{
		OK: false,
		Exception: &EngineException{
			Class:      class,
			Hierarchy:  append(hierarchy, "java.lang.Throwable", "java.lang.Object"),
			Message:    message,
			StackTrace: "\tat org.nlogo.link.LinkServer.dispatch(LinkServer.java:88)",
		},
	}
}

func result(tag string, v interface{}) response {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		panic(err)
	}
	return response{OK: true, Result: &wireEnvelope{Type: tag, Value: raw}}
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}

// resetManagedRuntime clears the process-wide runtime so each test starts
// from an unstarted process, and terminates whatever the test started.
func resetManagedRuntime(t *testing.T) {
	t.Helper()
	reset := func() {
		managed.mu.Lock()
		rt := managed.rt
		managed.rt = nil
		managed.launches = 0
		managed.mu.Unlock()
		if rt != nil {
			rt.Terminate()
		}
	}
	reset()
	t.Cleanup(reset)
}

// newTestLink starts a fake runtime and opens one headless link.
func newTestLink(t *testing.T) (*Link, *fakeLauncher) {
	t.Helper()
	resetManagedRuntime(t)
	launcher := &fakeLauncher{}
	link, err := Initialize(context.Background(), nil, Options{Launcher: launcher})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return link, launcher
}

func writeModel(t *testing.T, name, content string) string {
	t.Helper()
	path := t.TempDir() + string(os.PathSeparator) + name
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write model: %v", err)
	}
	return path
}

var errLaunch = errors.New("jvm.dll not found")
