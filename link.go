package netlogolink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/richinsley/netlogolink/internal/logging"
)

// Simulator is the operation surface shared by Link and its wrappers.
type Simulator interface {
	LoadModel(ctx context.Context, path string) error
	Command(ctx context.Context, command string) error
	Query(ctx context.Context, reporter string) (Value, error)
	Release(ctx context.Context) error
}

var _ Simulator = (*Link)(nil)

// Options configures Initialize.
type Options struct {
	// GUI runs the engine with its graphical interface instead of headless.
	GUI bool

	// ThreeD starts the engine in 3-D mode.
	ThreeD bool

	// MaxHeap is the JVM -Xmx value. Only used when the runtime is started
	// by this call.
	MaxHeap string

	// JVMOptions are extra JVM options. Only used when the runtime is
	// started by this call.
	JVMOptions []string

	// Launcher overrides the JavaLauncher built from the environment.
	Launcher Launcher

	// Logger receives lifecycle messages at debug level. Errors returned to
	// the caller are not logged. May be nil.
	Logger *slog.Logger
}

// Link is one engine workspace inside the process-wide managed runtime.
//
// The first Initialize in a process starts the runtime; later calls attach
// to it, even when they ask for a different environment. The runtime can
// not be torn down and restarted within a process, so every Link in a
// process shares one JVM.
//
// Each operation blocks until the engine replies. Calls on one Link are
// serialized because the engine workspace is shared mutable state; use
// separate Links for independent workspaces.
//
// Error translation per operation:
//
//	LoadModel  I/O                                -> *ModelLoadError
//	           logic, compiler, interrupted       -> *SimulationError
//	Command    logic, compiler                    -> *SimulationError
//	Query      logic, compiler, any Exception     -> *SimulationError
//
// Anything not listed is returned untranslated as *EngineException. In
// particular Command does not translate runtime faults that Query would;
// this mirrors the engine bridge it wraps and callers relying on
// ErrSimulation from Command should also check for *EngineException.
type Link struct {
	rt     *Runtime
	id     int64
	gui    bool
	threeD bool
	logger *slog.Logger

	// m serializes operations on the workspace
	m sync.Mutex
}

// Initialize starts the managed runtime if it is not yet running and opens
// a new engine workspace with the requested GUI and 3-D flags.
//
// env may be nil when opts.Launcher is set or the runtime is already
// running. Startup failures are returned as the runtime reports them and
// should be treated as fatal for the process.
func Initialize(ctx context.Context, env *Environment, opts Options) (*Link, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	launcher := opts.Launcher
	if launcher == nil && env != nil {
		launcher = &JavaLauncher{
			Env:        env,
			MaxHeap:    opts.MaxHeap,
			JVMOptions: opts.JVMOptions,
			GUI:        opts.GUI,
			Logger:     logger,
		}
	}

	rt, err := StartRuntime(ctx, launcher, logger)
	if err != nil {
		return nil, err
	}
	return NewLink(ctx, rt, opts.GUI, opts.ThreeD, logger)
}

// NewLink opens a workspace on an already started runtime.
func NewLink(ctx context.Context, rt *Runtime, gui, threeD bool, logger *slog.Logger) (*Link, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	resp, err := rt.call(ctx, OpOpen, 0, map[string]interface{}{
		"gui":    gui,
		"threeD": threeD,
	})
	if err != nil {
		return nil, err
	}
	if err := responseError(resp); err != nil {
		return nil, err
	}
	logger.Debug("workspace opened", "link", resp.Link, "gui", gui, "threeD", threeD)
	return &Link{
		rt:     rt,
		id:     resp.Link,
		gui:    gui,
		threeD: threeD,
		logger: logger,
	}, nil
}

// ID is the engine-side identifier of the workspace.
func (l *Link) ID() int64 { return l.id }

// GUI reports whether the workspace was opened with a GUI.
func (l *Link) GUI() bool { return l.gui }

// ThreeD reports whether the workspace was opened in 3-D mode.
func (l *Link) ThreeD() bool { return l.threeD }

// Runtime returns the shared managed runtime.
func (l *Link) Runtime() *Runtime { return l.rt }

// LoadModel loads the model at path into the workspace.
func (l *Link) LoadModel(ctx context.Context, path string) error {
	resp, err := l.do(ctx, OpLoadModel, map[string]interface{}{"path": path})
	if err != nil {
		return err
	}
	exc := resp.Exception
	switch {
	case exc == nil:
		return responseError(resp)
	case exc.IsA(ClassIOException):
		return &ModelLoadError{Path: path, Message: exc.Message, Cause: exc}
	case exc.isLogo(), exc.isCompiler(), exc.IsA(ClassInterruptedException):
		return &SimulationError{Op: OpLoadModel, Message: exc.Message, Cause: exc}
	default:
		return exc
	}
}

// Command executes a statement that yields no value.
func (l *Link) Command(ctx context.Context, command string) error {
	resp, err := l.do(ctx, OpCommand, map[string]interface{}{"source": command})
	if err != nil {
		return err
	}
	exc := resp.Exception
	switch {
	case exc == nil:
		return responseError(resp)
	case exc.isLogo(), exc.isCompiler():
		return &SimulationError{Op: OpCommand, Message: exc.Message, Cause: exc}
	default:
		return exc
	}
}

// Query evaluates a reporter and returns its normalized value.
func (l *Link) Query(ctx context.Context, reporter string) (Value, error) {
	resp, err := l.do(ctx, OpReport, map[string]interface{}{"source": reporter})
	if err != nil {
		return Value{}, err
	}
	if exc := resp.Exception; exc != nil {
		if exc.isLogo() || exc.isCompiler() || exc.IsA(ClassException) {
			return Value{}, &SimulationError{Op: OpReport, Message: exc.Message, Cause: exc}
		}
		return Value{}, exc
	}
	if err := responseError(resp); err != nil {
		return Value{}, err
	}
	if resp.Result == nil {
		return Value{}, fmt.Errorf("report %q: engine returned no result", reporter)
	}
	return Normalize(resp.Result)
}

// Report is Query under the engine's own name for value-producing
// expressions.
func (l *Link) Report(ctx context.Context, reporter string) (Value, error) {
	return l.Query(ctx, reporter)
}

// Release discards the workspace's current model. The managed runtime keeps
// running and a new model can be loaded into the same Link afterwards.
func (l *Link) Release(ctx context.Context) error {
	resp, err := l.do(ctx, OpKillWorkspace, nil)
	if err != nil {
		return err
	}
	if resp.Exception != nil {
		return resp.Exception
	}
	return responseError(resp)
}

// KillWorkspace is Release under the engine's own name.
func (l *Link) KillWorkspace(ctx context.Context) error {
	return l.Release(ctx)
}

func (l *Link) do(ctx context.Context, op string, args map[string]interface{}) (*response, error) {
	l.m.Lock()
	defer l.m.Unlock()
	return l.rt.call(ctx, op, l.id, args)
}

// responseError covers a failed response that carries no exception.
func responseError(resp *response) error {
	if resp.Exception != nil {
		return resp.Exception
	}
	if !resp.OK {
		return errors.New("engine reported failure without an exception")
	}
	return nil
}
