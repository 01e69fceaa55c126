package netlogolink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/richinsley/netlogolink/internal/logging"
)

// Process is a started managed runtime hosting the link program.
type Process interface {
	// Transport carries frames to and from the link program.
	Transport() Transport

	// Stderr is the runtime's diagnostic output. It may be nil.
	Stderr() io.Reader

	// Terminate stops the runtime.
	Terminate() error
}

// Launcher starts the managed runtime. JavaLauncher is the production
// implementation.
type Launcher interface {
	Launch(ctx context.Context) (Process, error)
}

// Runtime is the process-wide connection to the managed runtime. It is
// started at most once per process by StartRuntime and is never restarted:
// after the runtime exits every call fails with ErrRuntimeExited.
//
// Runtime is safe for concurrent use. Requests are correlated with
// responses by unique IDs, so calls from different links may overlap.
type Runtime struct {
	proc       Process
	transport  Transport
	serializer Serializer
	logger     *slog.Logger

	// mutex protects pending and exitErr
	mutex   sync.Mutex
	pending map[string]chan *response
	exitErr error

	nextID  atomic.Int64
	done    chan struct{}
	ready   chan struct{}
	version atomic.Value
}

// process-wide runtime state; see StartRuntime.
var managed struct {
	mu       sync.Mutex
	rt       *Runtime
	launches int
}

// StartRuntime starts the managed runtime with launcher unless it is
// already running, in which case the live runtime is returned and launcher
// is ignored. A failed launch leaves no runtime behind, so the error is the
// launcher's own.
func StartRuntime(ctx context.Context, launcher Launcher, logger *slog.Logger) (*Runtime, error) {
	managed.mu.Lock()
	defer managed.mu.Unlock()

	if managed.rt != nil {
		return managed.rt, nil
	}
	if launcher == nil {
		return nil, errors.New("no launcher for the managed runtime")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	proc, err := launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	managed.launches++

	rt := newRuntime(proc, logger)
	managed.rt = rt
	logger.Debug("managed runtime started")
	return rt, nil
}

// CurrentRuntime returns the process-wide runtime, or nil if none was
// started.
func CurrentRuntime() *Runtime {
	managed.mu.Lock()
	defer managed.mu.Unlock()
	return managed.rt
}

func newRuntime(proc Process, logger *slog.Logger) *Runtime {
	rt := &Runtime{
		proc:       proc,
		transport:  proc.Transport(),
		serializer: MsgpackSerializer{},
		logger:     logger,
		pending:    make(map[string]chan *response),
		done:       make(chan struct{}),
		ready:      make(chan struct{}),
	}
	if stderr := proc.Stderr(); stderr != nil {
		go rt.forwardStderr(stderr)
	}
	go rt.messageLoop()
	return rt
}

// Done is closed once the runtime has exited.
func (rt *Runtime) Done() <-chan struct{} { return rt.done }

// Ready is closed when the link program announces that the engine is
// loaded. Calls made earlier are queued by the link program.
func (rt *Runtime) Ready() <-chan struct{} { return rt.ready }

// Err returns why the runtime exited, or nil while it is running.
func (rt *Runtime) Err() error {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	return rt.exitErr
}

// EngineVersion returns the engine version announced by the link program,
// or "" if it has not announced one yet.
func (rt *Runtime) EngineVersion() string {
	v, _ := rt.version.Load().(string)
	return v
}

func (rt *Runtime) forwardStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rt.logger.Debug("runtime stderr", "line", scanner.Text())
	}
}

// messageLoop reads frames until the transport fails and routes each
// response to the call waiting on its ID.
func (rt *Runtime) messageLoop() {
	for {
		frame, err := rt.transport.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) {
				rt.shutdown(ErrRuntimeExited)
			} else {
				rt.shutdown(fmt.Errorf("%w: %v", ErrRuntimeExited, err))
			}
			return
		}

		rt.logger.Log(context.Background(), logging.LevelTrace, "frame received", "size", len(frame))

		var msg response
		if err := rt.serializer.Unmarshal(frame, &msg); err != nil {
			rt.logger.Warn("undecodable frame from runtime", "error", err, "size", len(frame))
			continue
		}

		if msg.ID == "" {
			rt.handleNotice(&msg)
			continue
		}

		rt.mutex.Lock()
		ch, ok := rt.pending[msg.ID]
		delete(rt.pending, msg.ID)
		rt.mutex.Unlock()
		if !ok {
			rt.logger.Debug("response for unknown request", "id", msg.ID)
			continue
		}
		ch <- &msg
	}
}

func (rt *Runtime) handleNotice(msg *response) {
	switch msg.Op {
	case opReady:
		rt.version.Store(msg.Version)
		rt.logger.Debug("engine ready", "version", msg.Version)
		select {
		case <-rt.ready:
		default:
			close(rt.ready)
		}
	default:
		rt.logger.Debug("unsolicited message from runtime", "op", msg.Op)
	}
}

// shutdown records the exit reason and fails every pending call.
func (rt *Runtime) shutdown(reason error) {
	rt.mutex.Lock()
	if rt.exitErr != nil {
		rt.mutex.Unlock()
		return
	}
	rt.exitErr = reason
	pending := rt.pending
	rt.pending = make(map[string]chan *response)
	rt.mutex.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	close(rt.done)
	rt.logger.Debug("managed runtime exited", "reason", reason)
}

func (rt *Runtime) generateRequestID() string {
	return "req-" + strconv.FormatInt(rt.nextID.Add(1), 10)
}

// call sends one request and blocks until its response arrives, the
// runtime exits, or ctx is done. A cancelled call is abandoned on the Go
// side only; the engine keeps running it.
func (rt *Runtime) call(ctx context.Context, op string, link int64, args map[string]interface{}) (*response, error) {
	req := request{
		ID:   rt.generateRequestID(),
		Op:   op,
		Link: link,
		Args: args,
	}
	data, err := rt.serializer.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	rt.logger.Log(ctx, logging.LevelTrace, "frame sent", "id", req.ID, "op", op, "size", len(data))

	ch := make(chan *response, 1)
	rt.mutex.Lock()
	if rt.exitErr != nil {
		err := rt.exitErr
		rt.mutex.Unlock()
		return nil, err
	}
	rt.pending[req.ID] = ch
	rt.mutex.Unlock()

	if err := rt.transport.Send(data); err != nil {
		rt.forget(req.ID)
		if exitErr := rt.Err(); exitErr != nil {
			return nil, exitErr
		}
		return nil, fmt.Errorf("failed to send %s request: %w", op, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, rt.Err()
		}
		return resp, nil
	case <-ctx.Done():
		rt.forget(req.ID)
		return nil, ctx.Err()
	}
}

func (rt *Runtime) forget(id string) {
	rt.mutex.Lock()
	delete(rt.pending, id)
	rt.mutex.Unlock()
}

// Terminate asks the link program to exit and stops the managed runtime.
// It is meant for process shutdown: the runtime cannot be started again in
// the same process.
func (rt *Runtime) Terminate() error {
	if rt.Err() == nil {
		req := request{ID: rt.generateRequestID(), Op: OpExit}
		if data, err := rt.serializer.Marshal(&req); err == nil {
			_ = rt.transport.Send(data)
		}
	}
	err := rt.proc.Terminate()
	rt.shutdown(ErrRuntimeExited)
	return err
}
