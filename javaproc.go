package netlogolink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DefaultMainClass is the link program's entry point inside LinkArchive.
const DefaultMainClass = "org.nlogo.link.LinkServer"

// DefaultMaxHeap is passed as -Xmx when JavaLauncher.MaxHeap is empty.
const DefaultMaxHeap = "1024m"

// terminateGrace is how long Terminate waits after the polite signal
// before killing the runtime.
const terminateGrace = 5 * time.Second

// JavaLauncher starts a JVM hosting the engine and the link program.
//
// The JVM's working directory and user.dir are the engine home, and
// java.library.path is the engine's native directory. The engine resolves
// its native resources relative to its install directory, so the runtime's
// working directory intentionally differs from the host process's.
type JavaLauncher struct {
	// Env is the verified engine installation (required).
	Env *Environment

	// MaxHeap is the -Xmx value, e.g. "2g". Defaults to DefaultMaxHeap.
	MaxHeap string

	// JVMOptions are extra options placed before the main class.
	JVMOptions []string

	// MainClass overrides DefaultMainClass.
	MainClass string

	// Environ holds extra environment variables for the runtime.
	Environ map[string]string

	// GUI leaves AWT enabled so workspaces can open the engine's window.
	GUI bool

	// HandleSignals terminates the JVM when the host receives SIGINT or
	// SIGTERM. When false the host keeps its own signal handling and is
	// expected to call Runtime.Terminate on shutdown.
	HandleSignals bool

	// Logger receives lifecycle messages. May be nil.
	Logger *slog.Logger
}

// Args returns the java command line without the executable.
func (l *JavaLauncher) Args() []string {
	heap := l.MaxHeap
	if heap == "" {
		heap = DefaultMaxHeap
	}
	main := l.MainClass
	if main == "" {
		main = DefaultMainClass
	}
	args := []string{
		"-Xmx" + heap,
		"-Djava.library.path=" + l.Env.NativePath,
		"-Duser.dir=" + l.Env.Home,
	}
	if !l.GUI {
		args = append(args, "-Djava.awt.headless=true")
	}
	args = append(args, "-classpath", l.Env.ClassPath())
	args = append(args, l.JVMOptions...)
	return append(args, main)
}

// Launch starts the JVM. The link program talks frames over the JVM's
// stdin/stdout; its stderr is returned for logging.
func (l *JavaLauncher) Launch(ctx context.Context) (Process, error) {
	if l.Env == nil {
		return nil, errors.New("java launcher has no environment")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(l.Env.JavaPath, l.Args()...)
	cmd.Dir = l.Env.Home
	cmd.Env = os.Environ()
	for key, value := range l.Environ {
		cmd.Env = append(cmd.Env, key+"="+value)
	}
	setProcessGroup(cmd)

	// Plain os.Pipe pairs rather than cmd.StdoutPipe: Wait closes the
	// latter, which would race the message loop's final reads.
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW)
		return nil, err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW, stdoutR, stdoutW)
		return nil, err
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	// the child holds its own copies now
	closeAll(stdinR, stdoutW, stderrW)
	if err != nil {
		closeAll(stdinW, stdoutR, stderrR)
		return nil, fmt.Errorf("error starting java: %w", err)
	}

	if l.Logger != nil {
		l.Logger.Debug("java started",
			"pid", cmd.Process.Pid,
			"java", l.Env.JavaPath,
			"home", l.Env.Home,
			"archives", len(l.Env.Archives))
	}

	jp := &JavaProcess{
		Cmd:       cmd,
		stderr:    stderrR,
		transport: NewFrameTransport(stdoutR, stdinW),
		exited:    make(chan struct{}),
	}
	go jp.reap()
	if l.HandleSignals {
		setupSignalHandler(jp)
	}
	return jp, nil
}

// JavaProcess is a running JVM started by JavaLauncher.
type JavaProcess struct {
	// Cmd is the underlying exec.Cmd for the JVM.
	Cmd *exec.Cmd

	stderr    io.ReadCloser
	transport *FrameTransport

	exited  chan struct{}
	waitErr error
	once    sync.Once
}

func (jp *JavaProcess) Transport() Transport { return jp.transport }
func (jp *JavaProcess) Stderr() io.Reader    { return jp.stderr }

// reap waits for the JVM exactly once; Wait and Terminate observe it via
// the exited channel.
func (jp *JavaProcess) reap() {
	err := jp.Cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == -1 {
			err = errors.New("java process was killed")
		}
	}
	jp.waitErr = err
	close(jp.exited)
}

// Wait blocks until the JVM exits.
func (jp *JavaProcess) Wait() error {
	<-jp.exited
	return jp.waitErr
}

// Terminate closes the link streams, signals the JVM's process group and
// kills it if it has not exited within five seconds.
func (jp *JavaProcess) Terminate() error {
	var err error
	jp.once.Do(func() {
		_ = jp.transport.Close()

		select {
		case <-jp.exited:
			return
		default:
		}

		if sigErr := signalTerminate(jp.Cmd); sigErr != nil {
			err = sigErr
		}

		select {
		case <-jp.exited:
		case <-time.After(terminateGrace):
			if killErr := killProcess(jp.Cmd); killErr != nil {
				err = killErr
			}
			<-jp.exited
		}
	})
	return err
}

func setupSignalHandler(jp *JavaProcess) {
	signalChan := make(chan os.Signal, 1)
	setSignalsForChannel(signalChan)

	go func() {
		select {
		case <-signalChan:
			jp.Terminate()
		case <-jp.exited:
		}
		stopSignals(signalChan)
	}()
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		f.Close()
	}
}
