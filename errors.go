package netlogolink

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelLoad is matched by errors from LoadModel when the model file
	// could not be found or read.
	ErrModelLoad = errors.New("model load I/O error")

	// ErrSimulation is matched by logic, compiler and interruption errors
	// raised by the engine.
	ErrSimulation = errors.New("simulation error")

	// ErrUnsupportedResultType is matched when a reporter yields a value
	// whose type tag is not one of the eight supported tags.
	ErrUnsupportedResultType = errors.New("unsupported result type")

	// ErrMissingArchive is matched when the engine installation lacks an
	// archive required to start the managed runtime.
	ErrMissingArchive = errors.New("missing engine archive")

	// ErrRuntimeExited is returned by every call made after the managed
	// runtime has gone away. The runtime is never restarted in-process.
	ErrRuntimeExited = errors.New("managed runtime exited")
)

// ModelLoadError reports an unreadable or missing model file.
type ModelLoadError struct {
	// Path is the model path passed to LoadModel.
	Path string

	// Message is the engine's message, verbatim.
	Message string

	// Cause is the engine exception that was translated.
	Cause *EngineException
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("%v: %s", ErrModelLoad, e.Message)
}

func (e *ModelLoadError) Is(target error) bool { return target == ErrModelLoad }

func (e *ModelLoadError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// SimulationError reports a logic, compiler or interruption failure inside
// the engine.
type SimulationError struct {
	// Op is the operation that failed ("loadModel", "command", "report").
	Op string

	// Message is the engine's message, verbatim.
	Message string

	// Cause is the engine exception that was translated.
	Cause *EngineException
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSimulation, e.Message)
}

func (e *SimulationError) Is(target error) bool { return target == ErrSimulation }

func (e *SimulationError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// UnsupportedResultTypeError names a result tag outside the supported set.
type UnsupportedResultTypeError struct {
	Tag string
}

func (e *UnsupportedResultTypeError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnsupportedResultType, e.Tag)
}

func (e *UnsupportedResultTypeError) Is(target error) bool {
	return target == ErrUnsupportedResultType
}

// MissingArchiveError lists every required archive absent from the
// installation.
type MissingArchiveError struct {
	Home  string
	Paths []string
}

func (e *MissingArchiveError) Error() string {
	return fmt.Sprintf("%v in %s: %s", ErrMissingArchive, e.Home, strings.Join(e.Paths, ", "))
}

func (e *MissingArchiveError) Is(target error) bool { return target == ErrMissingArchive }
