package journal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/richinsley/netlogolink"
	"github.com/richinsley/netlogolink/internal/logging"
)

// Recorder is a netlogolink.Simulator that journals every call it
// forwards. Journal failures are logged and never change the result the
// caller sees.
type Recorder struct {
	sim     netlogolink.Simulator
	journal *Journal
	session string
	logger  *slog.Logger
}

var _ netlogolink.Simulator = (*Recorder)(nil)

// Wrap returns a Recorder forwarding to sim. session groups the entries of
// one run; logger may be nil.
func Wrap(sim netlogolink.Simulator, j *Journal, session string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{sim: sim, journal: j, session: session, logger: logger}
}

func (r *Recorder) LoadModel(ctx context.Context, path string) error {
	start := time.Now()
	err := r.sim.LoadModel(ctx, path)
	r.record(ctx, start, netlogolink.OpLoadModel, path, netlogolink.Value{}, err)
	return err
}

func (r *Recorder) Command(ctx context.Context, command string) error {
	start := time.Now()
	err := r.sim.Command(ctx, command)
	r.record(ctx, start, netlogolink.OpCommand, command, netlogolink.Value{}, err)
	return err
}

func (r *Recorder) Query(ctx context.Context, reporter string) (netlogolink.Value, error) {
	start := time.Now()
	v, err := r.sim.Query(ctx, reporter)
	r.record(ctx, start, netlogolink.OpReport, reporter, v, err)
	return v, err
}

func (r *Recorder) Release(ctx context.Context) error {
	start := time.Now()
	err := r.sim.Release(ctx)
	r.record(ctx, start, netlogolink.OpKillWorkspace, "", netlogolink.Value{}, err)
	return err
}

func (r *Recorder) record(ctx context.Context, start time.Time, op, input string, v netlogolink.Value, opErr error) {
	e := Entry{
		Session:   r.session,
		StartedAt: start,
		Op:        op,
		Input:     input,
		Duration:  time.Since(start),
	}
	if opErr != nil {
		e.Error = opErr.Error()
		e.ErrorClass = Classify(opErr)
	} else if v.Kind() != netlogolink.KindInvalid {
		if data, err := json.Marshal(v); err == nil {
			e.Result = string(data)
		}
		e.ResultKind = v.Kind().String()
	}

	// a cancelled call still gets its entry
	if _, err := r.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		r.logger.Warn("journal write failed", "op", op, "error", err)
	}
}

// Classify names the error taxonomy bucket of an operation error.
func Classify(err error) string {
	var exc *netlogolink.EngineException
	switch {
	case err == nil:
		return ""
	case errors.Is(err, netlogolink.ErrModelLoad):
		return "model_load"
	case errors.Is(err, netlogolink.ErrSimulation):
		return "simulation"
	case errors.Is(err, netlogolink.ErrUnsupportedResultType):
		return "unsupported_result"
	case errors.Is(err, netlogolink.ErrRuntimeExited):
		return "runtime_exited"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &exc):
		return "engine"
	default:
		return "other"
	}
}
