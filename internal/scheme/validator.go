package scheme

import (
	"context"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/scenario"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"sync"
	"time"
)

var ErrTimeout = errors.New("timeout")

type Outcome uint8

const (
	Passed Outcome = iota + 1
	TimedOut
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case TimedOut:
		return "timed-out"
	case Errored:
		return "errored"
	}
	return "unknown"
}

type Result struct {
	// RunID is the id the run's events were journaled and logged under.
	RunID   string
	Outcome Outcome
	// Cursor is the index of the first step that did not complete. It equals
	// Steps when the run passed.
	Cursor int
	Steps  int
	// Events is the number of events observed during the run.
	Events int
	// Remaining holds the events no step consumed.
	Remaining event.Buffer
	Duration  time.Duration
	// Err is ErrTimeout for a timed out run, and the error that stopped the run
	// otherwise.
	Err error
}

// Validator runs schemes. A Validator holds no per run state, so it may run
// several schemes concurrently as long as each has its own scenario.Context.
type Validator struct {
	Config
}

func New(cfg Config) (*Validator, error) {
	cfg = cfg.Merge(DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Validator{Config: cfg}, nil
}

// Run validates the events delivered by src against s. It returns once the run
// passed, timed out or errored, after the subscription to src has been
// cancelled, the scenario shut down and the reporter ended.
func (v *Validator) Run(ctx context.Context, sc *scenario.Context, src scenario.Source, s Scheme) Result {
	r := &run{
		Config: v.Config,
		steps:  Flatten(s),
		notify: make(chan struct{}, 1),
		start:  time.Now(),
	}
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	r.Logger = r.Logger.With(zap.String("run", r.RunID))
	ctx, cancel := context.WithTimeout(ctx, r.Deadline)
	defer cancel()

	unsubscribe := src.Subscribe(r.receive)
	res := r.loop(ctx)

	unsubscribe()
	if sc != nil {
		sc.Shutdown()
	}
	r.Reporter.End()
	r.Metrics.ObserveRun(res.Outcome.String(), res.Duration)
	r.Logger.Debug("run finished",
		zap.Stringer("outcome", res.Outcome),
		zap.Int("cursor", res.Cursor),
		zap.Int("steps", res.Steps),
		zap.Int("events", res.Events),
		zap.Duration("duration", res.Duration),
	)
	return res
}

type run struct {
	Config
	steps   Scheme
	cursor  int
	started int
	buf     event.Buffer
	seq     int
	start   time.Time
	// inbox is filled by the subscription and drained by the loop. notify
	// coalesces wakeups.
	mu     sync.Mutex
	inbox  []event.Event
	notify chan struct{}
}

func (r *run) receive(e event.Event) {
	r.mu.Lock()
	r.inbox = append(r.inbox, e)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *run) drain() {
	r.mu.Lock()
	in := r.inbox
	r.inbox = nil
	r.mu.Unlock()
	for _, e := range in {
		r.buf = r.buf.Append(e)
		r.Metrics.ObserveEvent(e)
		if r.Journal != nil {
			if err := r.Journal.Record(r.RunID, r.seq, e); err != nil {
				r.Logger.Warn("failed to journal event", zap.Error(err), zap.Int("seq", r.seq))
			}
		}
		r.seq++
	}
}

func (r *run) loop(ctx context.Context) Result {
	// Steps that need no events, such as leading actions, run right away.
	done, err := r.advance(ctx)
	for !done && err == nil {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-r.notify:
			done, err = r.advance(ctx)
		}
	}
	r.drain()
	res := Result{
		RunID:     r.RunID,
		Cursor:    r.cursor,
		Steps:     len(r.steps),
		Events:    r.seq,
		Remaining: r.buf,
		Duration:  time.Since(r.start),
	}
	switch {
	case done:
		res.Outcome = Passed
		r.Reporter.Ok(true, "validate done: all steps passed")
	case errors.Is(err, context.DeadlineExceeded):
		res.Outcome, res.Err = TimedOut, ErrTimeout
		r.Reporter.Fail("timeout", r.stepName())
		r.Logger.Warn("run timed out", zap.String("step", r.stepName()), zap.Strings("buffer", r.buf.Kinds()))
	default:
		res.Outcome, res.Err = Errored, err
		r.Reporter.Fail(err.Error(), r.stepName())
		r.Logger.Warn("run errored", zap.String("step", r.stepName()), zap.Error(err))
	}
	return res
}

// advance applies steps from the cursor until one declines or the scheme is
// exhausted. Events published while a step runs are visible to the steps after
// it.
func (r *run) advance(ctx context.Context) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		r.drain()
		if r.cursor >= len(r.steps) {
			return true, nil
		}
		st := r.steps[r.cursor]
		if r.started <= r.cursor {
			r.started = r.cursor + 1
			r.Logger.Debug("starting step", zap.String("step", st.Name()), zap.Int("cursor", r.cursor))
		}
		next, ok, err := st.Apply(ctx, r.buf)
		if err != nil {
			return false, errors.Wrapf(err, "step %s", st.Name())
		}
		if !ok {
			return false, nil
		}
		r.buf = next
		r.cursor++
		r.Metrics.ObserveStep(st.Name())
	}
}

func (r *run) stepName() string {
	if r.cursor < len(r.steps) {
		return r.steps[r.cursor].Name()
	}
	return ""
}
