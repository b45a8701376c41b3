// Package scheme validates the behavior of a node under test against a scheme:
// an ordered list of steps that consume the protocol events the node exchanges
// with its simulated peers.
//
// A Validator appends every observed event to a buffer and hands the buffer to
// the step under its cursor. The step either declines, in which case the
// validator waits for the next event, or returns a new buffer with the events it
// consumed removed, in which case the cursor advances and the next step is tried
// right away. The run passes when the cursor reaches the end of the scheme, and
// fails when its deadline elapses first.
package scheme

import (
	"context"
	"github.com/arya-analytics/swimcheck/internal/event"
)

// Step is a single expectation of a scheme. Apply returns false when it cannot
// decide yet, in which case the returned buffer is ignored and Apply is invoked
// again with a longer buffer once more events arrive. A returned error stops the
// run.
type Step interface {
	Name() string
	Apply(ctx context.Context, buf event.Buffer) (event.Buffer, bool, error)
}

// Scheme is an ordered, possibly nested, list of steps.
type Scheme []Step

// Flatten expands every Seq in s into its children, recursively.
func Flatten(s Scheme) Scheme {
	var out Scheme
	for _, st := range s {
		if seq, ok := st.(Seq); ok {
			out = append(out, Flatten(Scheme(seq))...)
			continue
		}
		out = append(out, st)
	}
	return out
}

// |||||| FUNC ||||||

type funcStep struct {
	name string
	fn   func(ctx context.Context, buf event.Buffer) (event.Buffer, bool, error)
}

// Func adapts fn into a step named name.
func Func(name string, fn func(ctx context.Context, buf event.Buffer) (event.Buffer, bool, error)) Step {
	return funcStep{name: name, fn: fn}
}

func (f funcStep) Name() string { return f.name }

func (f funcStep) Apply(ctx context.Context, buf event.Buffer) (event.Buffer, bool, error) {
	return f.fn(ctx, buf)
}

// |||||| ONCE ||||||

// Once is an action step. Its side effect runs on the first Apply only, after
// which it completes without consuming any event. A Once must not be shared
// between schemes.
type Once struct {
	name   string
	action func(ctx context.Context) error
	fired  bool
}

func NewOnce(name string, action func(ctx context.Context) error) *Once {
	return &Once{name: name, action: action}
}

func (o *Once) Name() string { return o.name }

func (o *Once) Fired() bool { return o.fired }

func (o *Once) Apply(ctx context.Context, buf event.Buffer) (event.Buffer, bool, error) {
	if o.fired {
		return buf, true, nil
	}
	o.fired = true
	return buf, true, o.action(ctx)
}

// |||||| SEQ ||||||

// Seq groups steps that belong together, such as sending a request and waiting
// for its response. A validator flattens it before running. Applied directly, it
// applies its steps in order and completes when the last one does.
type Seq []Step

func (s Seq) Name() string {
	if len(s) == 0 {
		return "seq"
	}
	return s[0].Name()
}

func (s Seq) Apply(ctx context.Context, buf event.Buffer) (event.Buffer, bool, error) {
	for _, st := range s {
		next, ok, err := st.Apply(ctx, buf)
		if err != nil || !ok {
			return buf, false, err
		}
		buf = next
	}
	return buf, true, nil
}
