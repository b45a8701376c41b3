// Package report defines the collaborator a scheme run reports its assertions
// to, along with a recording implementation and a logging decorator.
package report

import (
	"fmt"
	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"sync"
)

// Reporter receives the assertions made while a scheme runs. A failed assertion
// never stops the run.
type Reporter interface {
	Equal(actual, expected interface{}, msg string, details ...interface{})
	Ok(cond bool, msg string, details ...interface{})
	Fail(msg string, details ...interface{})
	Pass(msg string)
	// End is called exactly once when the run terminates.
	End()
}

// Assertion is a single recorded assertion.
type Assertion struct {
	Msg     string
	Passed  bool
	Diff    string
	Details []interface{}
}

func (a Assertion) String() string {
	s := a.Msg
	if a.Diff != "" {
		s += " (-actual +expected):\n" + a.Diff
	}
	return s
}

// Recorder is a Reporter that keeps every assertion in memory.
type Recorder struct {
	mu         sync.Mutex
	assertions []Assertion
	done       chan struct{}
	endOnce    sync.Once
}

var _ Reporter = (*Recorder)(nil)

func NewRecorder() *Recorder { return &Recorder{done: make(chan struct{})} }

func (r *Recorder) record(a Assertion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assertions = append(r.assertions, a)
}

func (r *Recorder) Equal(actual, expected interface{}, msg string, details ...interface{}) {
	a := Assertion{Msg: msg, Passed: cmp.Equal(actual, expected), Details: details}
	if !a.Passed {
		a.Diff = cmp.Diff(actual, expected)
		if a.Diff == "" {
			a.Diff = fmt.Sprintf("%v != %v", actual, expected)
		}
	}
	r.record(a)
}

func (r *Recorder) Ok(cond bool, msg string, details ...interface{}) {
	r.record(Assertion{Msg: msg, Passed: cond, Details: details})
}

func (r *Recorder) Fail(msg string, details ...interface{}) {
	r.record(Assertion{Msg: msg, Details: details})
}

func (r *Recorder) Pass(msg string) { r.record(Assertion{Msg: msg, Passed: true}) }

func (r *Recorder) End() { r.endOnce.Do(func() { close(r.done) }) }

// Done is closed once End has been called.
func (r *Recorder) Done() <-chan struct{} { return r.done }

// Assertions returns a copy of every recorded assertion in the order it was
// made.
func (r *Recorder) Assertions() []Assertion {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Assertion, len(r.assertions))
	copy(out, r.assertions)
	return out
}

func (r *Recorder) Failures() []Assertion {
	var out []Assertion
	for _, a := range r.Assertions() {
		if !a.Passed {
			out = append(out, a)
		}
	}
	return out
}

func (r *Recorder) Failed() bool { return len(r.Failures()) > 0 }

// Err aggregates every failed assertion into a single error. It returns nil when
// no assertion failed.
func (r *Recorder) Err() error {
	var err *multierror.Error
	for _, a := range r.Failures() {
		err = multierror.Append(err, errors.Newf("%s", a))
	}
	return err.ErrorOrNil()
}
