package swimcheck

import (
	"context"
	"github.com/arya-analytics/swimcheck/internal/scheme"
	"go.uber.org/zap"
)

// Validate runs s against the events delivered by src and returns once it passed,
// timed out or errored. Assertions are made on the reporter set with
// WithReporter. The returned error is non-nil only when the options are invalid,
// such as ErrNoReporter when no reporter was set, or when the journal cannot be
// opened.
func Validate(ctx context.Context, sc *Context, src Source, s Scheme, opts ...Option) (Result, error) {
	o := newOptions(opts...)
	if err := validateOptions(o); err != nil {
		return Result{}, err
	}

	j, err := o.openJournal()
	if err != nil {
		return Result{}, err
	}
	if j != nil {
		o.scheme.Journal = j
		defer func() {
			if err := j.Close(); err != nil {
				o.scheme.Logger.Warn("failed to close journal", zap.Error(err))
			}
		}()
	}

	v, err := scheme.New(o.scheme)
	if err != nil {
		return Result{}, err
	}
	return v.Run(ctx, sc, src, s), nil
}
