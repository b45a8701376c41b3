package swimcheck

import (
	"github.com/arya-analytics/swimcheck/internal/journal"
	"github.com/arya-analytics/swimcheck/internal/report"
	"github.com/arya-analytics/swimcheck/internal/scheme"
	"github.com/arya-analytics/swimcheck/internal/telemetry"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"time"
)

type Option func(*options)

type options struct {
	// scheme is the configuration handed to the validator.
	scheme scheme.Config
	// journalDir is the directory the event journal is opened in. No journal is
	// opened when it is empty.
	journalDir string
	// registerer receives the validator's collectors.
	registerer prometheus.Registerer
}

func newOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	mergeDefaultOptions(o)
	return o
}

// ErrNoReporter is returned by Validate when no reporter was set with
// WithReporter.
var ErrNoReporter = errors.New("[swimcheck] - a reporter must be set with WithReporter")

func validateOptions(o *options) error {
	if o.scheme.Reporter == nil {
		return ErrNoReporter
	}
	if o.scheme.Journal != nil && o.journalDir != "" {
		return errors.New("[swimcheck] - a journal and a journal directory cannot both be set")
	}
	return o.scheme.Validate()
}

func mergeDefaultOptions(o *options) {
	def := defaultOptions()

	// |||| SCHEME ||||

	o.scheme = o.scheme.Merge(def.scheme)

	// |||| METRICS ||||

	if o.scheme.Metrics == nil && o.registerer != nil {
		o.scheme.Metrics = telemetry.New(o.registerer)
	}
}

func defaultOptions() *options {
	return &options{scheme: scheme.DefaultConfig()}
}

func (o *options) openJournal() (journal.Journal, error) {
	if o.scheme.Journal != nil || o.journalDir == "" {
		return nil, nil
	}
	return journal.Open(o.journalDir, nil)
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.scheme.Logger = logger }
}

// WithDeadline bounds the wall time of the run.
func WithDeadline(d time.Duration) Option {
	return func(o *options) { o.scheme.Deadline = d }
}

// WithReporter sets the reporter the run's outcome is reported on. It is
// required, and is usually the reporter the steps of the scheme assert on.
func WithReporter(r report.Reporter) Option {
	return func(o *options) { o.scheme.Reporter = r }
}

func WithRunID(id string) Option {
	return func(o *options) { o.scheme.RunID = id }
}

// WithJournal records the observed events in j. The caller keeps ownership of j.
func WithJournal(j journal.Journal) Option {
	return func(o *options) { o.scheme.Journal = j }
}

// JournalDir records the observed events in a journal opened in dirname for the
// duration of the run.
func JournalDir(dirname string) Option {
	return func(o *options) { o.journalDir = dirname }
}

// WithMetrics registers the collectors of the run with r.
func WithMetrics(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}
