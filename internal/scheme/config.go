package scheme

import (
	"github.com/arya-analytics/swimcheck/internal/journal"
	"github.com/arya-analytics/swimcheck/internal/report"
	"github.com/arya-analytics/swimcheck/internal/telemetry"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"time"
)

const defaultDeadline = 10 * time.Second

type Config struct {
	// Deadline bounds the wall time of a run. A run that has not passed when it
	// elapses fails with a timeout.
	Deadline time.Duration
	// Reporter receives every assertion made during the run.
	Reporter report.Reporter
	// Journal, when set, records every observed event under RunID.
	Journal journal.Journal
	// RunID identifies the run in the journal and the logs. When empty, every run
	// gets a fresh random UUID. A validator with a fixed RunID must not run
	// schemes concurrently.
	RunID   string
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
}

func (cfg Config) Merge(def Config) Config {
	if cfg.Deadline == 0 {
		cfg.Deadline = def.Deadline
	}
	if cfg.Reporter == nil {
		cfg.Reporter = def.Reporter
	}
	if cfg.Journal == nil {
		cfg.Journal = def.Journal
	}
	if cfg.RunID == "" {
		cfg.RunID = def.RunID
	}
	if cfg.Metrics == nil {
		cfg.Metrics = def.Metrics
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

func (cfg Config) Validate() error {
	if cfg.Deadline <= 0 {
		return errors.New("[scheme] - deadline must be positive")
	}
	if cfg.Reporter == nil {
		return errors.New("[scheme] - reporter must be set")
	}
	if cfg.Logger == nil {
		return errors.New("[scheme] - logger must be set")
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Deadline: defaultDeadline,
		Logger:   zap.NewNop(),
	}
}
