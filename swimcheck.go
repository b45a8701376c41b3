// Package swimcheck checks that a node speaking a SWIM style gossip membership
// protocol behaves as expected. A scheme of steps is validated against the
// protocol events the node exchanges with simulated peers, and the membership
// checksums it reports are checked against the known hashing variants.
package swimcheck

import (
	"github.com/arya-analytics/swimcheck/internal/report"
	"github.com/arya-analytics/swimcheck/internal/scenario"
	"github.com/arya-analytics/swimcheck/internal/scheme"
)

type (
	Scheme   = scheme.Scheme
	Step     = scheme.Step
	Seq      = scheme.Seq
	Result   = scheme.Result
	Outcome  = scheme.Outcome
	Context  = scenario.Context
	Source   = scenario.Source
	Reporter = report.Reporter
)

const (
	Passed   = scheme.Passed
	TimedOut = scheme.TimedOut
	Errored  = scheme.Errored
)

var ErrTimeout = scheme.ErrTimeout
