// Package step is the library of steps schemes are built from. Filter steps wait
// for and consume events from the buffer, action steps drive the simulated peers
// or the admin interface of the node under test exactly once, and assertion steps
// compare the membership the node reports with what the scenario expects.
//
// Assertions are reported to a report.Reporter and never stop a scheme. A body
// that fails to decode is treated as if the event had not arrived yet.
package step

import (
	"context"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/scenario"
	"github.com/arya-analytics/swimcheck/internal/scheme"
)

type details map[string]interface{}

// sutRequests matches the requests of type t the node under test sent.
func sutRequests(sc *scenario.Context, t event.Type) event.Predicate {
	return event.And(event.Is(t, event.Request), event.BySender(sc.SUTHostPort()))
}

func pingRequests(sc *scenario.Context) event.Predicate { return sutRequests(sc, event.Ping) }

func pingReqRequests(sc *scenario.Context) event.Predicate { return sutRequests(sc, event.PingReq) }

// removeFirst returns a step that consumes the first event matching the
// predicate built by match.
func removeFirst(name string, match func() (event.Predicate, error)) scheme.Step {
	return scheme.Func(name, func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		p, err := match()
		if err != nil {
			return nil, false, err
		}
		i := buf.Index(p)
		if i < 0 {
			return nil, false, nil
		}
		return buf.Remove(i), true, nil
	})
}
