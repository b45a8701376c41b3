package step

import (
	"context"
	"fmt"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/arya-analytics/swimcheck/internal/report"
	"github.com/arya-analytics/swimcheck/internal/scenario"
	"github.com/arya-analytics/swimcheck/internal/scheme"
	"sort"
	"strings"
)

const maxJoins = 6

// WaitForJoins waits for n join requests from the node under test, at most 6,
// and consumes every one of them. The incarnation number announced in the first
// join becomes the one the scenario expects from the node under test.
func WaitForJoins(t report.Reporter, sc *scenario.Context, n int) scheme.Step {
	if n > maxJoins {
		n = maxJoins
	}
	return scheme.Func("waitForJoins", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		p := sutRequests(sc, event.Join)
		joins := buf.Filter(p)
		if joins.Len() < n {
			return nil, false, nil
		}
		var req member.JoinRequest
		if n > 0 {
			if err := joins[0].Decode(&req); err != nil {
				return nil, false, nil
			}
		}
		t.Equal(joins.Len(), n, "check number of joins", details{"journal": buf.Kinds()})
		if n > 0 {
			sc.SUTIncarnationNumber = req.IncarnationNumber
		}
		return buf.Reject(p), true, nil
	})
}

// WaitForPingReqs waits for n ping-req requests from the node under test and
// consumes them.
func WaitForPingReqs(t report.Reporter, sc *scenario.Context, n int) scheme.Step {
	return scheme.Func("waitForPingReqs", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		p := pingReqRequests(sc)
		pingReqs := buf.Filter(p)
		if pingReqs.Len() < n {
			return nil, false, nil
		}
		t.Equal(pingReqs.Len(), n, "check number of ping-reqs", details{"pingReqs": pingReqs.Receivers()})
		return buf.Reject(p), true, nil
	})
}

// WaitForPing consumes the first ping request sent by the node under test.
func WaitForPing(sc *scenario.Context) scheme.Step {
	return removeFirst("waitForPing", func() (event.Predicate, error) { return pingRequests(sc), nil })
}

// WaitForEmptyPing waits for a ping request without piggybacked changes, then
// consumes every ping request. It is used to wait for the node under test to
// finish disseminating its changes.
func WaitForEmptyPing(sc *scenario.Context) scheme.Step {
	return scheme.Func("waitForEmptyPing", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		pings := pingRequests(sc)
		for _, e := range buf.Filter(pings) {
			var body member.PingBody
			if err := e.Decode(&body); err != nil {
				continue
			}
			if len(body.Changes) == 0 {
				return buf.Reject(pings), true, nil
			}
		}
		return nil, false, nil
	})
}

// ValidateEventBody consumes the first event matching p and asserts that test
// holds for it.
func ValidateEventBody(t report.Reporter, p event.Predicate, msg string, test func(event.Event) bool) scheme.Step {
	return scheme.Func("validateEventBody", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		e, i, ok := buf.Find(p)
		if !ok {
			return nil, false, nil
		}
		t.Ok(test(e), msg, details{"body": string(e.Body)})
		return buf.Remove(i), true, nil
	})
}

// ConsumePings consumes every ping request of the node under test in the buffer.
func ConsumePings(sc *scenario.Context) scheme.Step {
	return scheme.Func("consumePings", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		return buf.Reject(pingRequests(sc)), true, nil
	})
}

// ExpectOnlyPings asserts that the buffer holds nothing but ping requests of the
// node under test, and, when count is given, that it holds exactly count of
// them. It consumes the pings.
func ExpectOnlyPings(t report.Reporter, sc *scenario.Context, count ...int) scheme.Step {
	return scheme.Func("expectOnlyPings", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		p := pingRequests(sc)
		pings := buf.Count(p)
		t.Equal(pings, buf.Len(), "check if all remaining events are pings", details{"eventTypes": buf.Kinds()})
		if len(count) > 0 {
			t.Equal(pings, count[0], "check the number of pings", details{"eventTypes": buf.Kinds()})
		}
		return buf.Reject(p), true, nil
	})
}

// ExpectOnlyPingsAndPingReqs asserts that the buffer holds nothing but ping and
// ping-req requests of the node under test, and consumes them.
func ExpectOnlyPingsAndPingReqs(t report.Reporter, sc *scenario.Context) scheme.Step {
	return scheme.Func("expectOnlyPingsAndPingReqs", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		both := event.Or(pingRequests(sc), pingReqRequests(sc))
		t.Equal(buf.Count(both), buf.Len(), "check if all remaining events are pings or ping-reqs",
			details{"eventTypes": buf.Kinds()})
		return buf.Reject(both), true, nil
	})
}

func responseTo(sc *scenario.Context, t event.Type, ix int) func() (event.Predicate, error) {
	return func() (event.Predicate, error) {
		p, err := sc.Peer(ix)
		if err != nil {
			return nil, err
		}
		return event.And(event.Is(t, event.Response), event.ByReceiver(p.HostPort())), nil
	}
}

// WaitForPingResponse consumes the first ping response sent to peer ix.
func WaitForPingResponse(sc *scenario.Context, ix int) scheme.Step {
	return removeFirst("waitForPingResponse", responseTo(sc, event.Ping, ix))
}

func WaitForPingResponses(sc *scenario.Context, ixs ...int) scheme.Seq {
	seq := make(scheme.Seq, len(ixs))
	for i, ix := range ixs {
		seq[i] = WaitForPingResponse(sc, ix)
	}
	return seq
}

// WaitForJoinResponse consumes the first join response sent to peer ix.
func WaitForJoinResponse(sc *scenario.Context, ix int) scheme.Step {
	return removeFirst("waitForJoinResponse", responseTo(sc, event.Join, ix))
}

// WaitForPingReqResponse consumes the first ping-req response sent to peer ix
// and asserts that it reports status for peer targetIx.
func WaitForPingReqResponse(t report.Reporter, sc *scenario.Context, ix, targetIx int, status bool) scheme.Step {
	match := responseTo(sc, event.PingReq, ix)
	return scheme.Func("waitForPingReqResponse", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		p, err := match()
		if err != nil {
			return nil, false, err
		}
		target, err := sc.Peer(targetIx)
		if err != nil {
			return nil, false, err
		}
		e, i, ok := buf.Find(p)
		if !ok {
			return nil, false, nil
		}
		var res member.PingReqResponse
		if err := e.Decode(&res); err != nil {
			return nil, false, nil
		}
		t.Equal(res.Target, target.HostPort(), "check target of the response", details{"ping-req-response": res})
		t.Equal(res.PingStatus, status, "check target ping status of the response", details{"ping-req-response": res})
		return buf.Remove(i), true, nil
	})
}

// ExpectRoundRobinPings checks the pings sent by the node under test right away:
// there must be n of them give or take one, spread evenly over the peers, and no
// two rounds of pings may visit the peers in the same order. It consumes every
// ping.
func ExpectRoundRobinPings(t report.Reporter, sc *scenario.Context, n int) scheme.Step {
	return scheme.Func("expectRoundRobinPings", func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		p := pingRequests(sc)
		pings := buf.Filter(p).Receivers()
		if len(pings) < n-1 || len(pings) > n+1 {
			t.Fail(fmt.Sprintf("not the right amount of pings, got %d expected %d +/- 1", len(pings), n),
				details{"pings": pings})
		} else {
			t.Pass("check amount of pings received")
		}

		freqs := make(map[string]int)
		for _, p := range pings {
			freqs[p]++
		}
		min, max := 0, 0
		first := true
		for _, f := range freqs {
			if first || f < min {
				min = f
			}
			if first || f > max {
				max = f
			}
			first = false
		}
		t.Ok(min == max || min+1 == max, "pings distributed evenly", details{"hostPortFreqs": freqs})

		roundFreqs := make(map[string]int)
		if size := len(sc.Peers); size > 0 {
			for i := 0; i < len(pings); i += size {
				end := i + size
				if end > len(pings) {
					end = len(pings)
				}
				roundFreqs[strings.Join(pings[i:end], ",")]++
			}
		}
		t.Ok(everyOnce(roundFreqs), "ping rounds should be randomized", details{"sliceFreqs": sortedKeys(roundFreqs)})

		return buf.Reject(p), true, nil
	})
}

func everyOnce(freqs map[string]int) bool {
	for _, f := range freqs {
		if f != 1 {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
