package step

import (
	"context"
	"fmt"
	"github.com/arya-analytics/swimcheck/internal/checksum"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/arya-analytics/swimcheck/internal/report"
	"github.com/arya-analytics/swimcheck/internal/scenario"
	"github.com/arya-analytics/swimcheck/internal/scheme"
	"sort"
	"time"
)

// Expected describes the fields of a member an assertion checks. An empty Status
// and a nil IncarnationNumber are not checked.
type Expected struct {
	Status            member.Status
	IncarnationNumber *int64
}

// Incarnation returns a pointer to inc, for use in Expected.
func Incarnation(inc int64) *int64 { return &inc }

// waitForStats consumes the first stats event and hands its decoded body to
// check. A non nil error returned by check stops the run.
func waitForStats(name string, check func(stats member.Stats) error) scheme.Step {
	return scheme.Func(name, func(_ context.Context, buf event.Buffer) (event.Buffer, bool, error) {
		e, i, ok := buf.Find(event.ByType(event.Stats))
		if !ok {
			return nil, false, nil
		}
		var stats member.Stats
		if err := e.Decode(&stats); err != nil {
			return nil, false, nil
		}
		if err := check(stats); err != nil {
			return nil, false, err
		}
		return buf.Remove(i), true, nil
	})
}

// AssertStats requests the stats of the node under test and asserts the number of
// alive, suspect and faulty members, and the incarnation numbers of every peer
// and of the node itself. When members is given, it asserts their fields too.
func AssertStats(t report.Reporter, sc *scenario.Context, alive, suspect, faulty int, members ...map[int]Expected) scheme.Seq {
	seq := scheme.Seq{
		RequestAdminStats(sc),
		waitForStats("waitForStatsAssertStatus", func(stats member.Stats) error {
			ms := stats.Membership.Members
			a, s, f := ms.Count(member.StatusAlive), ms.Count(member.StatusSuspect), ms.Count(member.StatusFaulty)
			t.Equal(a, alive, "check number of alive nodes")
			t.Equal(s, suspect, "check number of suspect nodes")
			t.Equal(f, faulty, "check number of faulty nodes")
			if a != alive || s != suspect || f != faulty {
				t.Fail("full stats check", details{"members": ms})
			}
			assertPeerIncarnationNumbers(t, sc, ms)
			m, ok := ms.Find(sc.SUTHostPort())
			if !ok {
				t.Fail("sut not found in membership", details{"sut": sc.SUTHostPort()})
				return nil
			}
			t.Equal(m.IncarnationNumber, sc.SUTIncarnationNumber,
				fmt.Sprintf("same incarnationNumber as sut %d", sc.SUTIncarnationNumber),
				details{"expected": sc.SUTIncarnationNumber, "received": m})
			return nil
		}),
	}
	for _, m := range members {
		seq = append(seq, AssertMembership(t, sc, m))
	}
	return seq
}

func assertPeerIncarnationNumbers(t report.Reporter, sc *scenario.Context, ms member.List) {
	for _, p := range sc.Peers {
		m, ok := ms.Find(p.HostPort())
		if !ok {
			t.Fail("member not found in membership", details{"member": p.HostPort()})
			continue
		}
		t.Equal(m.IncarnationNumber, p.IncarnationNumber(),
			fmt.Sprintf("same incarnationNumber %d", p.IncarnationNumber()),
			details{"expected": p.IncarnationNumber(), "received": m})
	}
}

// AssertMembership requests the stats of the node under test and asserts the
// fields of the members for the peers indexed by members.
func AssertMembership(t report.Reporter, sc *scenario.Context, members map[int]Expected) scheme.Seq {
	return scheme.Seq{
		RequestAdminStats(sc),
		waitForStats("waitForStatsAssertMembership", func(stats member.Stats) error {
			ixs := make([]int, 0, len(members))
			for ix := range members {
				ixs = append(ixs, ix)
			}
			sort.Ints(ixs)
			for _, ix := range ixs {
				want := members[ix]
				p, err := sc.Peer(ix)
				if err != nil {
					return err
				}
				m, ok := stats.Membership.Members.Find(p.HostPort())
				if !ok {
					t.Fail("assert membership", details{"expected": want, "received": nil})
					continue
				}
				if want.Status != "" {
					t.Equal(m.Status, want.Status, "assert membership", details{"expected": want, "received": m})
				}
				if want.IncarnationNumber != nil {
					t.Equal(m.IncarnationNumber, *want.IncarnationNumber, "assert membership",
						details{"expected": want, "received": m})
				}
			}
			return nil
		}),
	}
}

// AssertCorrectIncarnationNumbers asserts that the node under test reports the
// incarnation number every peer is known to have.
func AssertCorrectIncarnationNumbers(t report.Reporter, sc *scenario.Context) scheme.Seq {
	return scheme.Seq{
		RequestAdminStats(sc),
		waitForStats("waitForStatsAssertCorrectIncarnationNumbers", func(stats member.Stats) error {
			assertPeerIncarnationNumbers(t, sc, stats.Membership.Members)
			return nil
		}),
	}
}

// AssertBumpedIncarnationNumber asserts that the node under test raised its own
// incarnation number, and expects the raised number from then on.
func AssertBumpedIncarnationNumber(t report.Reporter, sc *scenario.Context) scheme.Seq {
	return scheme.Seq{
		RequestAdminStats(sc),
		waitForStats("waitForStatsAssertBumpedIncarnationNumber", func(stats member.Stats) error {
			m, ok := stats.Membership.Members.Find(sc.SUTHostPort())
			if !ok {
				t.Fail("sut not found in membership", details{"sut": sc.SUTHostPort()})
				return nil
			}
			t.Ok(m.IncarnationNumber > sc.SUTIncarnationNumber,
				fmt.Sprintf("sut bumped incarnation number to %d", m.IncarnationNumber),
				details{"old": sc.SUTIncarnationNumber, "new": m.IncarnationNumber})
			sc.SUTIncarnationNumber = m.IncarnationNumber
			return nil
		}),
	}
}

// AssertRoundRobinPings waits for d and then checks that the node under test
// sent n pings in randomized rounds.
func AssertRoundRobinPings(t report.Reporter, sc *scenario.Context, n int, d time.Duration) scheme.Seq {
	return scheme.Seq{Wait(d), ExpectRoundRobinPings(t, sc, n)}
}

// AssertChecksum requests the stats of the node under test and detects the
// variant that produced the checksum it reports. A checksum no variant
// reproduces stops the run. When want is given, the detected variant must be
// one of them.
func AssertChecksum(t report.Reporter, sc *scenario.Context, want ...checksum.Variant) scheme.Seq {
	return scheme.Seq{
		RequestAdminStats(sc),
		waitForStats("waitForStatsAssertChecksum", func(stats member.Stats) error {
			v, err := checksum.Detect(stats.Membership.Members, stats.Membership.Checksum)
			if err != nil {
				return err
			}
			if len(want) == 0 {
				t.Pass("checksum detected as " + v.String())
				return nil
			}
			ok := false
			for _, w := range want {
				ok = ok || w == v
			}
			t.Ok(ok, "checksum variant "+v.String(), details{"expected": want, "received": v})
			return nil
		}),
	}
}
