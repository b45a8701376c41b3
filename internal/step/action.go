package step

import (
	"context"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/scenario"
	"github.com/arya-analytics/swimcheck/internal/scheme"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
	"time"
)

// Wait blocks the scheme for d. Events keep accumulating in the buffer while it
// waits.
func Wait(d time.Duration) scheme.Step {
	return scheme.NewOnce("wait", func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	})
}

func withPeer(sc *scenario.Context, ix int, f func(scenario.Peer) error) error {
	p, err := sc.Peer(ix)
	if err != nil {
		return err
	}
	return f(p)
}

// SendJoin makes peer ix send a join request to the node under test.
func SendJoin(sc *scenario.Context, ix int) scheme.Step {
	return scheme.NewOnce("sendJoin", func(ctx context.Context) error {
		return withPeer(sc, ix, func(p scenario.Peer) error { return p.RequestJoin(ctx) })
	})
}

// SendPing makes peer ix ping the node under test, piggybacking the update
// described by opts when it is not nil.
func SendPing(sc *scenario.Context, ix int, opts *scenario.PiggybackOptions) scheme.Step {
	return scheme.NewOnce("sendPing", func(ctx context.Context) error {
		return withPeer(sc, ix, func(p scenario.Peer) error {
			change, err := scenario.Piggyback(sc, opts)
			if err != nil {
				return err
			}
			_, err = p.RequestPing(ctx, change)
			return err
		})
	})
}

func SendPings(sc *scenario.Context, ixs ...int) scheme.Seq {
	seq := make(scheme.Seq, len(ixs))
	for i, ix := range ixs {
		seq[i] = SendPing(sc, ix, nil)
	}
	return seq
}

// SendPingReq makes peer ix ask the node under test to probe peer targetIx.
func SendPingReq(sc *scenario.Context, ix, targetIx int, opts *scenario.PiggybackOptions) scheme.Step {
	return scheme.NewOnce("sendPingReq", func(ctx context.Context) error {
		target, err := sc.Peer(targetIx)
		if err != nil {
			return err
		}
		return withPeer(sc, ix, func(p scenario.Peer) error {
			change, err := scenario.Piggyback(sc, opts)
			if err != nil {
				return err
			}
			return p.RequestPingReq(ctx, target.HostPort(), change)
		})
	})
}

// AddFakeNode starts a new simulated peer and appends it to the scenario.
func AddFakeNode(sc *scenario.Context) scheme.Step {
	return scheme.NewOnce("addFakeNode", func(ctx context.Context) error {
		_, err := sc.AddPeer(ctx)
		return err
	})
}

// RemoveFakeNode shuts down the most recently added simulated peer.
func RemoveFakeNode(sc *scenario.Context) scheme.Step {
	return scheme.NewOnce("removeFakeNode", func(context.Context) error { return sc.RemoveLastPeer() })
}

// JoinNewNode adds a simulated peer and makes peer ix, usually the new one,
// join the node under test.
func JoinNewNode(sc *scenario.Context, ix int) scheme.Seq {
	return scheme.Seq{AddFakeNode(sc), SendJoin(sc, ix)}
}

// DisableNode shuts down peer ix.
func DisableNode(sc *scenario.Context, ix int) scheme.Step {
	return scheme.NewOnce("disableNode", func(context.Context) error {
		return withPeer(sc, ix, func(p scenario.Peer) error {
			p.Shutdown()
			return nil
		})
	})
}

func DisableAllNodes(sc *scenario.Context) scheme.Step {
	return scheme.NewOnce("disableAllNodes", func(context.Context) error {
		var wg errgroup.Group
		for _, p := range sc.Peers {
			p := p
			wg.Go(func() error {
				p.Shutdown()
				return nil
			})
		}
		return wg.Wait()
	})
}

// DisableAllNodesPing makes every peer stop answering pings while staying up.
func DisableAllNodesPing(sc *scenario.Context) scheme.Step {
	return scheme.NewOnce("disableAllNodesPing", func(context.Context) error {
		for _, p := range sc.Peers {
			p.DisablePing()
		}
		return nil
	})
}

// EnableNode restarts peer ix with incarnation number inc.
func EnableNode(sc *scenario.Context, ix int, inc int64) scheme.Step {
	return scheme.NewOnce("enableNode", func(ctx context.Context) error {
		return withPeer(sc, ix, func(p scenario.Peer) error {
			p.SetIncarnationNumber(inc)
			return errors.Wrapf(p.Start(ctx), "[step] - failed to start peer %d", ix)
		})
	})
}

// RequestAdminStats asks the node under test for its stats. The response shows
// up as a stats event.
func RequestAdminStats(sc *scenario.Context) scheme.Step {
	return scheme.NewOnce("requestAdminStats", func(ctx context.Context) error {
		return sc.SUT.AdminStats(ctx)
	})
}

// CallEndpoint calls an admin endpoint of the node under test and hands the
// response to validate when it is not nil.
func CallEndpoint(sc *scenario.Context, name string, body interface{}, validate func(event.Event)) scheme.Step {
	return scheme.NewOnce("callEndpoint", func(ctx context.Context) error {
		e, err := sc.SUT.CallEndpoint(ctx, name, body)
		if err != nil {
			return errors.Wrapf(err, "[step] - failed to call %s", name)
		}
		if validate != nil {
			validate(e)
		}
		return nil
	})
}
