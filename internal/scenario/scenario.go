// Package scenario holds the state shared by the steps of one test scenario: the
// simulated peers driving the node under test, the admin interface of that node,
// and the incarnation numbers the scenario expects them to report.
package scenario

import (
	"context"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Peer is a simulated node speaking the membership protocol with the node under
// test. Every message it receives from the node under test, requests and
// responses to its own requests alike, is published to the scenario's event
// Source. Its own outgoing requests are not.
type Peer interface {
	HostPort() string
	IncarnationNumber() int64
	SetIncarnationNumber(inc int64)
	RequestJoin(ctx context.Context) error
	RequestPing(ctx context.Context, change *member.Change) (member.PingBody, error)
	RequestPingReq(ctx context.Context, target string, change *member.Change) error
	Start(ctx context.Context) error
	Shutdown()
	// DisablePing makes the peer stop answering pings from the node under test.
	DisablePing()
}

// Admin is the admin interface of the node under test.
type Admin interface {
	HostPort() string
	// AdminStats requests the stats of the node. The response is delivered as a
	// Stats event.
	AdminStats(ctx context.Context) error
	CallEndpoint(ctx context.Context, name string, body interface{}) (event.Event, error)
	Shutdown()
}

// Source delivers every observed protocol message in the order it was observed.
type Source interface {
	Subscribe(l func(event.Event)) (cancel func())
}

// NodeRef refers to a node of the scenario: either an index into Context.Peers,
// or SUT.
type NodeRef int

const SUT NodeRef = -1

var (
	ErrNoPeer    = errors.New("no such peer")
	ErrNoFactory = errors.New("scenario has no peer factory")
)

// Context is owned by a single scenario run and must not be shared between
// concurrently running scenarios.
type Context struct {
	Peers []Peer
	SUT   Admin
	// SUTIncarnationNumber is the incarnation number the scenario expects the
	// node under test to report.
	SUTIncarnationNumber int64
	// NewPeer creates a simulated peer that has not been started yet.
	NewPeer func() Peer
	Logger  *zap.Logger
}

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Context) Peer(ix int) (Peer, error) {
	if ix < 0 || ix >= len(c.Peers) {
		return nil, errors.Wrapf(ErrNoPeer, "index %d out of %d peers", ix, len(c.Peers))
	}
	return c.Peers[ix], nil
}

func (c *Context) SUTHostPort() string {
	if c.SUT == nil {
		return ""
	}
	return c.SUT.HostPort()
}

// Resolve returns the address and the tracked incarnation number of ref.
func (c *Context) Resolve(ref NodeRef) (string, int64, error) {
	if ref == SUT {
		return c.SUTHostPort(), c.SUTIncarnationNumber, nil
	}
	p, err := c.Peer(int(ref))
	if err != nil {
		return "", 0, err
	}
	return p.HostPort(), p.IncarnationNumber(), nil
}

// AddPeer creates, starts and appends a new simulated peer.
func (c *Context) AddPeer(ctx context.Context) (Peer, error) {
	if c.NewPeer == nil {
		return nil, ErrNoFactory
	}
	p := c.NewPeer()
	if err := p.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "[scenario] - failed to start peer")
	}
	c.Peers = append(c.Peers, p)
	c.logger().Debug("added peer", zap.String("peer", p.HostPort()), zap.Int("peers", len(c.Peers)))
	return p, nil
}

// RemoveLastPeer shuts down the most recently added peer and forgets it.
func (c *Context) RemoveLastPeer() error {
	n := len(c.Peers)
	if n == 0 {
		return errors.Wrap(ErrNoPeer, "no peers to remove")
	}
	c.Peers[n-1].Shutdown()
	c.logger().Debug("removed peer", zap.String("peer", c.Peers[n-1].HostPort()))
	c.Peers = c.Peers[:n-1]
	return nil
}

// StartPeers starts every peer concurrently.
func (c *Context) StartPeers(ctx context.Context) error {
	wg, ctx := errgroup.WithContext(ctx)
	for _, p := range c.Peers {
		p := p
		wg.Go(func() error { return p.Start(ctx) })
	}
	return errors.Wrap(wg.Wait(), "[scenario] - failed to start peers")
}

// Shutdown stops every peer and the admin connection to the node under test.
func (c *Context) Shutdown() {
	var wg errgroup.Group
	for _, p := range c.Peers {
		p := p
		wg.Go(func() error {
			p.Shutdown()
			return nil
		})
	}
	_ = wg.Wait()
	if c.SUT != nil {
		c.SUT.Shutdown()
	}
}
