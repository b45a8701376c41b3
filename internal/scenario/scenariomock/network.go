// Package scenariomock provides in-memory simulated peers and an in-memory node
// under test. The messages a simulated peer observes, requests from the node
// under test and its responses to the peer's own requests, are published to an
// event.Stream.
package scenariomock

import (
	"context"
	"github.com/arya-analytics/swimcheck/internal/checksum"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/arya-analytics/swimcheck/internal/scenario"
	"github.com/cockroachdb/errors"
	"strconv"
	"sync"
)

var ErrStopped = errors.New("peer is not running")

const adminAddress = "admin"

// Network routes messages between simulated peers and a node under test, and
// publishes what the peers observe to Stream.
type Network struct {
	Stream   *event.Stream
	SUT      *SUT
	mu       sync.Mutex
	peers    map[string]*Peer
	nextPort int
}

func NewNetwork(sutAddr string) *Network {
	n := &Network{Stream: event.NewStream(), peers: make(map[string]*Peer), nextPort: 20000}
	n.SUT = &SUT{net: n, addr: sutAddr, Incarnation: 1}
	n.SUT.Members = member.List{{Address: sutAddr, Status: member.StatusAlive, IncarnationNumber: 1}}
	return n
}

// NewPeer creates a peer with the next free address. The peer is not started.
func (n *Network) NewPeer() *Peer {
	n.mu.Lock()
	defer n.mu.Unlock()
	addr := "127.0.0.1:" + strconv.Itoa(n.nextPort)
	n.nextPort++
	p := &Peer{net: n, addr: addr, incarnation: 1, pingEnabled: true}
	n.peers[addr] = p
	return p
}

// Context builds a scenario context with count started peers.
func (n *Network) Context(ctx context.Context, count int) (*scenario.Context, error) {
	sc := &scenario.Context{
		SUT:                  n.SUT,
		SUTIncarnationNumber: n.SUT.Incarnation,
		NewPeer:              func() scenario.Peer { return n.NewPeer() },
	}
	for i := 0; i < count; i++ {
		sc.Peers = append(sc.Peers, n.NewPeer())
	}
	return sc, sc.StartPeers(ctx)
}

func (n *Network) peer(addr string) (*Peer, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.peers[addr]
	return p, ok
}

func (n *Network) publish(t event.Type, d event.Direction, sender, receiver string, body interface{}) event.Event {
	e, err := event.New(t, d, sender, receiver, body)
	if err != nil {
		panic(err)
	}
	n.Stream.Publish(e)
	return e
}

// |||||| SUT ||||||

// SUT is an in-memory node under test. It merges piggybacked changes into its
// membership and reports it on AdminStats.
type SUT struct {
	net         *Network
	addr        string
	mu          sync.Mutex
	Members     member.List
	Incarnation int64
	// Variant used to compute the reported checksum. Defaults to
	// checksum.VariantLegacy.
	Variant  checksum.Variant
	shutdown bool
}

func (s *SUT) HostPort() string { return s.addr }

func (s *SUT) AdminStats(_ context.Context) error {
	s.net.publish(event.Stats, event.Response, s.addr, adminAddress, s.Stats())
	return nil
}

func (s *SUT) Stats() member.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.Variant
	if v == 0 {
		v = checksum.VariantLegacy
	}
	members := s.Members.Copy()
	return member.Stats{Membership: member.Membership{Members: members, Checksum: v.Checksum(members)}}
}

func (s *SUT) CallEndpoint(_ context.Context, name string, body interface{}) (event.Event, error) {
	e, err := event.New(event.AdminEndpoint, event.Response, s.addr, adminAddress, body)
	if err != nil {
		return e, err
	}
	e.Endpoint = name
	s.net.Stream.Publish(e)
	return e, nil
}

func (s *SUT) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
}

func (s *SUT) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// Apply merges a change into the membership of the node.
func (s *SUT) Apply(c member.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Members = s.Members.Apply(c)
}

// BumpIncarnation increments the incarnation number the node reports for itself.
func (s *SUT) BumpIncarnation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Incarnation++
	for i, m := range s.Members {
		if m.HostPort() == s.addr {
			s.Members[i].IncarnationNumber = s.Incarnation
		}
	}
}

func (s *SUT) incarnation() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Incarnation
}

// Join makes the node send a join request to every given peer.
func (s *SUT) Join(peers ...string) {
	for _, p := range peers {
		s.net.publish(event.Join, event.Request, s.addr, p, member.JoinRequest{
			Source:            s.addr,
			IncarnationNumber: s.incarnation(),
		})
	}
}

// Ping makes the node ping a peer, piggybacking changes.
func (s *SUT) Ping(peer string, changes ...member.Change) {
	s.net.publish(event.Ping, event.Request, s.addr, peer, member.PingBody{
		Source:                  s.addr,
		SourceIncarnationNumber: s.incarnation(),
		Changes:                 changes,
	})
}

// PingReq makes the node ask peer to probe target.
func (s *SUT) PingReq(peer, target string) {
	s.net.publish(event.PingReq, event.Request, s.addr, peer, member.PingReqRequest{
		PingBody: member.PingBody{Source: s.addr, SourceIncarnationNumber: s.incarnation()},
		Target:   target,
	})
}

// |||||| PEER ||||||

type Peer struct {
	net         *Network
	addr        string
	mu          sync.Mutex
	incarnation int64
	running     bool
	pingEnabled bool
}

var _ scenario.Peer = (*Peer)(nil)

func (p *Peer) HostPort() string { return p.addr }

func (p *Peer) IncarnationNumber() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.incarnation
}

func (p *Peer) SetIncarnationNumber(inc int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.incarnation = inc
}

func (p *Peer) Start(_ context.Context) error {
	p.mu.Lock()
	p.running = true
	p.pingEnabled = true
	inc := p.incarnation
	p.mu.Unlock()
	p.net.SUT.Apply(member.Change{Address: p.addr, Status: member.StatusAlive, IncarnationNumber: inc})
	return nil
}

func (p *Peer) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

func (p *Peer) DisablePing() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pingEnabled = false
}

func (p *Peer) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Peer) answersPing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.pingEnabled
}

func (p *Peer) RequestJoin(ctx context.Context) error {
	if !p.Running() {
		return ErrStopped
	}
	sut := p.net.SUT
	sut.Apply(member.Change{Address: p.addr, Status: member.StatusAlive, IncarnationNumber: p.IncarnationNumber()})
	stats := sut.Stats()
	p.net.publish(event.Join, event.Response, sut.addr, p.addr, member.JoinResponse{
		Coordinator: sut.addr,
		Membership:  stats.Membership.Members,
		Checksum:    stats.Membership.Checksum,
	})
	return ctx.Err()
}

func (p *Peer) RequestPing(ctx context.Context, change *member.Change) (member.PingBody, error) {
	if !p.Running() {
		return member.PingBody{}, ErrStopped
	}
	sut := p.net.SUT
	if change != nil {
		sut.Apply(*change)
	}
	res := member.PingBody{Source: sut.addr, SourceIncarnationNumber: sut.incarnation(), Checksum: sut.Stats().Membership.Checksum}
	p.net.publish(event.Ping, event.Response, sut.addr, p.addr, res)
	return res, ctx.Err()
}

func (p *Peer) RequestPingReq(ctx context.Context, target string, change *member.Change) error {
	if !p.Running() {
		return ErrStopped
	}
	sut := p.net.SUT
	if change != nil {
		sut.Apply(*change)
	}
	status := false
	if t, ok := p.net.peer(target); ok {
		status = t.answersPing()
	}
	p.net.publish(event.PingReq, event.Response, sut.addr, p.addr, member.PingReqResponse{
		Target:     target,
		PingStatus: status,
	})
	return ctx.Err()
}
