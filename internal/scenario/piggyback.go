package scenario

import (
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/google/uuid"
)

// PiggybackOptions describes a synthetic membership update to inject on an
// outgoing ping or ping-req.
type PiggybackOptions struct {
	// ID of the update. A random UUID is used when empty.
	ID      string
	Source  NodeRef
	Subject NodeRef
	Status  member.Status
	// SourceIncNoDelta is added to the source's incarnation number.
	SourceIncNoDelta int64
	// SubjectIncNoDelta is added to the subject's incarnation number. When it is
	// positive and the subject is a simulated peer, the peer's tracked
	// incarnation number is bumped as well.
	SubjectIncNoDelta int64
}

// Piggyback builds the update described by opts. It returns nil when opts is nil.
func Piggyback(sc *Context, opts *PiggybackOptions) (*member.Change, error) {
	if opts == nil {
		return nil, nil
	}
	c := &member.Change{ID: opts.ID, Status: opts.Status}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	var err error
	c.Source, c.SourceIncarnationNumber, err = sc.Resolve(opts.Source)
	if err != nil {
		return nil, err
	}
	c.SourceIncarnationNumber += opts.SourceIncNoDelta

	c.Address, c.IncarnationNumber, err = sc.Resolve(opts.Subject)
	if err != nil {
		return nil, err
	}
	c.IncarnationNumber += opts.SubjectIncNoDelta
	if opts.SubjectIncNoDelta > 0 && opts.Subject != SUT {
		p := sc.Peers[opts.Subject]
		p.SetIncarnationNumber(p.IncarnationNumber() + opts.SubjectIncNoDelta)
	}
	return c, nil
}
