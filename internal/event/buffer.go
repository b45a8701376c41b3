package event

// Buffer is the ordered list of events observed but not yet consumed by a step.
// Operations that remove events return a new Buffer and never modify the
// receiver, so a step that declines leaves the buffer it was given untouched.
type Buffer []Event

func (b Buffer) Len() int { return len(b) }

// Index returns the position of the first event matching p, or -1.
func (b Buffer) Index(p Predicate) int {
	for i, e := range b {
		if p(e) {
			return i
		}
	}
	return -1
}

// Find returns the first event matching p.
func (b Buffer) Find(p Predicate) (Event, int, bool) {
	i := b.Index(p)
	if i < 0 {
		return Event{}, i, false
	}
	return b[i], i, true
}

func (b Buffer) Filter(p Predicate) Buffer {
	out := make(Buffer, 0, len(b))
	for _, e := range b {
		if p(e) {
			out = append(out, e)
		}
	}
	return out
}

func (b Buffer) Reject(p Predicate) Buffer { return b.Filter(Not(p)) }

func (b Buffer) Count(p Predicate) int {
	n := 0
	for _, e := range b {
		if p(e) {
			n++
		}
	}
	return n
}

// Remove splices out the event at index i.
func (b Buffer) Remove(i int) Buffer {
	out := make(Buffer, 0, len(b))
	out = append(out, b[:i]...)
	return append(out, b[i+1:]...)
}

// Append returns a buffer with events added at the end.
func (b Buffer) Append(events ...Event) Buffer {
	out := make(Buffer, 0, len(b)+len(events))
	out = append(out, b...)
	return append(out, events...)
}

func (b Buffer) Receivers() []string {
	out := make([]string, len(b))
	for i, e := range b {
		out[i] = e.Receiver
	}
	return out
}

func (b Buffer) Senders() []string {
	out := make([]string, len(b))
	for i, e := range b {
		out[i] = e.Sender
	}
	return out
}

// Kinds returns the type/direction of every event, used in failure details.
func (b Buffer) Kinds() []string {
	out := make([]string, len(b))
	for i, e := range b {
		out[i] = e.String()
	}
	return out
}
