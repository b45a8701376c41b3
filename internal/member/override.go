package member

// precedence orders statuses for updates that carry the same incarnation
// number.
var precedence = map[Status]int{
	StatusAlive:     0,
	StatusSuspect:   1,
	StatusFaulty:    2,
	StatusLeave:     3,
	StatusTombstone: 4,
}

// Overrides returns true when c should replace m in a membership list. A higher
// incarnation number always wins. On equal incarnation numbers the status with
// the higher precedence wins.
func (c Change) Overrides(m Member) bool {
	if c.IncarnationNumber != m.IncarnationNumber {
		return c.IncarnationNumber > m.IncarnationNumber
	}
	return precedence[c.Status] > precedence[m.Status]
}

// Apply merges changes into l and returns the result. Changes for unknown
// members are appended.
func (l List) Apply(changes ...Change) List {
	out := l.Copy()
	for _, c := range changes {
		i := out.index(c.Address)
		if i < 0 {
			out = append(out, Member{Address: c.Address, Status: c.Status, IncarnationNumber: c.IncarnationNumber})
			continue
		}
		if c.Overrides(out[i]) {
			out[i].Status = c.Status
			out[i].IncarnationNumber = c.IncarnationNumber
		}
	}
	return out
}

func (l List) index(addr string) int {
	for i, m := range l {
		if m.HostPort() == addr {
			return i
		}
	}
	return -1
}
