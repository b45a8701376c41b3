package member

type List []Member

func (l List) Where(cond func(Member) bool) List {
	var out List
	for _, m := range l {
		if cond(m) {
			out = append(out, m)
		}
	}
	return out
}

func (l List) WhereStatus(s Status) List {
	return l.Where(func(m Member) bool { return m.Status == s })
}

func (l List) WhereNot(s Status) List {
	return l.Where(func(m Member) bool { return m.Status != s })
}

func (l List) Count(s Status) int { return len(l.WhereStatus(s)) }

// Find returns the member with the given host:port.
func (l List) Find(addr string) (Member, bool) {
	if i := l.index(addr); i >= 0 {
		return l[i], true
	}
	return Member{}, false
}

func (l List) Addresses() (addresses []string) {
	for _, m := range l {
		addresses = append(addresses, m.HostPort())
	}
	return addresses
}

func (l List) Copy() List {
	out := make(List, len(l))
	for i, m := range l {
		if m.Labels != nil {
			labels := make(map[string]string, len(m.Labels))
			for k, v := range m.Labels {
				labels[k] = v
			}
			m.Labels = labels
		}
		out[i] = m
	}
	return out
}
