// Package member holds the membership view reported by a node under test: its
// members, their statuses and incarnation numbers, and the piggybacked updates
// exchanged on pings.
package member

import "strconv"

type Status string

const (
	StatusAlive     Status = "alive"
	StatusSuspect   Status = "suspect"
	StatusFaulty    Status = "faulty"
	StatusTombstone Status = "tombstone"
	StatusLeave     Status = "leave"
)

// Member is a single entry in a node's membership list.
type Member struct {
	// Address is the host:port of the member. Older implementations omit it
	// in favor of Host and Port.
	Address           string            `json:"address,omitempty"`
	Host              string            `json:"host,omitempty"`
	Port              int               `json:"port,omitempty"`
	Status            Status            `json:"status"`
	IncarnationNumber int64             `json:"incarnationNumber"`
	Labels            map[string]string `json:"labels,omitempty"`
}

// HostPort returns the unique key of the member.
func (m Member) HostPort() string {
	if m.Address != "" {
		return m.Address
	}
	return m.Host + ":" + strconv.Itoa(m.Port)
}

// Change is a membership update piggybacked on a ping or ping-req.
type Change struct {
	ID                      string `json:"id"`
	Source                  string `json:"source"`
	SourceIncarnationNumber int64  `json:"sourceIncarnationNumber"`
	Address                 string `json:"address"`
	Status                  Status `json:"status"`
	IncarnationNumber       int64  `json:"incarnationNumber"`
}
