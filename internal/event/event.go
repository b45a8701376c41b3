// Package event models the protocol interactions observed between the node under
// test and its simulated peers, and the ordered buffer they accumulate in while a
// scheme is being validated.
package event

import (
	"encoding/json"
	"github.com/cockroachdb/errors"
	"time"
)

type Type string

const (
	Join          Type = "join"
	Ping          Type = "ping"
	PingReq       Type = "ping-req"
	Stats         Type = "stats"
	AdminLookup   Type = "admin-lookup"
	AdminEndpoint Type = "admin-endpoint"
)

type Direction string

const (
	Request  Direction = "request"
	Response Direction = "response"
)

// Event is a single observed protocol message. Events are created by the network
// adapter the moment a message is seen and are never mutated afterwards.
type Event struct {
	Type       Type            `json:"type"`
	Direction  Direction       `json:"direction"`
	Sender     string          `json:"sender"`
	Receiver   string          `json:"receiver"`
	Endpoint   string          `json:"endpoint,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	ObservedAt time.Time       `json:"observedAt"`
}

var ErrEmptyBody = errors.New("event has no body")

// Decode parses the body of the event into v.
func (e Event) Decode(v interface{}) error {
	if len(e.Body) == 0 {
		return ErrEmptyBody
	}
	return errors.Wrapf(json.Unmarshal(e.Body, v), "[event] - malformed %s %s body", e.Type, e.Direction)
}

func (e Event) String() string { return string(e.Type) + "/" + string(e.Direction) }

// New builds an event, encoding body as JSON.
func New(t Type, d Direction, sender, receiver string, body interface{}) (Event, error) {
	e := Event{Type: t, Direction: d, Sender: sender, Receiver: receiver, ObservedAt: time.Now()}
	if body == nil {
		return e, nil
	}
	raw, err := json.Marshal(body)
	e.Body = raw
	return e, errors.Wrap(err, "[event] - failed to encode body")
}
