package event

// Predicate selects events from a Buffer.
type Predicate func(Event) bool

func ByType(t Type) Predicate { return func(e Event) bool { return e.Type == t } }

func ByDirection(d Direction) Predicate { return func(e Event) bool { return e.Direction == d } }

func ByReceiver(addr string) Predicate { return func(e Event) bool { return e.Receiver == addr } }

func BySender(addr string) Predicate { return func(e Event) bool { return e.Sender == addr } }

// Is matches events of type t travelling in direction d.
func Is(t Type, d Direction) Predicate { return And(ByType(t), ByDirection(d)) }

func And(preds ...Predicate) Predicate {
	return func(e Event) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

func Or(preds ...Predicate) Predicate {
	return func(e Event) bool {
		for _, p := range preds {
			if p(e) {
				return true
			}
		}
		return false
	}
}

func Not(p Predicate) Predicate { return func(e Event) bool { return !p(e) } }

func All(Event) bool { return true }
