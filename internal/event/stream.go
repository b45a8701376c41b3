package event

import "sync"

// Stream is an in-process event source. Network adapters Publish every message
// they observe and listeners receive them synchronously, in publish order.
type Stream struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(Event)
	order     []int
}

func NewStream() *Stream { return &Stream{listeners: make(map[int]func(Event))} }

// Subscribe registers l and returns a function that removes it. The returned
// function is safe to call more than once.
func (s *Stream) Subscribe(l func(Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)
	return func() { s.unsubscribe(id) }
}

func (s *Stream) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[id]; !ok {
		return
	}
	delete(s.listeners, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Stream) Publish(e Event) {
	s.mu.RLock()
	ls := make([]func(Event), 0, len(s.order))
	for _, id := range s.order {
		ls = append(ls, s.listeners[id])
	}
	s.mu.RUnlock()
	for _, l := range ls {
		l(e)
	}
}

func (s *Stream) Listeners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}
