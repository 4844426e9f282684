package stomp

import "slices"

// Message is an inbound MESSAGE frame.
type Message struct {
	Destination  string
	Subscription string
	ID           string
	ContentType  string
	Headers      map[string]string
	Body         []byte
}

// Handler receives messages for one subscription on the connection's read
// goroutine, in arrival order. Handlers must not block.
type Handler func(Message)

type entry struct {
	id      string
	topic   string
	handler Handler
	headers []string
}

// registry keeps subscriptions in declaration order. Not safe for concurrent
// use; guarded by Manager.mu.
type registry struct {
	order   []string
	entries map[string]*entry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*entry)}
}

// put stores e and reports the entry it replaced, if any.
func (r *registry) put(e *entry) (*entry, bool) {
	prev, ok := r.entries[e.id]
	if !ok {
		r.order = append(r.order, e.id)
	}
	r.entries[e.id] = e
	return prev, ok
}

func (r *registry) get(id string) (*entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

func (r *registry) remove(id string) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return true
}

func (r *registry) all() []*entry {
	out := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

func (r *registry) len() int {
	return len(r.order)
}

func (r *registry) clear() {
	r.order = nil
	clear(r.entries)
}
