package realtime_test

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"

	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

// broker is an in-memory STOMP server. SEND frames to /app/... are relayed
// to subscribers of the matching /topic/... destination.
type broker struct {
	mu    sync.Mutex
	conns []*brokerConn
}

func (b *broker) Dial(_ context.Context, _ string) (stomp.Conn, error) {
	c := &brokerConn{
		broker: b,
		in:     make(chan *frame.Frame, 64),
		closed: make(chan struct{}),
		subs:   make(map[string]string),
	}
	b.mu.Lock()
	b.conns = append(b.conns, c)
	b.mu.Unlock()
	return c, nil
}

// publish delivers body to every connection subscribed to dest and reports
// how many received it.
func (b *broker) publish(dest string, body []byte) int {
	b.mu.Lock()
	conns := append([]*brokerConn(nil), b.conns...)
	b.mu.Unlock()

	n := 0
	for _, c := range conns {
		if c.deliver(dest, body) {
			n++
		}
	}
	return n
}

func (b *broker) subscribed(dest string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.conns {
		c.mu.Lock()
		_, ok := c.subs[dest]
		c.mu.Unlock()
		if ok {
			return true
		}
	}
	return false
}

type brokerConn struct {
	broker *broker
	in     chan *frame.Frame
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	subs map[string]string
}

func (c *brokerConn) Read() (*frame.Frame, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *brokerConn) Write(f *frame.Frame) error {
	if f == nil {
		return nil
	}
	switch f.Command {
	case "CONNECT":
		c.in <- frame.New("CONNECTED", "version", "1.2", "heart-beat", "0,0")
	case "SUBSCRIBE":
		c.mu.Lock()
		c.subs[f.Header.Get("destination")] = f.Header.Get("id")
		c.mu.Unlock()
	case "UNSUBSCRIBE":
		c.mu.Lock()
		for dest, id := range c.subs {
			if id == f.Header.Get("id") {
				delete(c.subs, dest)
			}
		}
		c.mu.Unlock()
	case "SEND":
		dest := f.Header.Get("destination")
		if rest, ok := strings.CutPrefix(dest, "/app/"); ok {
			go c.broker.publish("/topic/"+rest, f.Body)
		}
	}
	return nil
}

func (c *brokerConn) Close() error {
	c.once.Do(func() {
		close(c.closed)
		c.mu.Lock()
		clear(c.subs)
		c.mu.Unlock()
	})
	return nil
}

func (c *brokerConn) deliver(dest string, body []byte) bool {
	c.mu.Lock()
	id, ok := c.subs[dest]
	c.mu.Unlock()
	if !ok {
		return false
	}
	f := frame.New("MESSAGE",
		"destination", dest,
		"subscription", id,
		"message-id", uuid.NewString(),
		"content-type", "application/json",
	)
	f.Body = body
	select {
	case c.in <- f:
		return true
	case <-c.closed:
		return false
	}
}
