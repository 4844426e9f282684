package stomp_test

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

// fakeConn is the client side of an in-memory STOMP connection. The test acts
// as the server through push and next.
type fakeConn struct {
	in         chan *frame.Frame
	out        chan *frame.Frame
	closed     chan struct{}
	once       sync.Once
	heartbeats atomic.Int64
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan *frame.Frame, 64),
		out:    make(chan *frame.Frame, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Read() (*frame.Frame, error) {
	select {
	case f, ok := <-c.in:
		if !ok {
			return nil, io.EOF
		}
		return f, nil
	case <-c.closed:
		return nil, net.ErrClosed
	}
}

func (c *fakeConn) Write(f *frame.Frame) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	if f == nil {
		c.heartbeats.Add(1)
		return nil
	}
	select {
	case c.out <- f:
		return nil
	case <-c.closed:
		return net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// push delivers a frame from the server.
func (c *fakeConn) push(f *frame.Frame) {
	c.in <- f
}

// next returns the next frame written by the client.
func (c *fakeConn) next(t *testing.T) *frame.Frame {
	t.Helper()
	select {
	case f := <-c.out:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client frame")
		return nil
	}
}

// expectNone asserts the client writes nothing for a short while.
func (c *fakeConn) expectNone(t *testing.T) {
	t.Helper()
	select {
	case f := <-c.out:
		t.Fatalf("unexpected client frame %s %v", f.Command, f.Header)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeTransport struct {
	dialed   chan *fakeConn
	failures atomic.Int32
	dials    atomic.Int32
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{dialed: make(chan *fakeConn, 8)}
}

func (t *fakeTransport) Dial(ctx context.Context, _ string) (stomp.Conn, error) {
	t.dials.Add(1)
	if t.failures.Load() > 0 {
		t.failures.Add(-1)
		return nil, errors.New("connection refused")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := newFakeConn()
	t.dialed <- c
	return c, nil
}

// accept waits for a dial, consumes CONNECT and answers CONNECTED with the
// given server heart-beat header.
func (t *fakeTransport) accept(tb *testing.T, heartBeat string) *fakeConn {
	tb.Helper()
	var c *fakeConn
	select {
	case c = <-t.dialed:
	case <-time.After(2 * time.Second):
		tb.Fatal("timed out waiting for dial")
	}
	f := c.next(tb)
	require.Equal(tb, "CONNECT", f.Command)
	c.push(frame.New("CONNECTED", "version", "1.2", "heart-beat", heartBeat))
	return c
}
