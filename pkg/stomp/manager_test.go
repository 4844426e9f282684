package stomp_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

type stateRecorder struct {
	mu      sync.Mutex
	changes []stomp.StateChange
}

func (r *stateRecorder) record(c stomp.StateChange) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *stateRecorder) states() []stomp.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stomp.State, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.To
	}
	return out
}

func (r *stateRecorder) last() stomp.StateChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.changes) == 0 {
		return stomp.StateChange{}
	}
	return r.changes[len(r.changes)-1]
}

func newTestManager(t *testing.T, tr *fakeTransport, opts ...stomp.Option) *stomp.Manager {
	t.Helper()
	opts = append([]stomp.Option{
		stomp.WithTransport(tr),
		stomp.WithLogger(logger.Discard()),
		stomp.WithReconnectDelay(10 * time.Millisecond),
		stomp.WithConnectTimeout(time.Second),
	}, opts...)
	m := stomp.NewManager("ws://carona.test/ws-notificacoes", opts...)
	t.Cleanup(func() { _ = m.Disconnect() })
	return m
}

func waitState(t *testing.T, m *stomp.Manager, want stomp.State) {
	t.Helper()
	require.Eventually(t, func() bool { return m.State() == want }, 2*time.Second, 5*time.Millisecond,
		"state never reached %s (now %s)", want, m.State())
}

func TestManager_ConnectHandshake(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	m := newTestManager(t, tr, stomp.WithConnectHeader("Authorization", "Bearer token-1"))
	assert.Equal(t, stomp.StateDisconnected, m.State())

	require.NoError(t, m.Connect(context.Background()))

	c := <-tr.dialed
	f := c.next(t)
	assert.Equal(t, "CONNECT", f.Command)
	assert.Equal(t, "1.2,1.1,1.0", f.Header.Get("accept-version"))
	assert.Equal(t, "carona.test", f.Header.Get("host"))
	assert.Equal(t, "4000,4000", f.Header.Get("heart-beat"))
	assert.Equal(t, "Bearer token-1", f.Header.Get("Authorization"))

	c.push(frame.New("CONNECTED", "version", "1.2", "heart-beat", "0,0"))
	waitState(t, m, stomp.StateConnected)
	assert.True(t, m.IsConnected())

	require.NoError(t, m.Connect(context.Background()), "connect on an active manager is a no-op")
	assert.Equal(t, int32(1), tr.dials.Load())
}

func TestManager_SubscribeAndReceive(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	m := newTestManager(t, tr)
	require.NoError(t, m.Connect(context.Background()))
	c := tr.accept(t, "0,0")
	waitState(t, m, stomp.StateConnected)

	received := make(chan stomp.Message, 1)
	sub, err := m.Subscribe("/topic/notificacoes", func(msg stomp.Message) {
		received <- msg
	}, stomp.WithID("sub-0"))
	require.NoError(t, err)
	assert.Equal(t, "sub-0", sub.ID())

	f := c.next(t)
	assert.Equal(t, "SUBSCRIBE", f.Command)
	assert.Equal(t, "sub-0", f.Header.Get("id"))
	assert.Equal(t, "/topic/notificacoes", f.Header.Get("destination"))

	msg := frame.New("MESSAGE",
		"subscription", "sub-0",
		"destination", "/topic/notificacoes",
		"message-id", "m-1",
	)
	msg.Body = []byte(`{"id":"n1"}`)
	c.push(msg)

	select {
	case got := <-received:
		assert.Equal(t, "m-1", got.ID)
		assert.Equal(t, "/topic/notificacoes", got.Destination)
		assert.JSONEq(t, `{"id":"n1"}`, string(got.Body))
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	f = c.next(t)
	assert.Equal(t, "UNSUBSCRIBE", f.Command)
	assert.Equal(t, "sub-0", f.Header.Get("id"))
	c.expectNone(t)
	assert.Zero(t, m.Subscriptions())
}

func TestManager_ReplaysRegistryOnReconnect(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	rec := &stateRecorder{}
	m := newTestManager(t, tr)
	m.OnStateChange(rec.record)

	noop := func(stomp.Message) {}
	_, err := m.Subscribe("/topic/user/u1/notifications", noop, stomp.WithID("user"))
	require.NoError(t, err)
	_, err = m.Subscribe("/topic/notificacoes", noop, stomp.WithID("broadcast"))
	require.NoError(t, err)

	require.NoError(t, m.Connect(context.Background()))
	first := tr.accept(t, "0,0")

	ids := []string{first.next(t).Header.Get("id"), first.next(t).Header.Get("id")}
	assert.Equal(t, []string{"user", "broadcast"}, ids)
	first.expectNone(t)
	waitState(t, m, stomp.StateConnected)

	// server drops the socket
	close(first.in)

	second := tr.accept(t, "0,0")
	ids = []string{second.next(t).Header.Get("id"), second.next(t).Header.Get("id")}
	assert.Equal(t, []string{"user", "broadcast"}, ids)
	second.expectNone(t)
	waitState(t, m, stomp.StateConnected)

	assert.Equal(t, []stomp.State{
		stomp.StateConnecting,
		stomp.StateConnected,
		stomp.StateReconnecting,
		stomp.StateConnecting,
		stomp.StateConnected,
	}, rec.states())
}

func TestManager_ResubscribeWithSameIDReplaces(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	m := newTestManager(t, tr)
	require.NoError(t, m.Connect(context.Background()))
	c := tr.accept(t, "0,0")
	waitState(t, m, stomp.StateConnected)

	_, err := m.Subscribe("/topic/carona/r1/location", func(stomp.Message) {}, stomp.WithID("location-r1"))
	require.NoError(t, err)
	assert.Equal(t, "SUBSCRIBE", c.next(t).Command)

	_, err = m.Subscribe("/topic/carona/r1/location", func(stomp.Message) {}, stomp.WithID("location-r1"))
	require.NoError(t, err)
	assert.Equal(t, "UNSUBSCRIBE", c.next(t).Command)
	assert.Equal(t, "SUBSCRIBE", c.next(t).Command)
	assert.Equal(t, 1, m.Subscriptions())
}

func TestManager_PublishWhileDisconnected(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	m := stomp.NewManager("ws://carona.test/ws-location",
		stomp.WithTransport(newFakeTransport()),
		stomp.WithLogger(log),
	)

	err := m.Publish("/app/carona/r1/location", []byte(`{}`))
	require.ErrorIs(t, err, stomp.ErrNotConnected)
	assert.Equal(t, 1, strings.Count(buf.String(), "publish dropped"))
	assert.Contains(t, buf.String(), "/app/carona/r1/location")
}

func TestManager_Publish(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	m := newTestManager(t, tr)
	require.NoError(t, m.Connect(context.Background()))
	c := tr.accept(t, "0,0")
	waitState(t, m, stomp.StateConnected)

	require.NoError(t, m.Publish("/app/carona/r1/location", []byte(`{"latitude":1}`), "x-ride", "r1"))

	f := c.next(t)
	assert.Equal(t, "SEND", f.Command)
	assert.Equal(t, "/app/carona/r1/location", f.Header.Get("destination"))
	assert.Equal(t, "application/json", f.Header.Get("content-type"))
	assert.Equal(t, "14", f.Header.Get("content-length"))
	assert.Equal(t, "r1", f.Header.Get("x-ride"))
	assert.Equal(t, `{"latitude":1}`, string(f.Body))

	require.ErrorIs(t, m.Publish("", nil), stomp.ErrEmptyDestination)
	require.ErrorIs(t, m.Publish("/app/x", nil, "odd"), stomp.ErrInvalidHeaderPair)
}

func TestManager_DialFailureRetries(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	tr.failures.Store(2)
	rec := &stateRecorder{}
	m := newTestManager(t, tr)
	m.OnStateChange(rec.record)

	require.NoError(t, m.Connect(context.Background()))
	tr.accept(t, "0,0")
	waitState(t, m, stomp.StateConnected)

	assert.Equal(t, int32(3), tr.dials.Load())
	assert.Equal(t, []stomp.State{
		stomp.StateConnecting,
		stomp.StateReconnecting,
		stomp.StateConnecting,
		stomp.StateReconnecting,
		stomp.StateConnecting,
		stomp.StateConnected,
	}, rec.states())
}

func TestManager_ServerErrorFrameIsConnectionLoss(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	rec := &stateRecorder{}
	m := newTestManager(t, tr, stomp.WithReconnectDelay(time.Hour))
	m.OnStateChange(rec.record)

	require.NoError(t, m.Connect(context.Background()))
	c := tr.accept(t, "0,0")
	waitState(t, m, stomp.StateConnected)

	c.push(frame.New("ERROR", "message", "session expired"))
	waitState(t, m, stomp.StateReconnecting)
	assert.ErrorIs(t, rec.last().Err, stomp.ErrServerError)
	assert.True(t, c.isClosed())
}

func TestManager_HeartbeatTimeout(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	rec := &stateRecorder{}
	m := newTestManager(t, tr,
		stomp.WithHeartbeat(10*time.Millisecond),
		stomp.WithReconnectDelay(time.Hour),
	)
	m.OnStateChange(rec.record)

	require.NoError(t, m.Connect(context.Background()))
	tr.accept(t, "20,0")
	waitState(t, m, stomp.StateReconnecting)
	assert.ErrorIs(t, rec.last().Err, stomp.ErrHeartbeatTimeout)
}

func TestManager_SendsHeartbeats(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	m := newTestManager(t, tr, stomp.WithHeartbeat(5*time.Millisecond))

	require.NoError(t, m.Connect(context.Background()))
	c := tr.accept(t, "0,10")
	waitState(t, m, stomp.StateConnected)

	require.Eventually(t, func() bool { return c.heartbeats.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, stomp.StateConnected, m.State())
}

func TestManager_DisconnectClearsRegistry(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	m := newTestManager(t, tr)
	_, err := m.Subscribe("/topic/notificacoes", func(stomp.Message) {}, stomp.WithID("broadcast"))
	require.NoError(t, err)

	require.NoError(t, m.Connect(context.Background()))
	c := tr.accept(t, "0,0")
	assert.Equal(t, "SUBSCRIBE", c.next(t).Command)
	waitState(t, m, stomp.StateConnected)

	require.NoError(t, m.Disconnect())
	assert.Equal(t, stomp.StateDisconnected, m.State())
	assert.Equal(t, "DISCONNECT", c.next(t).Command)
	assert.True(t, c.isClosed())
	assert.Zero(t, m.Subscriptions())
	require.NoError(t, m.Disconnect())

	require.NoError(t, m.Connect(context.Background()))
	again := tr.accept(t, "0,0")
	waitState(t, m, stomp.StateConnected)
	again.expectNone(t)
}

func TestManager_ContextCancelStopsLoop(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	m := newTestManager(t, tr)
	rec := &stateRecorder{}
	m.OnStateChange(rec.record)

	_, err := m.Subscribe("/topic/notificacoes", func(stomp.Message) {}, stomp.WithID("broadcast"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Connect(ctx))
	first := tr.accept(t, "0,0")
	assert.Equal(t, "SUBSCRIBE", first.next(t).Command)
	waitState(t, m, stomp.StateConnected)

	cancel()
	waitState(t, m, stomp.StateDisconnected)
	assert.False(t, m.IsConnected())
	assert.Eventually(t, first.isClosed, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		c := rec.last()
		return c.To == stomp.StateDisconnected && errors.Is(c.Err, context.Canceled)
	}, 2*time.Second, 5*time.Millisecond)
	require.ErrorIs(t, m.Publish("/app/ride/r1", []byte(`{}`)), stomp.ErrNotConnected)
	assert.Equal(t, 1, m.Subscriptions(), "registry survives a cancelled loop")

	require.NoError(t, m.Connect(context.Background()))
	second := tr.accept(t, "0,0")
	f := second.next(t)
	assert.Equal(t, "SUBSCRIBE", f.Command)
	assert.Equal(t, "broadcast", f.Header.Get("id"))
	waitState(t, m, stomp.StateConnected)
	assert.Equal(t, int32(2), tr.dials.Load())
}

func TestManager_ListenerRemoval(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	m := newTestManager(t, tr)
	rec := &stateRecorder{}
	remove := m.OnStateChange(rec.record)
	remove()

	require.NoError(t, m.Connect(context.Background()))
	tr.accept(t, "0,0")
	waitState(t, m, stomp.StateConnected)
	assert.Empty(t, rec.states())
}

func TestManager_SubscribeValidation(t *testing.T) {
	t.Parallel()

	m := stomp.NewManager("ws://carona.test/ws", stomp.WithTransport(newFakeTransport()))

	_, err := m.Subscribe("", func(stomp.Message) {})
	require.ErrorIs(t, err, stomp.ErrEmptyTopic)

	_, err = m.Subscribe("/topic/x", nil)
	require.ErrorIs(t, err, stomp.ErrNilHandler)

	sub, err := m.Subscribe("/topic/x", func(stomp.Message) {})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID(), "id defaults to a uuid")
	assert.Equal(t, "/topic/x", sub.Topic())
}

func TestManager_ConnectWithCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := stomp.NewManager("ws://carona.test/ws", stomp.WithTransport(newFakeTransport()))
	require.ErrorIs(t, m.Connect(ctx), context.Canceled)
	assert.Equal(t, stomp.StateDisconnected, m.State())
}
