package stomp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"

	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/metrics"
	"github.com/dmitrymomot/caronakit/pkg/statemachine"
)

const (
	cmdConnect     = "CONNECT"
	cmdConnected   = "CONNECTED"
	cmdSend        = "SEND"
	cmdSubscribe   = "SUBSCRIBE"
	cmdUnsubscribe = "UNSUBSCRIBE"
	cmdDisconnect  = "DISCONNECT"
	cmdMessage     = "MESSAGE"
	cmdReceipt     = "RECEIPT"
	cmdError       = "ERROR"

	hdrAcceptVersion = "accept-version"
	hdrHost          = "host"
	hdrHeartBeat     = "heart-beat"
	hdrVersion       = "version"
	hdrDestination   = "destination"
	hdrID            = "id"
	hdrSubscription  = "subscription"
	hdrMessageID     = "message-id"
	hdrContentType   = "content-type"
	hdrContentLength = "content-length"
	hdrMessage       = "message"

	acceptVersions     = "1.2,1.1,1.0"
	defaultContentType = "application/json"
)

// Manager owns the connection to one endpoint and its subscription registry.
// All methods are safe for concurrent use.
type Manager struct {
	url            string
	host           string
	heartbeat      time.Duration
	reconnectDelay time.Duration
	connectTimeout time.Duration
	connectHeaders []string

	transport Transport
	logger    *slog.Logger
	metrics   *metrics.Collectors
	fsm       *statemachine.Machine[State, event]

	// mu guards the registry, the live connection and the run loop handles.
	// Lock order: mu before writeMu.
	mu       sync.RWMutex
	registry *registry
	conn     Conn
	cancel   context.CancelFunc
	done     chan struct{}

	writeMu sync.Mutex

	listenerMu sync.Mutex
	listeners  map[uint64]func(StateChange)
	nextID     uint64
}

// NewManager creates a disconnected manager for the given WebSocket URL.
func NewManager(endpoint string, opts ...Option) *Manager {
	m := &Manager{
		url:            endpoint,
		heartbeat:      4 * time.Second,
		reconnectDelay: 5 * time.Second,
		connectTimeout: 10 * time.Second,
		logger:         slog.Default(),
		registry:       newRegistry(),
		listeners:      make(map[uint64]func(StateChange)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.transport == nil {
		m.transport = NewWebSocketTransport()
	}
	if m.host == "" {
		if u, err := url.Parse(endpoint); err == nil {
			m.host = u.Hostname()
		}
	}
	m.logger = m.logger.With(logger.Component("stomp"), logger.Endpoint(endpoint))
	m.fsm = newLifecycle(m.observe)
	return m
}

// URL returns the endpoint this manager connects to.
func (m *Manager) URL() string { return m.url }

// State returns the current connection state.
func (m *Manager) State() State { return m.fsm.Current() }

// IsConnected reports whether the manager is in StateConnected.
func (m *Manager) IsConnected() bool { return m.fsm.Is(StateConnected) }

// OnStateChange registers fn for every state transition. Listeners run
// synchronously on the goroutine causing the transition and must not block.
// The returned func removes the listener.
func (m *Manager) OnStateChange(fn func(StateChange)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	m.listenerMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.listenerMu.Unlock()

	return func() {
		m.listenerMu.Lock()
		delete(m.listeners, id)
		m.listenerMu.Unlock()
	}
}

// Connect activates the connection loop and returns immediately. The loop
// runs until Disconnect is called or ctx is cancelled. Cancelling ctx moves
// the manager to StateDisconnected but keeps the registry, so a later
// Connect resubscribes. Calling Connect on an active manager is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	m.fire(evActivate, nil)
	go m.run(runCtx, done)
	return nil
}

// Disconnect deactivates the loop, sends DISCONNECT best-effort, closes the
// socket and forgets every subscription. It is idempotent.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	cancel, done, conn := m.cancel, m.done, m.conn
	m.cancel, m.done, m.conn = nil, nil, nil
	m.registry.clear()
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}

	if conn != nil {
		if err := m.write(conn, frame.New(cmdDisconnect)); err != nil {
			m.logger.LogAttrs(context.Background(), slog.LevelDebug, "disconnect frame not sent", logger.Error(err))
		}
	}
	cancel()
	if conn != nil {
		_ = conn.Close()
	}
	<-done

	m.fire(evDeactivate, nil)
	return nil
}

// Subscribe declares a subscription. It is sent immediately when a connection
// is established and replayed after every reconnect until Unsubscribe or
// Disconnect.
func (m *Manager) Subscribe(topic string, handler Handler, opts ...SubscribeOption) (*Subscription, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	e := &entry{id: uuid.NewString(), topic: topic, handler: handler}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.headers)%2 != 0 {
		return nil, ErrInvalidHeaderPair
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, replaced := m.registry.put(e)
	if m.conn != nil {
		if replaced {
			m.send(m.conn, unsubscribeFrame(prev.id))
		}
		m.send(m.conn, subscribeFrame(e))
	}

	m.logger.LogAttrs(context.Background(), slog.LevelDebug, "subscription declared",
		logger.Topic(topic),
		logger.SubscriptionID(e.id),
		slog.Bool("replaced", replaced),
	)
	return &Subscription{manager: m, id: e.id, topic: topic}, nil
}

func (m *Manager) unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.registry.remove(id) {
		return
	}
	if m.conn != nil {
		m.send(m.conn, unsubscribeFrame(id))
	}
}

// Subscriptions returns the number of registered subscriptions.
func (m *Manager) Subscriptions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.len()
}

// Publish sends body to destination. headers are optional key/value pairs.
// Outside a live connection the payload is dropped with a single warning and
// ErrNotConnected is returned; nothing is buffered.
func (m *Manager) Publish(destination string, body []byte, headers ...string) error {
	if destination == "" {
		return ErrEmptyDestination
	}
	if len(headers)%2 != 0 {
		return ErrInvalidHeaderPair
	}

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil {
		m.metrics.IncPublishDropped(m.url)
		m.logger.LogAttrs(context.Background(), slog.LevelWarn, "publish dropped: not connected",
			logger.Destination(destination),
			logger.State(m.State().String()),
		)
		return ErrNotConnected
	}

	f := frame.New(cmdSend, hdrDestination, destination)
	for i := 0; i < len(headers); i += 2 {
		f.Header.Set(headers[i], headers[i+1])
	}
	if f.Header.Get(hdrContentType) == "" {
		f.Header.Set(hdrContentType, defaultContentType)
	}
	f.Header.Set(hdrContentLength, strconv.Itoa(len(body)))
	f.Body = body

	m.send(conn, f)
	m.metrics.IncPublished(m.url)
	return nil
}

// Subscription is a handle to a registered subscription.
type Subscription struct {
	manager *Manager
	id      string
	topic   string
	once    sync.Once
}

// ID is the STOMP subscription id sent in SUBSCRIBE and matched against the
// subscription header of MESSAGE frames.
func (s *Subscription) ID() string { return s.id }

// Topic is the destination the subscription listens on.
func (s *Subscription) Topic() string { return s.topic }

// Unsubscribe removes the subscription from the registry and sends
// UNSUBSCRIBE when connected. It is idempotent.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.manager.unsubscribe(s.id)
	})
}

func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer m.release(ctx, done)

	for {
		err := m.session(ctx, done)
		if ctx.Err() != nil || m.detached(done) {
			return
		}

		m.metrics.IncReconnect(m.url)
		m.logger.LogAttrs(ctx, slog.LevelWarn, "connection lost, retrying",
			logger.Error(err),
			logger.Duration(m.reconnectDelay),
		)

		t := time.NewTimer(m.reconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		m.fire(evRetry, nil)
	}
}

// session runs one connection from dial to loss. It fires the transition out
// of Connecting or Connected unless ctx was cancelled.
func (m *Manager) session(ctx context.Context, done chan struct{}) error {
	dialCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	conn, err := m.transport.Dial(dialCtx, m.url)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = errors.Join(ErrHandshakeFailed, err)
		m.fire(evFail, err)
		return err
	}

	send, receive, err := m.handshake(ctx, conn)
	if err != nil {
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.fire(evFail, err)
		return err
	}

	m.mu.Lock()
	if ctx.Err() != nil || m.done != done {
		m.mu.Unlock()
		_ = conn.Close()
		return context.Canceled
	}
	m.conn = conn
	for _, e := range m.registry.all() {
		m.send(conn, subscribeFrame(e))
	}
	replayed := m.registry.len()
	m.mu.Unlock()

	m.logger.LogAttrs(ctx, slog.LevelInfo, "connected",
		slog.Int("subscriptions", replayed),
		slog.Duration("heartbeat_send", send),
		slog.Duration("heartbeat_receive", receive),
	)
	m.fire(evAck, nil)

	cause := m.serve(ctx, conn, send, receive)

	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
	_ = conn.Close()

	if ctx.Err() != nil || m.detached(done) {
		return cause
	}
	m.fire(evLost, cause)
	return cause
}

func (m *Manager) handshake(ctx context.Context, conn Conn) (send, receive time.Duration, err error) {
	f := frame.New(cmdConnect,
		hdrAcceptVersion, acceptVersions,
		hdrHost, m.host,
		hdrHeartBeat, heartbeatHeader(m.heartbeat),
	)
	for i := 0; i+1 < len(m.connectHeaders); i += 2 {
		f.Header.Set(m.connectHeaders[i], m.connectHeaders[i+1])
	}
	if err := m.write(conn, f); err != nil {
		return 0, 0, errors.Join(ErrHandshakeFailed, err)
	}

	type result struct {
		f   *frame.Frame
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		for {
			f, err := conn.Read()
			if err != nil || f != nil {
				resCh <- result{f, err}
				return
			}
		}
	}()

	timer := time.NewTimer(m.connectTimeout)
	defer timer.Stop()

	var res result
	select {
	case res = <-resCh:
	case <-timer.C:
		_ = conn.Close()
		return 0, 0, ErrHandshakeTimeout
	case <-ctx.Done():
		_ = conn.Close()
		return 0, 0, ctx.Err()
	}

	if res.err != nil {
		return 0, 0, errors.Join(ErrHandshakeFailed, res.err)
	}
	m.metrics.IncFrame(m.url, res.f.Command)

	switch res.f.Command {
	case cmdConnected:
	case cmdError:
		m.logServerError(ctx, res.f)
		return 0, 0, errors.Join(ErrHandshakeFailed, ErrServerError)
	default:
		return 0, 0, fmt.Errorf("%w: unexpected %s frame", ErrHandshakeFailed, res.f.Command)
	}

	send, receive, err = negotiate(m.heartbeat, res.f.Header.Get(hdrHeartBeat))
	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "invalid heart-beat header, heartbeats disabled",
			logger.Error(err),
		)
		return 0, 0, nil
	}
	return send, receive, nil
}

// serve reads frames until the connection fails and returns the cause.
func (m *Manager) serve(ctx context.Context, conn Conn, send, receive time.Duration) error {
	sessCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	var lastRead atomic.Int64
	lastRead.Store(time.Now().UnixNano())

	var wg sync.WaitGroup
	if send > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.sendHeartbeats(sessCtx, conn, send)
		}()
	}
	if receive > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.watchHeartbeats(sessCtx, stop, conn, &lastRead, receive)
		}()
	}
	go func() {
		<-sessCtx.Done()
		_ = conn.Close()
	}()

	var cause error
	for {
		f, err := conn.Read()
		if err != nil {
			cause = err
			break
		}
		lastRead.Store(time.Now().UnixNano())
		if f == nil {
			continue
		}
		if err := m.dispatch(sessCtx, f); err != nil {
			cause = err
			break
		}
	}

	if c := context.Cause(sessCtx); c != nil && !errors.Is(c, context.Canceled) {
		cause = c
	}
	stop(cause)
	wg.Wait()
	return cause
}

// release clears the loop handles when the loop ended because its context was
// cancelled rather than through Disconnect. The registry is kept so a later
// Connect replays it.
func (m *Manager) release(ctx context.Context, done chan struct{}) {
	m.mu.Lock()
	if m.done != done {
		m.mu.Unlock()
		return
	}
	cancel, conn := m.cancel, m.conn
	m.cancel, m.done, m.conn = nil, nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	m.logger.LogAttrs(context.Background(), slog.LevelInfo, "connection loop stopped", logger.Error(ctx.Err()))
	m.fire(evDeactivate, ctx.Err())
}

// detached reports whether Disconnect already released the loop owning done.
func (m *Manager) detached(done chan struct{}) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done != done
}

func (m *Manager) sendHeartbeats(ctx context.Context, conn Conn, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := m.write(conn, nil); err != nil {
				return
			}
		}
	}
}

// watchHeartbeats closes the session when nothing was read for twice the
// negotiated incoming interval.
func (m *Manager) watchHeartbeats(ctx context.Context, stop context.CancelCauseFunc, conn Conn, lastRead *atomic.Int64, every time.Duration) {
	limit := 2 * every
	t := time.NewTicker(every / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if now.Sub(time.Unix(0, lastRead.Load())) > limit {
				stop(ErrHeartbeatTimeout)
				_ = conn.Close()
				return
			}
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, f *frame.Frame) error {
	m.metrics.IncFrame(m.url, f.Command)

	switch f.Command {
	case cmdMessage:
		subID := f.Header.Get(hdrSubscription)
		m.mu.RLock()
		e, ok := m.registry.get(subID)
		m.mu.RUnlock()
		if !ok {
			m.logger.LogAttrs(ctx, slog.LevelDebug, "message for unknown subscription",
				logger.SubscriptionID(subID),
				logger.Topic(f.Header.Get(hdrDestination)),
			)
			return nil
		}
		e.handler(toMessage(f))
		return nil
	case cmdError:
		m.logServerError(ctx, f)
		return ErrServerError
	case cmdReceipt, cmdConnected:
		return nil
	default:
		m.logger.LogAttrs(ctx, slog.LevelDebug, "ignoring frame", slog.String("command", f.Command))
		return nil
	}
}

func (m *Manager) logServerError(ctx context.Context, f *frame.Frame) {
	m.logger.LogAttrs(ctx, slog.LevelError, "server error frame",
		slog.String("message", f.Header.Get(hdrMessage)),
		logger.Raw(f.Body),
	)
}

// send writes f and closes conn on failure so the read loop observes the loss.
func (m *Manager) send(conn Conn, f *frame.Frame) {
	if err := m.write(conn, f); err != nil {
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "write failed",
			slog.String("command", f.Command),
			logger.Error(err),
		)
		_ = conn.Close()
	}
}

func (m *Manager) write(conn Conn, f *frame.Frame) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.Write(f)
}

func (m *Manager) fire(ev event, cause error) {
	tr, err := m.fsm.Fire(ev)
	if err != nil {
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "state event ignored",
			slog.String("event", string(ev)),
			logger.Error(err),
		)
		return
	}

	change := StateChange{From: tr.From, To: tr.To, Err: cause}
	m.listenerMu.Lock()
	listeners := make([]func(StateChange), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(change)
	}
}

func (m *Manager) observe(tr statemachine.Transition[State, event]) {
	m.metrics.SetConnectionState(m.url, tr.To.String(), stateNames)
	m.logger.LogAttrs(context.Background(), slog.LevelDebug, "state changed",
		slog.String("from", tr.From.String()),
		logger.State(tr.To.String()),
	)
}

func subscribeFrame(e *entry) *frame.Frame {
	f := frame.New(cmdSubscribe, hdrID, e.id, hdrDestination, e.topic)
	for i := 0; i+1 < len(e.headers); i += 2 {
		f.Header.Set(e.headers[i], e.headers[i+1])
	}
	return f
}

func unsubscribeFrame(id string) *frame.Frame {
	return frame.New(cmdUnsubscribe, hdrID, id)
}

func toMessage(f *frame.Frame) Message {
	headers := make(map[string]string, f.Header.Len())
	for i := 0; i < f.Header.Len(); i++ {
		k, v := f.Header.GetAt(i)
		if _, seen := headers[k]; !seen {
			headers[k] = v
		}
	}
	return Message{
		Destination:  f.Header.Get(hdrDestination),
		Subscription: f.Header.Get(hdrSubscription),
		ID:           f.Header.Get(hdrMessageID),
		ContentType:  f.Header.Get(hdrContentType),
		Headers:      headers,
		Body:         f.Body,
	}
}
