package notifications

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/async"
	"github.com/dmitrymomot/caronakit/pkg/broadcast"
	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/metrics"
	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

const metricsChannel = "notifications"

// Conn is the part of the connection manager the channel needs.
type Conn interface {
	Subscribe(topic string, handler stomp.Handler, opts ...stomp.SubscribeOption) (*stomp.Subscription, error)
	IsConnected() bool
}

// EventKind describes what changed.
type EventKind string

const (
	EventReceived EventKind = "received"
	EventRead     EventKind = "read"
	EventReloaded EventKind = "reloaded"
	EventCount    EventKind = "count"
)

// Event is published to Subscribe streams after every state change.
type Event struct {
	Kind         EventKind
	Notification Notification
	Unread       int
}

// Channel holds the notification list and unread counter for one user.
// All methods are safe for concurrent use.
type Channel struct {
	conn    Conn
	backend Backend
	logger  *slog.Logger
	metrics *metrics.Collectors
	runner  *async.Runner
	events  *broadcast.MemoryBroadcaster[Event]
	now     func() time.Time
	query   ListQuery

	mu       sync.RWMutex
	userID   string
	items    []Notification
	unread   int
	subs     []*stomp.Subscription
	lifetime context.Context
	cancel   context.CancelFunc
}

// NewChannel creates a channel. backend may be nil, in which case history,
// counts and acknowledgements stay local.
func NewChannel(conn Conn, backend Backend, opts ...Option) *Channel {
	c := &Channel{
		conn:    conn,
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
		query:   ListQuery{Size: DefaultPageSize},
		events:  broadcast.NewMemoryBroadcaster[Event](64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("notifications"))
	if c.runner == nil {
		c.runner = async.NewRunner(async.WithRunnerLogger(c.logger))
	}
	return c
}

// Start subscribes to the user and broadcast topics. Starting again for the
// same user is a no-op; a different user replaces the previous one.
func (c *Channel) Start(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == userID {
		return nil
	}
	c.stopLocked()

	lifetime, cancel := context.WithCancel(context.WithoutCancel(ctx))
	topics := []struct{ topic, id string }{
		{UserTopic(userID), "notifications-user-" + userID},
		{BroadcastTopic, "notifications-broadcast"},
	}
	for _, t := range topics {
		sub, err := c.conn.Subscribe(t.topic, c.handle, stomp.WithID(t.id))
		if err != nil {
			for _, s := range c.subs {
				s.Unsubscribe()
			}
			c.subs = nil
			cancel()
			return err
		}
		c.subs = append(c.subs, sub)
	}

	c.userID = userID
	c.lifetime, c.cancel = lifetime, cancel

	c.logger.LogAttrs(ctx, slog.LevelInfo, "notification channel started",
		logger.UserID(userID),
		slog.Bool("connected", c.conn.IsConnected()),
	)
	return nil
}

// Stop releases the subscriptions and cancels background tasks. The list and
// counter are kept. It is idempotent.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Channel) stopLocked() {
	for _, s := range c.subs {
		s.Unsubscribe()
	}
	c.subs = nil
	if c.cancel != nil {
		c.cancel()
	}
	c.lifetime, c.cancel = nil, nil
	c.userID = ""
}

// Close stops the channel and closes every Subscribe stream.
func (c *Channel) Close() error {
	c.Stop()
	return c.events.Close()
}

// UserID returns the started user, or "".
func (c *Channel) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Notifications returns a newest-first copy of the list.
func (c *Channel) Notifications() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Notification, len(c.items))
	for i, n := range c.items {
		n.Payload = n.Payload.Clone()
		out[i] = n
	}
	return out
}

// Get returns the notification with the given id.
func (c *Channel) Get(id string) (Notification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		n := c.items[i]
		n.Payload = n.Payload.Clone()
		return n, true
	}
	return Notification{}, false
}

// UnreadCount returns the local unread counter.
func (c *Channel) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unread
}

// Subscribe streams change events until ctx is done.
func (c *Channel) Subscribe(ctx context.Context) broadcast.Subscriber[Event] {
	return c.events.Subscribe(ctx)
}

// Errors delivers failures of background backend calls.
func (c *Channel) Errors() <-chan async.TaskError {
	return c.runner.Errors()
}

// Wait blocks until every background task started so far has finished.
func (c *Channel) Wait() {
	c.runner.Wait()
}

// HandleMessage ingests one raw message as if it arrived on a subscribed topic.
func (c *Channel) HandleMessage(raw []byte) {
	c.handle(stomp.Message{Body: raw})
}

func (c *Channel) handle(msg stomp.Message) {
	ctx := context.Background()

	n, salvaged, err := Parse(msg.Body, c.now())
	if err != nil {
		c.metrics.IncDiscarded(metricsChannel)
		c.logger.LogAttrs(ctx, slog.LevelWarn, "discarding malformed notification",
			logger.Topic(msg.Destination),
			logger.Raw(msg.Body),
			logger.Error(err),
		)
		return
	}
	if salvaged {
		c.metrics.IncSalvaged(metricsChannel)
		c.logger.LogAttrs(ctx, slog.LevelDebug, "notification recovered from noisy message",
			logger.NotificationID(n.ID),
			logger.Topic(msg.Destination),
		)
	}

	c.mu.Lock()
	if user := c.userID; user != "" && n.Recipient != nil && n.Recipient.ID != "" && n.Recipient.ID != user {
		c.mu.Unlock()
		c.logger.LogAttrs(ctx, slog.LevelDebug, "ignoring notification for another user",
			logger.NotificationID(n.ID),
			logger.UserID(n.Recipient.ID),
		)
		return
	}
	if i := c.indexOf(n.ID); i >= 0 {
		prev := c.items[i]
		// a redelivery never undoes a local acknowledgement
		if prev.Status == StatusAcknowledged {
			n.Status = StatusAcknowledged
		}
		c.items[i] = n
		c.unread += unreadWeight(n) - unreadWeight(prev)
	} else {
		c.items = slices.Insert(c.items, 0, n)
		c.unread += unreadWeight(n)
	}
	c.unread = max(c.unread, 0)
	unread := c.unread
	c.mu.Unlock()

	c.metrics.IncNotification(string(n.Type))
	c.metrics.SetUnread(unread)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "notification received",
		logger.NotificationID(n.ID),
		logger.EventType(string(n.Type)),
		slog.Int("unread", unread),
	)
	c.events.Publish(ctx, Event{Kind: EventReceived, Notification: n, Unread: unread})
}

// MarkAsRead acknowledges id locally and on the backend. Already acknowledged
// ids are a no-op. Unknown ids are still acknowledged on the backend but do
// not change the counter. The backend call runs in the background.
func (c *Channel) MarkAsRead(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	c.mu.Lock()
	userID := c.userID
	if userID == "" {
		c.mu.Unlock()
		return ErrNotStarted
	}
	var (
		n     Notification
		found bool
	)
	if i := c.indexOf(id); i >= 0 {
		if c.items[i].Status == StatusAcknowledged {
			c.mu.Unlock()
			return nil
		}
		c.items[i].Status = StatusAcknowledged
		c.unread = max(c.unread-1, 0)
		n, found = c.items[i], true
	}
	unread := c.unread
	taskCtx := c.lifetime
	c.mu.Unlock()

	if found {
		c.metrics.SetUnread(unread)
		c.events.Publish(ctx, Event{Kind: EventRead, Notification: n, Unread: unread})
	}

	if c.backend == nil {
		return nil
	}
	c.runner.Go(taskCtx, "mark_read", func(ctx context.Context) error {
		if err := c.backend.MarkRead(ctx, userID, id); err != nil {
			c.metrics.IncTaskFailure("mark_read")
			return err
		}
		return nil
	})
	return nil
}

// FetchUnreadCount replaces the local counter with the backend's value.
func (c *Channel) FetchUnreadCount(ctx context.Context) (int, error) {
	userID, err := c.requireBackend()
	if err != nil {
		return 0, err
	}

	count, err := c.backend.UnreadCount(ctx, userID)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "unread count refresh failed",
			logger.UserID(userID),
			logger.Error(err),
		)
		return c.UnreadCount(), err
	}

	count = max(count, 0)
	c.mu.Lock()
	c.unread = count
	c.mu.Unlock()

	c.metrics.SetUnread(count)
	c.events.Publish(ctx, Event{Kind: EventCount, Unread: count})
	return count, nil
}

// LoadPage fetches one page of history. Page 0 replaces the list and
// refreshes the unread count; later pages are appended.
func (c *Channel) LoadPage(ctx context.Context, page int) error {
	userID, err := c.requireBackend()
	if err != nil {
		return err
	}

	q := c.query
	q.Page = max(page, 0)
	items, err := c.backend.List(ctx, userID, q)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "notification page load failed",
			logger.UserID(userID),
			slog.Int("page", q.Page),
			logger.Error(err),
		)
		return err
	}

	if q.Page > 0 {
		c.AppendPage(items)
		return nil
	}
	c.Replace(items)
	_, err = c.FetchUnreadCount(ctx)
	return err
}

// Replace swaps the list for items, dropping duplicate ids. The counter is
// left untouched.
func (c *Channel) Replace(items []Notification) {
	next := make([]Notification, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, n := range items {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		next = append(next, n)
	}

	c.mu.Lock()
	c.items = next
	unread := c.unread
	c.mu.Unlock()

	c.events.Publish(context.Background(), Event{Kind: EventReloaded, Unread: unread})
}

// AppendPage appends items whose ids are not present yet. The counter is
// left untouched.
func (c *Channel) AppendPage(items []Notification) {
	c.mu.Lock()
	seen := make(map[string]struct{}, len(c.items)+len(items))
	for _, n := range c.items {
		seen[n.ID] = struct{}{}
	}
	for _, n := range items {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		c.items = append(c.items, n)
	}
	unread := c.unread
	c.mu.Unlock()

	c.events.Publish(context.Background(), Event{Kind: EventReloaded, Unread: unread})
}

func (c *Channel) requireBackend() (string, error) {
	if c.backend == nil {
		return "", ErrNoBackend
	}
	userID := c.UserID()
	if userID == "" {
		return "", ErrNotStarted
	}
	return userID, nil
}

// indexOf must be called with c.mu held.
func (c *Channel) indexOf(id string) int {
	return slices.IndexFunc(c.items, func(n Notification) bool { return n.ID == id })
}

func unreadWeight(n Notification) int {
	if n.Unread() {
		return 1
	}
	return 0
}
