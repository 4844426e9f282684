package notifications_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/notifications"
	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) List(ctx context.Context, userID string, q notifications.ListQuery) ([]notifications.Notification, error) {
	args := m.Called(ctx, userID, q)
	items, _ := args.Get(0).([]notifications.Notification)
	return items, args.Error(1)
}

func (m *mockBackend) MarkRead(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockBackend) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func newChannel(t *testing.T, backend notifications.Backend, opts ...notifications.Option) (*notifications.Channel, *stomp.Manager) {
	t.Helper()
	mgr := stomp.NewManager("ws://carona.test/ws-notificacoes", stomp.WithLogger(logger.Discard()))
	opts = append([]notifications.Option{
		notifications.WithLogger(logger.Discard()),
		notifications.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	ch := notifications.NewChannel(mgr, backend, opts...)
	require.NoError(t, ch.Start(context.Background(), "u1"))
	t.Cleanup(func() { _ = ch.Close() })
	return ch, mgr
}

func rawNotification(id, status string) []byte {
	return fmt.Appendf(nil, `{"id":%q,"type":"RIDE_MATCH_REQUEST","status":%q,"payload":{"rideId":"r-%s"}}`, id, status, id)
}

func items(ids ...string) []notifications.Notification {
	out := make([]notifications.Notification, len(ids))
	for i, id := range ids {
		out[i] = notifications.Notification{ID: id, Type: notifications.TypeSystem, Status: notifications.StatusSent}
	}
	return out
}

func ids(list []notifications.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func TestChannel_StartSubscribesTopics(t *testing.T) {
	t.Parallel()

	ch, mgr := newChannel(t, nil)
	assert.Equal(t, 2, mgr.Subscriptions())
	assert.Equal(t, "u1", ch.UserID())

	require.NoError(t, ch.Start(context.Background(), "u1"), "same user is a no-op")
	assert.Equal(t, 2, mgr.Subscriptions())

	require.NoError(t, ch.Start(context.Background(), "u2"))
	assert.Equal(t, 2, mgr.Subscriptions(), "previous user's subscriptions are released")
	assert.Equal(t, "u2", ch.UserID())

	ch.Stop()
	ch.Stop()
	assert.Zero(t, mgr.Subscriptions())
	assert.ErrorIs(t, ch.Start(context.Background(), ""), notifications.ErrEmptyUserID)
}

func TestChannel_UnreadCounting(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{}
	backend.On("MarkRead", mock.Anything, "u1", "n2").Return(nil).Once()
	ch, _ := newChannel(t, backend)

	const n = 5
	for i := range n {
		ch.HandleMessage(rawNotification(fmt.Sprintf("n%d", i), "SENT"))
	}
	ch.HandleMessage(rawNotification("read-already", "ACKNOWLEDGED"))
	assert.Equal(t, n, ch.UnreadCount())
	assert.Len(t, ch.Notifications(), n+1)
	assert.Equal(t, "read-already", ch.Notifications()[0].ID, "newest first")

	require.NoError(t, ch.MarkAsRead(context.Background(), "n2"))
	assert.Equal(t, n-1, ch.UnreadCount())

	require.NoError(t, ch.MarkAsRead(context.Background(), "n2"))
	assert.Equal(t, n-1, ch.UnreadCount(), "marking twice is idempotent")

	ch.Wait()
	backend.AssertExpectations(t)
	backend.AssertNumberOfCalls(t, "MarkRead", 1)

	got, ok := ch.Get("n2")
	require.True(t, ok)
	assert.Equal(t, notifications.StatusAcknowledged, got.Status)
}

func TestChannel_UnreadNeverNegative(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{}
	backend.On("UnreadCount", mock.Anything, "u1").Return(0, nil)
	backend.On("MarkRead", mock.Anything, "u1", mock.Anything).Return(nil)
	ch, _ := newChannel(t, backend)

	ch.HandleMessage(rawNotification("a", "SENT"))
	_, err := ch.FetchUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ch.UnreadCount())

	require.NoError(t, ch.MarkAsRead(context.Background(), "a"))
	assert.Zero(t, ch.UnreadCount())
	ch.Wait()
}

func TestChannel_MarkAsReadUnknownID(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{}
	backend.On("MarkRead", mock.Anything, "u1", "ghost").Return(nil).Once()
	ch, _ := newChannel(t, backend)
	ch.HandleMessage(rawNotification("a", "SENT"))

	require.NoError(t, ch.MarkAsRead(context.Background(), "ghost"))
	ch.Wait()

	assert.Equal(t, 1, ch.UnreadCount())
	backend.AssertExpectations(t)
	assert.ErrorIs(t, ch.MarkAsRead(context.Background(), ""), notifications.ErrEmptyID)
}

func TestChannel_MarkAsReadBackendFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("503 service unavailable")
	backend := &mockBackend{}
	backend.On("MarkRead", mock.Anything, "u1", "a").Return(boom).Once()
	ch, _ := newChannel(t, backend)
	ch.HandleMessage(rawNotification("a", "SENT"))

	require.NoError(t, ch.MarkAsRead(context.Background(), "a"))

	select {
	case taskErr := <-ch.Errors():
		assert.Equal(t, "mark_read", taskErr.Task)
		assert.ErrorIs(t, taskErr, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("background failure not reported")
	}

	assert.Zero(t, ch.UnreadCount(), "local state is not rolled back")
	got, _ := ch.Get("a")
	assert.Equal(t, notifications.StatusAcknowledged, got.Status)
}

func TestChannel_MarkAsReadBeforeStart(t *testing.T) {
	t.Parallel()

	ch := notifications.NewChannel(
		stomp.NewManager("ws://carona.test/ws", stomp.WithLogger(logger.Discard())),
		nil,
		notifications.WithLogger(logger.Discard()),
	)
	assert.ErrorIs(t, ch.MarkAsRead(context.Background(), "a"), notifications.ErrNotStarted)
}

func TestChannel_DuplicateLiveMessage(t *testing.T) {
	t.Parallel()

	ch, _ := newChannel(t, nil)
	ch.HandleMessage(rawNotification("a", "SENT"))
	ch.HandleMessage(rawNotification("b", "SENT"))
	ch.HandleMessage(rawNotification("a", "SENT"))

	assert.Equal(t, []string{"b", "a"}, ids(ch.Notifications()), "duplicate replaced in place")
	assert.Equal(t, 2, ch.UnreadCount())

	ch.HandleMessage(rawNotification("a", "ACKNOWLEDGED"))
	assert.Equal(t, 1, ch.UnreadCount(), "status delta applied")
}

func TestChannel_RedeliveryKeepsAcknowledgement(t *testing.T) {
	t.Parallel()

	ch, _ := newChannel(t, nil)
	ch.HandleMessage(rawNotification("a", "SENT"))
	require.Equal(t, 1, ch.UnreadCount())

	require.NoError(t, ch.MarkAsRead(context.Background(), "a"))
	require.Zero(t, ch.UnreadCount())

	ch.HandleMessage(rawNotification("a", "SENT"))
	assert.Zero(t, ch.UnreadCount())
	n, ok := ch.Get("a")
	require.True(t, ok)
	assert.Equal(t, notifications.StatusAcknowledged, n.Status)
	assert.Len(t, ch.Notifications(), 1)

	require.NoError(t, ch.MarkAsRead(context.Background(), "a"))
	assert.Zero(t, ch.UnreadCount())
}

func TestChannel_MalformedMessagesDiscarded(t *testing.T) {
	t.Parallel()

	ch, _ := newChannel(t, nil)
	assert.NotPanics(t, func() {
		ch.HandleMessage([]byte("not json at all"))
		ch.HandleMessage([]byte(`{"id":`))
		ch.HandleMessage(nil)
	})
	assert.Empty(t, ch.Notifications())
	assert.Zero(t, ch.UnreadCount())

	ch.HandleMessage([]byte(`garbage {"id":"x","type":"WEIRD_NEW_TYPE"} garbage`))
	list := ch.Notifications()
	require.Len(t, list, 1)
	assert.Equal(t, notifications.TypeUnknown, list[0].Type)
	assert.Equal(t, "WEIRD_NEW_TYPE", list[0].RawType)
	assert.Equal(t, 1, ch.UnreadCount(), "unknown types are stored and counted")
}

func TestChannel_IgnoresOtherRecipients(t *testing.T) {
	t.Parallel()

	ch, _ := newChannel(t, nil)
	ch.HandleMessage([]byte(`{"id":"x","type":"SYSTEM","recipient":{"id":"someone-else"}}`))
	ch.HandleMessage([]byte(`{"id":"y","type":"SYSTEM","recipient":"u1"}`))
	assert.Equal(t, []string{"y"}, ids(ch.Notifications()))
}

func TestChannel_AppendPageDedup(t *testing.T) {
	t.Parallel()

	ch, _ := newChannel(t, nil)
	ch.AppendPage(items("a", "b"))
	ch.AppendPage(items("b", "c"))

	assert.Equal(t, []string{"a", "b", "c"}, ids(ch.Notifications()))
	assert.Zero(t, ch.UnreadCount(), "pagination does not touch the counter")
}

func TestChannel_Replace(t *testing.T) {
	t.Parallel()

	ch, _ := newChannel(t, nil)
	ch.HandleMessage(rawNotification("live", "SENT"))
	ch.Replace(items("x", "y", "x"))

	assert.Equal(t, []string{"x", "y"}, ids(ch.Notifications()))
	assert.Equal(t, 1, ch.UnreadCount())
}

func TestChannel_LoadPage(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{}
	backend.On("List", mock.Anything, "u1", notifications.ListQuery{Page: 0, Size: 2}).
		Return(items("a", "b"), nil).Once()
	backend.On("List", mock.Anything, "u1", notifications.ListQuery{Page: 1, Size: 2}).
		Return(items("b", "c"), nil).Once()
	backend.On("UnreadCount", mock.Anything, "u1").Return(7, nil).Once()

	ch, _ := newChannel(t, backend, notifications.WithPageSize(2))
	ch.HandleMessage(rawNotification("stale", "SENT"))

	require.NoError(t, ch.LoadPage(context.Background(), 0))
	assert.Equal(t, []string{"a", "b"}, ids(ch.Notifications()))
	assert.Equal(t, 7, ch.UnreadCount(), "server count is authoritative")

	require.NoError(t, ch.LoadPage(context.Background(), 1))
	assert.Equal(t, []string{"a", "b", "c"}, ids(ch.Notifications()))
	assert.Equal(t, 7, ch.UnreadCount())

	backend.AssertExpectations(t)
}

func TestChannel_LoadPageFailure(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{}
	backend.On("List", mock.Anything, "u1", mock.Anything).Return(nil, errors.New("timeout")).Once()
	ch, _ := newChannel(t, backend)
	ch.HandleMessage(rawNotification("keep", "SENT"))

	require.Error(t, ch.LoadPage(context.Background(), 0))
	assert.Equal(t, []string{"keep"}, ids(ch.Notifications()))
}

func TestChannel_FetchUnreadCountFailureKeepsLocal(t *testing.T) {
	t.Parallel()

	backend := &mockBackend{}
	backend.On("UnreadCount", mock.Anything, "u1").Return(0, errors.New("offline")).Once()
	ch, _ := newChannel(t, backend)
	ch.HandleMessage(rawNotification("a", "SENT"))

	count, err := ch.FetchUnreadCount(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, ch.UnreadCount())
}

func TestChannel_NoBackend(t *testing.T) {
	t.Parallel()

	ch, _ := newChannel(t, nil)
	_, err := ch.FetchUnreadCount(context.Background())
	assert.ErrorIs(t, err, notifications.ErrNoBackend)
	assert.ErrorIs(t, ch.LoadPage(context.Background(), 0), notifications.ErrNoBackend)

	ch.HandleMessage(rawNotification("a", "SENT"))
	require.NoError(t, ch.MarkAsRead(context.Background(), "a"))
	assert.Zero(t, ch.UnreadCount())
}

func TestChannel_Events(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := newChannel(t, nil)
	sub := ch.Subscribe(ctx)

	ch.HandleMessage(rawNotification("a", "SENT"))
	require.NoError(t, ch.MarkAsRead(ctx, "a"))

	var kinds []notifications.EventKind
	for range 2 {
		select {
		case msg := <-sub.Receive(ctx):
			kinds = append(kinds, msg.Data.Kind)
			assert.Equal(t, "a", msg.Data.Notification.ID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.Equal(t, []notifications.EventKind{notifications.EventReceived, notifications.EventRead}, kinds)
}

func TestChannel_NotificationsReturnsCopy(t *testing.T) {
	t.Parallel()

	ch, _ := newChannel(t, nil)
	ch.HandleMessage([]byte(`{"id":"a","payload":{"k":"v"}}`))

	list := ch.Notifications()
	list[0].Status = notifications.StatusAcknowledged
	list[0].Payload.Fields["k"] = "changed"

	got, _ := ch.Get("a")
	assert.Equal(t, notifications.StatusPending, got.Status)
	assert.Equal(t, "v", got.Payload.Fields["k"])
}
