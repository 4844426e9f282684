package notifications

import "context"

// DefaultPageSize is the page size used by LoadPage unless configured.
const DefaultPageSize = 20

// ListQuery filters a backend listing. Page is zero-based.
type ListQuery struct {
	Page     int
	Size     int
	Types    []Type
	Statuses []Status
}

// Backend is the REST collaborator used for history, acknowledgements and
// the authoritative unread count.
type Backend interface {
	List(ctx context.Context, userID string, q ListQuery) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Topic names.
const BroadcastTopic = "/topic/notificacoes"

// UserTopic returns the per-user notification topic.
func UserTopic(userID string) string {
	return "/topic/user/" + userID + "/notifications"
}
