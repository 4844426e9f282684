package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrymomot/caronakit/pkg/logger"
	"github.com/dmitrymomot/caronakit/pkg/notifications"
	"github.com/dmitrymomot/caronakit/pkg/wire"
)

var _ notifications.Backend = (*Client)(nil)

// List returns one page of the user's notifications. The body may be a bare
// array or a page object with a content array; items that are not objects
// are skipped.
func (c *Client) List(ctx context.Context, userID string, q notifications.ListQuery) ([]notifications.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", ErrEmptyArgument)
	}

	query := url.Values{}
	query.Set("userId", userID)
	query.Set("page", strconv.Itoa(max(q.Page, 0)))
	size := q.Size
	if size <= 0 {
		size = notifications.DefaultPageSize
	}
	query.Set("size", strconv.Itoa(size))
	for _, t := range q.Types {
		query.Add("types[]", string(t))
	}
	for _, st := range q.Statuses {
		query.Add("statuses[]", string(st))
	}

	body, err := c.do(ctx, "list_notifications", http.MethodGet, "/notificacoes", query)
	if err != nil {
		return nil, err
	}
	v, err := decodeAny(body)
	if err != nil {
		return nil, err
	}

	var items []any
	switch t := v.(type) {
	case nil:
	case []any:
		items = t
	case map[string]any:
		for _, key := range []string{"content", "items", "notificacoes"} {
			if list, ok := t[key].([]any); ok {
				items = list
				break
			}
		}
	default:
		return nil, fmt.Errorf("%w: notification list is %T", ErrDecode, v)
	}

	now := c.now()
	out := make([]notifications.Notification, 0, len(items))
	for i, item := range items {
		obj, ok := wire.AsObject(item)
		if !ok {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "skipping malformed notification in page",
				logger.UserID(userID),
				slog.Int("index", i),
			)
			continue
		}
		out = append(out, notifications.FromObject(obj, now))
	}
	return out, nil
}

// MarkRead acknowledges one notification.
func (c *Client) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return fmt.Errorf("%w: user id and notification id are required", ErrEmptyArgument)
	}
	query := url.Values{}
	query.Set("userId", userID)
	_, err := c.do(ctx, "mark_read", http.MethodPut, "/notificacoes/"+url.PathEscape(id)+"/read", query)
	return err
}

// UnreadCount returns the server's unread count. The body may be a bare
// integer or an object with a count field.
func (c *Client) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id", ErrEmptyArgument)
	}
	query := url.Values{}
	query.Set("userId", userID)

	body, err := c.do(ctx, "unread_count", http.MethodGet, "/notificacoes/unread-count", query)
	if err != nil {
		return 0, err
	}
	v, err := decodeAny(body)
	if err != nil {
		return 0, err
	}

	var raw any = v
	if obj, ok := wire.AsObject(v); ok {
		raw = nil
		for _, key := range []string{"count", "unreadCount", "total"} {
			if n, ok := obj[key]; ok {
				raw = n
				break
			}
		}
	}
	switch n := raw.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return max(int(i), 0), nil
		}
		if f, err := n.Float64(); err == nil {
			return max(int(f), 0), nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return max(i, 0), nil
		}
	}
	return 0, fmt.Errorf("%w: unread count %q", ErrDecode, body)
}
