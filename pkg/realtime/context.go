package realtime

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/caronakit/pkg/logger"
)

type userCtxKey struct{}

// ContextWithUser tags ctx with the session user.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userCtxKey{}, userID)
}

// UserFromContext returns the user set by ContextWithUser.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userCtxKey{}).(string)
	return id, ok && id != ""
}

// UserAttr is a logger.ContextExtractor that adds the session user to every
// record logged with a tagged context.
func UserAttr(ctx context.Context) (slog.Attr, bool) {
	if id, ok := UserFromContext(ctx); ok {
		return logger.UserID(id), true
	}
	return slog.Attr{}, false
}

var _ logger.ContextExtractor = UserAttr
