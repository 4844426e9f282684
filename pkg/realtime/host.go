package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/caronakit/pkg/navigation"
)

// LogHost is a headless navigation host. It is ready immediately and records
// the last target it was asked to open.
type LogHost struct {
	*navigation.ReadySignal
	logger *slog.Logger

	mu   sync.Mutex
	last navigation.Target
}

func NewLogHost(l *slog.Logger) *LogHost {
	h := &LogHost{ReadySignal: navigation.NewReadySignal(), logger: l}
	h.Signal()
	return h
}

func (h *LogHost) Navigate(ctx context.Context, t navigation.Target) error {
	h.mu.Lock()
	h.last = t
	h.mu.Unlock()
	h.logger.LogAttrs(ctx, slog.LevelInfo, "navigate", slog.String("target", t.String()))
	return nil
}

// Last returns the most recent target.
func (h *LogHost) Last() navigation.Target {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// LogPresenter writes fallback messages to the log.
type LogPresenter struct {
	Logger *slog.Logger
}

func (p LogPresenter) ShowMessage(ctx context.Context, title, message string) {
	p.Logger.LogAttrs(ctx, slog.LevelWarn, message, slog.String("title", title))
}
