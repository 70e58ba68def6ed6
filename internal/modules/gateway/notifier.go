package gateway

import (
	"context"

	"github.com/microsolutions/showcase/internal/middleware"
	"go.uber.org/zap"
)

// Broadcaster queues an event for connected clients.
type Broadcaster interface {
	Broadcast(event string, payload any, room string)
}

// Notifier publishes change notifications: it purges the HTTP response cache so the
// next read sees the write, then pushes the event to every page.
type Notifier struct {
	out    Broadcaster
	cache  middleware.Store
	logger *zap.Logger
}

func NewNotifier(out Broadcaster, cache middleware.Store, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{out: out, cache: cache, logger: logger.Named("notifier")}
}

func (n *Notifier) Publish(ctx context.Context, event string, payload any) {
	n.Purge(ctx)
	if n.out != nil {
		n.out.Broadcast(event, payload, "")
	}
}

// Purge drops cached responses. Failures are logged; the cache expires on its own.
func (n *Notifier) Purge(ctx context.Context) {
	if _, err := middleware.PurgeHTTPCache(context.WithoutCancel(ctx), n.cache); err != nil {
		n.logger.Warn("purge http cache failed", zap.Error(err))
	}
}
