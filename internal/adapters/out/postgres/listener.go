package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// NotificationListener wakes the notification worker as soon as a commit
// queues a job instead of waiting for the next poll.
type NotificationListener struct {
	listener *pq.Listener
	logger   *slog.Logger
}

func NewNotificationListener(dsn string, logger *slog.Logger) (*NotificationListener, error) {
	logger = logger.With("component", "NotificationListener")

	l := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("listener connection event", "event", ev, "error", err)
		}
	})
	if err := l.Listen(NotificationChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("listen %s: %w", NotificationChannel, err)
	}

	return &NotificationListener{listener: l, logger: logger}, nil
}

// Run calls wake for every notification until ctx is done. A nil
// notification follows a reconnect, when jobs may have been missed, so it
// wakes too. Pings keep idle connections from being dropped silently.
func (n *NotificationListener) Run(ctx context.Context, wake func()) {
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.listener.Notify:
			wake()
		case <-ping.C:
			if err := n.listener.Ping(); err != nil {
				n.logger.Warn("listener ping failed", "error", err)
			}
		}
	}
}

func (n *NotificationListener) Close() error {
	return n.listener.Close()
}
