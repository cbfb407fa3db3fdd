// Package notifications delivers moderation events to connected moderators.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"zenith/internal/middleware"
	"zenith/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ModerationChannel is the Redis channel carrying moderation events.
const ModerationChannel = "moderation:events"

// Event types.
const (
	EventCommentPending    = "comment.pending"
	EventPostStatusChanged = "post.status_changed"
)

// Event is the envelope pushed to moderators.
type Event struct {
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher is what services depend on to emit events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Notifier publishes events into Redis. Without Redis it hands payloads
// straight to the in-process subscriber, which is enough for one instance.
type Notifier struct {
	rdb *redis.Client

	mu    sync.RWMutex
	local func(payload string)
}

// NewNotifier creates a Notifier; rdb may be nil.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish serializes event and delivers it.
func (n *Notifier) Publish(ctx context.Context, event Event) error {
	if n == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	observability.ModerationEvents.WithLabelValues(event.Type).Inc()

	if n.rdb == nil {
		n.mu.RLock()
		local := n.local
		n.mu.RUnlock()
		if local != nil {
			local(string(raw))
		}
		return nil
	}
	return n.rdb.Publish(ctx, ModerationChannel, raw).Err()
}

// StartSubscriber calls onMessage for every event until ctx is done.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		n.mu.Lock()
		n.local = onMessage
		n.mu.Unlock()
		go func() {
			<-ctx.Done()
			n.mu.Lock()
			n.local = nil
			n.mu.Unlock()
		}()
		return nil
	}

	sub := n.rdb.Subscribe(ctx, ModerationChannel)
	// wait for the subscription to be confirmed so no early publish is lost
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", ModerationChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in moderation subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()
	return nil
}
