package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
)

// NotificationChannel is the pub/sub channel bridging app instances.
const NotificationChannel = "notifications"

func NewRedis(addr, password string) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

// Bridge fans stored notifications out to live sessions. With Redis attached
// the payload round-trips through pub/sub so every instance delivers it; with
// rdb nil it goes straight to the local hub.
type Bridge struct {
	hub *Hub
	rdb *redis.Client
	log logger.ILogger
}

func NewBridge(hub *Hub, rdb *redis.Client, log logger.ILogger) *Bridge {
	return &Bridge{hub: hub, rdb: rdb, log: log}
}

// PublishNotification satisfies the notification service's publisher hook.
func (b *Bridge) PublishNotification(ctx context.Context, n *models.Notification) error {
	if b.rdb == nil {
		b.deliver(n)
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, NotificationChannel, payload).Err()
}

// Run subscribes to the notification channel and dispatches until ctx ends.
// Without Redis there is nothing to consume, so it returns immediately.
func (b *Bridge) Run(ctx context.Context) {
	if b.rdb == nil {
		return
	}

	sub := b.rdb.Subscribe(ctx, NotificationChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var n models.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				b.log.Error("bad notification payload", logger.Error(err))
				continue
			}
			b.deliver(&n)
		}
	}
}

func (b *Bridge) deliver(n *models.Notification) {
	event := map[string]interface{}{"event": "notification", "data": n}
	if n.UserID == nil || *n.UserID == uuid.Nil {
		b.hub.BroadcastJSON(event)
		return
	}
	b.hub.SendToUser(*n.UserID, event)
}
