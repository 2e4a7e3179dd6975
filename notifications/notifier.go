// Package notifications publishes fire-and-forget moderation alerts over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notification priorities.
const (
	PriorityMin     = "min"
	PriorityLow     = "low"
	PriorityDefault = "default"
	PriorityHigh    = "high"
	PriorityMax     = "max"
)

// Notification is the payload pushed to admin subscribers. Delivery is
// best-effort; failures are invisible to the caller.
type Notification struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	ClickURL string   `json:"click_url,omitempty"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags,omitempty"`
}

// Notifier publishes notifications into Redis topic channels.
type Notifier struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewNotifier(rdb *redis.Client, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{rdb: rdb, logger: logger}
}

// TopicChannel derives the Redis channel for a topic.
func TopicChannel(topic string) string {
	return "notify:" + topic
}

// Notify publishes the notification without blocking the caller. Dispatch
// runs on its own goroutine with its own timeout so it can never hold up
// or roll back the transaction that triggered it.
func (n *Notifier) Notify(ctx context.Context, note Notification) {
	if n == nil || n.rdb == nil {
		return
	}
	if note.Priority == "" {
		note.Priority = PriorityDefault
	}

	payload, err := json.Marshal(note)
	if err != nil {
		n.logger.Error("notification marshal failed", "topic", note.Topic, "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := n.rdb.Publish(ctx, TopicChannel(note.Topic), payload).Err(); err != nil {
			n.logger.Warn("notification publish failed", "topic", note.Topic, "error", err)
		}
	}()
}

// StartSubscriber subscribes to all notify channels and calls onMessage for
// each incoming message until ctx is cancelled. Admin dashboard processes
// use it to mirror the alert stream.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, TopicChannel("*"))
	// Wait for the subscription ack so callers can publish immediately.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
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
				onMessage(msg.Channel, msg.Payload)
			}
		}
	}()

	return nil
}
