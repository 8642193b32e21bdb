// Package notify is the adapter for the external notification transport.
// The contract is fire-and-forget: a failed notification is logged by the
// caller and never retried.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const queueKey = "notifications:queue"

// Notifier is the outbound notification capability injected into the
// messaging core.
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string, metadata map[string]string) error
}

// Notification is the job payload handed to the notification worker.
type Notification struct {
	UserID    string            `json:"user_id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// RedisQueue enqueues notification jobs onto a Redis list consumed by the
// notification service.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Notify(ctx context.Context, userID, title, body string, metadata map[string]string) error {
	job := Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return q.client.LPush(ctx, queueKey, data).Err()
}

// Noop discards notifications. Used when no transport is configured.
type Noop struct{}

func (Noop) Notify(ctx context.Context, userID, title, body string, metadata map[string]string) error {
	return nil
}
