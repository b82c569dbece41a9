// Package redis provides a respond.Watcher for value documents held in
// Redis, using keyspace notifications.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Watcher watches a Redis key for changes. Requires keyspace notifications:
//
//	CONFIG SET notify-keyspace-events KEA
//
// By default the key holds a serialized value document. With AsHash the key
// is a hash whose fields are breakpoint tags:
//
//	HSET hero:srcset default "a.jpg 1x" md "a-md.jpg 1x"
type Watcher struct {
	client *redis.Client
	key    string
	db     int
	hash   bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// AsHash reads the key as a hash and emits its fields as a JSON document.
func AsHash() Option {
	return func(w *Watcher) {
		w.hash = true
	}
}

// WithDB sets the database index used in the keyspace channel. Default: 0.
func WithDB(db int) Option {
	return func(w *Watcher) {
		w.db = db
	}
}

// New creates a Watcher for the given Redis key.
func New(client *redis.Client, key string, opts ...Option) *Watcher {
	w := &Watcher{client: client, key: key}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Channel returns the keyspace notification channel for the key.
func (w *Watcher) Channel() string {
	return fmt.Sprintf("__keyspace@%d__:%s", w.db, w.key)
}

// Watch emits the key's current document, if any, then a fresh document
// after every write to the key.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pubsub := w.client.Subscribe(ctx, w.Channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		if val, ok := w.read(ctx); ok {
			select {
			case out <- val:
			case <-ctx.Done():
				return
			}
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if !IsWrite(msg.Payload) {
					continue
				}
				val, ok := w.read(ctx)
				if !ok {
					continue
				}
				select {
				case out <- val:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (w *Watcher) read(ctx context.Context) ([]byte, bool) {
	if !w.hash {
		val, err := w.client.Get(ctx, w.key).Bytes()
		if err != nil {
			return nil, false
		}
		return val, true
	}

	fields, err := w.client.HGetAll(ctx, w.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false
	}
	if len(fields) == 0 {
		return nil, false
	}
	data, err := EncodeHash(fields)
	if err != nil {
		return nil, false
	}
	return data, true
}

// IsWrite reports whether a keyspace event payload modifies the key.
func IsWrite(event string) bool {
	switch event {
	case "set", "mset", "setex", "psetex", "setnx", "setrange", "append",
		"hset", "hmset", "hsetnx", "hdel":
		return true
	}
	return false
}

// EncodeHash renders hash fields as a JSON value document.
func EncodeHash(fields map[string]string) ([]byte, error) {
	return json.Marshal(fields)
}
