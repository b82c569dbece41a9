// Package consul provides a respond.Watcher for value documents held in a
// Consul KV key, using blocking queries.
package consul

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
)

// DefaultRetryDelay is the pause after a failed blocking query.
const DefaultRetryDelay = time.Second

// Watcher watches a Consul KV key holding a serialized value document:
//
//	consul kv put images/hero '{"default": "a.jpg 1x", "md": "a-md.jpg 1x"}'
type Watcher struct {
	client     *api.Client
	key        string
	retryDelay time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithRetryDelay sets the pause after a failed blocking query.
// Default: DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.retryDelay = d
	}
}

// New creates a Watcher for the given Consul KV key.
func New(client *api.Client, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client:     client,
		key:        key,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch emits the key's current document, if the key exists and is not
// empty, then a fresh document whenever the key's index moves. Deleting the
// key emits nothing; the last document stays in effect.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	kv := w.client.KV()

	pair, meta, err := kv.Get(w.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get initial value: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		index := meta.LastIndex
		if pair != nil && len(pair.Value) > 0 {
			select {
			case out <- pair.Value:
			case <-ctx.Done():
				return
			}
		}

		for {
			opts := (&api.QueryOptions{WaitIndex: index}).WithContext(ctx)
			pair, meta, err := kv.Get(w.key, opts)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				select {
				case <-time.After(w.retryDelay):
					continue
				case <-ctx.Done():
					return
				}
			}

			next, changed := NextIndex(index, meta.LastIndex)
			index = next
			if !changed || pair == nil || len(pair.Value) == 0 {
				continue
			}

			select {
			case out <- pair.Value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// NextIndex returns the wait index for the next blocking query and whether
// the key changed. An index that moves backwards, as after a snapshot
// restore, resets the wait to zero.
func NextIndex(prev, last uint64) (uint64, bool) {
	switch {
	case last < prev:
		return 0, true
	case last > prev:
		return last, true
	default:
		return prev, false
	}
}
