// Package zookeeper provides a respond.Watcher for value documents held in
// a ZooKeeper node.
package zookeeper

import (
	"context"
	"errors"
	"time"

	"github.com/go-zookeeper/zk"
)

// DefaultRetryDelay is the pause after a failed read.
const DefaultRetryDelay = time.Second

// Watcher watches a znode whose data is a serialized value document. The
// node may be created after Watch starts.
type Watcher struct {
	conn       *zk.Conn
	path       string
	retryDelay time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithRetryDelay sets the pause after a failed read.
// Default: DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.retryDelay = d
	}
}

// New creates a Watcher for the given znode path.
func New(conn *zk.Conn, path string, opts ...Option) *Watcher {
	w := &Watcher{
		conn:       conn,
		path:       path,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch emits the node's document, then a fresh document after every data
// change. Empty nodes and deletions emit nothing. The channel closes when
// ctx ends or the connection is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		for {
			data, _, events, err := w.conn.GetW(w.path)
			switch {
			case errors.Is(err, zk.ErrNoNode):
				if !w.awaitCreate(ctx) {
					return
				}
				continue
			case errors.Is(err, zk.ErrClosing), errors.Is(err, zk.ErrConnectionClosed):
				return
			case err != nil:
				select {
				case <-time.After(w.retryDelay):
					continue
				case <-ctx.Done():
					return
				}
			}

			if len(data) > 0 {
				select {
				case out <- data:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-events:
				// Any event re-arms the watch with a fresh read.
			}
		}
	}()

	return out, nil
}

// awaitCreate blocks until the node may exist. It reports false when the
// watch should stop.
func (w *Watcher) awaitCreate(ctx context.Context) bool {
	exists, _, events, err := w.conn.ExistsW(w.path)
	if err != nil {
		if errors.Is(err, zk.ErrClosing) || errors.Is(err, zk.ErrConnectionClosed) {
			return false
		}
		select {
		case <-time.After(w.retryDelay):
			return true
		case <-ctx.Done():
			return false
		}
	}
	if exists {
		return true
	}
	select {
	case <-events:
		return true
	case <-ctx.Done():
		return false
	}
}
