// Package etcd provides a respond.Watcher that assembles a value document
// from one etcd key per breakpoint under a common prefix.
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Watcher watches every key under a prefix. The key "<prefix>/md" holds the
// md value and the key "<prefix>" itself holds the default. "<prefix>/default"
// is ignored so the default has a single home.
type Watcher struct {
	client *clientv3.Client
	prefix string
}

// New creates a Watcher for the keys under prefix. A trailing slash is
// ignored.
func New(client *clientv3.Client, prefix string) *Watcher {
	return &Watcher{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

// Tag returns the breakpoint tag addressed by key, or false when key is not
// a value key under the prefix.
func (w *Watcher) Tag(key string) (string, bool) {
	if key == w.prefix {
		return "", true
	}
	rest, ok := strings.CutPrefix(key, w.prefix+"/")
	if !ok || rest == "" || rest == "default" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// Watch emits the current document, if any key exists, then a fresh
// document after every change under the prefix.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	resp, err := w.client.Get(ctx, w.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get initial values: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)

		if doc, ok := w.document(resp); ok {
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
		}

		watchChan := w.client.Watch(ctx, w.prefix, clientv3.WithPrefix(), clientv3.WithRev(resp.Header.Revision+1))

		for {
			select {
			case <-ctx.Done():
				return
			case watchResp, ok := <-watchChan:
				if !ok {
					return
				}
				if watchResp.Err() != nil || len(watchResp.Events) == 0 {
					continue
				}

				// Re-read so a batch of per-breakpoint puts becomes one document.
				current, err := w.client.Get(ctx, w.prefix, clientv3.WithPrefix())
				if err != nil {
					continue
				}
				doc, ok := w.document(current)
				if !ok {
					continue
				}
				select {
				case out <- doc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (w *Watcher) document(resp *clientv3.GetResponse) ([]byte, bool) {
	values := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		tag, ok := w.Tag(string(kv.Key))
		if !ok {
			continue
		}
		values[tag] = string(kv.Value)
	}
	if len(values) == 0 {
		return nil, false
	}
	doc, err := json.Marshal(values)
	if err != nil {
		return nil, false
	}
	return doc, true
}
