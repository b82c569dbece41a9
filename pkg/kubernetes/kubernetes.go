// Package kubernetes provides a respond.Watcher for value documents held in
// a ConfigMap, using the Watch API.
package kubernetes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// DefaultRetryDelay is the pause before a failed watch is reopened.
const DefaultRetryDelay = time.Second

var errWatchClosed = errors.New("watch channel closed")

// Watcher watches a ConfigMap. By default every data key is a breakpoint
// tag:
//
//	data:
//	  default: "a.jpg 1x"
//	  md: "a-md.jpg 1x"
//
// With WithKey a single data key holds a serialized value document instead.
type Watcher struct {
	client     kubernetes.Interface
	namespace  string
	name       string
	key        string
	retryDelay time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithKey reads a serialized value document from one data key.
func WithKey(key string) Option {
	return func(w *Watcher) {
		w.key = key
	}
}

// WithRetryDelay sets the pause before a failed watch is reopened.
// Default: DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.retryDelay = d
	}
}

// New creates a Watcher for the named ConfigMap.
func New(client kubernetes.Interface, namespace, name string, opts ...Option) *Watcher {
	w := &Watcher{
		client:     client,
		namespace:  namespace,
		name:       name,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch emits the ConfigMap's document, then a fresh document on every
// change. A ConfigMap that does not exist yet emits once it is created;
// deletion emits nothing. Broken watches are reopened after the retry delay.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		for w.watchLoop(ctx, out) != nil && ctx.Err() == nil {
			select {
			case <-time.After(w.retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// watchLoop opens the watch before reading so no change falls between the
// read and the first event.
func (w *Watcher) watchLoop(ctx context.Context, out chan<- []byte) error {
	watcher, err := w.client.CoreV1().ConfigMaps(w.namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: fmt.Sprintf("metadata.name=%s", w.name),
	})
	if err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}
	defer watcher.Stop()

	cm, err := w.client.CoreV1().ConfigMaps(w.namespace).Get(ctx, w.name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
	case err != nil:
		return fmt.Errorf("failed to get configmap: %w", err)
	default:
		if !w.send(ctx, out, cm) {
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return errWatchClosed
			}
			switch event.Type {
			case watch.Error:
				return fmt.Errorf("watch error: %v", apierrors.FromObject(event.Object))
			case watch.Added, watch.Modified:
				cm, ok := event.Object.(*corev1.ConfigMap)
				if !ok || cm.Name != w.name {
					continue
				}
				if !w.send(ctx, out, cm) {
					return ctx.Err()
				}
			}
		}
	}
}

// send emits cm's document, if it has one. It reports false when ctx ended.
func (w *Watcher) send(ctx context.Context, out chan<- []byte, cm *corev1.ConfigMap) bool {
	doc, ok := Document(cm, w.key)
	if !ok {
		return true
	}
	select {
	case out <- doc:
		return true
	case <-ctx.Done():
		return false
	}
}

// Document extracts a value document from cm. With an empty key the data
// keys form the document; otherwise the named key holds it.
func Document(cm *corev1.ConfigMap, key string) ([]byte, bool) {
	if key != "" {
		v := cm.Data[key]
		return []byte(v), v != ""
	}
	if len(cm.Data) == 0 {
		return nil, false
	}
	doc, err := json.Marshal(cm.Data)
	if err != nil {
		return nil, false
	}
	return doc, true
}
