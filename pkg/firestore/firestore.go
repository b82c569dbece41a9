// Package firestore provides a respond.Watcher for value documents held in
// a Firestore document, using realtime listeners.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
)

// Watcher watches a Firestore document. By default every string field is a
// breakpoint tag:
//
//	images/hero = {default: "a.jpg 1x", md: "a-md.jpg 1x"}
//
// With WithField a single field holds a serialized value document instead.
type Watcher struct {
	client     *firestore.Client
	collection string
	document   string
	field      string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithField reads a serialized value document from field.
func WithField(field string) Option {
	return func(w *Watcher) {
		w.field = field
	}
}

// New creates a Watcher for the given Firestore document.
func New(client *firestore.Client, collection, document string, opts ...Option) *Watcher {
	w := &Watcher{
		client:     client,
		collection: collection,
		document:   document,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch emits the document's values, then fresh values on every change.
// Missing documents and documents without values emit nothing. The channel
// closes when ctx ends or the listener fails.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	ref := w.client.Collection(w.collection).Doc(w.document)

	out := make(chan []byte)

	go func() {
		defer close(out)

		snapshots := ref.Snapshots(ctx)
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				// The iterator returns the same error from here on.
				return
			}
			if !snap.Exists() {
				continue
			}

			doc, ok := Document(snap.Data(), w.field)
			if !ok {
				continue
			}
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Document extracts a value document from Firestore fields. With an empty
// field name the string fields form the document; otherwise the named
// field holds it as a string or bytes.
func Document(data map[string]any, field string) ([]byte, bool) {
	if field != "" {
		switch v := data[field].(type) {
		case string:
			return []byte(v), v != ""
		case []byte:
			return v, len(v) > 0
		}
		return nil, false
	}

	values := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			values[k] = s
		}
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

// PutValues replaces the document with one string field per tag.
func PutValues(ctx context.Context, client *firestore.Client, collection, document string, values map[string]string) error {
	data := make(map[string]any, len(values))
	for k, v := range values {
		data[k] = v
	}
	if _, err := client.Collection(collection).Doc(document).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to put values: %w", err)
	}
	return nil
}
