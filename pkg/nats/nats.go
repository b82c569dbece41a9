// Package nats connects respond to NATS: a Watcher over a JetStream KV key
// for value documents, and a Source that receives breakpoint activations
// published on a subject.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/zoobzio/respond"
)

// DefaultSubjectPrefix prefixes activation subjects; the family is appended.
const DefaultSubjectPrefix = "respond.activation"

// Watcher watches a NATS KV key holding a value document.
type Watcher struct {
	kv  jetstream.KeyValue
	key string
}

// New creates a Watcher for the given NATS KV key.
func New(kv jetstream.KeyValue, key string) *Watcher {
	return &Watcher{kv: kv, key: key}
}

// Watch emits the key's current value, then every update. Deletes and
// purges are skipped; the last document stays in effect.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	watcher, err := w.kv.Watch(ctx, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch key: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Stop() //nolint:errcheck

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// nil marks the end of the initial values
				if entry == nil {
					continue
				}
				if entry.Operation() == jetstream.KeyValueDelete || entry.Operation() == jetstream.KeyValuePurge {
					continue
				}

				select {
				case out <- entry.Value():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Source delivers activations published on "<prefix>.<family>".
type Source struct {
	conn    *nats.Conn
	prefix  string
	onError func(error)
}

// Option configures a Source.
type Option func(*Source)

// WithSubjectPrefix replaces DefaultSubjectPrefix.
func WithSubjectPrefix(prefix string) Option {
	return func(s *Source) {
		s.prefix = prefix
	}
}

// WithErrorHandler receives subscription failures and undecodable messages,
// which are otherwise dropped.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Source) {
		s.onError = fn
	}
}

// NewSource creates a Source on conn.
func NewSource(conn *nats.Conn, opts ...Option) *Source {
	s := &Source{conn: conn, prefix: DefaultSubjectPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subject returns the subject carrying activations for family.
func (s *Source) Subject(family string) string {
	return s.prefix + "." + family
}

// Subscribe registers fn for activations of family. If the NATS
// subscription cannot be created the returned handle is inert.
func (s *Source) Subscribe(family string, fn func(respond.Activation)) respond.Subscription {
	sub, err := s.conn.Subscribe(s.Subject(family), func(msg *nats.Msg) {
		a, err := DecodeActivation(msg.Data)
		if err != nil {
			s.report(fmt.Errorf("activation on %s: %w", msg.Subject, err))
			return
		}
		a.Family = family
		fn(a)
	})
	if err != nil {
		s.report(fmt.Errorf("subscribe %s: %w", s.Subject(family), err))
		return respond.SubscriptionFunc(func() {})
	}

	var once sync.Once
	return respond.SubscriptionFunc(func() {
		once.Do(func() {
			_ = sub.Unsubscribe() //nolint:errcheck // connection may already be closed
		})
	})
}

// Publish sends an activation for family.
func (s *Source) Publish(family string, suffix respond.Suffix) error {
	data, err := json.Marshal(respond.Activation{Family: family, Suffix: suffix})
	if err != nil {
		return err
	}
	return s.conn.Publish(s.Subject(family), data)
}

func (s *Source) report(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

// DecodeActivation accepts either a JSON activation or a bare suffix tag.
// An empty payload means no breakpoint is active.
func DecodeActivation(data []byte) (respond.Activation, error) {
	if len(data) > 0 && data[0] == '{' {
		var a respond.Activation
		if err := json.Unmarshal(data, &a); err != nil {
			return respond.Activation{}, err
		}
		s, err := respond.ParseSuffix(string(a.Suffix))
		if err != nil {
			return respond.Activation{}, err
		}
		a.Suffix = s
		return a, nil
	}
	s, err := respond.ParseSuffix(string(data))
	if err != nil {
		return respond.Activation{}, err
	}
	return respond.Activation{Suffix: s}, nil
}

var (
	_ respond.Watcher = (*Watcher)(nil)
	_ respond.Source  = (*Source)(nil)
)
