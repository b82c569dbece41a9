// Package postgres provides a respond.Watcher over a PostgreSQL table of
// responsive values, using LISTEN/NOTIFY.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table read when WithTable is not given.
const DefaultTable = "responsive_values"

// Watcher assembles a value document from the rows of one attribute family,
// one row per breakpoint, and re-reads it whenever a notification naming the
// family arrives on the channel.
//
// Example schema and trigger:
//
//	CREATE TABLE responsive_values (
//	    family text NOT NULL,
//	    suffix text NOT NULL DEFAULT '',
//	    value  text NOT NULL,
//	    PRIMARY KEY (family, suffix)
//	);
//
//	CREATE OR REPLACE FUNCTION notify_responsive_value() RETURNS trigger AS $$
//	BEGIN
//	    PERFORM pg_notify('responsive_values', COALESCE(NEW.family, OLD.family));
//	    RETURN NULL;
//	END;
//	$$ LANGUAGE plpgsql;
//
//	CREATE TRIGGER responsive_value_changed
//	    AFTER INSERT OR UPDATE OR DELETE ON responsive_values
//	    FOR EACH ROW EXECUTE FUNCTION notify_responsive_value();
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
	family  string
	table   string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithTable sets the table holding the values. Default: DefaultTable.
func WithTable(table string) Option {
	return func(w *Watcher) {
		w.table = table
	}
}

// New creates a Watcher for family, listening on channel.
func New(pool *pgxpool.Pool, channel, family string, opts ...Option) *Watcher {
	w := &Watcher{
		pool:    pool,
		channel: channel,
		family:  family,
		table:   DefaultTable,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Query returns the statement selecting the family's rows.
func (w *Watcher) Query() string {
	return fmt.Sprintf("SELECT suffix, value FROM %s WHERE family = $1", pgx.Identifier{w.table}.Sanitize())
}

// Watch emits the family's current document, if it has any rows, then a
// fresh document after every notification for the family. The channel
// closes when ctx ends or the connection fails. Removing the
// last row does not emit; the previous values stay in effect.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", w.channel, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer conn.Release()

		if doc, ok := w.read(ctx); ok {
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
		}

		for {
			// Any error here means ctx ended or the connection is gone.
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			if notification.Payload != w.family {
				continue
			}

			doc, ok := w.read(ctx)
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

func (w *Watcher) read(ctx context.Context) ([]byte, bool) {
	rows, err := w.pool.Query(ctx, w.Query(), w.family)
	if err != nil {
		return nil, false
	}
	values := make(map[string]string)
	var suffix, value string
	_, err = pgx.ForEachRow(rows, []any{&suffix, &value}, func() error {
		values[suffix] = value
		return nil
	})
	if err != nil || len(values) == 0 {
		return nil, false
	}
	doc, err := EncodeRows(values)
	if err != nil {
		return nil, false
	}
	return doc, true
}

// EncodeRows renders suffix/value rows as a JSON value document. The empty
// suffix holds the default value.
func EncodeRows(rows map[string]string) ([]byte, error) {
	return json.Marshal(rows)
}
