package zookeeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/zoobzio/respond"
)

func setupZookeeper(t *testing.T) *zk.Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping zookeeper container in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "zookeeper:3.9",
			ExposedPorts: []string{"2181/tcp"},
			WaitingFor:   wait.ForListeningPort("2181/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start zookeeper container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "2181/tcp")
	if err != nil {
		t.Fatalf("failed to get port: %v", err)
	}

	conn, _, err := zk.Connect([]string{host + ":" + port.Port()}, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(conn.Close)

	if _, err := conn.Create("/images", nil, 0, zk.WorldACL(zk.PermAll)); err != nil && !errors.Is(err, zk.ErrNodeExists) {
		t.Fatalf("failed to create parent: %v", err)
	}
	return conn
}

func receive(t *testing.T, ch <-chan []byte) respond.Values {
	t.Helper()
	select {
	case data := <-ch:
		values, err := respond.DecodeValues(data, respond.JSONCodec{})
		if err != nil {
			t.Fatalf("DecodeValues failed: %v", err)
		}
		return values
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for document")
		return nil
	}
}

func TestWatcher_EmitsInitialDocument(t *testing.T) {
	conn := setupZookeeper(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc := []byte(`{"default": "a.jpg 1x", "gt-sm": "a-wide.jpg 1x"}`)
	if _, err := conn.Create("/images/hero", doc, 0, zk.WorldACL(zk.PermAll)); err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	ch, err := New(conn, "/images/hero").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	values := receive(t, ch)
	if values[respond.SuffixGtSM] != "a-wide.jpg 1x" {
		t.Errorf("expected gt-sm value, got %v", values)
	}
}

func TestWatcher_EmitsUpdatedDocument(t *testing.T) {
	conn := setupZookeeper(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := conn.Create("/images/hero", []byte(`{"default": "a.jpg 1x"}`), 0, zk.WorldACL(zk.PermAll)); err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	ch, err := New(conn, "/images/hero").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	receive(t, ch)

	if _, err := conn.Set("/images/hero", []byte(`{"default": "b.jpg 1x"}`), -1); err != nil {
		t.Fatalf("failed to set node: %v", err)
	}

	values := receive(t, ch)
	if values[respond.SuffixNone] != "b.jpg 1x" {
		t.Errorf("expected updated default, got %v", values)
	}
}

func TestWatcher_WaitsForNodeCreation(t *testing.T) {
	conn := setupZookeeper(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ch, err := New(conn, "/images/late").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	select {
	case data := <-ch:
		t.Fatalf("expected no document before creation, got %q", data)
	case <-time.After(500 * time.Millisecond):
	}

	if _, err := conn.Create("/images/late", []byte(`{"default": "late.jpg 1x"}`), 0, zk.WorldACL(zk.PermAll)); err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	values := receive(t, ch)
	if values[respond.SuffixNone] != "late.jpg 1x" {
		t.Errorf("expected created document, got %v", values)
	}
}

func TestWatcher_ClosesOnContextCancel(t *testing.T) {
	conn := setupZookeeper(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	if _, err := conn.Create("/images/hero", []byte(`{"default": "a.jpg 1x"}`), 0, zk.WorldACL(zk.PermAll)); err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	ch, err := New(conn, "/images/hero").Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	<-ch

	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestWithRetryDelay(t *testing.T) {
	w := New(nil, "/images/hero", WithRetryDelay(10*time.Millisecond))
	if w.retryDelay != 10*time.Millisecond {
		t.Errorf("expected 10ms, got %v", w.retryDelay)
	}
}
