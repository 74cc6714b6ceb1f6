package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leaderboard-service/leaderboard/domain"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func waitSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, got %d", n, hub.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandler_SendsSnapshotThenUpdates(t *testing.T) {
	hub := NewHub()
	h := &Handler{
		Hub: hub,
		Snapshot: func(context.Context) []domain.Entry {
			return []domain.Entry{{Name: "Ann", Score: 100}}
		},
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)

	first := readMessage(t, conn)
	if first.Type != MessageTypeLeaderboard || len(first.Scores) != 1 || first.Scores[0].Name != "Ann" {
		t.Fatalf("unexpected snapshot: %+v", first)
	}

	waitSubscribers(t, hub, 1)
	hub.Publish([]domain.Entry{{Name: "Bob", Score: 200}, {Name: "Ann", Score: 100}})

	update := readMessage(t, conn)
	if len(update.Scores) != 2 || update.Scores[0].Name != "Bob" {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestHandler_UnsubscribesOnClientClose(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(&Handler{Hub: hub})
	defer srv.Close()

	conn := dial(t, srv)
	waitSubscribers(t, hub, 1)

	_ = conn.Close()
	waitSubscribers(t, hub, 0)
}

func TestHub_PublishDoesNotBlockOnFullBuffer(t *testing.T) {
	hub := NewHub(WithBufferSize(1))
	sub, ok := hub.subscribe()
	if !ok {
		t.Fatalf("expected subscribe to succeed")
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
	if got := len(sub.send); got != 1 {
		t.Fatalf("expected 1 buffered message, got %d", got)
	}
}

func TestHub_CloseRejectsNewSubscribers(t *testing.T) {
	hub := NewHub()
	sub, _ := hub.subscribe()
	hub.Close()

	if _, ok := <-sub.send; ok {
		t.Fatalf("expected subscriber channel to be closed")
	}
	if _, ok := hub.subscribe(); ok {
		t.Fatalf("expected subscribe to fail after Close")
	}
	hub.Publish(nil)
	hub.unsubscribe(sub)
}
