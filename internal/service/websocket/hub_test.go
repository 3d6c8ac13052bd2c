package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"wastedetect/internal/dto"
	"wastedetect/internal/logger"
)

// setupHub starts a hub and a test server that registers every websocket connection with it.
func setupHub(t *testing.T) (*HubService, *httptest.Server) {
	t.Helper()

	hub := NewHubService(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishReachesAllViewers(t *testing.T) {
	hub, server := setupHub(t)
	first := dial(t, server)
	second := dial(t, server)
	waitForClients(t, hub, 2)

	event := dto.Event{Event: dto.EventFinished, RequestID: "abc", Detections: 3, DurationMS: 120}
	hub.Publish(event)

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got dto.Event
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		if diff := cmp.Diff(event, got); diff != "" {
			t.Errorf("Event mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestHub_Unregister(t *testing.T) {
	hub, server := setupHub(t)
	dial(t, server)
	waitForClients(t, hub, 1)

	hub.mutex.RLock()
	var conn *websocket.Conn
	for c := range hub.clients {
		conn = c
	}
	hub.mutex.RUnlock()

	hub.Unregister(conn)
	waitForClients(t, hub, 0)

	// Unregistering twice is harmless.
	hub.Unregister(conn)
	waitForClients(t, hub, 0)
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHubService(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	conns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	defer server.Close()

	dial(t, server)
	conn := <-conns

	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		hub.Register(conn)
		hub.Unregister(conn)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Register or Unregister blocked after the hub stopped")
	}
	if n := hub.GetClientCount(); n != 0 {
		t.Errorf("Expected 0 clients after stop, got %d", n)
	}
}

func TestHub_BroadcastDoesNotBlockWithoutLoop(t *testing.T) {
	hub := NewHubService(logger.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+10; i++ {
			hub.Publish(dto.Event{Event: dto.EventStarted, RequestID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked while the hub loop was not running")
	}
}
