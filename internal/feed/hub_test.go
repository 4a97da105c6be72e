package feed

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/status/:client_id", Handler(hub))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status/dash-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return evt
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub, srv, cancel := newTestServer(t)
	defer cancel()

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.RequestDeleted(42)

	for _, conn := range []*websocket.Conn{a, b} {
		evt := readEvent(t, conn)
		if evt.Type != EventRequestDeleted {
			t.Fatalf("type = %q, want %q", evt.Type, EventRequestDeleted)
		}
		payload, ok := evt.Payload.(map[string]any)
		if !ok {
			t.Fatalf("payload type = %T", evt.Payload)
		}
		if payload["id"] != float64(42) {
			t.Fatalf("payload id = %v, want 42", payload["id"])
		}
	}
}

func TestHubRequestUpdatedPayload(t *testing.T) {
	hub, srv, cancel := newTestServer(t)
	defer cancel()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	msg := "model unavailable"
	hub.RequestUpdated(7, "Failed", at, &msg)

	evt := readEvent(t, conn)
	if evt.Type != EventRequestUpdated {
		t.Fatalf("type = %q", evt.Type)
	}
	raw, _ := json.Marshal(evt.Payload)
	var got UpdatePayload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.ID != 7 || got.Status != "Failed" {
		t.Fatalf("payload = %+v", got)
	}
	if got.UpdatedAt != "2026-03-14T09:26:53Z" {
		t.Fatalf("updated_at = %q", got.UpdatedAt)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != msg {
		t.Fatalf("error_message = %v", got.ErrorMessage)
	}
}

func TestHubDisconnectRemovesClient(t *testing.T) {
	hub, srv, cancel := newTestServer(t)
	defer cancel()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Broadcasting with no clients must not block or panic.
	hub.StatusUpdate(1, "Processing", time.Now())
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, srv, cancel := newTestServer(t)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
