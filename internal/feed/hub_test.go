package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil)
	conn := dialTestHub(t, hub)

	payload := map[string]string{"symbol": "RELIANCE", "price": "1500.00"}
	hub.Broadcast(payload)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(message, &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got["symbol"] != "RELIANCE" {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestHub_DropsClosedClients(t *testing.T) {
	hub := NewHub(nil)
	conn := dialTestHub(t, hub)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	conn.Close()
	// Two broadcasts: the first may hit the torn-down connection and drop
	// it, the second must see an empty client set without panicking.
	hub.Broadcast("x")
	hub.Broadcast("y")

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("closed client should be dropped, count=%d", hub.ClientCount())
	}
}
