package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func TestHubBroadcastsPredictions(t *testing.T) {
	hub := NewHub(nil)
	go hub.Start()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer server.Close()

	conn := dialHub(t, server)
	defer conn.Close()

	// Registration happens after the upgrade response; give the hub loop a beat.
	time.Sleep(50 * time.Millisecond)

	hub.SendPrediction(PredictionMessage{
		Label:                1,
		ProbabilityBenign:    0.1,
		ProbabilityMalignant: 0.9,
		Timestamp:            time.Now().UTC(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected a broadcast frame: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if msg.Type != PredictionEvent {
		t.Fatalf("expected prediction event, got %s", msg.Type)
	}
	var event PredictionMessage
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatalf("invalid event payload: %v", err)
	}
	if event.Label != 1 || event.ProbabilityMalignant != 0.9 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestHandleWebSocketAfterStopDoesNotHang(t *testing.T) {
	hub := NewHub(nil)
	go hub.Start()
	hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer server.Close()

	// The handshake still completes, but the handler must return and close the
	// connection instead of blocking on a hub loop that is gone.
	conn := dialHub(t, server)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed after hub stop")
	}
}
