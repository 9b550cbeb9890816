package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/roomclimate/internal/control"
	"github.com/nerrad567/roomclimate/internal/infrastructure/config"
	"github.com/nerrad567/roomclimate/internal/infrastructure/logging"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHub_BroadcastToSubscribed(t *testing.T) {
	hub := testHub(t)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{control.ChannelCommands: {}},
	}
	hub.Register(client)

	hub.Broadcast(control.ChannelCommands, control.CommandEvent{Room: "R1", Status: control.StatusOn})

	select {
	case msg := <-client.send:
		var wsMsg WSMessage
		if err := json.Unmarshal(msg, &wsMsg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if wsMsg.Type != WSTypeEvent || wsMsg.EventType != control.ChannelCommands {
			t.Errorf("message = %+v", wsMsg)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for broadcast message")
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	hub := testHub(t)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{control.ChannelDashboard: {}},
	}
	hub.Register(client)

	hub.Broadcast(control.ChannelCommands, map[string]any{"room_id": "R1"})

	select {
	case <-client.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := testHub(t)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}
}

func TestHub_ReplaysRetainedChannels(t *testing.T) {
	hub := testHub(t)
	hub.Broadcast(control.ChannelDashboard, []control.RoomStatus{{RoomID: "R1", Capacity: 300}})
	hub.Broadcast(control.ChannelCommands, control.CommandEvent{Room: "R1", Status: control.StatusOn})

	client := &WSClient{
		hub:  hub,
		send: make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{
			control.ChannelDashboard: {},
			control.ChannelCommands:  {},
		},
	}
	hub.Register(client)

	if len(client.send) != 1 {
		t.Fatalf("replayed %d messages, want 1 (dashboard only)", len(client.send))
	}
	var msg WSMessage
	if err := json.Unmarshal(<-client.send, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.EventType != control.ChannelDashboard {
		t.Errorf("replayed event_type = %q, want %q", msg.EventType, control.ChannelDashboard)
	}
}

func TestWSClient_SubscribeAcksThenReplays(t *testing.T) {
	hub := testHub(t)
	hub.Broadcast(control.ChannelDashboard, []control.RoomStatus{{RoomID: "R2"}})

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	hub.Register(client)
	if len(client.send) != 0 {
		t.Fatalf("client with no subscriptions got %d messages", len(client.send))
	}

	client.handleMessage([]byte(`{"type":"subscribe","id":"7","payload":{"channels":["dashboard"]}}`))

	var ack, replay WSMessage
	if err := json.Unmarshal(<-client.send, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.Type != WSTypeResponse || ack.ID != "7" {
		t.Errorf("first message = %+v, want response 7", ack)
	}
	if err := json.Unmarshal(<-client.send, &replay); err != nil {
		t.Fatalf("unmarshal replay: %v", err)
	}
	if replay.Type != WSTypeEvent || replay.EventType != control.ChannelDashboard {
		t.Errorf("second message = %+v, want dashboard event", replay)
	}
}

func TestWSClient_HandleMessageErrors(t *testing.T) {
	hub := testHub(t)
	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"not json", `{`, "invalid JSON message"},
		{"unknown type", `{"type":"shout","id":"1"}`, "unknown message type: shout"},
		{"unknown channel", `{"type":"subscribe","id":"2","payload":{"channels":["dashboard","secrets"]}}`, "unknown channel: secrets"},
		{"bad payload", `{"type":"unsubscribe","id":"3","payload":"dashboard"}`, "invalid unsubscribe payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client.handleMessage([]byte(tt.in))
			var msg WSMessage
			if err := json.Unmarshal(<-client.send, &msg); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			payload, _ := msg.Payload.(map[string]any) //nolint:errcheck // checked below
			if msg.Type != WSTypeError || payload["message"] != tt.want {
				t.Errorf("reply = %+v, want error %q", msg, tt.want)
			}
		})
	}

	if client.isSubscribed(control.ChannelDashboard) {
		t.Error("rejected subscribe must not add any channel")
	}
}

func TestHub_CountsDroppedMessages(t *testing.T) {
	hub := testHub(t)
	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, 1),
		subscriptions: map[string]struct{}{control.ChannelCommands: {}},
	}
	hub.Register(client)

	for i := 0; i < 3; i++ {
		hub.Broadcast(control.ChannelCommands, control.CommandEvent{Room: "R1", Status: control.StatusOff})
	}
	if got := hub.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

func TestParseChannels(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"", 0, true},
		{"dashboard", 1, true},
		{"dashboard, commands", 2, true},
		{"dashboard,,", 1, true},
		{"dashboard,device.state_changed", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseChannels(tt.raw)
		if ok != tt.wantOK || len(got) != tt.want {
			t.Errorf("parseChannels(%q) = %v, %v; want %d channels, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWebSocket_EndToEnd(t *testing.T) {
	srv, h := testServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?channels=dashboard"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// Subscribe to commands too and wait for the ack so the broadcast below is not raced.
	sub := WSMessage{Type: WSTypeSubscribe, ID: "1", Payload: WSSubscribePayload{Channels: []string{control.ChannelCommands}}}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // test deadline

	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("ReadJSON(ack) error = %v", err)
	}
	if ack.Type != WSTypeResponse || ack.ID != "1" {
		t.Fatalf("ack = %+v", ack)
	}

	srv.hub.Broadcast(control.ChannelCommands, control.CommandEvent{Room: "R1", Status: control.StatusOff})

	var evt WSMessage
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("ReadJSON(event) error = %v", err)
	}
	if evt.EventType != control.ChannelCommands {
		t.Errorf("event = %+v", evt)
	}
	payload, _ := evt.Payload.(map[string]any) //nolint:errcheck // checked below
	if payload["room_id"] != "R1" || payload["status"] != "OFF" {
		t.Errorf("payload = %v", evt.Payload)
	}
}

func TestWebSocket_UnknownChannel(t *testing.T) {
	_, h := testServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?channels=secrets"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Error("Dial() with unknown channel should fail")
	}
}
