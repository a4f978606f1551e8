package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// mockClient builds a client without a real connection.
func mockClient(hub *Hub, clientID string) *Client {
	return &Client{
		hub:      hub,
		clientID: clientID,
		send:     make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := mockClient(hub, "100")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if n := hub.Connections("100"); n != 1 {
		t.Fatalf("Connections = %d, want 1", n)
	}
}

func TestHubUnregistrationCleansRoom(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := mockClient(hub, "100")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms["100"] != nil {
		t.Fatal("room not cleaned up after last connection left")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("send channel not closed")
	}
}

func TestBroadcastToClientIsScoped(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	a1 := mockClient(hub, "a")
	a2 := mockClient(hub, "a")
	b := mockClient(hub, "b")
	hub.register <- a1
	hub.register <- a2
	hub.register <- b
	time.Sleep(10 * time.Millisecond)

	payload := json.RawMessage(`{"totalItems":2}`)
	hub.BroadcastToClient("a", Event{Type: EventCartChanged, Payload: payload})

	for i, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.send:
			var got Event
			if err := json.Unmarshal(msg, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != EventCartChanged || string(got.Payload) != string(payload) {
				t.Errorf("connection %d got %+v", i, got)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("connection %d did not receive the event", i)
		}
	}

	select {
	case <-b.send:
		t.Fatal("client b received an event for client a")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsFullClient(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	slow := &Client{hub: hub, clientID: "slow", send: make(chan []byte)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.Publish("slow", EventOrderPending, map[string]string{"orderId": "ID1"})
	time.Sleep(20 * time.Millisecond)

	if n := hub.Connections("slow"); n != 0 {
		t.Errorf("Connections = %d, want 0 after a blocked send", n)
	}
}

func TestPublishBuildsEvent(t *testing.T) {
	ev, err := NewEvent(EventOrderSettled, map[string]any{"success": true})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventOrderSettled || string(ev.Payload) != `{"success":true}` {
		t.Errorf("event = %+v", ev)
	}
	if _, err := NewEvent(EventOrderSettled, make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestServeWS(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	r := chi.NewRouter()
	r.Get("/ws/clients/{cid}", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, func(id string) bool { return id != "bad" }, w, r)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	if _, resp, err := websocket.DefaultDialer.Dial(base+"/ws/clients/bad", nil); err == nil {
		t.Fatal("expected dial error for an invalid client id")
	} else if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("resp = %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/clients/42", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	time.Sleep(20 * time.Millisecond)

	hub.Publish("42", EventCartChanged, map[string]int{"totalItems": 1})
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Event
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal %s: %v", msg, err)
	}
	if got.Type != EventCartChanged || string(got.Payload) != `{"totalItems":1}` {
		t.Errorf("event = %+v", got)
	}
}

func TestDeliverWritesOneFramePerEvent(t *testing.T) {
	hub := NewHub(nil)
	first, _ := json.Marshal(Event{Type: EventOrderPending, Payload: json.RawMessage(`{}`)})
	second, _ := json.Marshal(Event{Type: EventOrderSettled, Payload: json.RawMessage(`{"success":true}`)})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		// Both events are queued before the writer starts.
		c := &Client{hub: hub, conn: conn, clientID: "42", send: make(chan []byte, 2)}
		c.send <- first
		c.send <- second
		close(c.send)
		c.deliver()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(time.Second))

	for _, want := range []string{EventOrderPending, EventOrderSettled} {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %s: %v", want, err)
		}
		var got Event
		if kind != websocket.TextMessage || json.Unmarshal(msg, &got) != nil {
			t.Fatalf("frame %q is not a single JSON event", msg)
		}
		if got.Type != want {
			t.Errorf("event type = %q, want %q", got.Type, want)
		}
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("after the last event err = %v, want a normal close", err)
	}
}
