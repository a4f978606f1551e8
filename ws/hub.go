package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event types pushed to the mini-app page.
const (
	EventCartChanged  = "cart.changed"
	EventOrderPending = "order.pending"
	EventOrderSettled = "order.settled"
)

// Event is one websocket message.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: data}, nil
}

type clientEvent struct {
	ClientID string
	Event    Event
}

// Hub keeps the open connections of every mini-app client and fans events
// out to all connections of one client.
type Hub struct {
	// Connections by client id; one client can have several open pages.
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *clientEvent

	log *zap.Logger
	mu  sync.RWMutex
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *clientEvent, 256),
		log:        log,
	}
}

// Run is the hub loop; call it as go hub.Run().
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.clientID] == nil {
				h.rooms[client.clientID] = make(map[*Client]bool)
			}
			h.rooms[client.clientID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			message, err := json.Marshal(ev.Event)
			if err != nil {
				h.log.Error("marshal ws event", zap.String("type", ev.Event.Type), zap.Error(err))
				continue
			}
			h.mu.Lock()
			for client := range h.rooms[ev.ClientID] {
				select {
				case client.send <- message:
				default:
					// Slow reader: drop the connection, the page reloads state on reconnect.
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client from its room; h.mu must be held.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.clientID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.clientID)
	}
}

// BroadcastToClient queues event for every connection of clientID.
func (h *Hub) BroadcastToClient(clientID string, event Event) {
	h.broadcast <- &clientEvent{ClientID: clientID, Event: event}
}

// Publish marshals payload and broadcasts it; marshal errors are logged.
func (h *Hub) Publish(clientID, eventType string, payload any) {
	ev, err := NewEvent(eventType, payload)
	if err != nil {
		h.log.Error("build ws event", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.BroadcastToClient(clientID, ev)
}

// Connections reports how many pages clientID has open.
func (h *Hub) Connections(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[clientID])
}
