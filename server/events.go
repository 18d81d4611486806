package server

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"net/http"
	"sync"
	"time"
	"vital_geo/app"
	"vital_geo/model"
	"vital_geo/payment"
)

const (
	EventCartChanged    = "cart.changed"
	EventLikesChanged   = "likes.changed"
	EventSessionChanged = "session.changed"
	EventPaymentStatus  = "payment.status"

	writeWait    = 10 * time.Second
	clientBuffer = 16
)

type Event struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// Hub pushes state changes to every connected websocket client. A client
// that cannot keep up is dropped rather than blocking publishers.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]chan Event),
	}
}

// Attach subscribes the hub to the app services.
func (h *Hub) Attach(a *app.App) {
	a.Cart.Subscribe(func(items []model.CartLineItem) {
		h.Publish(EventCartChanged, items)
	})
	a.Likes.Subscribe(func(products []model.Product) {
		h.Publish(EventLikesChanged, products)
	})
	a.Auth.Subscribe(func(user *model.User) {
		h.Publish(EventSessionChanged, model.AuthStatusResponse{Authenticated: user != nil, User: user})
	})
	a.Transactions.Subscribe(func(n payment.Notification) {
		h.Publish(EventPaymentStatus, n)
	})
}

func (h *Hub) Publish(eventType string, data interface{}) {
	event := Event{ID: uuid.NewString(), Type: eventType, Data: data, At: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- event:
		default:
			logrus.Warnf("Publish: dropping slow events client %s", conn.RemoteAddr())
			h.removeLocked(conn)
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("Events: error in upgrading connection err = %v", err)
		return
	}

	ch := make(chan Event, clientBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)

	// reads only detect the client going away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.mu.Lock()
	h.removeLocked(conn)
	h.mu.Unlock()
}

func (h *Hub) writeLoop(conn *websocket.Conn, ch chan Event) {
	defer conn.Close()
	for event := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			logrus.Errorf("writeLoop: error in writing event err = %v", err)
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		h.removeLocked(conn)
	}
}
