package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/pkg/logger"
)

const (
	// Rate limiting: messages accepted per client per second
	maxMessagesPerSecond = 10
)

// Client message types.
const (
	MsgIncrease    = "increase"
	MsgDecrease    = "decrease"
	MsgSetQuantity = "set_quantity"
	MsgSetVariant  = "set_variant"
	MsgRemove      = "remove"
	MsgApplyCoupon = "apply_coupon"
	MsgCheckout    = "checkout"
)

// CartActions is the part of the cart store driven by renderers.
type CartActions interface {
	Increase(id string) bool
	Decrease(id string) bool
	SetQuantity(id string, n int) bool
	SetVariant(id, color, size string) bool
	Remove(id string, confirm service.Confirmer) bool
	ApplyCouponAsync(code string) error
	Checkout(nav service.Navigator) error
	Snapshot() model.CartSummary
	Subscribe(l service.Listener) func()
}

// ClientMessage is a UI event sent by a renderer. Remove is only sent after
// the renderer has asked the user.
type ClientMessage struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	Color    string `json:"color,omitempty"`
	Size     string `json:"size,omitempty"`
	Code     string `json:"code,omitempty"`
}

// ServerMessage is pushed to every renderer for each cart event.
type ServerMessage struct {
	Type         service.EventType   `json:"type"`
	Cart         *model.CartSummary  `json:"cart,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
	Redirect     string              `json:"redirect,omitempty"`
}

// Client is one connected renderer.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	ID            string
	Send          chan []byte
	MessageCount  int       // messages received in the current second
	LastResetTime time.Time // start of the current second
	RateMu        sync.Mutex
}

// Hub fans cart events out to connected renderers and feeds their messages
// back into the cart.
type Hub struct {
	cart    CartActions
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	unsubscribe func()
	stopOnce    sync.Once
	mu          sync.RWMutex
}

// NewHub creates a hub subscribed to cart's events.
func NewHub(cart CartActions) *Hub {
	h := &Hub{
		cart:       cart,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan []byte, 1024),
		done:       make(chan struct{}),
	}
	h.unsubscribe = cart.Subscribe(h.onEvent)
	return h
}

// Run serves registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()

			// New renderers start from the current cart.
			summary := h.cart.Snapshot()
			h.sendTo(client, ServerMessage{Type: service.EventCartChanged, Cart: &summary})

			logger.Info("WebSocket client registered", map[string]interface{}{
				"client_id":     client.ID,
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"client_id":     client.ID,
				"total_clients": total,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Send buffer is full; drop the client asynchronously
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"client_id": client.ID,
					})
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop unsubscribes from the cart and ends Run, closing every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.unsubscribe()
		close(h.done)
	})
}

func (h *Hub) onEvent(e service.Event) {
	h.Broadcast(ServerMessage{
		Type:         e.Type,
		Cart:         e.Cart,
		Notification: e.Notification,
		Redirect:     e.Redirect,
	})
}

// Broadcast queues message for every connected client.
func (h *Hub) Broadcast(message ServerMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"type": message.Type,
		})
	}
}

func (h *Hub) sendTo(client *Client, message ServerMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return
	}
	select {
	case client.Send <- data:
	default:
		logger.Warn("Client send buffer full, message dropped", map[string]interface{}{
			"client_id": client.ID,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of connected renderers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage applies a renderer's message to the cart. The resulting
// cart events reach the renderers through the broadcast.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"client_id": client.ID,
			"count":     count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"client_id": client.ID,
			"error":     err.Error(),
		})
		return
	}

	switch msg.Type {
	case MsgIncrease:
		h.cart.Increase(msg.ID)
	case MsgDecrease:
		h.cart.Decrease(msg.ID)
	case MsgSetQuantity:
		h.cart.SetQuantity(msg.ID, msg.Quantity)
	case MsgSetVariant:
		h.cart.SetVariant(msg.ID, msg.Color, msg.Size)
	case MsgRemove:
		h.cart.Remove(msg.ID, nil)
	case MsgApplyCoupon:
		if err := h.cart.ApplyCouponAsync(msg.Code); err != nil {
			logger.Error("Failed to apply coupon from client", err, map[string]interface{}{
				"client_id": client.ID,
			})
		}
	case MsgCheckout:
		// Navigation reaches the renderer as the checkout event's redirect.
		_ = h.cart.Checkout(nil)
	default:
		logger.Warn("Unknown client message type", map[string]interface{}{
			"client_id": client.ID,
			"type":      msg.Type,
		})
	}
}
