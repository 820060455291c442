package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/metrics"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
)

const (
	sendBufferSize      = 64
	broadcastBufferSize = 1024
)

// Client is one websocket subscriber of a single post's reply events.
type Client struct {
	hub    *Hub
	conn   *Conn
	PostID uint
	UserID uint // 0 for guests
	send   chan []byte
}

// NewClient creates a subscriber. conn may be nil in tests that read Send directly.
func NewClient(hub *Hub, conn *Conn, postID, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		PostID: postID,
		UserID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Send exposes the outbound queue. It is closed when the hub drops the client.
func (c *Client) Send() <-chan []byte {
	return c.send
}

type broadcastMessage struct {
	postID  uint
	payload []byte
}

// Hub fans reply events out to the subscribers of each post. Run owns the
// subscription map; other goroutines talk to it through channels.
type Hub struct {
	rooms map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage
	// done is closed when Run returns; nothing reads the queues after that.
	done chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan broadcastMessage, broadcastBufferSize),
		done:       make(chan struct{}),
	}
}

// Run processes subscriptions and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.PostID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.PostID] = room
			}
			room[client] = true
			subscribers := len(room)
			h.mu.Unlock()
			metrics.WebsocketSubscribers.Inc()
			logger.Debug("Reply subscriber registered", map[string]interface{}{
				"post_id":     client.PostID,
				"user_id":     client.UserID,
				"subscribers": subscribers,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.postID] {
				select {
				case client.send <- msg.payload:
				default:
					logger.Warn("Subscriber send buffer full, disconnecting", map[string]interface{}{
						"post_id": client.PostID,
						"user_id": client.UserID,
					})
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// removeLocked drops a client and closes its queue. Safe to call twice.
func (h *Hub) removeLocked(client *Client) {
	room, ok := h.rooms[client.PostID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.PostID)
	}
	close(client.send)
	metrics.WebsocketSubscribers.Dec()
	logger.Debug("Reply subscriber unregistered", map[string]interface{}{
		"post_id": client.PostID,
		"user_id": client.UserID,
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for client := range room {
			h.removeLocked(client)
		}
	}
}

// Register and Unregister return immediately once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishReplyEvent queues an event for the subscribers of event.PostID.
// Events are dropped when the broadcast queue is full.
func (h *Hub) PublishReplyEvent(event model.ReplyEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal reply event", err, map[string]interface{}{
			"post_id": event.PostID,
			"type":    event.Type,
		})
		return
	}

	select {
	case h.broadcast <- broadcastMessage{postID: event.PostID, payload: data}:
	default:
		logger.Warn("Broadcast queue full, reply event dropped", map[string]interface{}{
			"post_id": event.PostID,
			"type":    event.Type,
		})
	}
}

// SubscriberCount returns the number of live subscribers of a post.
func (h *Hub) SubscriberCount(postID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[postID])
}
