// Package live distribui o top do leaderboard para clientes WebSocket.
package live

import (
	"sync"

	"leaderboard-service/leaderboard/domain"

	"github.com/google/uuid"
)

const MessageTypeLeaderboard = "leaderboard"

type Message struct {
	Type   string         `json:"type"`
	Scores []domain.Entry `json:"scores"`
}

type subscriber struct {
	id   string
	send chan Message
}

// Hub implementa application.Notifier. Publish nunca bloqueia: um assinante com
// o buffer cheio perde a mensagem (a próxima traz o top completo de novo).
type Hub struct {
	mu         sync.Mutex
	subs       map[string]*subscriber
	bufferSize int
	closed     bool
}

type HubOption func(*Hub)

func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:       make(map[string]*subscriber),
		bufferSize: 16,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Publish(top []domain.Entry) {
	msg := Message{Type: MessageTypeLeaderboard, Scores: top}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
		}
	}
}

// Len devolve o número de assinantes conectados.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close encerra todos os assinantes; chamadas posteriores a subscribe falham.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.send)
		delete(h.subs, id)
	}
}

func (h *Hub) subscribe() (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	sub := &subscriber{id: uuid.NewString(), send: make(chan Message, h.bufferSize)}
	h.subs[sub.id] = sub
	return sub, true
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; ok {
		close(sub.send)
		delete(h.subs, sub.id)
	}
}
