package live

import (
	"context"
	"log"
	"net/http"
	"time"

	"leaderboard-service/leaderboard/domain"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler faz o upgrade para WebSocket, envia o top atual e depois cada
// atualização publicada no Hub.
type Handler struct {
	Hub      *Hub
	Snapshot func(ctx context.Context) []domain.Entry
	Upgrader websocket.Upgrader
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.Hub.subscribe()
	if !ok {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Hub.unsubscribe(sub)
		return
	}
	defer conn.Close()
	defer h.Hub.unsubscribe(sub)

	if h.Snapshot != nil {
		initial := Message{Type: MessageTypeLeaderboard, Scores: h.Snapshot(r.Context())}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(initial); err != nil {
			return
		}
	}

	// o deadline de leitura herdado do http.Server não vale mais depois do upgrade
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	doneWriter := make(chan struct{})
	go func() {
		defer close(doneWriter)
		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()
		for {
			select {
			case msg, ok := <-sub.send:
				if !ok {
					// hub fechado ou cliente saiu
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
						time.Now().Add(writeWait))
					_ = conn.Close()
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("live: write to %s failed: %v", sub.id, err)
					_ = conn.Close()
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	// o feed é só de saída; lemos apenas para detectar o fechamento e processar pongs
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.Hub.unsubscribe(sub)
	<-doneWriter
}
