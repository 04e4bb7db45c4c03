package server

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/grabtune/grabtune/internal/model"
)

// Hub fans job updates out to connected WebSocket clients. A slow or dead
// client is dropped rather than allowed to stall the queue.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	logger     zerolog.Logger
}

// NewHub creates a hub; call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     log.With().Str("component", "ws").Logger(),
	}
}

// Run owns the client set. All membership changes and writes happen here,
// so no lock is needed around the connections.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = true
			h.logger.Debug().Int("clients", len(h.clients)).Msg("websocket client connected")

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.logger.Debug().Int("clients", len(h.clients)).Msg("websocket client disconnected")

		case msg := <-h.broadcast:
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.logger.Debug().Err(err).Msg("dropping websocket client")
					conn.Close()
					delete(h.clients, conn)
				}
			}

		case <-h.done:
			for conn := range h.clients {
				conn.Close()
			}
			return
		}
	}
}

// Close shuts the hub down and disconnects all clients.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// BroadcastJob pushes one job update to every client. Never blocks the
// caller: if the hub is backed up the update is dropped, clients resync
// from GET /api/queue.
func (h *Hub) BroadcastJob(job model.Job) {
	msg, err := json.Marshal(map[string]any{
		"type": "job_update",
		"job":  job,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal job update")
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug().Str("job_id", job.ID).Msg("broadcast buffer full, update dropped")
	}
}

// BroadcastQueue pushes a whole-queue snapshot, used after bulk operations
// like remove and clear.
func (h *Hub) BroadcastQueue(state model.QueueState) {
	msg, err := json.Marshal(map[string]any{
		"type":  "queue_update",
		"queue": state,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal queue update")
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug().Msg("broadcast buffer full, snapshot dropped")
	}
}
