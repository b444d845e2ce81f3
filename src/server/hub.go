package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"casino-monitor/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *DashboardServer) handleWebsockets() {
	for {
		select {
		case <-s.quit:
			s.stateMutex.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()
			return

		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			initial := s.filtered(nil)
			s.stateMutex.Unlock()
			// Send full initial state on connect
			for _, snap := range initial {
				client.trySend(snap)
			}

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case <-s.wake:
			s.drainPending()
		}
	}
}

// hubEvent is either a fresh snapshot or the removal of a key.
type hubEvent struct {
	snap    models.MSubscriptionSnapshot
	removed bool
}

// enqueue replaces any event still pending for key, so the hub always
// applies the most recent one and a removal is never overtaken.
func (s *DashboardServer) enqueue(key string, ev hubEvent) {
	s.pendingMu.Lock()
	if _, ok := s.pending[key]; !ok {
		s.order = append(s.order, key)
	}
	s.pending[key] = ev
	s.pendingMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// drainPending applies queued events in first-queued key order.
func (s *DashboardServer) drainPending() {
	s.pendingMu.Lock()
	order, pending := s.order, s.pending
	s.order, s.pending = nil, make(map[string]hubEvent)
	s.pendingMu.Unlock()

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	for _, key := range order {
		ev := pending[key]
		if ev.removed {
			delete(s.latest, key)
			s.fanOut(models.MSubscriptionSnapshot{Type: "REMOVED", Key: key, Timestamp: time.Now().UnixMilli()})
			continue
		}
		s.latest[key] = ev.snap
		s.fanOut(ev.snap)
	}
}

// fanOut must be called with stateMutex held.
func (s *DashboardServer) fanOut(snap models.MSubscriptionSnapshot) {
	for client := range s.clients {
		if !client.wants(snap.Key) {
			continue
		}
		if !client.trySend(snap) {
			// Client too slow, disconnect to prevent Hub blocking
			delete(s.clients, client)
			close(client.send)
		}
	}
}

// filtered must be called with stateMutex held.
func (s *DashboardServer) filtered(keys []string) []models.MSubscriptionSnapshot {
	out := make([]models.MSubscriptionSnapshot, 0, len(s.latest))
	for key, snap := range s.latest {
		if len(keys) > 0 && !contains(keys, key) {
			continue
		}
		snap.Type = "INITIAL"
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues snap for the hub. It never blocks the caller.
func (s *DashboardServer) Broadcast(snap models.MSubscriptionSnapshot) {
	s.enqueue(snap.Key, hubEvent{snap: snap})
}

// -----------------------------------------------------------------------------

// Forget drops the cached snapshot of a closed subscription.
func (s *DashboardServer) Forget(key string) {
	s.enqueue(key, hubEvent{removed: true})
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan models.MSubscriptionSnapshot, 256),
	}

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}
	s.Logger.Debug("Client %s connected", client.id)

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command and replies with the
// current state of the selected keys.
func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}
	client.setKeys(cmd.Keys)

	// Holding the read lock keeps the hub from closing client.send meanwhile.
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	for _, snap := range s.filtered(cmd.Keys) {
		if !client.trySend(snap) {
			return
		}
	}
}
