package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"officesim/shared"

	"github.com/gorilla/websocket"
)

const (
	viewerSendBuffer = 16
	viewerPingPeriod = 30 * time.Second
	viewerWriteWait  = 10 * time.Second
)

// viewer is one connected websocket client
type viewer struct {
	id   int
	conn *websocket.Conn
	send chan []byte
}

// ViewerHub pushes office state and transitions to websocket viewers
type ViewerHub struct {
	core     *SimulationCore
	upgrader websocket.Upgrader

	mu      sync.Mutex
	viewers map[int]*viewer
	nextID  int
	closed  bool
}

// NewViewerHub creates a hub serving the state of core
func NewViewerHub(core *SimulationCore) *ViewerHub {
	return &ViewerHub{
		core: core,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow connections from any origin
			},
		},
		viewers: make(map[int]*viewer),
	}
}

// ServeWS upgrades the request and registers the connection as a viewer
func (h *ViewerHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	state := h.core.GetOfficeState()
	initial, err := json.Marshal(shared.ViewerMessage{Type: shared.ViewerMessageState, State: &state})
	if err != nil {
		log.Printf("Failed to encode initial state: %v", err)
		conn.Close()
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.nextID++
	v := &viewer{id: h.nextID, conn: conn, send: make(chan []byte, viewerSendBuffer)}
	v.send <- initial
	h.viewers[v.id] = v
	h.mu.Unlock()

	log.Printf("Viewer %d connected", v.id)

	go h.writePump(v)
	go h.readPump(v)
}

// writePump delivers queued messages and keeps the connection alive with pings
func (h *ViewerHub) writePump(v *viewer) {
	ticker := time.NewTicker(viewerPingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(viewerWriteWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("Viewer %d write failed: %v", v.id, err)
				h.remove(v)
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(viewerWriteWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Viewer %d ping failed: %v", v.id, err)
				h.remove(v)
				return
			}
		}
	}
}

// readPump drains client frames so close and pong messages are processed
func (h *ViewerHub) readPump(v *viewer) {
	defer h.remove(v)

	v.conn.SetPongHandler(func(string) error {
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// remove unregisters v and closes its send queue once
func (h *ViewerHub) remove(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.viewers[v.id]; !ok {
		return
	}
	delete(h.viewers, v.id)
	close(v.send)
	log.Printf("Viewer %d disconnected", v.id)
}

// publish queues msg for every viewer, dropping viewers that fall behind
func (h *ViewerHub) publish(msg shared.ViewerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to encode %s message: %v", msg.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, v := range h.viewers {
		select {
		case v.send <- data:
		default:
			log.Printf("Viewer %d is too slow, dropping", id)
			delete(h.viewers, id)
			close(v.send)
		}
	}
}

// Broadcast sends the office state to all viewers
func (h *ViewerHub) Broadcast(state shared.OfficeState) {
	h.publish(shared.ViewerMessage{Type: shared.ViewerMessageState, State: &state})
}

// BroadcastTransition sends one transition to all viewers
func (h *ViewerHub) BroadcastTransition(ev shared.TransitionEvent) {
	h.publish(shared.ViewerMessage{Type: shared.ViewerMessageTransition, Transition: &ev})
}

// Count returns the number of connected viewers
func (h *ViewerHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Close disconnects every viewer and refuses new ones
func (h *ViewerHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, v := range h.viewers {
		delete(h.viewers, id)
		close(v.send)
	}
}
