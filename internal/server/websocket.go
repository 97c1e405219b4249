package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsHub fans session snapshots out to every connected client. Clients send
// nothing meaningful; the socket is a one-way change feed.
type wsHub struct {
	mu     sync.Mutex
	groups map[uint]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[uint]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Add(sessionID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[sessionID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(sessionID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, sessionID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(sessionID uint, payload any) {
	h.mu.Lock()
	group := h.groups[sessionID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(sessionID, conn)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	snap, err := s.snapshot(r.Context(), sessionID)
	if err != nil || snap == nil {
		http.NotFound(w, r)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected session_id=%d remote=%s", sessionID, r.RemoteAddr)
	s.ws.Add(sessionID, conn)
	s.ws.Send(conn, snap)
	s.ensureSessionLoops(sessionID)
	go s.readWS(sessionID, conn)
}

func (s *Server) readWS(sessionID uint, conn *websocket.Conn) {
	defer s.ws.Remove(sessionID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected session_id=%d error=%v", sessionID, err)
			return
		}
	}
}
