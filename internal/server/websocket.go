package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsClient serializes writes to a single connection. Broadcasts, the
// initial snapshot, and error replies all come from different
// goroutines, and the underlying conn permits only one writer at a
// time.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// wsHub fans room events out to every connection subscribed to a room
// code. Delivery is at-least-once from the client's point of view:
// a missed message is recovered by refetching the room snapshot.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

// lobbyHub tracks connections of players browsing the lobby; the set
// of attached player ids is what GET /api/players/online reports.
type lobbyHub struct {
	mu    sync.Mutex
	conns map[*wsClient]int
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsClient]struct{}),
	}
}

func newLobbyHub() *lobbyHub {
	return &lobbyHub{
		conns: make(map[*wsClient]int),
	}
}

func (h *wsHub) Add(code string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[code]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[code] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(code string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[code]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, code)
	}
}

func (h *wsHub) Send(client *wsClient, event wsEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	_ = client.write(data)
}

func (h *wsHub) Broadcast(code string, event wsEvent) {
	h.mu.Lock()
	group := h.groups[code]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(code, client)
		}
	}
}

func (h *lobbyHub) Add(client *wsClient, playerID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[client] = playerID
}

func (h *lobbyHub) Remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, client)
	_ = client.conn.Close()
}

func (h *lobbyHub) PlayerIDs() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[int]struct{}, len(h.conns))
	ids := make([]int, 0, len(h.conns))
	for _, id := range h.conns {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (h *lobbyHub) Broadcast(event wsEvent) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.conns))
	for client := range h.conns {
		clients = append(clients, client)
	}
	h.mu.Unlock()
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(client)
		}
	}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleRoomWebsocket(w http.ResponseWriter, r *http.Request) {
	code, ok := parseRoomWSPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	room, exists := s.store.GetRoom(code)
	if !exists {
		http.NotFound(w, r)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_code=%s remote=%s", room.Code, r.RemoteAddr)
	client := &wsClient{conn: conn}
	s.ws.Add(room.Code, client)
	s.ws.Send(client, wsEvent{Type: evtRoomUpdated, Payload: s.roomSnapshot(room)})
	go s.readRoomWS(room.Code, client)
}

func (s *Server) handleLobbyWebsocket(w http.ResponseWriter, r *http.Request) {
	playerID := queryInt(r, "player_id")
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected lobby player_id=%d remote=%s", playerID, r.RemoteAddr)
	client := &wsClient{conn: conn}
	s.lobby.Add(client, playerID)
	s.broadcastLobbyPlayers()
	go s.readLobbyWS(client)
}

// readRoomWS is the per-connection read pump. Client messages mirror
// the HTTP mutations as notification triggers only; state changes go
// through the HTTP API.
func (s *Server) readRoomWS(code string, client *wsClient) {
	defer func() {
		s.ws.Remove(code, client)
		log.Printf("ws disconnected room_code=%s", code)
	}()
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			s.ws.Send(client, wsEvent{Type: evtRoomError, Payload: map[string]any{
				"message": "malformed message",
			}})
			continue
		}
		switch msg.Type {
		case msgLeaveRoom:
			s.ws.Remove(code, client)
			return
		case msgJoinRoom, msgUpdateReady, msgStartRound, msgPredictionSubmitted, msgPredictionHappened:
			// Fan-out trigger: nudge everyone in the room to refetch.
			if room, ok := s.store.GetRoom(code); ok {
				s.broadcastRoomUpdate(room)
			}
		default:
			s.ws.Send(client, wsEvent{Type: evtRoomError, Payload: map[string]any{
				"message": "unknown message type",
			}})
		}
	}
}

func (s *Server) readLobbyWS(client *wsClient) {
	defer func() {
		s.lobby.Remove(client)
		s.broadcastLobbyPlayers()
		log.Printf("ws disconnected lobby")
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) broadcastRoomUpdate(room *Room) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(room.Code, wsEvent{Type: evtRoomUpdated, Payload: s.roomSnapshot(room)})
}

func (s *Server) broadcastLobbyPlayers() {
	if s.lobby == nil {
		return
	}
	players := make([]map[string]any, 0)
	for _, id := range s.lobby.PlayerIDs() {
		if player, ok := s.store.GetPlayer(id); ok {
			players = append(players, playerPayload(player))
		}
	}
	s.lobby.Broadcast(wsEvent{Type: evtLobbyPlayers, Payload: players})
}
