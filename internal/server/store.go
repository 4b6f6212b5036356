package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store holds all live state. The store mutex guards the lookup maps
// and id counters only; each Room serializes its own mutations through
// its own lock, so traffic in one room never blocks another. Lock
// order: room lock before store lock; no path takes a room lock while
// holding the store lock.
type Store struct {
	mu               sync.RWMutex
	nextPlayerID     int
	nextRoomID       int
	nextRoundID      int
	nextPredictionID int
	players          map[int]*Player
	playersByName    map[string]*Player
	rooms            map[string]*Room
	roomsByCode      map[string]*Room
	roomsByRound     map[string]*Room
	roomsByPred      map[string]*Room
}

func NewStore() *Store {
	return &Store{
		nextPlayerID:     1,
		nextRoomID:       1,
		nextRoundID:      1,
		nextPredictionID: 1,
		players:          make(map[int]*Player),
		playersByName:    make(map[string]*Player),
		rooms:            make(map[string]*Room),
		roomsByCode:      make(map[string]*Room),
		roomsByRound:     make(map[string]*Room),
		roomsByPred:      make(map[string]*Room),
	}
}

// CreatePlayer returns the existing player when the name is already
// registered; names identify players across sessions.
func (s *Store) CreatePlayer(name string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(name)
	if existing, ok := s.playersByName[key]; ok {
		return *existing, false
	}
	player := &Player{
		ID:   s.nextPlayerID,
		Name: name,
	}
	s.nextPlayerID++
	s.players[player.ID] = player
	s.playersByName[key] = player
	return *player, true
}

func (s *Store) GetPlayer(id int) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return Player{}, false
	}
	return *player, true
}

func (s *Store) SetPlayerDBID(id int, dbID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if player, ok := s.players[id]; ok {
		player.DBID = dbID
	}
}

func (s *Store) ListPlayers() []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]Player, 0, len(s.players))
	for _, player := range s.players {
		list = append(list, *player)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *Store) PlayerName(id int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if player, ok := s.players[id]; ok {
		return player.Name
	}
	return ""
}

func (s *Store) CreateRoom(hostID int) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[hostID]; !ok {
		return nil, errNotFound("player not found")
	}
	code := newRoomCode()
	for s.roomsByCode[code] != nil {
		code = newRoomCode()
	}
	room := &Room{
		ID:     fmt.Sprintf("room-%d", s.nextRoomID),
		Code:   code,
		HostID: hostID,
		Status: roomStatusWaiting,
		Members: []Member{{
			PlayerID:  hostID,
			JoinOrder: 1,
		}},
		joinOrder: 1,
	}
	s.nextRoomID++
	s.rooms[room.ID] = room
	s.roomsByCode[code] = room
	return room, nil
}

// ListRooms summarizes every live room for lobby browsing.
func (s *Store) ListRooms() []RoomSummary {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		summaries = append(summaries, RoomSummary{
			ID:      room.ID,
			Code:    room.Code,
			Status:  room.Status,
			Members: len(room.Members),
		})
		room.mu.Unlock()
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

func (s *Store) findRoom(idOrCode string) (*Room, bool) {
	if room, ok := s.rooms[idOrCode]; ok {
		return room, true
	}
	room, ok := s.roomsByCode[strings.ToUpper(idOrCode)]
	return room, ok
}

func (s *Store) GetRoom(idOrCode string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findRoom(idOrCode)
}

// UpdateRoom runs fn with the room lock held. All room mutations go
// through here; fn must not call back into the store.
func (s *Store) UpdateRoom(idOrCode string, fn func(room *Room) error) (*Room, error) {
	s.mu.RLock()
	room, ok := s.findRoom(idOrCode)
	s.mu.RUnlock()
	if !ok {
		return nil, errNotFound("room not found")
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.evicted {
		return nil, errNotFound("room not found")
	}
	if err := fn(room); err != nil {
		return nil, err
	}
	return room, nil
}

// EvictRoomIfEmpty drops a room with no members from every index.
// The evicted flag is set in the same critical section as the empty
// check, and UpdateRoom refuses evicted rooms, so a join racing the
// eviction either lands before the check (keeping the room alive) or
// observes NotFound; it can never succeed against a room that is
// about to vanish from the maps.
func (s *Store) EvictRoomIfEmpty(room *Room) bool {
	room.mu.Lock()
	empty := len(room.Members) == 0 && !room.evicted
	if empty {
		room.evicted = true
	}
	room.mu.Unlock()
	if !empty {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, room.ID)
	delete(s.roomsByCode, room.Code)
	for id, owner := range s.roomsByRound {
		if owner == room {
			delete(s.roomsByRound, id)
		}
	}
	for id, owner := range s.roomsByPred {
		if owner == room {
			delete(s.roomsByPred, id)
		}
	}
	return true
}

func (s *Store) NewRoundID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("round-%d", s.nextRoundID)
	s.nextRoundID++
	return id
}

func (s *Store) NewPredictionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("pred-%d", s.nextPredictionID)
	s.nextPredictionID++
	return id
}

func (s *Store) IndexRound(roundID string, room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomsByRound[roundID] = room
}

func (s *Store) IndexPrediction(predictionID string, room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomsByPred[predictionID] = room
}

func (s *Store) RoomByRound(roundID string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.roomsByRound[roundID]
	return room, ok
}

func (s *Store) RoomByPrediction(predictionID string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.roomsByPred[predictionID]
	return room, ok
}

func roundByID(room *Room, roundID string) *Round {
	for i := range room.Rounds {
		if room.Rounds[i].ID == roundID {
			return &room.Rounds[i]
		}
	}
	return nil
}

func currentRound(room *Room) *Round {
	if len(room.Rounds) == 0 {
		return nil
	}
	return &room.Rounds[len(room.Rounds)-1]
}

func findMember(room *Room, playerID int) *Member {
	for i := range room.Members {
		if room.Members[i].PlayerID == playerID {
			return &room.Members[i]
		}
	}
	return nil
}
