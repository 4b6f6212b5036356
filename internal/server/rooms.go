package server

import "log"

func (s *Server) createRoom(hostID int) (*Room, error) {
	room, err := s.store.CreateRoom(hostID)
	if err != nil {
		return nil, err
	}
	if err := s.persistRoom(room); err != nil {
		return nil, err
	}
	log.Printf("room created room_id=%s code=%s host_id=%d", room.ID, room.Code, hostID)
	s.broadcastRoomUpdate(room)
	return room, nil
}

func (s *Server) joinRoom(code string, playerID int) (*Room, error) {
	if _, ok := s.store.GetPlayer(playerID); !ok {
		return nil, errNotFound("player not found")
	}
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		if findMember(room, playerID) != nil {
			return errConflict(conflictAlreadyMember, "player already in room")
		}
		room.joinOrder++
		room.Members = append(room.Members, Member{
			PlayerID:  playerID,
			JoinOrder: room.joinOrder,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistMemberJoined(room, playerID); err != nil {
		return nil, err
	}
	log.Printf("player joined room_id=%s code=%s player_id=%d", room.ID, room.Code, playerID)
	s.broadcastRoomUpdate(room)
	return room, nil
}

func (s *Server) leaveRoom(code string, playerID int) (*Room, error) {
	promotedHost := 0
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		index := -1
		for i := range room.Members {
			if room.Members[i].PlayerID == playerID {
				index = i
				break
			}
		}
		if index == -1 {
			return errNotFound("player not in room")
		}
		room.Members = append(room.Members[:index], room.Members[index+1:]...)
		if room.HostID == playerID && len(room.Members) > 0 {
			// Members stay in join order, so the next host is the
			// longest-standing remaining member.
			room.HostID = room.Members[0].PlayerID
			promotedHost = room.HostID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistMemberLeft(room, playerID); err != nil {
		return nil, err
	}
	log.Printf("player left room_id=%s code=%s player_id=%d", room.ID, room.Code, playerID)
	if promotedHost != 0 {
		log.Printf("host promoted room_id=%s player_id=%d", room.ID, promotedHost)
	}
	if s.store.EvictRoomIfEmpty(room) {
		s.cancelRoomTimers(room)
		log.Printf("room evicted room_id=%s code=%s", room.ID, room.Code)
		return room, nil
	}
	s.broadcastRoomUpdate(room)
	return room, nil
}

func (s *Server) setReady(code string, playerID int, isReady bool) (*Room, error) {
	allReady := false
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		member := findMember(room, playerID)
		if member == nil {
			return errNotFound("player not in room")
		}
		member.IsReady = isReady
		allReady = len(room.Members) >= 2
		for i := range room.Members {
			if !room.Members[i].IsReady {
				allReady = false
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistReadyChanged(room, playerID, isReady); err != nil {
		return nil, err
	}
	log.Printf("ready updated room_id=%s player_id=%d is_ready=%t", room.ID, playerID, isReady)
	s.broadcastRoomUpdate(room)
	if allReady {
		s.ws.Broadcast(room.Code, wsEvent{Type: evtAllPlayersReady})
	}
	return room, nil
}
