package server

import (
	"log"
	"sort"
	"time"
)

// startRound snapshots the current membership, deals the target
// assignments, and opens the prediction phase. Players who join the
// room afterwards are spectators until the next round.
func (s *Server) startRound(roomID string, callerID int) (*Room, *Round, error) {
	roundID := s.store.NewRoundID()
	var created Round
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		if room.Status != roomStatusWaiting {
			return errInvalidState("round already in progress")
		}
		if callerID != 0 && callerID != room.HostID {
			return errForbidden("only the host can start a round")
		}
		if len(room.Members) < 2 {
			return errInvalidState("at least 2 ready players are required")
		}
		memberIDs := make([]int, 0, len(room.Members))
		for _, member := range room.Members {
			if !member.IsReady {
				return errInvalidState("all players must be ready")
			}
			memberIDs = append(memberIDs, member.PlayerID)
		}
		assignments, err := generateAssignments(memberIDs)
		if err != nil {
			return err
		}
		now := timeNowUTC()
		round := Round{
			ID:                  roundID,
			Number:              len(room.Rounds) + 1,
			Phase:               phasePrediction,
			Assignments:         assignments,
			CreatedAt:           now,
			PredictionDeadline:  now.Add(time.Duration(s.cfg.PredictionSeconds) * time.Second),
			ObservationDuration: time.Duration(s.cfg.ObservationSeconds) * time.Second,
		}
		room.Status = roomStatusInRound
		room.Rounds = append(room.Rounds, round)
		created = round
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.store.IndexRound(roundID, room)
	if err := s.persistRound(room, &created); err != nil {
		return nil, nil, err
	}
	log.Printf("round started room_id=%s round_id=%s number=%d", room.ID, roundID, created.Number)
	s.ws.Broadcast(room.Code, wsEvent{Type: evtRoundStarted, Payload: map[string]any{
		"round_id": roundID,
	}})
	s.broadcastRoomUpdate(room)
	s.scheduleRoundTimer(room, &created)
	return room, &created, nil
}

// viewRound copies a round out under the room lock.
func (s *Server) viewRound(roundID string) (*Room, Round, error) {
	room, ok := s.store.RoomByRound(roundID)
	if !ok {
		return nil, Round{}, errNotFound("round not found")
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	round := roundByID(room, roundID)
	if round == nil {
		return nil, Round{}, errNotFound("round not found")
	}
	view := *round
	view.Predictions = append([]Prediction(nil), round.Predictions...)
	return room, view, nil
}

// scoreRound sums awarded points per predictor. Ordering is points
// descending with ties kept in submission order.
func (s *Server) scoreRound(roundID string) ([]ScoreEntry, error) {
	_, round, err := s.viewRound(roundID)
	if err != nil {
		return nil, err
	}
	order := make([]int, 0, len(round.Predictions))
	points := make(map[int]int, len(round.Predictions))
	for _, prediction := range round.Predictions {
		if _, seen := points[prediction.PredictorID]; !seen {
			order = append(order, prediction.PredictorID)
		}
		points[prediction.PredictorID] += prediction.Points
	}
	entries := make([]ScoreEntry, 0, len(order))
	for _, playerID := range order {
		entries = append(entries, ScoreEntry{
			PlayerID: playerID,
			Name:     s.store.PlayerName(playerID),
			Points:   points[playerID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
	return entries, nil
}
