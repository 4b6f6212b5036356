package server

import (
	"log"
	"time"
)

// Timers are keyed by round id. A timer fires into autoAdvancePhase,
// which re-checks the expected phase under the room lock; a round that
// already moved on (all predictions in before the deadline) makes the
// stale timer a no-op.
func (s *Server) scheduleRoundTimer(room *Room, round *Round) {
	duration := phaseTimeRemaining(round, timeNowUTC())
	if duration <= 0 {
		s.cancelRoundTimer(round.ID)
		return
	}
	roomID := room.ID
	roundID := round.ID
	expected := round.Phase
	s.timersMu.Lock()
	if existing, ok := s.timers[roundID]; ok {
		existing.Stop()
	}
	s.timers[roundID] = time.AfterFunc(duration, func() {
		s.autoAdvancePhase(roomID, roundID, expected)
	})
	s.timersMu.Unlock()
}

func (s *Server) cancelRoundTimer(roundID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[roundID]; ok {
		timer.Stop()
		delete(s.timers, roundID)
	}
}

func (s *Server) cancelRoomTimers(room *Room) {
	room.mu.Lock()
	roundIDs := make([]string, 0, len(room.Rounds))
	for i := range room.Rounds {
		roundIDs = append(roundIDs, room.Rounds[i].ID)
	}
	room.mu.Unlock()
	for _, id := range roundIDs {
		s.cancelRoundTimer(id)
	}
}

// phaseTimeRemaining computes the wall-clock time left in the current
// phase from the server-stamped start times, never from a client-held
// countdown.
func phaseTimeRemaining(round *Round, at time.Time) time.Duration {
	switch round.Phase {
	case phasePrediction:
		return round.PredictionDeadline.Sub(at)
	case phaseObservation:
		return round.ObservationStartedAt.Add(round.ObservationDuration).Sub(at)
	default:
		return 0
	}
}

func (s *Server) autoAdvancePhase(roomID, roundID, expectedPhase string) {
	now := timeNowUTC()
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		round := roundByID(room, roundID)
		if round == nil {
			return errNotFound("round not found")
		}
		if round.Phase != expectedPhase {
			return errInvalidState("phase changed")
		}
		_, err := advanceRoundPhase(room, round, now)
		return err
	})
	if err != nil {
		return
	}
	log.Printf("round auto-advanced room_id=%s round_id=%s from=%s", roomID, roundID, expectedPhase)
	s.finishPhaseChange(room, roundID, "timeout")
}

// finishPhaseChange runs the shared tail of every phase transition:
// persist, notify the room, and arm or drop the next timer.
func (s *Server) finishPhaseChange(room *Room, roundID string, reason string) {
	room.mu.Lock()
	round := roundByID(room, roundID)
	if round == nil {
		room.mu.Unlock()
		return
	}
	snapshot := *round
	room.mu.Unlock()

	if err := s.persistPhase(room, &snapshot, reason); err != nil {
		log.Printf("persist phase failed room_id=%s round_id=%s error=%v", room.ID, roundID, err)
	}
	log.Printf("phase updated room_id=%s round_id=%s phase=%s reason=%s", room.ID, roundID, snapshot.Phase, reason)
	s.ws.Broadcast(room.Code, wsEvent{Type: evtPhaseUpdated, Payload: map[string]any{
		"phase":    snapshot.Phase,
		"round_id": snapshot.ID,
	}})
	s.broadcastRoomUpdate(room)
	if snapshot.Phase == phaseReveal {
		s.cancelRoundTimer(roundID)
		return
	}
	s.scheduleRoundTimer(room, &snapshot)
}
