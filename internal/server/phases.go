package server

import "time"

type phaseTransition struct {
	advance func(room *Room, round *Round, at time.Time) string
}

// The round only ever moves forward: prediction -> observation ->
// reveal. A room that wants another round starts a fresh one from
// waiting status.
var phaseTransitions = map[string]phaseTransition{
	phasePrediction: {
		advance: func(room *Room, round *Round, at time.Time) string {
			round.Phase = phaseObservation
			round.ObservationStartedAt = at
			return phaseObservation
		},
	},
	phaseObservation: {
		advance: func(room *Room, round *Round, at time.Time) string {
			round.Phase = phaseReveal
			room.Status = roomStatusWaiting
			for i := range room.Members {
				room.Members[i].IsReady = false
			}
			return phaseReveal
		},
	},
}

func advanceRoundPhase(room *Room, round *Round, at time.Time) (string, error) {
	transition, ok := phaseTransitions[round.Phase]
	if !ok {
		return "", errInvalidState("no next phase")
	}
	return transition.advance(room, round, at), nil
}

func allPredictionsIn(round *Round) bool {
	return len(round.Assignments) > 0 && len(round.Predictions) >= len(round.Assignments)
}

func observationOpen(round *Round, at time.Time) bool {
	if round.Phase != phaseObservation || round.ObservationStartedAt.IsZero() {
		return false
	}
	return at.Before(round.ObservationStartedAt.Add(round.ObservationDuration))
}

// tryAdvanceToObservation closes the prediction phase once every
// member with an assignment has submitted.
func (s *Server) tryAdvanceToObservation(room *Room, roundID string) {
	advanced := false
	room, err := s.store.UpdateRoom(room.ID, func(room *Room) error {
		round := roundByID(room, roundID)
		if round == nil || round.Phase != phasePrediction {
			return nil
		}
		if !allPredictionsIn(round) {
			return nil
		}
		if _, err := advanceRoundPhase(room, round, timeNowUTC()); err != nil {
			return err
		}
		advanced = true
		return nil
	})
	if err != nil || !advanced {
		return
	}
	s.finishPhaseChange(room, roundID, "all-submitted")
}
