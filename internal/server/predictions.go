package server

import "log"

func (s *Server) submitPrediction(roundID string, predictorID, targetID int, text string) (*Room, Prediction, error) {
	room, ok := s.store.RoomByRound(roundID)
	if !ok {
		return nil, Prediction{}, errNotFound("round not found")
	}
	predictionID := s.store.NewPredictionID()
	var stored Prediction
	room, err := s.store.UpdateRoom(room.ID, func(room *Room) error {
		round := roundByID(room, roundID)
		if round == nil {
			return errNotFound("round not found")
		}
		if round.Phase != phasePrediction {
			return errInvalidState("predictions are closed for this round")
		}
		assigned, ok := round.Assignments[predictorID]
		if !ok {
			return errInvalid("player has no assignment in this round")
		}
		if assigned != targetID {
			return errInvalid("target does not match assignment")
		}
		for _, existing := range round.Predictions {
			if existing.PredictorID == predictorID {
				return errConflict(conflictAlreadySubmitted, "prediction already submitted")
			}
		}
		stored = Prediction{
			ID:          predictionID,
			RoundID:     roundID,
			PredictorID: predictorID,
			TargetID:    targetID,
			Text:        text,
			CreatedAt:   timeNowUTC(),
		}
		round.Predictions = append(round.Predictions, stored)
		return nil
	})
	if err != nil {
		return nil, Prediction{}, err
	}
	s.store.IndexPrediction(predictionID, room)
	if err := s.persistPrediction(room, &stored); err != nil {
		return nil, Prediction{}, err
	}
	log.Printf("prediction submitted room_id=%s round_id=%s player_id=%d", room.ID, roundID, predictorID)
	// The notice deliberately carries no prediction content.
	s.ws.Broadcast(room.Code, wsEvent{Type: evtPredictionSubmitted, Payload: map[string]any{
		"round_id":  roundID,
		"player_id": predictorID,
	}})
	s.tryAdvanceToObservation(room, roundID)
	return room, stored, nil
}

// claimHappened resolves the round's first-claim race. The round's
// winner field is the single synchronization point: the check for "no
// winner yet" and the marking of the winning prediction happen in one
// critical section under the room lock, so concurrent claims against
// any predictions of the same round see exactly one winner.
func (s *Server) claimHappened(predictionID string, callerID int) (*Room, Prediction, error) {
	room, ok := s.store.RoomByPrediction(predictionID)
	if !ok {
		return nil, Prediction{}, errNotFound("prediction not found")
	}
	var won Prediction
	var roundID string
	room, err := s.store.UpdateRoom(room.ID, func(room *Room) error {
		round, prediction := findPrediction(room, predictionID)
		if prediction == nil {
			return errNotFound("prediction not found")
		}
		if prediction.PredictorID != callerID {
			return errForbidden("prediction belongs to another player")
		}
		if findMember(room, callerID) == nil {
			return errInvalidState("player is not in the room")
		}
		if !observationOpen(round, timeNowUTC()) {
			return errInvalidState("observation window is not open")
		}
		if round.WinnerPredictionID != "" {
			return errConflict(conflictRoundWon, "round already won")
		}
		prediction.Happened = true
		prediction.Points = s.cfg.WinPoints
		round.WinnerPredictionID = prediction.ID
		won = *prediction
		roundID = round.ID
		return nil
	})
	if err != nil {
		if isKind(err, kindForbidden) {
			log.Printf("claim rejected prediction_id=%s caller_id=%d reason=not_owner", predictionID, callerID)
		}
		return nil, Prediction{}, err
	}
	if err := s.persistClaim(room, &won); err != nil {
		return nil, Prediction{}, err
	}
	winnerName := s.store.PlayerName(callerID)
	log.Printf("round won room_id=%s round_id=%s winner_id=%d points=%d", room.ID, roundID, callerID, won.Points)
	s.ws.Broadcast(room.Code, wsEvent{Type: evtRoundWon, Payload: map[string]any{
		"winner_id":   callerID,
		"winner_name": winnerName,
	}})
	s.broadcastRoomUpdate(room)
	return room, won, nil
}

func findPrediction(room *Room, predictionID string) (*Round, *Prediction) {
	for i := range room.Rounds {
		round := &room.Rounds[i]
		for j := range round.Predictions {
			if round.Predictions[j].ID == predictionID {
				return round, &round.Predictions[j]
			}
		}
	}
	return nil, nil
}

func (s *Server) roundPredictions(roundID string) ([]Prediction, error) {
	_, round, err := s.viewRound(roundID)
	if err != nil {
		return nil, err
	}
	return round.Predictions, nil
}

func (s *Server) playerPrediction(roundID string, playerID int) (Prediction, error) {
	predictions, err := s.roundPredictions(roundID)
	if err != nil {
		return Prediction{}, err
	}
	for _, prediction := range predictions {
		if prediction.PredictorID == playerID {
			return prediction, nil
		}
	}
	return Prediction{}, errNotFound("prediction not found")
}
