package server

// Snapshots are the authoritative state clients reconcile against when
// a channel message is missed; every field a client needs to recompute
// its view is here, including the server-stamped times.

func (s *Server) roomSnapshot(room *Room) map[string]any {
	room.mu.Lock()
	defer room.mu.Unlock()
	return s.roomSnapshotLocked(room)
}

func (s *Server) roomSnapshotLocked(room *Room) map[string]any {
	members := make([]map[string]any, 0, len(room.Members))
	for _, member := range room.Members {
		members = append(members, map[string]any{
			"player_id": member.PlayerID,
			"name":      s.store.PlayerName(member.PlayerID),
			"is_ready":  member.IsReady,
		})
	}
	snapshot := map[string]any{
		"id":      room.ID,
		"code":    room.Code,
		"host_id": room.HostID,
		"status":  room.Status,
		"members": members,
	}
	if round := currentRound(room); round != nil {
		snapshot["current_round"] = s.roundPayload(room, round)
	}
	return snapshot
}

func (s *Server) roundPayload(room *Room, round *Round) map[string]any {
	assignments := make([]map[string]any, 0, len(round.Assignments))
	for _, member := range room.Members {
		targetID, ok := round.Assignments[member.PlayerID]
		if !ok {
			continue
		}
		assignments = append(assignments, map[string]any{
			"predictor_id": member.PlayerID,
			"target": map[string]any{
				"id":   targetID,
				"name": s.store.PlayerName(targetID),
			},
		})
	}
	payload := map[string]any{
		"id":                      round.ID,
		"room_id":                 room.ID,
		"round_number":            round.Number,
		"phase":                   round.Phase,
		"assignments":             assignments,
		"prediction_deadline":     round.PredictionDeadline,
		"observation_duration_ms": round.ObservationDuration.Milliseconds(),
	}
	if !round.ObservationStartedAt.IsZero() {
		payload["observation_start_time"] = round.ObservationStartedAt
	}
	if round.WinnerPredictionID != "" {
		payload["winner_prediction_id"] = round.WinnerPredictionID
	}
	return payload
}

// roundSnapshot serves GET /api/rounds/{id}; assignments covering
// departed members are included so rejoining players can still see
// their target.
func (s *Server) roundSnapshot(roundID string) (map[string]any, error) {
	room, ok := s.store.RoomByRound(roundID)
	if !ok {
		return nil, errNotFound("round not found")
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	round := roundByID(room, roundID)
	if round == nil {
		return nil, errNotFound("round not found")
	}
	assignments := make([]map[string]any, 0, len(round.Assignments))
	for predictorID, targetID := range round.Assignments {
		assignments = append(assignments, map[string]any{
			"predictor_id": predictorID,
			"predictor": map[string]any{
				"id":   predictorID,
				"name": s.store.PlayerName(predictorID),
			},
			"target": map[string]any{
				"id":   targetID,
				"name": s.store.PlayerName(targetID),
			},
		})
	}
	payload := map[string]any{
		"id":                      round.ID,
		"room_id":                 room.ID,
		"round_number":            round.Number,
		"phase":                   round.Phase,
		"assignments":             assignments,
		"prediction_deadline":     round.PredictionDeadline,
		"observation_duration_ms": round.ObservationDuration.Milliseconds(),
	}
	if !round.ObservationStartedAt.IsZero() {
		payload["observation_start_time"] = round.ObservationStartedAt
	}
	if round.WinnerPredictionID != "" {
		payload["winner_prediction_id"] = round.WinnerPredictionID
	}
	return payload, nil
}

func predictionPayload(prediction Prediction) map[string]any {
	return map[string]any{
		"id":           prediction.ID,
		"round_id":     prediction.RoundID,
		"predictor_id": prediction.PredictorID,
		"target_id":    prediction.TargetID,
		"text":         prediction.Text,
		"happened":     prediction.Happened,
		"points":       prediction.Points,
		"created_at":   prediction.CreatedAt,
	}
}

func playerPayload(player Player) map[string]any {
	return map[string]any{
		"id":   player.ID,
		"name": player.Name,
	}
}
