package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"behavior-call/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// The database is a write-behind mirror of the in-memory store; the
// engine runs fully stateless when no connection is configured.

func (s *Server) persistPlayer(player *Player) error {
	if s.db == nil {
		return nil
	}
	record := db.Player{Name: player.Name}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		if !isUniqueViolation(err) {
			return err
		}
	}
	if record.ID == 0 {
		var existing db.Player
		if err := s.db.Where("name = ?", player.Name).First(&existing).Error; err != nil {
			return err
		}
		record.ID = existing.ID
	}
	player.DBID = record.ID
	s.store.SetPlayerDBID(player.ID, record.ID)
	return nil
}

func (s *Server) persistRoom(room *Room) error {
	if s.db == nil {
		return nil
	}
	record := db.Room{
		Code:   room.Code,
		HostID: s.playerDBID(room.HostID),
		Status: room.Status,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	s.setRoomDBID(room, record.ID)
	if err := s.persistMemberRecord(room, room.HostID); err != nil {
		return err
	}
	return s.persistEvent(room, "room_created", EventPayload{
		RoomID: room.ID,
		Code:   room.Code,
	})
}

func (s *Server) persistMemberJoined(room *Room, playerID int) error {
	if s.db == nil {
		return nil
	}
	if err := s.persistMemberRecord(room, playerID); err != nil {
		return err
	}
	return s.persistEvent(room, "player_joined", EventPayload{
		PlayerID:   playerID,
		PlayerName: s.store.PlayerName(playerID),
	})
}

func (s *Server) persistMemberRecord(room *Room, playerID int) error {
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	var joinOrder int
	var memberDBID uint
	_, _ = s.store.UpdateRoom(room.ID, func(room *Room) error {
		if member := findMember(room, playerID); member != nil {
			joinOrder = member.JoinOrder
			memberDBID = member.DBID
		}
		return nil
	})
	if memberDBID != 0 {
		return nil
	}
	record := db.RoomMember{
		RoomID:    room.DBID,
		PlayerID:  s.playerDBID(playerID),
		JoinOrder: joinOrder,
		JoinedAt:  timeNowUTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return s.db.Model(&db.RoomMember{}).
				Where("room_id = ? AND player_id = ?", record.RoomID, record.PlayerID).
				Updates(map[string]any{"left_at": nil, "join_order": joinOrder}).Error
		}
		return err
	}
	_, _ = s.store.UpdateRoom(room.ID, func(room *Room) error {
		if member := findMember(room, playerID); member != nil {
			member.DBID = record.ID
		}
		return nil
	})
	return nil
}

func (s *Server) persistMemberLeft(room *Room, playerID int) error {
	if s.db == nil {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID != 0 {
		now := timeNowUTC()
		if err := s.db.Model(&db.RoomMember{}).
			Where("room_id = ? AND player_id = ?", room.DBID, s.playerDBID(playerID)).
			Update("left_at", &now).Error; err != nil {
			return err
		}
	}
	return s.persistEvent(room, "player_left", EventPayload{
		PlayerID:   playerID,
		PlayerName: s.store.PlayerName(playerID),
	})
}

func (s *Server) persistReadyChanged(room *Room, playerID int, isReady bool) error {
	if s.db == nil {
		return nil
	}
	if room.DBID != 0 {
		if err := s.db.Model(&db.RoomMember{}).
			Where("room_id = ? AND player_id = ?", room.DBID, s.playerDBID(playerID)).
			Update("is_ready", isReady).Error; err != nil {
			return err
		}
	}
	return s.persistEvent(room, "ready_changed", EventPayload{
		PlayerID: playerID,
		IsReady:  isReady,
	})
}

func (s *Server) persistRound(room *Room, round *Round) error {
	if s.db == nil {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	assignments, err := json.Marshal(round.Assignments)
	if err != nil {
		return err
	}
	record := db.Round{
		RoomID:             room.DBID,
		Number:             round.Number,
		Phase:              round.Phase,
		Assignments:        datatypes.JSON(assignments),
		PredictionDeadline: round.PredictionDeadline,
		ObservationMs:      round.ObservationDuration.Milliseconds(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	round.DBID = record.ID
	_, _ = s.store.UpdateRoom(room.ID, func(room *Room) error {
		if stored := roundByID(room, round.ID); stored != nil {
			stored.DBID = record.ID
		}
		return nil
	})
	if err := s.db.Model(&db.Room{}).Where("id = ?", room.DBID).Update("status", roomStatusInRound).Error; err != nil {
		return err
	}
	return s.persistEvent(room, "round_started", EventPayload{
		RoundID:     round.ID,
		RoundNumber: round.Number,
	})
}

func (s *Server) persistPhase(room *Room, round *Round, reason string) error {
	if s.db == nil {
		return nil
	}
	if round.DBID != 0 {
		updates := map[string]any{"phase": round.Phase}
		if !round.ObservationStartedAt.IsZero() {
			start := round.ObservationStartedAt
			updates["observation_start"] = &start
		}
		if err := s.db.Model(&db.Round{}).Where("id = ?", round.DBID).Updates(updates).Error; err != nil {
			return err
		}
	}
	if round.Phase == phaseReveal && room.DBID != 0 {
		if err := s.db.Model(&db.Room{}).Where("id = ?", room.DBID).Update("status", roomStatusWaiting).Error; err != nil {
			return err
		}
	}
	return s.persistEvent(room, "phase_advanced", EventPayload{
		RoundID: round.ID,
		Phase:   round.Phase,
		Reason:  reason,
	})
}

func (s *Server) persistPrediction(room *Room, prediction *Prediction) error {
	if s.db == nil {
		return nil
	}
	roundDBID := s.roundDBID(room, prediction.RoundID)
	if roundDBID == 0 {
		return errors.New("round not persisted")
	}
	record := db.Prediction{
		RoundID:     roundDBID,
		PredictorID: s.playerDBID(prediction.PredictorID),
		TargetID:    s.playerDBID(prediction.TargetID),
		Text:        prediction.Text,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	prediction.DBID = record.ID
	_, _ = s.store.UpdateRoom(room.ID, func(room *Room) error {
		if round := roundByID(room, prediction.RoundID); round != nil {
			for i := range round.Predictions {
				if round.Predictions[i].ID == prediction.ID {
					round.Predictions[i].DBID = record.ID
					break
				}
			}
		}
		return nil
	})
	return s.persistEvent(room, "prediction_submitted", EventPayload{
		RoundID:  prediction.RoundID,
		PlayerID: prediction.PredictorID,
	})
}

func (s *Server) persistClaim(room *Room, prediction *Prediction) error {
	if s.db == nil {
		return nil
	}
	if prediction.DBID != 0 {
		updates := map[string]any{
			"happened": true,
			"points":   prediction.Points,
		}
		if err := s.db.Model(&db.Prediction{}).Where("id = ?", prediction.DBID).Updates(updates).Error; err != nil {
			return err
		}
		if roundDBID := s.roundDBID(room, prediction.RoundID); roundDBID != 0 {
			winner := prediction.DBID
			if err := s.db.Model(&db.Round{}).Where("id = ?", roundDBID).Update("winner_prediction_id", &winner).Error; err != nil {
				return err
			}
		}
	}
	return s.persistEvent(room, "round_won", EventPayload{
		RoundID:      prediction.RoundID,
		PlayerID:     prediction.PredictorID,
		PredictionID: prediction.ID,
		Points:       prediction.Points,
	})
}

func (s *Server) persistEvent(room *Room, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		RoomID:  room.DBID,
		Type:    eventType,
		Payload: datatypes.JSON(data),
	}
	if payload.RoundID != "" {
		if id := s.roundDBID(room, payload.RoundID); id != 0 {
			event.RoundID = &id
		}
	}
	if payload.PlayerID > 0 {
		if id := s.playerDBID(payload.PlayerID); id != 0 {
			event.PlayerID = &id
		}
	}
	return s.db.Create(&event).Error
}

func (s *Server) ensureRoomDBID(room *Room) error {
	if s.db == nil || room.DBID != 0 {
		return nil
	}
	var record db.Room
	if err := s.db.Where("code = ?", room.Code).First(&record).Error; err != nil {
		return nil
	}
	s.setRoomDBID(room, record.ID)
	return nil
}

func (s *Server) setRoomDBID(room *Room, dbID uint) {
	_, _ = s.store.UpdateRoom(room.ID, func(room *Room) error {
		room.DBID = dbID
		return nil
	})
}

func (s *Server) playerDBID(playerID int) uint {
	player, ok := s.store.GetPlayer(playerID)
	if !ok {
		return 0
	}
	return player.DBID
}

func (s *Server) roundDBID(room *Room, roundID string) uint {
	var dbID uint
	_, _ = s.store.UpdateRoom(room.ID, func(room *Room) error {
		if round := roundByID(room, roundID); round != nil {
			dbID = round.DBID
		}
		return nil
	})
	return dbID
}

// handleRoomEvents replays the persisted event log for a room.
func (s *Server) handleRoomEvents(w http.ResponseWriter, r *http.Request, idOrCode string) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "events not available")
		return
	}
	room, ok := s.store.GetRoom(idOrCode)
	if !ok {
		writeAPIError(w, errNotFound("room not found"))
		return
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load room")
			return
		}
	}
	var records []db.Event
	if err := s.db.Where("room_id = ?", room.DBID).Order("created_at asc").Find(&records).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	events := make([]map[string]any, 0, len(records))
	for _, record := range records {
		events = append(events, map[string]any{
			"id":         record.ID,
			"type":       record.Type,
			"round_id":   record.RoundID,
			"player_id":  record.PlayerID,
			"created_at": record.CreatedAt,
			"payload":    record.Payload,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": room.ID,
		"events":  events,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
