package server

import (
	"log"
	"net/http"
)

type playerRequest struct {
	Name string `json:"name" validate:"required,playername"`
}

type createRoomRequest struct {
	HostID int `json:"host_id" validate:"required,gt=0"`
}

type roomMemberRequest struct {
	PlayerID int `json:"player_id" validate:"required,gt=0"`
}

type readyRequest struct {
	PlayerID int  `json:"player_id" validate:"required,gt=0"`
	IsReady  bool `json:"is_ready"`
}

type startRoundRequest struct {
	RoomID   string `json:"room_id" validate:"required"`
	PlayerID int    `json:"player_id"`
}

type predictionRequest struct {
	RoundID     string `json:"round_id" validate:"required"`
	PredictorID int    `json:"predictor_id" validate:"required,gt=0"`
	TargetID    int    `json:"target_id" validate:"required,gt=0"`
	Text        string `json:"text" validate:"required,predictiontext"`
}

type claimRequest struct {
	PlayerID int `json:"player_id" validate:"required,gt=0"`
}

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := validateRequest(req); err != nil {
		writeAPIError(w, err)
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, created := s.store.CreatePlayer(name)
	if created {
		if err := s.persistPlayer(&player); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create player")
			return
		}
		log.Printf("player created player_id=%d name=%s", player.ID, player.Name)
		s.broadcastLobbyPlayers()
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, playerPayload(player))
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players := s.store.ListPlayers()
	payload := make([]map[string]any, 0, len(players))
	for _, player := range players {
		payload = append(payload, playerPayload(player))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleOnlinePlayers(w http.ResponseWriter, r *http.Request) {
	payload := make([]map[string]any, 0)
	for _, id := range s.lobby.PlayerIDs() {
		if player, ok := s.store.GetPlayer(id); ok {
			payload = append(payload, playerPayload(player))
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, created := s.store.CreatePlayer(name)
	if created {
		if err := s.persistPlayer(&player); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to log in")
			return
		}
		log.Printf("player created player_id=%d name=%s", player.ID, player.Name)
	}
	token, err := s.issueToken(player)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	log.Printf("player logged in player_id=%d", player.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  token,
		"player": playerPayload(player),
	})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "host_id is required")
		return
	}
	if err := validateRequest(req); err != nil {
		writeAPIError(w, err)
		return
	}
	room, err := s.createRoom(req.HostID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.roomSnapshot(room))
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	summaries := s.store.ListRooms()
	payload := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		payload = append(payload, map[string]any{
			"id":      summary.ID,
			"code":    summary.Code,
			"status":  summary.Status,
			"members": summary.Members,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	idOrCode, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetRoom(w, r, idOrCode)
		case "events":
			s.handleRoomEvents(w, r, idOrCode)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoinRoom(w, r, idOrCode)
		case "leave":
			s.handleLeaveRoom(w, r, idOrCode)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPut:
		switch action {
		case "ready":
			s.handleReady(w, r, idOrCode)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, idOrCode string) {
	room, ok := s.store.GetRoom(idOrCode)
	if !ok {
		writeAPIError(w, errNotFound("room not found"))
		return
	}
	writeJSON(w, http.StatusOK, s.roomSnapshot(room))
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request, code string) {
	var req roomMemberRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if err := validateRequest(req); err != nil {
		writeAPIError(w, err)
		return
	}
	room, err := s.joinRoom(code, req.PlayerID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.roomSnapshot(room))
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request, code string) {
	var req roomMemberRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if err := validateRequest(req); err != nil {
		writeAPIError(w, err)
		return
	}
	room, err := s.leaveRoom(code, req.PlayerID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": room.ID,
		"left":    true,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request, code string) {
	var req readyRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if err := validateRequest(req); err != nil {
		writeAPIError(w, err)
		return
	}
	room, err := s.setReady(code, req.PlayerID, req.IsReady)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.roomSnapshot(room))
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req startRoundRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}
	if err := validateRequest(req); err != nil {
		writeAPIError(w, err)
		return
	}
	_, round, err := s.startRound(req.RoomID, req.PlayerID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	payload, err := s.roundSnapshot(round.ID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := parseRoundPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	payload, err := s.roundSnapshot(roundID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSubmitPrediction(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "prediction is required")
		return
	}
	if err := validateRequest(req); err != nil {
		writeAPIError(w, err)
		return
	}
	text, err := validatePredictionText(req.Text)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	_, prediction, err := s.submitPrediction(req.RoundID, req.PredictorID, req.TargetID, text)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, predictionPayload(prediction))
}

func (s *Server) handlePredictionSubroutes(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		roundID, playerID, ok := parsePredictionRoundPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if playerID > 0 {
			s.handlePlayerPrediction(w, r, roundID, playerID)
			return
		}
		s.handleRoundPredictions(w, r, roundID)
		return
	}

	predictionID, action, ok := parsePredictionPath(r.URL.Path)
	if !ok || action != "happened" {
		http.NotFound(w, r)
		return
	}
	s.handleClaimHappened(w, r, predictionID)
}

func (s *Server) handleRoundPredictions(w http.ResponseWriter, r *http.Request, roundID string) {
	predictions, err := s.roundPredictions(roundID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(predictions))
	for _, prediction := range predictions {
		payload = append(payload, predictionPayload(prediction))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handlePlayerPrediction(w http.ResponseWriter, r *http.Request, roundID string, playerID int) {
	prediction, err := s.playerPrediction(roundID, playerID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, predictionPayload(prediction))
}

func (s *Server) handleClaimHappened(w http.ResponseWriter, r *http.Request, predictionID string) {
	callerID, ok := s.callerFromRequest(r)
	if !ok {
		var req claimRequest
		if err := readJSON(r.Body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "player_id is required")
			return
		}
		if err := validateRequest(req); err != nil {
			writeAPIError(w, err)
			return
		}
		callerID = req.PlayerID
	}
	_, prediction, err := s.claimHappened(predictionID, callerID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, predictionPayload(prediction))
}
