package server

// Server -> client event types on the room channel.
const (
	evtRoomUpdated         = "room-updated"
	evtAllPlayersReady     = "all-players-ready"
	evtRoundStarted        = "round-started"
	evtPhaseUpdated        = "phase-updated"
	evtPredictionSubmitted = "player-prediction-submitted"
	evtRoundWon            = "round-won"
	evtRoomError           = "room-error"
	evtLobbyPlayers        = "lobby-players-updated"
)

// Client -> server message types. These mirror the HTTP mutations as
// low-latency fan-out triggers; the HTTP API stays the write path.
const (
	msgJoinRoom            = "join-room"
	msgLeaveRoom           = "leave-room"
	msgUpdateReady         = "update-ready"
	msgStartRound          = "start-round"
	msgPredictionSubmitted = "prediction-submitted"
	msgPredictionHappened  = "prediction-happened"
)

type wsEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// EventPayload is the persisted event-log payload (jsonb column).
type EventPayload struct {
	RoomID       string `json:"room_id,omitempty"`
	Code         string `json:"code,omitempty"`
	PlayerID     int    `json:"player_id,omitempty"`
	PlayerName   string `json:"player,omitempty"`
	RoundID      string `json:"round_id,omitempty"`
	RoundNumber  int    `json:"round_number,omitempty"`
	Phase        string `json:"phase,omitempty"`
	PredictionID string `json:"prediction_id,omitempty"`
	Points       int    `json:"points,omitempty"`
	IsReady      bool   `json:"is_ready,omitempty"`
	Reason       string `json:"reason,omitempty"`
}
