package server

import (
	"net/http"
	"sync"
	"time"

	"behavior-call/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	lobby    *lobbyHub
	cfg      config.Config
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store:  NewStore(),
		db:     conn,
		ws:     newWSHub(),
		lobby:  newLobbyHub(),
		cfg:    cfg,
		timers: make(map[string]*time.Timer),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/players", s.handleCreatePlayer)
	mux.HandleFunc("GET /api/players", s.handleListPlayers)
	mux.HandleFunc("GET /api/players/online", s.handleOnlinePlayers)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("PUT /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rounds", s.handleStartRound)
	mux.HandleFunc("GET /api/rounds/", s.handleGetRound)
	mux.HandleFunc("POST /api/predictions", s.handleSubmitPrediction)
	mux.HandleFunc("GET /api/predictions/", s.handlePredictionSubroutes)
	mux.HandleFunc("PUT /api/predictions/", s.handlePredictionSubroutes)
	mux.HandleFunc("GET /ws/rooms/", s.handleRoomWebsocket)
	mux.HandleFunc("GET /ws/lobby", s.handleLobbyWebsocket)
	return mux
}
