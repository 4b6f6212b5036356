package server

import (
	"sync"
	"time"
)

const (
	roomStatusWaiting = "waiting"
	roomStatusInRound = "in-round"
)

const (
	phasePrediction  = "prediction"
	phaseObservation = "observation"
	phaseReveal      = "reveal"
)

type Player struct {
	ID   int
	Name string
	DBID uint
}

type RoomSummary struct {
	ID      string
	Code    string
	Status  string
	Members int
}

// Room carries its own lock so rooms never contend with each other.
// The store mutex only guards the lookup maps and id counters.
type Room struct {
	mu        sync.Mutex
	ID        string
	DBID      uint
	Code      string
	HostID    int
	Status    string
	Members   []Member
	Rounds    []Round
	joinOrder int
	evicted   bool
}

type Member struct {
	PlayerID  int
	IsReady   bool
	JoinOrder int
	DBID      uint
}

type Round struct {
	ID                   string
	DBID                 uint
	Number               int
	Phase                string
	Assignments          map[int]int
	CreatedAt            time.Time
	PredictionDeadline   time.Time
	ObservationStartedAt time.Time
	ObservationDuration  time.Duration
	WinnerPredictionID   string
	Predictions          []Prediction
}

type Prediction struct {
	ID          string
	DBID        uint
	RoundID     string
	PredictorID int
	TargetID    int
	Text        string
	Happened    bool
	Points      int
	CreatedAt   time.Time
}

type ScoreEntry struct {
	PlayerID int
	Name     string
	Points   int
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
