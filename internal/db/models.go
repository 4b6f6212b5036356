package db

import (
	"time"

	"gorm.io/datatypes"
)

type Player struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Room struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:12;uniqueIndex;not null"`
	HostID    uint      `gorm:"index;not null"`
	Status    string    `gorm:"size:32;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Members   []RoomMember
	Rounds    []Round
	Events    []Event
}

type RoomMember struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null;uniqueIndex:idx_members_room_player"`
	PlayerID  uint      `gorm:"index;not null;uniqueIndex:idx_members_room_player"`
	IsReady   bool      `gorm:"not null;default:false"`
	JoinOrder int       `gorm:"not null"`
	JoinedAt  time.Time `gorm:"not null"`
	LeftAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Round struct {
	ID                 uint      `gorm:"primaryKey"`
	RoomID             uint      `gorm:"index;not null;uniqueIndex:idx_rounds_room_number"`
	Number             int       `gorm:"not null;uniqueIndex:idx_rounds_room_number"`
	Phase              string    `gorm:"size:32;not null"`
	Assignments        datatypes.JSON `gorm:"type:jsonb;not null"`
	PredictionDeadline time.Time `gorm:"not null"`
	ObservationStart   *time.Time
	ObservationMs      int64     `gorm:"not null"`
	WinnerPredictionID *uint     `gorm:"index"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
	Predictions        []Prediction
}

type Prediction struct {
	ID          uint      `gorm:"primaryKey"`
	RoundID     uint      `gorm:"index;not null;uniqueIndex:idx_predictions_round_predictor"`
	PredictorID uint      `gorm:"index;not null;uniqueIndex:idx_predictions_round_predictor"`
	TargetID    uint      `gorm:"index;not null"`
	Text        string    `gorm:"size:280;not null"`
	Happened    bool      `gorm:"not null;default:false"`
	Points      int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    uint           `gorm:"index;not null"`
	RoundID   *uint          `gorm:"index"`
	PlayerID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
