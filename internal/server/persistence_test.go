package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: "23505"}
	if !isUniqueViolation(fmt.Errorf("create: %w", uniqueErr)) {
		t.Fatalf("expected wrapped unique violation to match")
	}
	otherErr := &pgconn.PgError{Code: "22001"}
	if isUniqueViolation(otherErr) {
		t.Fatalf("expected non-unique pg error to be ignored")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatalf("expected plain error to be ignored")
	}
}

func TestPersistenceNoopsWithoutDB(t *testing.T) {
	srv := &Server{store: NewStore()}
	player, _ := srv.store.CreatePlayer("Ada")
	if err := srv.persistPlayer(&player); err != nil {
		t.Fatalf("persist player: %v", err)
	}
	room, err := srv.store.CreateRoom(player.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := srv.persistRoom(room); err != nil {
		t.Fatalf("persist room: %v", err)
	}
	if err := srv.persistEvent(room, "room_created", EventPayload{}); err != nil {
		t.Fatalf("persist event: %v", err)
	}
}
