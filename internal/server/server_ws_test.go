package server

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"behavior-call/internal/config"

	"github.com/gorilla/websocket"
)

func TestRoomWebsocketSendsSnapshotFirst(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	hostID := createPlayer(t, ts, "Ada")
	_, code := createRoom(t, ts, hostID)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + code
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()

	if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtRoomUpdated {
		t.Fatalf("expected first event %s, got %s", evtRoomUpdated, eventType)
	}
}

func TestRoomWebsocketBroadcastsJoin(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	hostID := createPlayer(t, ts, "Ada")
	benID := createPlayer(t, ts, "Ben")
	_, code := createRoom(t, ts, hostID)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + code
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()

	if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtRoomUpdated {
		t.Fatalf("expected snapshot, got %s", eventType)
	}

	joinRoom(t, ts, code, benID)
	if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtRoomUpdated {
		t.Fatalf("expected room update after join, got %s", eventType)
	}
}

func TestRoomWebsocketRejectsUnknownMessage(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	hostID := createPlayer(t, ts, "Ada")
	_, code := createRoom(t, ts, hostID)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + code
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()

	if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtRoomUpdated {
		t.Fatalf("expected snapshot, got %s", eventType)
	}

	if err := conn.WriteJSON(wsEvent{Type: "teleport"}); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtRoomError {
		t.Fatalf("expected room error, got %s", eventType)
	}
}

func TestRoomWebsocketUnknownRoom(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/NOPE99"
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Fatalf("expected dial to fail for unknown room")
	}
}

func TestLobbyWebsocketTracksOnlinePlayers(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	adaID := createPlayer(t, ts, "Ada")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/lobby?player_id=" + strconv.Itoa(adaID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()

	if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtLobbyPlayers {
		t.Fatalf("expected lobby players event, got %s", eventType)
	}

	online := decodeList(t, doRequest(t, ts, "GET", "/api/players/online", nil))
	if len(online) != 1 || int(online[0]["id"].(float64)) != adaID {
		t.Fatalf("unexpected online players %#v", online)
	}
}

func TestAllPlayersReadyEvent(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	hostID := createPlayer(t, ts, "Ada")
	benID := createPlayer(t, ts, "Ben")
	_, code := createRoom(t, ts, hostID)
	joinRoom(t, ts, code, benID)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + code
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()

	if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtRoomUpdated {
		t.Fatalf("expected snapshot, got %s", eventType)
	}

	setPlayerReady(t, ts, code, hostID)
	setPlayerReady(t, ts, code, benID)

	// The last ready toggle emits a room update followed by the
	// all-ready notice; skip past interleaved room updates.
	for i := 0; i < 5; i++ {
		eventType := readWSEventType(t, conn, 5*time.Second)
		if eventType == evtAllPlayersReady {
			return
		}
		if eventType != evtRoomUpdated {
			t.Fatalf("unexpected event %s while waiting for all-ready", eventType)
		}
	}
	t.Fatalf("all-players-ready event never arrived")
}

// TestBroadcastSingleWriterPerConn hammers one connection from
// concurrent broadcasters; every delivered frame must decode cleanly.
func TestBroadcastSingleWriterPerConn(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	hostID := createPlayer(t, ts, "Ada")
	_, code := createRoom(t, ts, hostID)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + code
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()

	if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtRoomUpdated {
		t.Fatalf("expected snapshot, got %s", eventType)
	}

	const writers = 4
	const perWriter = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				srv.ws.Broadcast(code, wsEvent{Type: evtRoomUpdated})
			}
		}()
	}

	for i := 0; i < writers*perWriter; i++ {
		if eventType := readWSEventType(t, conn, 5*time.Second); eventType != evtRoomUpdated {
			t.Fatalf("frame %d corrupted: got %q", i, eventType)
		}
	}
	wg.Wait()
}

func readWSEventType(t *testing.T, conn *websocket.Conn, timeout time.Duration) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var event wsEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	return event.Type
}
