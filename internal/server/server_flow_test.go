package server

import (
	"net/http"
	"testing"

	"behavior-call/internal/config"
)

// TestFullRoundFlow walks a room through login, lobby, a full round,
// and a claimed win over the HTTP API.
func TestFullRoundFlow(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/auth/login", map[string]string{
		"name": "Ada",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	login := decodeBody(t, resp)
	token, ok := login["token"].(string)
	if !ok || token == "" {
		t.Fatalf("expected token, got %#v", login["token"])
	}
	hostID := int(login["player"].(map[string]any)["id"].(float64))

	benID := createPlayer(t, ts, "Ben")
	roomID, code := createRoom(t, ts, hostID)
	joinRoom(t, ts, code, benID)

	rooms := decodeList(t, doRequest(t, ts, http.MethodGet, "/api/rooms", nil))
	if len(rooms) != 1 || int(rooms[0]["members"].(float64)) != 2 {
		t.Fatalf("unexpected lobby listing %#v", rooms)
	}

	setPlayerReady(t, ts, code, hostID)
	setPlayerReady(t, ts, code, benID)

	round := startTestRound(t, ts, roomID, hostID)
	roundID := round["id"].(string)
	targets := assignedTargets(t, round)
	predictionID := submitTestPrediction(t, ts, roundID, hostID, targets[hostID], "will tell a joke")
	submitTestPrediction(t, ts, roundID, benID, targets[benID], "will drop something")

	predictions := decodeList(t, doRequest(t, ts, http.MethodGet, "/api/predictions/round/"+roundID, nil))
	if len(predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(predictions))
	}

	// The claim carries no body; the caller comes from the token.
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/predictions/"+predictionID+"/happened", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	claimResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = claimResp.Body.Close() })
	if claimResp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, claimResp.StatusCode)
	}
	claimed := decodeBody(t, claimResp)
	if !claimed["happened"].(bool) {
		t.Fatalf("expected claimed prediction marked happened")
	}

	view := decodeBody(t, doRequest(t, ts, http.MethodGet, "/api/rounds/"+roundID, nil))
	if view["winner_prediction_id"] != predictionID {
		t.Fatalf("expected winner %s, got %v", predictionID, view["winner_prediction_id"])
	}
}

func TestLoginReturnsSamePlayer(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	first := decodeBody(t, doRequest(t, ts, http.MethodPost, "/api/auth/login", map[string]string{"name": "Ada"}))
	second := decodeBody(t, doRequest(t, ts, http.MethodPost, "/api/auth/login", map[string]string{"name": "ADA"}))
	firstID := first["player"].(map[string]any)["id"].(float64)
	secondID := second["player"].(map[string]any)["id"].(float64)
	if firstID != secondID {
		t.Fatalf("expected same player across logins, got %v and %v", firstID, secondID)
	}
}

func TestCreatePlayerValidation(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/players", map[string]string{"name": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/players", map[string]string{
		"name": "this name is far far too long",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
