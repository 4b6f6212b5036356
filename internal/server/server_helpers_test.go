package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var body []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createPlayer(t *testing.T, ts *httptest.Server, name string) int {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/players", map[string]string{
		"name": name,
	})
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return int(body["id"].(float64))
}

func createRoom(t *testing.T, ts *httptest.Server, hostID int) (string, string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms", map[string]any{
		"host_id": hostID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["id"].(string), body["code"].(string)
}

func joinRoom(t *testing.T, ts *httptest.Server, code string, playerID int) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/join", map[string]any{
		"player_id": playerID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func setPlayerReady(t *testing.T, ts *httptest.Server, code string, playerID int) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPut, "/api/rooms/"+code+"/ready", map[string]any{
		"player_id": playerID,
		"is_ready":  true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func startTestRound(t *testing.T, ts *httptest.Server, roomID string, hostID int) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rounds", map[string]any{
		"room_id":   roomID,
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

// assignedTargets reads the predictor -> target mapping out of a round
// snapshot payload.
func assignedTargets(t *testing.T, round map[string]any) map[int]int {
	t.Helper()
	entries, ok := round["assignments"].([]any)
	if !ok {
		t.Fatalf("expected assignments list, got %#v", round["assignments"])
	}
	targets := make(map[int]int, len(entries))
	for _, raw := range entries {
		entry := raw.(map[string]any)
		predictorID := int(entry["predictor_id"].(float64))
		target := entry["target"].(map[string]any)
		targets[predictorID] = int(target["id"].(float64))
	}
	return targets
}

func submitTestPrediction(t *testing.T, ts *httptest.Server, roundID string, predictorID, targetID int, text string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/predictions", map[string]any{
		"round_id":     roundID,
		"predictor_id": predictorID,
		"target_id":    targetID,
		"text":         text,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["id"].(string)
}
