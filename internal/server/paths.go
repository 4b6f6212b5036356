package server

import (
	"strconv"
	"strings"
)

func parseRoomPath(path string) (string, string, bool) {
	const prefix = "/api/rooms/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}
	if parts[0] == "code" {
		if len(parts) == 2 {
			return parts[1], "", true
		}
		return "", "", false
	}
	if len(parts) == 1 {
		return parts[0], "", true
	}
	if len(parts) == 2 {
		return parts[0], parts[1], true
	}
	return "", "", false
}

func parseRoundPath(path string) (string, bool) {
	const prefix = "/api/rounds/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func parsePredictionPath(path string) (string, string, bool) {
	const prefix = "/api/predictions/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}
	if len(parts) == 1 {
		return parts[0], "", true
	}
	if len(parts) == 2 {
		return parts[0], parts[1], true
	}
	return "", "", false
}

// parsePredictionRoundPath handles /api/predictions/round/{roundId}
// and /api/predictions/round/{roundId}/player/{playerId}.
func parsePredictionRoundPath(path string) (string, int, bool) {
	const prefix = "/api/predictions/round/"
	if !strings.HasPrefix(path, prefix) {
		return "", 0, false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 1 && parts[0] != "" {
		return parts[0], 0, true
	}
	if len(parts) == 3 && parts[1] == "player" {
		playerID, err := strconv.Atoi(parts[2])
		if err != nil || playerID <= 0 {
			return "", 0, false
		}
		return parts[0], playerID, true
	}
	return "", 0, false
}

func parseRoomWSPath(path string) (string, bool) {
	const prefix = "/ws/rooms/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	code := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if code == "" || strings.Contains(code, "/") {
		return "", false
	}
	return code, true
}
