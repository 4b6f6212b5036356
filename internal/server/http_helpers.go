package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeAPIError maps the error taxonomy onto HTTP statuses. Conflict
// responses carry a code so clients can tell "already done by me"
// apart from "someone else won".
func writeAPIError(w http.ResponseWriter, err error) {
	payload := map[string]string{
		"error": err.Error(),
	}
	if code := errorCode(err); code != "" {
		payload["code"] = code
	}
	writeJSON(w, errorStatus(err), payload)
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}
