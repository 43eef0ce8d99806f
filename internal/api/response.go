package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"trailprep/internal/logging"
)

// envelope is the uniform JSON wrapper every endpoint responds with.
type envelope struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
}

func respondError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{
		Status:    "error",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     message,
	})
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("encoding response", "error", err)
	}
}

// maxBodyBytes bounds request bodies; elevation profiles can be large but
// never this large.
const maxBodyBytes = 8 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}
