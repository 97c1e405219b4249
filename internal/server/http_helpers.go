package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"sketch-chain/internal/game"
)

// Drawings arrive as base64 data URIs, so request bodies are capped well
// above the drawing size limit rather than at a typical JSON size.
const maxRequestBytes = 1 << 20

func readJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
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

// writeGameError maps the game package's error categories onto HTTP
// statuses. Anything outside the taxonomy is reported as a 500 without
// leaking the underlying error text.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrPermission):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
