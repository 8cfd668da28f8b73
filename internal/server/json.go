package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps coordination failure kinds to HTTP statuses. The
// claimant only ever sees the sentinel's own message, never internal state.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCardIncomplete):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCardDisabled):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrClaimNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateClaim),
		errors.Is(err, ErrNoActiveRound),
		errors.Is(err, ErrRoundAlreadyActive),
		errors.Is(err, ErrNoRoundsScheduled),
		errors.Is(err, ErrAllNumbersExhausted),
		errors.Is(err, ErrAlreadyDecided):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
