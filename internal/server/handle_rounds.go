package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ActiveRoundResponse bundles the active round with its called numbers so a
// reconnecting client can resynchronize in one pull.
type ActiveRoundResponse struct {
	Round         Round `json:"round"`
	CalledNumbers []int `json:"calledNumbers"`
}

func handleActiveRound(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := store.ActiveRound(r.Context())
		if errors.Is(err, ErrNoActiveRound) {
			writeDomainError(w, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		numbers, err := store.CalledNumbers(r.Context(), round.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if numbers == nil {
			numbers = []int{}
		}

		writeJSON(w, http.StatusOK, ActiveRoundResponse{Round: round, CalledNumbers: numbers})
	}
}

// CalledNumbersResponse is the pull-based refresh for a round's sequence.
type CalledNumbersResponse struct {
	RoundID string `json:"roundId"`
	Numbers []int  `json:"numbers"`
}

func handleCalledNumbers(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roundID := chi.URLParam(r, "roundID")

		numbers, err := store.CalledNumbers(r.Context(), roundID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if numbers == nil {
			numbers = []int{}
		}

		writeJSON(w, http.StatusOK, CalledNumbersResponse{RoundID: roundID, Numbers: numbers})
	}
}

// CallNumberResponse is returned after a successful draw.
type CallNumberResponse struct {
	RoundID string `json:"roundId"`
	Number  int    `json:"number"`
}

func handleCallNumber(co *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roundID := chi.URLParam(r, "roundID")

		number, err := co.CallNext(r.Context(), roundID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CallNumberResponse{RoundID: roundID, Number: number})
	}
}

// ScheduleRoundsRequest creates a batch of pending rounds. StartAt is
// optional; when set, rounds are spaced Interval minutes apart from it.
type ScheduleRoundsRequest struct {
	Count           int    `json:"count"`
	Prize           string `json:"prize"`
	StartAt         string `json:"startAt,omitempty"`
	IntervalMinutes int    `json:"intervalMinutes,omitempty"`
}

func handleScheduleRounds(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRoundsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Count < 1 || req.Count > 100 {
			writeError(w, http.StatusBadRequest, "count must be between 1 and 100")
			return
		}

		var startAt *time.Time
		if req.StartAt != "" {
			t, err := time.Parse(time.RFC3339, req.StartAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "startAt must be RFC 3339")
				return
			}
			startAt = &t
		}
		interval := time.Duration(req.IntervalMinutes) * time.Minute

		var rounds []Round
		for i := 0; i < req.Count; i++ {
			var scheduledAt *string
			if startAt != nil {
				ts := startAt.Add(time.Duration(i) * interval).UTC().Format("2006-01-02T15:04:05.000Z")
				scheduledAt = &ts
			}
			round, err := store.ScheduleRound(r.Context(), uuid.NewString(), req.Prize, scheduledAt)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			rounds = append(rounds, round)
		}

		writeJSON(w, http.StatusCreated, rounds)
	}
}

func handleListRounds(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rounds, err := store.ListRounds(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if rounds == nil {
			rounds = []Round{}
		}
		writeJSON(w, http.StatusOK, rounds)
	}
}

func handleStartRound(co *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := co.StartNextRound(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, round)
	}
}

func handleResetGame(co *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wipe := r.URL.Query().Get("wipe") == "true"

		if err := co.ResetGame(r.Context(), wipe); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
