package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/salabingo/bingohall/internal/bingo"
)

// RegisterUserRequest creates a hall user. Identity is intentionally thin:
// the real user directory is an external collaborator.
type RegisterUserRequest struct {
	Name string `json:"name"`
}

type RegisterUserResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func handleRegisterUser(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterUserRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		userID := uuid.NewString()
		if err := store.CreateUser(r.Context(), userID, req.Name); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, RegisterUserResponse{UserID: userID, Name: req.Name})
	}
}

// HeartbeatRequest keeps a user listed as online. Heartbeats are independent
// of round state and never contend with the coordinator.
type HeartbeatRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func handleHeartbeat(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HeartbeatRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" {
			writeError(w, http.StatusBadRequest, "userId is required")
			return
		}

		first, err := store.Heartbeat(r.Context(), req.UserID, req.Name, nowUTC())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if first {
			broker.Publish(Event{Type: bingo.EventUserJoined, UserID: req.UserID, Name: req.Name})
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func handleLogout(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		existed, err := store.RemovePresence(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if existed {
			broker.Publish(Event{Type: bingo.EventUserLeft, UserID: userID})
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// PresenceResponse lists users seen within the presence TTL.
type PresenceResponse struct {
	Count int          `json:"count"`
	Users []OnlineUser `json:"users"`
}

func handleListPresence(store Store, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := time.Now().UTC().Add(-ttl).Format("2006-01-02T15:04:05.000Z")

		users, err := store.OnlineUsers(r.Context(), since)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if users == nil {
			users = []OnlineUser{}
		}

		writeJSON(w, http.StatusOK, PresenceResponse{Count: len(users), Users: users})
	}
}
