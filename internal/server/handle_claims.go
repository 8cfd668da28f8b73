package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ClaimRequest is the request body for POST /api/claims.
type ClaimRequest struct {
	UserID   string `json:"userId"`
	CardCode string `json:"cardCode"`
	RoundID  string `json:"roundId"`
}

func handleSubmitClaim(co *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClaimRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.UserID = strings.TrimSpace(req.UserID)
		req.CardCode = strings.TrimSpace(req.CardCode)
		req.RoundID = strings.TrimSpace(req.RoundID)
		if req.UserID == "" || req.CardCode == "" || req.RoundID == "" {
			writeError(w, http.StatusBadRequest, "userId, cardCode and roundId are required")
			return
		}

		claim, err := co.SubmitClaim(r.Context(), req.UserID, req.CardCode, req.RoundID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, claim)
	}
}

func handleListClaims(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := store.ListClaims(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if claims == nil {
			claims = []Claim{}
		}
		writeJSON(w, http.StatusOK, claims)
	}
}

// ApproveClaimResponse wraps the winner record written by an approval.
type ApproveClaimResponse struct {
	Winner Winner `json:"winner"`
}

func handleApproveClaim(co *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claimID := chi.URLParam(r, "claimID")
		sess := adminFrom(r)

		winner, err := co.ApproveClaim(r.Context(), claimID, sess.AdminID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ApproveClaimResponse{Winner: winner})
	}
}

func handleRejectClaim(co *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claimID := chi.URLParam(r, "claimID")

		if _, err := co.RejectClaim(r.Context(), claimID); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func handleListWinners(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		winners, err := store.ListWinners(r.Context(), r.URL.Query().Get("roundId"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if winners == nil {
			winners = []Winner{}
		}
		writeJSON(w, http.StatusOK, winners)
	}
}
