package server

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salabingo/bingohall/internal/bingo"
)

func handleListCards(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := store.ListCards(r.Context(), r.URL.Query().Get("ownerId"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if cards == nil {
			cards = []Card{}
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func handleGetCard(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := store.Card(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

// AssignCardRequest apportions a card to a user.
type AssignCardRequest struct {
	OwnerID string `json:"ownerId"`
}

func handleAssignCard(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignCardRequest
		if err := readJSON(r, &req); err != nil || req.OwnerID == "" {
			writeError(w, http.StatusBadRequest, "ownerId is required")
			return
		}

		code := chi.URLParam(r, "code")
		if err := store.AssignCard(r.Context(), code, req.OwnerID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// GenerateCardsRequest is the admin request to mint public inventory.
type GenerateCardsRequest struct {
	Count int `json:"count"`
}

func handleGenerateCards(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateCardsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Count < 1 || req.Count > 500 {
			writeError(w, http.StatusBadRequest, "count must be between 1 and 500")
			return
		}

		cards, err := generateCards(r.Context(), store, req.Count)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, cards)
	}
}

func generateCards(ctx context.Context, store Store, count int) ([]Card, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	cards := make([]Card, 0, count)
	attempts := 0
	for len(cards) < count {
		// 3-digit codes are a finite namespace; bail out instead of spinning
		// once the inventory is essentially full.
		if attempts++; attempts > count*20+1000 {
			return nil, fmt.Errorf("card code space exhausted after %d attempts", attempts)
		}

		grid := bingo.NewCardNumbers(rng)
		card := Card{
			Code:    fmt.Sprintf("%03d", rng.Intn(1000)),
			Numbers: grid[:],
			Public:  true,
		}

		// Codes collide; retry on an occupied code.
		if _, err := store.Card(ctx, card.Code); err == nil {
			continue
		}
		if err := store.CreateCard(ctx, card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}
