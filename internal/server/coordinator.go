package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salabingo/bingohall/internal/bingo"
)

// Coordinator owns the round lifecycle, the number draw, and the claim
// workflow. Every mutating operation runs under a single mutex so the
// draw-append step and the duplicate-claim check are serialized; publishing
// happens inside the critical section so same-type events for a round reach
// subscriber queues in production order. Fan-out to sockets stays async and
// never blocks here.
type Coordinator struct {
	store  Store
	broker *Broker
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewCoordinator(store Store, broker *Broker, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		broker: broker,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartNextRound activates the earliest pending round. Fails with
// ErrRoundAlreadyActive while a round is running and ErrNoRoundsScheduled
// when the schedule is empty.
func (c *Coordinator) StartNextRound(ctx context.Context) (Round, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.store.ActiveRound(ctx)
	if err == nil {
		return Round{}, ErrRoundAlreadyActive
	}
	if !errors.Is(err, ErrNoActiveRound) {
		return Round{}, err
	}

	round, err := c.store.EarliestPending(ctx)
	if err != nil {
		return Round{}, err
	}
	if err := c.store.ActivateRound(ctx, round.ID); err != nil {
		return Round{}, fmt.Errorf("activating round %s: %w", round.ID, err)
	}
	round.Status = bingo.RoundActive

	c.logger.Info("round started", "round_id", round.ID, "ordinal", round.Ordinal)
	c.broker.Publish(Event{Type: bingo.EventRoundStarted, RoundID: round.ID})
	return round, nil
}

// ResetGame finalizes all rounds and clears claims and called numbers.
// Winner history and disabled cards survive unless wipe is set: a card that
// won stays disabled across sessions, only a full data wipe re-enables it.
func (c *Coordinator) ResetGame(ctx context.Context, wipe bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.FinalizeRounds(ctx); err != nil {
		return fmt.Errorf("finalizing rounds: %w", err)
	}
	if err := c.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	if wipe {
		if err := c.store.WipeHistory(ctx); err != nil {
			return fmt.Errorf("wiping history: %w", err)
		}
	}

	c.logger.Info("game reset", "wipe", wipe)
	c.broker.Publish(Event{Type: bingo.EventRoundReset})
	return nil
}

// CallNext draws one uncalled number for the active round, persists it and
// broadcasts it. The draw and append are a single critical section: two
// concurrent calls can never draw the same number or skip a sequence slot.
func (c *Coordinator) CallNext(ctx context.Context, roundID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	active, err := c.store.ActiveRound(ctx)
	if err != nil {
		return 0, err
	}
	if active.ID != roundID {
		return 0, ErrNoActiveRound
	}

	called, err := c.store.CalledNumbers(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("loading called numbers: %w", err)
	}

	calledSet := bingo.CalledSet(called)
	remaining := make([]int, 0, bingo.MaxNumber-len(called))
	for n := 1; n <= bingo.MaxNumber; n++ {
		if !calledSet[n] {
			remaining = append(remaining, n)
		}
	}
	if len(remaining) == 0 {
		return 0, ErrAllNumbersExhausted
	}

	number := remaining[c.rng.Intn(len(remaining))]
	if err := c.store.AppendCalledNumber(ctx, roundID, len(called)+1, number); err != nil {
		return 0, fmt.Errorf("appending number %d: %w", number, err)
	}

	c.logger.Info("number called", "round_id", roundID, "number", number, "seq", len(called)+1)
	c.broker.Publish(Event{Type: bingo.EventNumberCalled, RoundID: roundID, Number: number})
	return number, nil
}

// SubmitClaim validates a bingo claim and queues it for admin decision.
// Checks run in a fixed order, each failure with its own kind: disabled
// card, wrong/absent round, incomplete card, duplicate claim.
func (c *Coordinator) SubmitClaim(ctx context.Context, userID, cardCode, roundID string) (Claim, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	card, err := c.store.Card(ctx, cardCode)
	if err != nil {
		return Claim{}, err
	}
	if card.Disabled {
		return Claim{}, ErrCardDisabled
	}

	active, err := c.store.ActiveRound(ctx)
	if err != nil {
		return Claim{}, err
	}
	if active.ID != roundID {
		return Claim{}, ErrNoActiveRound
	}

	called, err := c.store.CalledNumbers(ctx, roundID)
	if err != nil {
		return Claim{}, fmt.Errorf("loading called numbers: %w", err)
	}
	if !bingo.IsComplete(gridFromCard(card), bingo.CalledSet(called)) {
		return Claim{}, ErrCardIncomplete
	}

	live, err := c.store.HasLiveClaim(ctx, cardCode, roundID)
	if err != nil {
		return Claim{}, err
	}
	if live {
		return Claim{}, ErrDuplicateClaim
	}

	claim := Claim{
		ID:        uuid.NewString(),
		CardCode:  cardCode,
		RoundID:   roundID,
		UserID:    userID,
		Status:    bingo.ClaimPending,
		CreatedAt: nowUTC(),
	}
	if err := c.store.CreateClaim(ctx, claim); err != nil {
		return Claim{}, fmt.Errorf("creating claim: %w", err)
	}

	c.logger.Info("claim submitted", "claim_id", claim.ID, "card", cardCode, "round_id", roundID, "user_id", userID)
	c.broker.Publish(Event{Type: bingo.EventClaimSubmitted, RoundID: roundID, Claim: &claim})
	return claim, nil
}

// ApproveClaim re-validates completeness against the called numbers at
// decision time (more may have been called since submission), records the
// winner idempotently, and permanently disables the card.
func (c *Coordinator) ApproveClaim(ctx context.Context, claimID, adminID string) (Winner, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	claim, err := c.store.ClaimByID(ctx, claimID)
	if err != nil {
		return Winner{}, err
	}
	if claim.Status != bingo.ClaimPending {
		return Winner{}, ErrAlreadyDecided
	}

	card, err := c.store.Card(ctx, claim.CardCode)
	if err != nil {
		return Winner{}, err
	}
	called, err := c.store.CalledNumbers(ctx, claim.RoundID)
	if err != nil {
		return Winner{}, fmt.Errorf("loading called numbers: %w", err)
	}
	if !bingo.IsComplete(gridFromCard(card), bingo.CalledSet(called)) {
		return Winner{}, ErrCardIncomplete
	}

	winner, err := c.store.RecordWinner(ctx, Winner{
		RoundID:  claim.RoundID,
		CardCode: claim.CardCode,
		UserID:   claim.UserID,
		AdminID:  adminID,
	})
	if err != nil {
		return Winner{}, fmt.Errorf("recording winner: %w", err)
	}
	if err := c.store.DisableCard(ctx, claim.CardCode); err != nil {
		return Winner{}, fmt.Errorf("disabling card %s: %w", claim.CardCode, err)
	}
	claim, err = c.store.DecideClaim(ctx, claimID, bingo.ClaimApproved)
	if err != nil {
		return Winner{}, fmt.Errorf("deciding claim: %w", err)
	}

	c.logger.Info("claim approved", "claim_id", claimID, "card", claim.CardCode, "admin_id", adminID)
	c.broker.Publish(Event{Type: bingo.EventClaimApproved, RoundID: claim.RoundID, Claim: &claim, Winner: &winner})
	return winner, nil
}

// RejectClaim marks the claim rejected. The card stays enabled and may
// claim again in the same round.
func (c *Coordinator) RejectClaim(ctx context.Context, claimID string) (Claim, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	claim, err := c.store.ClaimByID(ctx, claimID)
	if err != nil {
		return Claim{}, err
	}
	if claim.Status != bingo.ClaimPending {
		return Claim{}, ErrAlreadyDecided
	}

	claim, err = c.store.DecideClaim(ctx, claimID, bingo.ClaimRejected)
	if err != nil {
		return Claim{}, fmt.Errorf("deciding claim: %w", err)
	}

	c.logger.Info("claim rejected", "claim_id", claimID, "card", claim.CardCode)
	c.broker.Publish(Event{Type: bingo.EventClaimRejected, RoundID: claim.RoundID, Claim: &claim})
	return claim, nil
}
