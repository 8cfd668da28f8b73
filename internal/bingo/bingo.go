// Package bingo defines the core domain rules of the hall.
// It has zero external dependencies — everything here is pure Go.
package bingo

import "math/rand"

// MaxNumber is the highest callable number. Cards draw from the five
// classic column ranges: B 1–15, I 16–30, N 31–45, G 46–60, O 61–75.
const MaxNumber = 75

// FreeCell marks the free center of a card grid.
const FreeCell = 0

// FreeIndex is the position of the free cell in a row-major 5x5 grid.
const FreeIndex = 12

// Round lifecycle.
const (
	RoundPending   = "pending"
	RoundActive    = "active"
	RoundFinalized = "finalized"
)

// Claim lifecycle.
const (
	ClaimPending  = "pending"
	ClaimApproved = "approved"
	ClaimRejected = "rejected"
)

// Broadcast event types. Same-type events for a round are delivered in the
// order they were produced; clients tolerate duplicates and re-pull state
// after a reconnect.
const (
	EventNumberCalled   = "number_called"
	EventClaimSubmitted = "claim_submitted"
	EventClaimApproved  = "claim_approved"
	EventClaimRejected  = "claim_rejected"
	EventRoundStarted   = "round_started"
	EventRoundReset     = "round_reset"
	EventRoundDue       = "round_due"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
)

// NewCardNumbers draws a fresh card grid: five distinct numbers per column
// from that column's range, free center.
func NewCardNumbers(rng *rand.Rand) [25]int {
	var grid [25]int
	for col := 0; col < 5; col++ {
		low := col*15 + 1
		perm := rng.Perm(15)
		for row := 0; row < 5; row++ {
			grid[row*5+col] = low + perm[row]
		}
	}
	grid[FreeIndex] = FreeCell
	return grid
}

// IsComplete reports whether every non-free cell of the grid is covered by
// the called set. This hall plays full-card bingo: all 24 numbers, not a
// single line.
func IsComplete(grid [25]int, called map[int]bool) bool {
	for i, n := range grid {
		if i == FreeIndex || n == FreeCell {
			continue
		}
		if !called[n] {
			return false
		}
	}
	return true
}

// MissingNumbers returns the grid numbers not yet called, in grid order.
func MissingNumbers(grid [25]int, called map[int]bool) []int {
	var missing []int
	for i, n := range grid {
		if i == FreeIndex || n == FreeCell {
			continue
		}
		if !called[n] {
			missing = append(missing, n)
		}
	}
	return missing
}

// CalledSet builds a lookup set from a called-number sequence.
func CalledSet(numbers []int) map[int]bool {
	set := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set
}
