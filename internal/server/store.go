package server

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Coordination failure kinds. Handlers map these to HTTP statuses; the
// messages are user-facing.
var (
	ErrNoRoundsScheduled   = errors.New("no rounds scheduled")
	ErrRoundAlreadyActive  = errors.New("a round is already active")
	ErrNoActiveRound       = errors.New("no active round")
	ErrAllNumbersExhausted = errors.New("all 75 numbers have been called")
	ErrCardDisabled        = errors.New("card won a previous round and is disabled")
	ErrCardIncomplete      = errors.New("card is not complete yet")
	ErrDuplicateClaim      = errors.New("a claim for this card is already pending")
	ErrClaimNotFound       = errors.New("claim not found")
	ErrAlreadyDecided      = errors.New("claim was already decided")
)

type Round struct {
	ID          string  `json:"id"`
	Ordinal     int     `json:"ordinal"`
	Status      string  `json:"status"`
	Prize       string  `json:"prize,omitempty"`
	ScheduledAt *string `json:"scheduledAt,omitempty"`
	StartedAt   *string `json:"startedAt,omitempty"`
	FinalizedAt *string `json:"finalizedAt,omitempty"`
}

// Card is a 5x5 grid stored row-major; numbers[12] is the free center (0).
type Card struct {
	Code     string `json:"code"`
	OwnerID  string `json:"ownerId,omitempty"`
	Numbers  []int  `json:"numbers"`
	Public   bool   `json:"public"`
	Disabled bool   `json:"disabled"`
}

type Claim struct {
	ID        string  `json:"id"`
	CardCode  string  `json:"cardCode"`
	RoundID   string  `json:"roundId"`
	UserID    string  `json:"userId"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	DecidedAt *string `json:"decidedAt,omitempty"`
}

type Winner struct {
	RoundID   string `json:"roundId"`
	CardCode  string `json:"cardCode"`
	UserID    string `json:"userId"`
	AdminID   string `json:"adminId"`
	CreatedAt string `json:"createdAt"`
}

type OnlineUser struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	LastSeen string `json:"lastSeen"`
}

type Store interface {
	// Rounds. ActiveRound returns ErrNoActiveRound when no round is active;
	// EarliestPending returns ErrNoRoundsScheduled when the schedule is empty.
	ActiveRound(ctx context.Context) (Round, error)
	EarliestPending(ctx context.Context) (Round, error)
	ActivateRound(ctx context.Context, id string) error
	ScheduleRound(ctx context.Context, id, prize string, scheduledAt *string) (Round, error)
	ListRounds(ctx context.Context) ([]Round, error)
	DueRounds(ctx context.Context, now string) ([]Round, error)
	MarkRoundNotified(ctx context.Context, id string) error
	FinalizeRounds(ctx context.Context) error
	ClearSession(ctx context.Context) error
	WipeHistory(ctx context.Context) error

	// Called numbers, ordered by draw sequence.
	CalledNumbers(ctx context.Context, roundID string) ([]int, error)
	AppendCalledNumber(ctx context.Context, roundID string, seq, number int) error

	// Cards.
	Card(ctx context.Context, code string) (Card, error)
	ListCards(ctx context.Context, ownerID string) ([]Card, error)
	CreateCard(ctx context.Context, c Card) error
	AssignCard(ctx context.Context, code, ownerID string) error
	DisableCard(ctx context.Context, code string) error
	CountCards(ctx context.Context) (int, error)

	// Claims.
	ClaimByID(ctx context.Context, id string) (Claim, error)
	HasLiveClaim(ctx context.Context, cardCode, roundID string) (bool, error)
	CreateClaim(ctx context.Context, c Claim) error
	DecideClaim(ctx context.Context, id, status string) (Claim, error)
	ListClaims(ctx context.Context, status string) ([]Claim, error)

	// Winner ledger. RecordWinner is idempotent on (round, card): replaying
	// an approval returns the existing record.
	RecordWinner(ctx context.Context, w Winner) (Winner, error)
	ListWinners(ctx context.Context, roundID string) ([]Winner, error)

	// Users and presence.
	CreateUser(ctx context.Context, id, name string) error
	Heartbeat(ctx context.Context, userID, name, at string) (first bool, err error)
	RemovePresence(ctx context.Context, userID string) (existed bool, err error)
	OnlineUsers(ctx context.Context, since string) ([]OnlineUser, error)

	// Admin accounts and sessions.
	CreateAdmin(ctx context.Context, id, email, passwordHash string) error
	AdminByEmail(ctx context.Context, email string) (id, passwordHash string, err error)
	CountAdmins(ctx context.Context) (int, error)
	CreateAdminSession(ctx context.Context, adminID string) (string, error)
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
}
