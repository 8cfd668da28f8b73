package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/salabingo/bingohall/internal/bingo"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// --- rounds ---

const roundColumns = `id, ordinal, status, prize, scheduled_at, started_at, finalized_at`

func scanRound(row interface{ Scan(...any) error }) (Round, error) {
	var r Round
	var scheduled, started, finalized sql.NullString
	err := row.Scan(&r.ID, &r.Ordinal, &r.Status, &r.Prize, &scheduled, &started, &finalized)
	if scheduled.Valid {
		r.ScheduledAt = &scheduled.String
	}
	if started.Valid {
		r.StartedAt = &started.String
	}
	if finalized.Valid {
		r.FinalizedAt = &finalized.String
	}
	return r, err
}

func (s *SQLiteStore) ActiveRound(ctx context.Context) (Round, error) {
	r, err := scanRound(s.db.QueryRowContext(ctx, `
		SELECT `+roundColumns+` FROM rounds WHERE status = 'active'
	`))
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNoActiveRound
	}
	return r, err
}

func (s *SQLiteStore) EarliestPending(ctx context.Context) (Round, error) {
	r, err := scanRound(s.db.QueryRowContext(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE status = 'pending'
		ORDER BY ordinal LIMIT 1
	`))
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNoRoundsScheduled
	}
	return r, err
}

func (s *SQLiteStore) ActivateRound(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rounds SET status = 'active', started_at = ?
		WHERE id = ? AND status = 'pending'
	`, nowUTC(), id)
	return err
}

func (s *SQLiteStore) ScheduleRound(ctx context.Context, id, prize string, scheduledAt *string) (Round, error) {
	r, err := scanRound(s.db.QueryRowContext(ctx, `
		INSERT INTO rounds (id, ordinal, status, prize, scheduled_at)
		VALUES (?, (SELECT COALESCE(MAX(ordinal), 0) + 1 FROM rounds), 'pending', ?, ?)
		RETURNING `+roundColumns+`
	`, id, prize, scheduledAt))
	return r, err
}

func (s *SQLiteStore) ListRounds(ctx context.Context) ([]Round, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+roundColumns+` FROM rounds ORDER BY ordinal
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

func (s *SQLiteStore) DueRounds(ctx context.Context, now string) ([]Round, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+roundColumns+` FROM rounds
		WHERE status = 'pending' AND notified = 0
		  AND scheduled_at IS NOT NULL AND scheduled_at <= ?
		ORDER BY ordinal
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

func (s *SQLiteStore) MarkRoundNotified(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE rounds SET notified = 1 WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) FinalizeRounds(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rounds SET status = 'finalized', finalized_at = ?
		WHERE status != 'finalized'
	`, nowUTC())
	return err
}

// ClearSession removes the current session's transient state: claims and
// called numbers. Winner records and disabled cards survive.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM claims`,
		`DELETE FROM called_numbers`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// WipeHistory is the full data wipe: winner history, disabled-card flags and
// rounds are all removed. Only an explicit wipe crosses this line.
func (s *SQLiteStore) WipeHistory(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM winners`,
		`UPDATE cards SET disabled = 0`,
		`DELETE FROM rounds`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- called numbers ---

func (s *SQLiteStore) CalledNumbers(ctx context.Context, roundID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number FROM called_numbers WHERE round_id = ? ORDER BY seq
	`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (s *SQLiteStore) AppendCalledNumber(ctx context.Context, roundID string, seq, number int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO called_numbers (round_id, seq, number) VALUES (?, ?, ?)
	`, roundID, seq, number)
	return err
}

// --- cards ---

func scanCard(row interface{ Scan(...any) error }) (Card, error) {
	var c Card
	var owner sql.NullString
	var numbersJSON string
	var public, disabled int
	err := row.Scan(&c.Code, &owner, &numbersJSON, &public, &disabled)
	if err != nil {
		return c, err
	}
	if owner.Valid {
		c.OwnerID = owner.String
	}
	c.Public = public == 1
	c.Disabled = disabled == 1
	if err := json.Unmarshal([]byte(numbersJSON), &c.Numbers); err != nil {
		return c, fmt.Errorf("decoding card %s numbers: %w", c.Code, err)
	}
	return c, nil
}

func (s *SQLiteStore) Card(ctx context.Context, code string) (Card, error) {
	c, err := scanCard(s.db.QueryRowContext(ctx, `
		SELECT code, owner_id, numbers, public, disabled FROM cards WHERE code = ?
	`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (s *SQLiteStore) ListCards(ctx context.Context, ownerID string) ([]Card, error) {
	query := `SELECT code, owner_id, numbers, public, disabled FROM cards WHERE public = 1 ORDER BY code`
	args := []any{}
	if ownerID != "" {
		query = `SELECT code, owner_id, numbers, public, disabled FROM cards WHERE owner_id = ? ORDER BY code`
		args = append(args, ownerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *SQLiteStore) CreateCard(ctx context.Context, c Card) error {
	numbersJSON, err := json.Marshal(c.Numbers)
	if err != nil {
		return err
	}
	public := 0
	if c.Public {
		public = 1
	}
	var owner any
	if c.OwnerID != "" {
		owner = c.OwnerID
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (code, owner_id, numbers, public) VALUES (?, ?, ?, ?)
	`, c.Code, owner, string(numbersJSON), public)
	return err
}

func (s *SQLiteStore) AssignCard(ctx context.Context, code, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards SET owner_id = ? WHERE code = ?
	`, ownerID, code)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DisableCard(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE cards SET disabled = 1 WHERE code = ?`, code)
	return err
}

func (s *SQLiteStore) CountCards(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&count)
	return count, err
}

// --- claims ---

const claimColumns = `id, card_code, round_id, user_id, status, created_at, decided_at`

func scanClaim(row interface{ Scan(...any) error }) (Claim, error) {
	var c Claim
	var decided sql.NullString
	err := row.Scan(&c.ID, &c.CardCode, &c.RoundID, &c.UserID, &c.Status, &c.CreatedAt, &decided)
	if decided.Valid {
		c.DecidedAt = &decided.String
	}
	return c, err
}

func (s *SQLiteStore) ClaimByID(ctx context.Context, id string) (Claim, error) {
	c, err := scanClaim(s.db.QueryRowContext(ctx, `
		SELECT `+claimColumns+` FROM claims WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrClaimNotFound
	}
	return c, err
}

func (s *SQLiteStore) HasLiveClaim(ctx context.Context, cardCode, roundID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM claims
		WHERE card_code = ? AND round_id = ? AND status != 'rejected'
	`, cardCode, roundID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) CreateClaim(ctx context.Context, c Claim) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (id, card_code, round_id, user_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.CardCode, c.RoundID, c.UserID, c.Status, c.CreatedAt)
	return err
}

func (s *SQLiteStore) DecideClaim(ctx context.Context, id, status string) (Claim, error) {
	c, err := scanClaim(s.db.QueryRowContext(ctx, `
		UPDATE claims SET status = ?, decided_at = ?
		WHERE id = ?
		RETURNING `+claimColumns+`
	`, status, nowUTC(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrClaimNotFound
	}
	return c, err
}

func (s *SQLiteStore) ListClaims(ctx context.Context, status string) ([]Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims ORDER BY created_at`
	args := []any{}
	if status != "" {
		query = `SELECT ` + claimColumns + ` FROM claims WHERE status = ? ORDER BY created_at`
		args = append(args, status)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// --- winner ledger ---

func (s *SQLiteStore) RecordWinner(ctx context.Context, w Winner) (Winner, error) {
	// Idempotent on (round, card): a replayed approval returns the row the
	// first approval wrote.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO winners (round_id, card_code, user_id, admin_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (round_id, card_code) DO NOTHING
	`, w.RoundID, w.CardCode, w.UserID, w.AdminID, nowUTC())
	if err != nil {
		return Winner{}, err
	}

	var out Winner
	err = s.db.QueryRowContext(ctx, `
		SELECT round_id, card_code, user_id, admin_id, created_at
		FROM winners WHERE round_id = ? AND card_code = ?
	`, w.RoundID, w.CardCode).Scan(&out.RoundID, &out.CardCode, &out.UserID, &out.AdminID, &out.CreatedAt)
	return out, err
}

func (s *SQLiteStore) ListWinners(ctx context.Context, roundID string) ([]Winner, error) {
	query := `SELECT round_id, card_code, user_id, admin_id, created_at FROM winners ORDER BY created_at`
	args := []any{}
	if roundID != "" {
		query = `SELECT round_id, card_code, user_id, admin_id, created_at FROM winners WHERE round_id = ? ORDER BY created_at`
		args = append(args, roundID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var winners []Winner
	for rows.Next() {
		var w Winner
		if err := rows.Scan(&w.RoundID, &w.CardCode, &w.UserID, &w.AdminID, &w.CreatedAt); err != nil {
			return nil, err
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

// --- users and presence ---

func (s *SQLiteStore) CreateUser(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES (?, ?)`, id, name)
	return err
}

func (s *SQLiteStore) Heartbeat(ctx context.Context, userID, name, at string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM presence WHERE user_id = ?`, userID).Scan(&one)
	first := errors.Is(err, sql.ErrNoRows)
	if err != nil && !first {
		return false, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO presence (user_id, name, last_seen) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET name = excluded.name, last_seen = excluded.last_seen
	`, userID, name, at)
	return first, err
}

func (s *SQLiteStore) RemovePresence(ctx context.Context, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presence WHERE user_id = ?`, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStore) OnlineUsers(ctx context.Context, since string) ([]OnlineUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, name, last_seen FROM presence
		WHERE last_seen >= ? ORDER BY name
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []OnlineUser
	for rows.Next() {
		var u OnlineUser
		if err := rows.Scan(&u.UserID, &u.Name, &u.LastSeen); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- admin accounts and sessions ---

func (s *SQLiteStore) CreateAdmin(ctx context.Context, id, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash) VALUES (?, ?, ?)
	`, id, email, passwordHash)
	return err
}

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return id, hash, err
}

func (s *SQLiteStore) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (admin_id) VALUES (?) RETURNING id
	`, adminID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

var _ Store = (*SQLiteStore)(nil)

// gridFromCard converts the stored slice into the fixed-size grid the rules
// package works with.
func gridFromCard(c Card) [25]int {
	var grid [25]int
	copy(grid[:], c.Numbers)
	grid[bingo.FreeIndex] = bingo.FreeCell
	return grid
}
