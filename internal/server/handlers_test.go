package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/salabingo/bingohall/internal/bingo"
	"github.com/salabingo/bingohall/internal/database"
	"github.com/salabingo/bingohall/internal/migrations"
)

// setupRouter wires a full router against an in-memory database, mirroring
// what New does minus the listener.
func setupRouter(t *testing.T) (http.Handler, *SQLiteStore, *Coordinator) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Every pool connection to :memory: is its own database; keep one.
	db.SetMaxOpenConns(1)
	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewSQLiteStore(db)
	broker := NewBroker()
	co := NewCoordinator(store, broker, slog.Default())

	r := chi.NewRouter()
	addRoutes(r, slog.Default(), co, store, broker, db, time.Minute)
	return r, store, co
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// loginAdmin seeds an admin account and returns its session cookie.
func loginAdmin(t *testing.T, h http.Handler, store *SQLiteStore) *http.Cookie {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := store.CreateAdmin(context.Background(), uuid.NewString(), "admin@test.local", string(hash)); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/admin/login", AdminLoginRequest{
		Email:    "admin@test.local",
		Password: "hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body %s", rec.Code, rec.Body)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == adminCookieName {
			return c
		}
	}
	t.Fatal("login response did not set session cookie")
	return nil
}

func TestAdminAuth(t *testing.T) {
	h, store, _ := setupRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/api/admin/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me without session: status = %d, want 401", rec.Code)
	}

	cookie := loginAdmin(t, h, store)
	if !cookie.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/login", AdminLoginRequest{
		Email:    "admin@test.local",
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/admin/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d, body %s", rec.Code, rec.Body)
	}
	me := decodeBody[AdminMeResponse](t, rec)
	if me.Email != "admin@test.local" {
		t.Errorf("me email = %q", me.Email)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/admin/me", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: status = %d, want 401", rec.Code)
	}
}

func TestRoundLifecycleHTTP(t *testing.T) {
	h, store, _ := setupRouter(t)
	cookie := loginAdmin(t, h, store)

	rec := doJSON(t, h, http.MethodGet, "/api/rounds/active", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("active with no round: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/rounds", ScheduleRoundsRequest{Count: 3, Prize: "gift basket"}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("schedule: status = %d, body %s", rec.Code, rec.Body)
	}
	rounds := decodeBody[[]Round](t, rec)
	if len(rounds) != 3 {
		t.Fatalf("scheduled %d rounds, want 3", len(rounds))
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/rounds/start", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status = %d, body %s", rec.Code, rec.Body)
	}
	started := decodeBody[Round](t, rec)
	if started.Status != bingo.RoundActive {
		t.Errorf("started round status = %q", started.Status)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/rounds/start", nil, cookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("second start: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/rounds/"+started.ID+"/call", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("call: status = %d, body %s", rec.Code, rec.Body)
	}
	call := decodeBody[CallNumberResponse](t, rec)
	if call.Number < 1 || call.Number > bingo.MaxNumber {
		t.Errorf("called number %d out of range", call.Number)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/rounds/active", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("active: status = %d", rec.Code)
	}
	active := decodeBody[ActiveRoundResponse](t, rec)
	if active.Round.ID != started.ID {
		t.Errorf("active round = %s, want %s", active.Round.ID, started.ID)
	}
	if len(active.CalledNumbers) != 1 || active.CalledNumbers[0] != call.Number {
		t.Errorf("called numbers = %v, want [%d]", active.CalledNumbers, call.Number)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/rounds/reset", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/rounds/active", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("active after reset: status = %d, want 409", rec.Code)
	}
}

func TestSubmitClaimHTTP(t *testing.T) {
	h, store, co := setupRouter(t)
	ctx := context.Background()

	card := makeCard(t, store, "101")
	disabled := makeCard(t, store, "102")
	if err := store.DisableCard(ctx, disabled.Code); err != nil {
		t.Fatalf("disable card: %v", err)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/claims", ClaimRequest{UserID: "u1"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/claims", ClaimRequest{UserID: "u1", CardCode: card.Code, RoundID: "r"})
	if rec.Code != http.StatusConflict {
		t.Errorf("no active round: status = %d, want 409", rec.Code)
	}

	// Disabled wins over the round check.
	rec = doJSON(t, h, http.MethodPost, "/api/claims", ClaimRequest{UserID: "u1", CardCode: disabled.Code, RoundID: "r"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("disabled card: status = %d, want 403", rec.Code)
	}

	round := scheduleAndStart(t, co, store)

	rec = doJSON(t, h, http.MethodPost, "/api/claims", ClaimRequest{UserID: "u1", CardCode: "999", RoundID: round.ID})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown card: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/claims", ClaimRequest{UserID: "u1", CardCode: card.Code, RoundID: round.ID})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete card: status = %d, want 400", rec.Code)
	}

	coverCard(t, store, round.ID, card)

	rec = doJSON(t, h, http.MethodPost, "/api/claims", ClaimRequest{UserID: "u1", CardCode: card.Code, RoundID: round.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid claim: status = %d, body %s", rec.Code, rec.Body)
	}
	claim := decodeBody[Claim](t, rec)
	if claim.Status != bingo.ClaimPending {
		t.Errorf("claim status = %q, want pending", claim.Status)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/claims", ClaimRequest{UserID: "u2", CardCode: card.Code, RoundID: round.ID})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate claim: status = %d, want 409", rec.Code)
	}
}

func TestClaimDecisionHTTP(t *testing.T) {
	h, store, co := setupRouter(t)
	cookie := loginAdmin(t, h, store)

	round := scheduleAndStart(t, co, store)
	card := makeCard(t, store, "201")
	coverCard(t, store, round.ID, card)

	rec := doJSON(t, h, http.MethodPost, "/api/claims", ClaimRequest{UserID: "u1", CardCode: card.Code, RoundID: round.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: status = %d", rec.Code)
	}
	claim := decodeBody[Claim](t, rec)

	rec = doJSON(t, h, http.MethodGet, "/api/admin/claims?status=pending", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("list claims: status = %d", rec.Code)
	}
	if pending := decodeBody[[]Claim](t, rec); len(pending) != 1 {
		t.Errorf("pending claims = %d, want 1", len(pending))
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/claims/"+claim.ID+"/approve", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status = %d, body %s", rec.Code, rec.Body)
	}
	approved := decodeBody[ApproveClaimResponse](t, rec)
	if approved.Winner.CardCode != card.Code {
		t.Errorf("winner card = %q, want %q", approved.Winner.CardCode, card.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/claims/"+claim.ID+"/approve", nil, cookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("second approve: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/claims/"+claim.ID+"/reject", nil, cookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("reject after approve: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/winners?roundId="+round.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("winners: status = %d", rec.Code)
	}
	if winners := decodeBody[[]Winner](t, rec); len(winners) != 1 {
		t.Errorf("winners = %d, want 1", len(winners))
	}
}

func TestGenerateCardsHTTP(t *testing.T) {
	h, store, _ := setupRouter(t)
	cookie := loginAdmin(t, h, store)

	rec := doJSON(t, h, http.MethodPost, "/api/admin/cards/generate", GenerateCardsRequest{Count: 5}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: status = %d, body %s", rec.Code, rec.Body)
	}
	cards := decodeBody[[]Card](t, rec)
	if len(cards) != 5 {
		t.Fatalf("generated %d cards, want 5", len(cards))
	}

	seen := make(map[string]bool)
	for _, c := range cards {
		if len(c.Code) != 3 {
			t.Errorf("code %q is not 3 digits", c.Code)
		}
		if seen[c.Code] {
			t.Errorf("duplicate code %q", c.Code)
		}
		seen[c.Code] = true
	}

	rec = doJSON(t, h, http.MethodGet, "/api/cards/"+cards[0].Code, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get card: status = %d", rec.Code)
	}
	got := decodeBody[Card](t, rec)
	if len(got.Numbers) != 25 {
		t.Errorf("card grid has %d cells, want 25", len(got.Numbers))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/cards/zzz", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown card: status = %d, want 404", rec.Code)
	}
}

func TestPresenceHTTP(t *testing.T) {
	h, _, _ := setupRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/users", RegisterUserRequest{Name: "Maria"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body %s", rec.Code, rec.Body)
	}
	user := decodeBody[RegisterUserResponse](t, rec)
	if user.UserID == "" {
		t.Fatal("register returned empty userId")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/users", RegisterUserRequest{Name: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank name: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/presence/heartbeat", HeartbeatRequest{UserID: user.UserID, Name: user.Name})
	if rec.Code != http.StatusOK {
		t.Fatalf("heartbeat: status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/presence", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("presence: status = %d", rec.Code)
	}
	presence := decodeBody[PresenceResponse](t, rec)
	if presence.Count != 1 {
		t.Fatalf("online count = %d, want 1", presence.Count)
	}
	if presence.Users[0].UserID != user.UserID {
		t.Errorf("online user = %q, want %q", presence.Users[0].UserID, user.UserID)
	}

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/presence/%s", user.UserID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/presence", nil)
	presence = decodeBody[PresenceResponse](t, rec)
	if presence.Count != 0 {
		t.Errorf("online count after logout = %d, want 0", presence.Count)
	}
}
