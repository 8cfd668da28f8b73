package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "BingoHall API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Server-authoritative coordination API for live bingo rounds: number calling, claims, winner ledger.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("Event stream")
	getEvents.SetDescription("Upgrades to a WebSocket delivering round, number, claim, winner and presence events. Clients re-pull round state after reconnecting.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getEvents)

	// GET /api/rounds/active
	getActive, _ := r.NewOperationContext(http.MethodGet, "/api/rounds/active")
	getActive.SetSummary("Active round")
	getActive.SetDescription("Returns the active round and its called numbers in one pull, for reconnect resynchronization.")
	getActive.AddRespStructure(ActiveRoundResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getActive.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getActive)

	// GET /api/rounds/{roundID}/numbers
	getNumbers, _ := r.NewOperationContext(http.MethodGet, "/api/rounds/{roundID}/numbers")
	getNumbers.SetSummary("Called numbers")
	getNumbers.SetDescription("Returns the ordered called-number sequence for a round.")
	getNumbers.AddRespStructure(CalledNumbersResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getNumbers)

	// GET /api/cards
	listCards, _ := r.NewOperationContext(http.MethodGet, "/api/cards")
	listCards.SetSummary("List cards")
	listCards.SetDescription("Lists public inventory, or a user's cards when ownerId is given.")
	listCards.AddRespStructure([]Card{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listCards)

	// GET /api/cards/{code}
	getCard, _ := r.NewOperationContext(http.MethodGet, "/api/cards/{code}")
	getCard.SetSummary("Get card")
	getCard.AddRespStructure(Card{}, openapi.WithHTTPStatus(http.StatusOK))
	getCard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getCard)

	// POST /api/claims
	postClaim, _ := r.NewOperationContext(http.MethodPost, "/api/claims")
	postClaim.SetSummary("Submit claim")
	postClaim.SetDescription("Claims bingo for a card in the active round. Fails with 403 for a disabled card, 400 for an incomplete card, 409 for a duplicate claim or inactive round.")
	postClaim.AddReqStructure(ClaimRequest{})
	postClaim.AddRespStructure(Claim{}, openapi.WithHTTPStatus(http.StatusCreated))
	postClaim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postClaim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postClaim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postClaim)

	// GET /api/winners
	listWinners, _ := r.NewOperationContext(http.MethodGet, "/api/winners")
	listWinners.SetSummary("List winners")
	listWinners.SetDescription("Returns approved winner records, optionally filtered by roundId.")
	listWinners.AddRespStructure([]Winner{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listWinners)

	// POST /api/users
	postUser, _ := r.NewOperationContext(http.MethodPost, "/api/users")
	postUser.SetSummary("Register user")
	postUser.AddReqStructure(RegisterUserRequest{})
	postUser.AddRespStructure(RegisterUserResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postUser.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postUser)

	// POST /api/presence/heartbeat
	postHeartbeat, _ := r.NewOperationContext(http.MethodPost, "/api/presence/heartbeat")
	postHeartbeat.SetSummary("Presence heartbeat")
	postHeartbeat.SetDescription("Marks a user online. The first heartbeat broadcasts user_joined.")
	postHeartbeat.AddReqStructure(HeartbeatRequest{})
	postHeartbeat.AddRespStructure(map[string]bool{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postHeartbeat)

	// GET /api/presence
	getPresence, _ := r.NewOperationContext(http.MethodGet, "/api/presence")
	getPresence.SetSummary("Online users")
	getPresence.AddRespStructure(PresenceResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getPresence)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/rounds
	postRounds, _ := r.NewOperationContext(http.MethodPost, "/api/admin/rounds")
	postRounds.SetSummary("Schedule rounds")
	postRounds.SetDescription("Creates a batch of pending rounds, optionally spaced from a start time.")
	postRounds.AddReqStructure(ScheduleRoundsRequest{})
	postRounds.AddRespStructure([]Round{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRounds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postRounds)

	// POST /api/admin/rounds/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/admin/rounds/start")
	postStart.SetSummary("Start next round")
	postStart.SetDescription("Activates the earliest pending round. 409 when a round is already active or none are scheduled.")
	postStart.AddRespStructure(Round{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/admin/rounds/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/admin/rounds/reset")
	postReset.SetSummary("Reset game")
	postReset.SetDescription("Finalizes all rounds and clears session state. Winner history and disabled cards survive unless wipe=true.")
	postReset.AddRespStructure(map[string]bool{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postReset)

	// POST /api/admin/rounds/{roundID}/call
	postCall, _ := r.NewOperationContext(http.MethodPost, "/api/admin/rounds/{roundID}/call")
	postCall.SetSummary("Call next number")
	postCall.SetDescription("Draws one uncalled number for the active round. 409 when the round is not active or all 75 numbers are called.")
	postCall.AddRespStructure(CallNumberResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCall.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postCall)

	// POST /api/admin/claims/{claimID}/approve
	postApprove, _ := r.NewOperationContext(http.MethodPost, "/api/admin/claims/{claimID}/approve")
	postApprove.SetSummary("Approve claim")
	postApprove.SetDescription("Re-validates completeness, records the winner and permanently disables the card.")
	postApprove.AddRespStructure(ApproveClaimResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postApprove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postApprove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postApprove)

	// POST /api/admin/claims/{claimID}/reject
	postReject, _ := r.NewOperationContext(http.MethodPost, "/api/admin/claims/{claimID}/reject")
	postReject.SetSummary("Reject claim")
	postReject.SetDescription("Rejects a pending claim. The card may claim again.")
	postReject.AddRespStructure(map[string]bool{}, openapi.WithHTTPStatus(http.StatusOK))
	postReject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postReject.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postReject)

	// POST /api/admin/cards/generate
	postGenerate, _ := r.NewOperationContext(http.MethodPost, "/api/admin/cards/generate")
	postGenerate.SetSummary("Generate cards")
	postGenerate.SetDescription("Mints public cards with unique 3-digit codes.")
	postGenerate.AddReqStructure(GenerateCardsRequest{})
	postGenerate.AddRespStructure([]Card{}, openapi.WithHTTPStatus(http.StatusCreated))
	_ = r.AddOperation(postGenerate)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}
