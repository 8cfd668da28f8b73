package server

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, co *Coordinator, store Store, broker *Broker, db *sql.DB, presenceTTL time.Duration) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("BingoHall API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Player routes: submit-only surface plus pull-based refresh endpoints
	// clients use to resynchronize after a reconnect.
	r.Route("/api", func(r chi.Router) {
		r.Get("/events", handleEvents(logger, broker))

		r.Get("/rounds/active", handleActiveRound(store))
		r.Get("/rounds/{roundID}/numbers", handleCalledNumbers(store))

		r.Get("/cards", handleListCards(store))
		r.Get("/cards/{code}", handleGetCard(store))

		r.Post("/claims", handleSubmitClaim(co))
		r.Get("/winners", handleListWinners(store))

		r.Post("/users", handleRegisterUser(store))
		r.Post("/presence/heartbeat", handleHeartbeat(store, broker))
		r.Delete("/presence/{userID}", handleLogout(store, broker))
		r.Get("/presence", handleListPresence(store, presenceTTL))
	})

	// Admin: auth, round lifecycle, number calling, claim decisions, card
	// inventory.
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", handleAdminLogin(store))
		r.Post("/logout", handleAdminLogout(store))

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(store))

			r.Get("/me", handleAdminMe())

			r.Get("/rounds", handleListRounds(store))
			r.Post("/rounds", handleScheduleRounds(store))
			r.Post("/rounds/start", handleStartRound(co))
			r.Post("/rounds/reset", handleResetGame(co))
			r.Post("/rounds/{roundID}/call", handleCallNumber(co))

			r.Get("/claims", handleListClaims(store))
			r.Post("/claims/{claimID}/approve", handleApproveClaim(co))
			r.Post("/claims/{claimID}/reject", handleRejectClaim(co))

			r.Post("/cards/generate", handleGenerateCards(store))
			r.Post("/cards/{code}/assign", handleAssignCard(store))
		})
	})
}
