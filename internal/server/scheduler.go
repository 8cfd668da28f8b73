package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/salabingo/bingohall/internal/bingo"
)

// Scheduler watches the round schedule and broadcasts round_due once a
// pending round's scheduled time arrives, so connected admins get a nudge
// to start it. It never starts rounds itself.
type Scheduler struct {
	store  Store
	broker *Broker
	logger *slog.Logger
	clock  clockwork.Clock
	tick   time.Duration
}

func NewScheduler(store Store, broker *Broker, logger *slog.Logger, clock clockwork.Clock, tick time.Duration) *Scheduler {
	return &Scheduler{
		store:  store,
		broker: broker,
		logger: logger,
		clock:  clock,
		tick:   tick,
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	now := s.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	due, err := s.store.DueRounds(ctx, now)
	if err != nil {
		s.logger.Error("listing due rounds", "error", err)
		return
	}

	for _, round := range due {
		if err := s.store.MarkRoundNotified(ctx, round.ID); err != nil {
			s.logger.Error("marking round notified", "round_id", round.ID, "error", err)
			continue
		}
		s.logger.Info("scheduled round due", "round_id", round.ID, "ordinal", round.Ordinal)
		s.broker.Publish(Event{Type: bingo.EventRoundDue, RoundID: round.ID})
	}
}
