package server

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Seed creates the initial admin account and a starter card inventory.
// Idempotent: does nothing once an admin exists. The admin password comes
// from config; with an empty password no account is created and every admin
// route stays locked.
func Seed(ctx context.Context, logger *slog.Logger, store Store, adminEmail, adminPassword string) error {
	count, err := store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if adminPassword == "" {
		logger.Warn("no admin password configured, skipping admin seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := store.CreateAdmin(ctx, uuid.NewString(), adminEmail, string(hash)); err != nil {
		return err
	}

	cards, err := store.CountCards(ctx)
	if err != nil {
		return err
	}
	if cards == 0 {
		if _, err := generateCards(ctx, store, 20); err != nil {
			return err
		}
	}

	logger.Info("seeded admin account and starter cards", "email", adminEmail)
	return nil
}
