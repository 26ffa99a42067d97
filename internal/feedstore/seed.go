package feedstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/social-feed/internal/apperror"
)

// Credentials is an email/password pair provisioned by SeedDefaults.
type Credentials struct {
	Email    string
	Password string
}

// DefaultSeedUsers are the demo accounts every fresh environment gets.
func DefaultSeedUsers() []Credentials {
	return []Credentials{
		{Email: "demo@example.com", Password: "password123"},
		{Email: "test@user.com", Password: "testpass"},
	}
}

// SeedDefaults makes sure every seed account exists. Accounts already present
// are skipped quietly; that is the steady state on every start after the
// first. Any other failure is returned.
func (s *Store) SeedDefaults(ctx context.Context) error {
	for _, c := range s.seeds {
		_, err := s.RegisterUser(ctx, c.Email, c.Password)
		switch {
		case err == nil:
			s.logger.Info("seeded demo account", slog.String("email", c.Email))
		case errors.Is(err, apperror.ErrDuplicateEmail):
			s.logger.Debug("demo account already present", slog.String("email", c.Email))
		default:
			return fmt.Errorf("feedstore: seeding defaults: %w", err)
		}
	}
	return nil
}
