package feedstore

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
)

// RegisterUser creates an account. An email that is already registered fails
// with apperror.ErrDuplicateEmail and leaves the existing account untouched.
//
// The password is stored as supplied. See DESIGN.md.
func (s *Store) RegisterUser(ctx context.Context, email, password string) (*model.User, error) {
	id, now := s.ids.Next()
	user := model.User{
		ID:        id,
		Email:     email,
		Password:  password,
		CreatedAt: now,
	}

	if err := s.users.Add(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperror.ErrDuplicateKey) && appErr.Field == EmailIndex {
			return nil, apperror.DuplicateEmail(email)
		}
		return nil, fmt.Errorf("feedstore: registering user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return &user, nil
}

// Authenticate returns the user whose email and password both match exactly.
// A wrong password and an unknown email look the same to the caller:
// found is false and err is nil. err is reserved for storage failures.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*model.User, bool, error) {
	user, found, err := s.users.GetByIndex(ctx, EmailIndex, email)
	if err != nil {
		return nil, false, fmt.Errorf("feedstore: authenticating: %w", err)
	}
	if !found || subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return nil, false, nil
	}
	return &user, true, nil
}

// ResolveSession looks up the user a session pointer refers to.
func (s *Store) ResolveSession(ctx context.Context, userID string) (*model.User, bool, error) {
	user, found, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("feedstore: resolving session: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return &user, true, nil
}
