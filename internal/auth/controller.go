// Package auth tracks who is signed in.
//
// A Controller is the state machine behind sign-in, sign-up and sign-out. It
// leans on the feed store for credentials and on session.Cookies to remember
// the signed-in user between page loads (HTTP) or invocations (CLI).
//
//	Uninitialized ──Mount/Restore──→ Loading ──→ SignedOut ⇄ SignedIn
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/session"
)

// MinPasswordLength applies to new accounts only.
const MinPasswordLength = 6

// State is where a Controller is in its lifecycle.
type State int

const (
	Uninitialized State = iota
	Loading
	SignedOut
	SignedIn
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case SignedOut:
		return "signed_out"
	case SignedIn:
		return "signed_in"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store is the slice of the feed store the controller needs.
type Store interface {
	Initialize(ctx context.Context) error
	SeedDefaults(ctx context.Context) error
	RegisterUser(ctx context.Context, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, bool, error)
	ResolveSession(ctx context.Context, userID string) (*model.User, bool, error)
}

// SignUpInput is a new account request. ConfirmPassword is checked only when
// set.
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Controller holds the current user. Safe for concurrent use.
type Controller struct {
	store   Store
	cookies *session.Cookies
	logger  *slog.Logger

	mu    sync.RWMutex
	state State
	user  *model.User
}

// NewController returns a controller in the Uninitialized state.
func NewController(store Store, cookies *session.Cookies, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		store:   store,
		cookies: cookies,
		logger:  logger,
	}
}

// Mount prepares storage, seeds the demo accounts and restores any session.
// On a storage failure the controller ends up SignedOut and the error is
// returned so the caller can report it.
func (c *Controller) Mount(ctx context.Context) error {
	c.set(Loading, nil)

	if err := c.store.Initialize(ctx); err != nil {
		c.set(SignedOut, nil)
		return fmt.Errorf("auth: mount: %w", err)
	}
	if err := c.store.SeedDefaults(ctx); err != nil {
		c.set(SignedOut, nil)
		return fmt.Errorf("auth: mount: %w", err)
	}
	return c.Restore(ctx)
}

// Restore resolves the cookie's user. A cookie pointing at an account that no
// longer exists is cleared.
func (c *Controller) Restore(ctx context.Context) error {
	c.set(Loading, nil)

	userID, ok := c.cookies.Get()
	if !ok {
		c.set(SignedOut, nil)
		return nil
	}

	user, found, err := c.store.ResolveSession(ctx, userID)
	if err != nil {
		c.set(SignedOut, nil)
		return fmt.Errorf("auth: restoring session: %w", err)
	}
	if !found {
		c.logger.Info("stale session cleared", slog.String("userID", userID))
		c.clearCookie()
		c.set(SignedOut, nil)
		return nil
	}

	c.set(SignedIn, user)
	return nil
}

// SignIn checks the credentials and, on success, remembers the user.
// Wrong password and unknown email both return apperror.ErrInvalidCredentials.
func (c *Controller) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	user, ok, err := c.store.Authenticate(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("auth: sign in: %w", err)
	}
	if !ok {
		c.logger.Info("sign in rejected")
		return nil, apperror.InvalidCredentials()
	}

	if err := c.cookies.Set(user.ID); err != nil {
		return nil, fmt.Errorf("auth: sign in: %w", err)
	}
	c.set(SignedIn, user)

	c.logger.Info("signed in", slog.String("userID", user.ID))
	return user, nil
}

// SignUp creates an account and signs it in. An email already in use fails
// with apperror.ErrDuplicateEmail and the state is unchanged.
func (c *Controller) SignUp(ctx context.Context, in SignUpInput) (*model.User, error) {
	if in.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return nil, apperror.ValidationFailed("confirmPassword", "Passwords do not match")
	}

	user, err := c.store.RegisterUser(ctx, in.Email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: sign up: %w", err)
	}

	if err := c.cookies.Set(user.ID); err != nil {
		return nil, fmt.Errorf("auth: sign up: %w", err)
	}
	c.set(SignedIn, user)

	c.logger.Info("signed up", slog.String("userID", user.ID))
	return user, nil
}

// SignOut forgets the current user. It always succeeds; a cookie that cannot
// be cleared is logged.
func (c *Controller) SignOut() {
	c.clearCookie()
	c.set(SignedOut, nil)
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// User returns a copy of the signed-in user, or nil.
func (c *Controller) User() *model.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Controller) SignedIn() bool {
	return c.State() == SignedIn
}

func (c *Controller) set(state State, user *model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.user = user
}

func (c *Controller) clearCookie() {
	if err := c.cookies.Clear(); err != nil {
		c.logger.Warn("failed to clear session cookie", slog.String("error", err.Error()))
	}
}
