package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/social-feed/internal/auth"
	"github.com/sakif/social-feed/internal/feedstore"
	"github.com/sakif/social-feed/internal/service"
	"github.com/sakif/social-feed/internal/session"
)

// app is everything one command invocation needs.
type app struct {
	store *feedstore.Store
	auth  *auth.Controller
	feed  *service.FeedService
	out   *OutputFormatter
}

// openApp opens storage, seeds and restores the session. Storage failures
// exit with ExitCommandError.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if dir := filepath.Dir(opts.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, WrapExitError(ExitCommandError, "creating database directory", err)
		}
	}

	store, err := feedstore.New(opts.DBPath, feedstore.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening feed", err)
	}

	cookies := session.New(session.NewFileJar(opts.CookieFile), session.WithTTL(opts.cfg.SessionTTL))
	controller := auth.NewController(store, cookies, logger)

	out.VerboseLog("database: %s", opts.DBPath)
	out.VerboseLog("cookies: %s", opts.CookieFile)

	if err := controller.Mount(cmd.Context()); err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "couldn't load the feed", err)
	}

	return &app{
		store: store,
		auth:  controller,
		feed:  service.NewFeedService(store, opts.cfg.DefaultAvatarURL, logger),
		out:   out,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) requireSignedIn() error {
	if !a.auth.SignedIn() {
		return NewExitError(ExitFailure, "sign in required")
	}
	return nil
}

// withApp opens the app, runs fn and closes it.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
