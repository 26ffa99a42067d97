// Package cli implements feedctl, a terminal client for the feed store.
//
// Each invocation opens the database, restores the session from a cookie
// file and runs one command. The cookie file plays the part of a browser's
// cookie jar, so "feedctl signin" followed by "feedctl post" works the way a
// page reload would.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sakif/social-feed/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DBPath     string
	CookieFile string
	ConfigFile string

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the feedctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "feedctl",
		Short:         "feedctl - a social feed in your terminal",
		Long:          "Post, browse and react to a local social feed. Sessions persist in a cookie file between runs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			opts.cfg = cfg
			if opts.DBPath == "" {
				opts.DBPath = cfg.DBPath
			}
			if opts.CookieFile == "" {
				opts.CookieFile = cfg.CookieFile
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the feed database (default from config)")
	cmd.PersistentFlags().StringVar(&opts.CookieFile, "cookies", "", "path to the session cookie file (default from config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./config.yaml if present)")

	cmd.AddCommand(NewSignInCommand(opts))
	cmd.AddCommand(NewSignUpCommand(opts))
	cmd.AddCommand(NewSignOutCommand(opts))
	cmd.AddCommand(NewWhoAmICommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewFeedCommand(opts))
	for _, action := range interactions {
		cmd.AddCommand(NewInteractCommand(opts, action))
	}
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

// Execute runs feedctl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		out := &OutputFormatter{Format: formatFlag(cmd), Writer: stdout, ErrWriter: stderr, Verbose: verboseFlag(cmd)}
		out.Error(err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

func formatFlag(cmd *cobra.Command) string {
	if f, err := cmd.PersistentFlags().GetString("format"); err == nil && f == "json" {
		return f
	}
	return "text"
}

func verboseFlag(cmd *cobra.Command) bool {
	v, _ := cmd.PersistentFlags().GetBool("verbose")
	return v
}
