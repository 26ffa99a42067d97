package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/social-feed/internal/auth"
	"github.com/sakif/social-feed/internal/model"
)

// userView is the public shape of a user in command output.
type userView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
}

func newUserView(u *model.User) userView {
	return userView{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

type credentialOptions struct {
	*RootOptions
	Email    string
	Password string
	Confirm  string
}

func addCredentialFlags(cmd *cobra.Command, opts *credentialOptions) {
	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
}

// NewSignInCommand creates the signin command.
func NewSignInCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Example: `  feedctl signin --email demo@example.com --password password123
  feedctl signin --email test@user.com --password testpass`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
				user, err := a.auth.SignIn(ctx, opts.Email, opts.Password)
				if err != nil {
					return err
				}
				return a.out.Success(newUserView(user), fmt.Sprintf("Signed in as %s", user.Email))
			})
		},
	}
	addCredentialFlags(cmd, opts)
	return cmd
}

// NewSignUpCommand creates the signup command.
func NewSignUpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
				user, err := a.auth.SignUp(ctx, auth.SignUpInput{
					Email:           opts.Email,
					Password:        opts.Password,
					ConfirmPassword: opts.Confirm,
				})
				if err != nil {
					return err
				}
				return a.out.Success(newUserView(user), fmt.Sprintf("Welcome, %s", user.Email))
			})
		},
	}
	addCredentialFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Confirm, "confirm", "", "repeat the password")
	return cmd
}

// NewSignOutCommand creates the signout command.
func NewSignOutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				a.auth.SignOut()
				return a.out.Success(map[string]bool{"signedIn": false}, "Signed out")
			})
		},
	}
}

// NewWhoAmICommand creates the whoami command.
func NewWhoAmICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.requireSignedIn(); err != nil {
					return err
				}
				user := a.auth.User()
				return a.out.Success(newUserView(user), user.Email)
			})
		},
	}
}
