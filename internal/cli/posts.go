package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/social-feed/internal/model"
)

// interactions are the per-post verbs, one command each.
var interactions = []string{"like", "comment", "share"}

type postOptions struct {
	*RootOptions
	Emoji string
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &postOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "post <content...>",
		Short:   "Publish a post as the signed-in user",
		Example: `  feedctl post "Shipped the new feed today" --emoji 🎉`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
				if err := a.requireSignedIn(); err != nil {
					return err
				}
				post, err := a.feed.Publish(ctx, a.auth.User(), strings.Join(args, " "), opts.Emoji)
				if err != nil {
					return err
				}
				return a.out.Success(post, fmt.Sprintf("Posted %s", post.ID))
			})
		},
	}
	cmd.Flags().StringVar(&opts.Emoji, "emoji", "", "mood emoji (default 😊)")
	return cmd
}

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				posts, err := a.feed.List(ctx)
				if err != nil {
					return err
				}
				return a.out.Success(posts, renderFeed(posts))
			})
		},
	}
}

// NewInteractCommand creates one of the like, comment or share commands.
func NewInteractCommand(rootOpts *RootOptions, action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <post-id>",
		Short: fmt.Sprintf("Add a %s to a post", action),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.requireSignedIn(); err != nil {
					return err
				}
				post, err := a.feed.Interact(ctx, args[0], action)
				if err != nil {
					return err
				}
				return a.out.Success(post, renderCounters(post))
			})
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show post and user counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				stats, err := a.store.Stats(ctx)
				if err != nil {
					return err
				}
				return a.out.Success(stats, fmt.Sprintf("posts: %d\nusers: %d", stats.Posts, stats.Users))
			})
		},
	}
}

func renderFeed(posts []model.Post) string {
	if len(posts) == 0 {
		return "No posts yet."
	}
	var b strings.Builder
	for i, p := range posts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s  %s  (%s)\n", p.Emoji, p.Author,
			time.UnixMilli(p.Timestamp).Format(time.DateTime), p.ID)
		fmt.Fprintf(&b, "  %s\n", p.Content)
		fmt.Fprintf(&b, "  %s", renderCounters(&p))
	}
	return b.String()
}

func renderCounters(p *model.Post) string {
	return fmt.Sprintf("likes %d · comments %d · shares %d", p.Likes, p.Comments, p.Shares)
}
