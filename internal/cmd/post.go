package cmd

import (
	"context"
	"strings"

	"github.com/codestack/cli/internal/app"
	"github.com/codestack/cli/pkg/api"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/guard"
	"github.com/codestack/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	postForm    service.PostForm
	myPostsList listFlags
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post management commands",
	Long:  "View, create, vote on and comment on posts",
}

var postViewCmd = &cobra.Command{
	Use:   "view <post-id>",
	Short: "View a post and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return open(cmd, "/post-details/"+args[0], service.ListOptions{})
	},
}

var postCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new post",
	Long: `Create a post with an uploaded image. Bronze members can write five
posts; without --title the add-post form is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if postForm.Title == "" {
			interactive = true
			return open(cmd, "/dashboard/add-post", service.ListOptions{})
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := authorize(ctx, a, guard.RequireUser); err != nil {
				return err
			}
			return a.Views.CreatePost(ctx, postForm)
		})
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := authorize(ctx, a, guard.RequireUser); err != nil {
				return err
			}
			return a.Views.DeletePost(ctx, args[0])
		})
	},
}

var postVoteCmd = &cobra.Command{
	Use:       "vote <post-id> <up|down>",
	Short:     "Upvote or downvote a post",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var voteType string
		switch strings.ToLower(args[1]) {
		case "up", api.VoteUp:
			voteType = api.VoteUp
		case "down", api.VoteDown:
			voteType = api.VoteDown
		default:
			return clierrors.ValidationError("vote", "must be up or down")
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.Vote(ctx, args[0], voteType)
		})
	},
}

var postCommentCmd = &cobra.Command{
	Use:   "comment <post-id> <text>",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.AddComment(ctx, args[0], strings.Join(args[1:], " "))
		})
	},
}

var postMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := myPostsList.options()
		if err != nil {
			return err
		}
		return open(cmd, "/dashboard/my-posts", list)
	},
}

func init() {
	postCreateCmd.Flags().StringVar(&postForm.Title, "title", "", "Post title")
	postCreateCmd.Flags().StringVar(&postForm.Description, "description", "", "Post body")
	postCreateCmd.Flags().StringVar(&postForm.Tag, "tag", "", "Post tag")
	postCreateCmd.Flags().StringVar(&postForm.ImagePath, "image", "", "Image file to upload")

	myPostsList.register(postMineCmd, false, false)

	postCmd.AddCommand(postViewCmd)
	postCmd.AddCommand(postCreateCmd)
	postCmd.AddCommand(postDeleteCmd)
	postCmd.AddCommand(postVoteCmd)
	postCmd.AddCommand(postCommentCmd)
	postCmd.AddCommand(postMineCmd)
}
