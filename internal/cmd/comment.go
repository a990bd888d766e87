package cmd

import (
	"context"
	"strings"

	"github.com/codestack/cli/internal/app"
	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/guard"
	"github.com/codestack/cli/pkg/service"
	"github.com/spf13/cobra"
)

var reportFeedback string

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment commands",
	Long:  "View the comments on your posts and report abusive ones",
}

var commentListCmd = &cobra.Command{
	Use:   "list <post-id>",
	Short: "List the comments on one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return open(cmd, "/dashboard/post-commented/"+args[0], service.ListOptions{})
	},
}

var commentReportCmd = &cobra.Command{
	Use:   "report <comment-id>",
	Short: "Report a comment to the moderators",
	Long:  "Report a comment. --feedback must be one of: " + strings.Join(api.ReportFeedback, ", "),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := authorize(ctx, a, guard.RequireUser); err != nil {
				return err
			}
			return a.Views.ReportComment(ctx, args[0], reportFeedback)
		})
	},
}

func init() {
	commentReportCmd.Flags().StringVar(&reportFeedback, "feedback", "", "Why the comment is reported")

	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentReportCmd)
}
