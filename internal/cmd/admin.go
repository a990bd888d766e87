package cmd

import (
	"context"

	"github.com/codestack/cli/internal/app"
	"github.com/codestack/cli/pkg/guard"
	"github.com/codestack/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	usersList        listFlags
	announcementForm service.AnnouncementForm
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin commands (requires admin role)",
	Long:  "Site statistics, tags, users, announcements and moderation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return open(cmd, "/dashboard/admin-profile", service.ListOptions{})
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List and search users",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := usersList.options()
		if err != nil {
			return err
		}
		return open(cmd, "/dashboard/manage-users", list)
	},
}

var adminToggleCmd = &cobra.Command{
	Use:   "toggle <user-id>",
	Short: "Grant or revoke admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return asAdmin(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.ToggleAdmin(ctx, args[0])
		})
	},
}

var adminTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Tag commands",
}

var adminTagAddCmd = &cobra.Command{
	Use:   "add <tag>",
	Short: "Add a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return asAdmin(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.AddTag(ctx, args[0])
		})
	},
}

var adminAnnounceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Publish an announcement",
	Long:  "Publish an announcement with an author image. Without --title the form is shown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if announcementForm.Title == "" {
			interactive = true
			return open(cmd, "/dashboard/make-announcement", service.ListOptions{})
		}
		return asAdmin(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.CreateAnnouncement(ctx, announcementForm)
		})
	},
}

var adminReportedCmd = &cobra.Command{
	Use:   "reported",
	Short: "List reported comments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return open(cmd, "/dashboard/reported-comments", service.ListOptions{})
	},
}

var adminReportedDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete a reported comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return asAdmin(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.DeleteReported(ctx, args[0])
		})
	},
}

var adminReportedDismissCmd = &cobra.Command{
	Use:   "dismiss <comment-id>",
	Short: "Dismiss a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return asAdmin(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.DismissReport(ctx, args[0])
		})
	},
}

// asAdmin runs fn only for a signed-in admin.
func asAdmin(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := authorize(ctx, a, guard.RequireAdmin); err != nil {
			return err
		}
		return fn(ctx, a)
	})
}

func init() {
	usersList.register(adminUsersCmd, false, true)

	adminAnnounceCmd.Flags().StringVar(&announcementForm.Title, "title", "", "Announcement title")
	adminAnnounceCmd.Flags().StringVar(&announcementForm.Description, "description", "", "Announcement text")
	adminAnnounceCmd.Flags().StringVar(&announcementForm.ImagePath, "image", "", "Author image file")

	adminTagsCmd.AddCommand(adminTagAddCmd)
	adminReportedCmd.AddCommand(adminReportedDeleteCmd)
	adminReportedCmd.AddCommand(adminReportedDismissCmd)

	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminToggleCmd)
	adminCmd.AddCommand(adminTagsCmd)
	adminCmd.AddCommand(adminAnnounceCmd)
	adminCmd.AddCommand(adminReportedCmd)
}
