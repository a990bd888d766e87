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

var profileUpdate api.ProfileUpdate

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Your dashboard",
	Long:  "Your profile, post allowance and posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return open(cmd, "/dashboard/user-profile", service.ListOptions{})
	},
}

var dashboardAddPostCmd = &cobra.Command{
	Use:   "add-post",
	Short: "Show your post allowance and the add-post form",
	RunE: func(cmd *cobra.Command, args []string) error {
		return open(cmd, "/dashboard/add-post", service.ListOptions{})
	},
}

var dashboardAboutCmd = &cobra.Command{
	Use:   "about <text>",
	Short: "Update your About Me",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := authorize(ctx, a, guard.RequireUser); err != nil {
				return err
			}
			return a.Views.UpdateAboutMe(ctx, strings.Join(args, " "))
		})
	},
}

var dashboardUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update your name, phone or address",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := authorize(ctx, a, guard.RequireUser); err != nil {
				return err
			}
			return a.Views.UpdateProfile(ctx, profileUpdate)
		})
	},
}

func init() {
	dashboardUpdateCmd.Flags().StringVar(&profileUpdate.Name, "name", "", "Display name")
	dashboardUpdateCmd.Flags().StringVar(&profileUpdate.Phone, "phone", "", "Phone number")
	dashboardUpdateCmd.Flags().StringVar(&profileUpdate.Address, "address", "", "Address")

	dashboardCmd.AddCommand(dashboardAddPostCmd)
	dashboardCmd.AddCommand(dashboardAboutCmd)
	dashboardCmd.AddCommand(dashboardUpdateCmd)
}
