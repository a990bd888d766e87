package cmd

import (
	"context"

	"github.com/codestack/cli/internal/app"
	"github.com/codestack/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string

	registerName  string
	registerEmail string
	registerPhoto string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Sign in to CodeStack, create an account, or sign out",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to CodeStack",
	Long:  "Sign in with email and password. Without --email the login form is shown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if loginEmail == "" {
				return a.Views.Login(ctx, service.Request{Path: "/login", Interactive: true})
			}
			password := loginPassword
			if password == "" {
				var err error
				if password, err = a.Views.Prompt.Password("Password: "); err != nil {
					return err
				}
			}
			return a.Views.LoginWith(ctx, loginEmail, password)
		})
	},
}

var googleLoginCmd = &cobra.Command{
	Use:   "google",
	Short: "Login with Google in your browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.LoginWithGoogle(ctx)
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new CodeStack account",
	Long:  "Register with name, email, profile picture and password. Missing fields are prompted for.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if registerName == "" || registerEmail == "" || registerPhoto == "" {
				return a.Views.Register(ctx, service.Request{Path: "/register", Interactive: true})
			}
			password, err := a.Views.Prompt.Password("Password: ")
			if err != nil {
				return err
			}
			return a.Views.RegisterWith(ctx, service.RegisterForm{
				Name:      registerName,
				Email:     registerEmail,
				Password:  password,
				PhotoPath: registerPhoto,
			})
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from CodeStack",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Views.Logout(ctx)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in user and role",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			role := ""
			if id := a.Session.Current(); id != nil {
				role = a.Roles.Resolve(ctx, id)
			}
			return a.Views.Status(ctx, role)
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")

	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerPhoto, "photo", "", "Profile picture file")

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(googleLoginCmd)
}
