package cmd

import (
	"context"

	"github.com/codestack/cli/internal/app"
	"github.com/codestack/cli/pkg/guard"
	"github.com/codestack/cli/pkg/payment"
	"github.com/codestack/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	cardNumber string
	cardExpiry string
	cardCVC    string
)

var membershipCmd = &cobra.Command{
	Use:   "membership",
	Short: "Gold membership",
	Long:  "See the membership offer. Gold members have no post limit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return open(cmd, "/membership", service.ListOptions{})
	},
}

var membershipPayCmd = &cobra.Command{
	Use:   "pay",
	Short: "Pay for gold membership",
	Long:  "Pay the membership fee by card. Without --card the payment form is shown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cardNumber == "" {
			interactive = true
			return open(cmd, "/membership", service.ListOptions{})
		}
		month, year, err := service.ParseExpiry(cardExpiry)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := authorize(ctx, a, guard.RequireAuth); err != nil {
				return err
			}
			return a.Views.Pay(ctx, payment.Card{
				Number:   cardNumber,
				ExpMonth: month,
				ExpYear:  year,
				CVC:      cardCVC,
			})
		})
	},
}

func init() {
	membershipPayCmd.Flags().StringVar(&cardNumber, "card", "", "Card number")
	membershipPayCmd.Flags().StringVar(&cardExpiry, "exp", "", "Expiry as MM/YY")
	membershipPayCmd.Flags().StringVar(&cardCVC, "cvc", "", "Card security code")

	membershipCmd.AddCommand(membershipPayCmd)
}
