package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/codestack/cli/pkg/api"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/payment"
	"github.com/codestack/cli/pkg/query"
)

// ProfilePath is where a successful payment leads.
const ProfilePath = "/dashboard/user-profile"

// Membership shows the price and, when interactive, takes the payment.
func (v *Views) Membership(ctx context.Context, req Request) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}

	v.Out.Heading(fmt.Sprintf("Membership Payment - $%d", v.Checkout.Amount()))
	if u, err := v.profile(ctx, id.Email); err == nil && u.BadgeOrDefault() == api.BadgeGold {
		v.Out.Line("You are already a gold member.")
		return nil
	}
	v.Out.Line("Gold members can add more than %d posts.", api.BronzePostLimit)

	if !req.Interactive {
		v.Out.Line("Run 'codestack membership pay' or 'codestack open --interactive %s' to pay.", MembershipPath)
		return nil
	}

	card, err := v.promptCard()
	if err != nil {
		return v.invalid(err)
	}
	if err := v.Pay(ctx, card); err != nil {
		return err
	}
	return &Redirect{To: ProfilePath}
}

func (v *Views) promptCard() (payment.Card, error) {
	var c payment.Card
	var err error
	if c.Number, err = v.Prompt.String("Card number: "); err != nil {
		return c, err
	}
	exp, err := v.Prompt.String("Expiry (MM/YY): ")
	if err != nil {
		return c, err
	}
	if c.ExpMonth, c.ExpYear, err = ParseExpiry(exp); err != nil {
		return c, err
	}
	c.CVC, err = v.Prompt.Password("CVC: ")
	return c, err
}

// ParseExpiry reads "MM/YY" or "MM/YYYY".
func ParseExpiry(s string) (month, year int, err error) {
	m, y, ok := strings.Cut(strings.TrimSpace(s), "/")
	if ok {
		month, err = strconv.Atoi(strings.TrimSpace(m))
	}
	if ok && err == nil {
		year, err = strconv.Atoi(strings.TrimSpace(y))
	}
	if !ok || err != nil {
		return 0, 0, clierrors.ValidationError("expiry", "use MM/YY")
	}
	return month, year, nil
}

// Pay charges the membership fee and upgrades the badge.
func (v *Views) Pay(ctx context.Context, card payment.Card) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}

	var receipt *payment.Receipt
	err = v.mutate(ctx, mutation{
		kind:     query.MutRecordPayment,
		conflict: payment.AlreadyPaid,
	}, func(ctx context.Context) error {
		r, err := v.Checkout.Pay(ctx, payment.Billing{Name: id.DisplayName, Email: id.Email}, card)
		receipt = r
		return err
	})
	if err != nil {
		return err
	}

	v.Notify.Notify(output.LevelSuccess, fmt.Sprintf("Payment Successful. Paid By: %s", nameOr(id.DisplayName, id.Email)))
	v.Out.Line("Transaction: %s", receipt.TransactionID)
	return nil
}
