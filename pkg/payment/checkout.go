// Package payment runs the one-time membership payment: the backend
// creates the intent, the processor confirms it, and the backend records
// it and upgrades the payer's badge.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/codestack/cli/pkg/api"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/logger"
)

// Backend is the part of the API the checkout uses.
type Backend interface {
	CreatePaymentIntent(ctx context.Context, amount int) (string, error)
	RecordPayment(ctx context.Context, p api.Payment) (string, error)
}

// AlreadyPaid is shown when the backend had already recorded a payment.
const AlreadyPaid = "Payment Already Done"

// Receipt describes a recorded payment.
type Receipt struct {
	TransactionID string
	PaymentID     string
	Amount        int
}

// Checkout ties the backend and the processor together.
type Checkout struct {
	backend   Backend
	processor Processor
	amount    int
	now       func() time.Time
}

// NewCheckout creates a checkout charging amount dollars.
func NewCheckout(backend Backend, processor Processor, amount int) *Checkout {
	return &Checkout{backend: backend, processor: processor, amount: amount, now: time.Now}
}

// Amount is the membership price in dollars.
func (c *Checkout) Amount() int {
	return c.amount
}

// Pay charges card for payer. Local card errors are returned before any
// request is made.
func (c *Checkout) Pay(ctx context.Context, payer Billing, card Card) (*Receipt, error) {
	if err := card.Validate(c.now()); err != nil {
		return nil, err
	}

	secret, err := c.backend.CreatePaymentIntent(ctx, c.amount)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	if secret == "" {
		return nil, fmt.Errorf("create payment intent: backend returned no client secret")
	}

	methodID, err := c.processor.CreatePaymentMethod(ctx, card, payer)
	if err != nil {
		return nil, err
	}

	intent, err := c.processor.ConfirmIntent(ctx, secret, methodID)
	if err != nil {
		return nil, err
	}
	if intent.Status != "succeeded" {
		return nil, fmt.Errorf("payment not completed: status %q", intent.Status)
	}
	logger.Info("Payment confirmed", "intent", intent.ID)

	paymentID, err := c.backend.RecordPayment(ctx, api.Payment{
		UserName:      payer.Name,
		UserEmail:     payer.Email,
		Amount:        c.amount,
		TransactionID: intent.ID,
		Method:        []string{"card"},
		PaidAt:        c.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	if paymentID == "" {
		return nil, clierrors.ConflictError(AlreadyPaid)
	}

	return &Receipt{TransactionID: intent.ID, PaymentID: paymentID, Amount: c.amount}, nil
}
