package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/config"
	"github.com/codestack/cli/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
)

// Processor is the card processor seen from the client: it tokenizes a
// card and confirms a backend-created intent. Capture happens elsewhere.
type Processor interface {
	CreatePaymentMethod(ctx context.Context, card Card, billing Billing) (string, error)
	ConfirmIntent(ctx context.Context, clientSecret, paymentMethodID string) (*Intent, error)
}

// Billing identifies the payer on the payment method.
type Billing struct {
	Name  string
	Email string
}

// Intent is the confirmed payment intent.
type Intent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int    `json:"amount"`
}

// Stripe talks to the processor's REST API with a publishable key, the
// same calls the browser SDK makes.
type Stripe struct {
	rc *resty.Client
}

// NewStripe creates a processor client.
func NewStripe(baseURL, publishableKey string, timeout time.Duration) *Stripe {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(publishableKey).
		SetHeader("Accept", "application/json")
	return &Stripe{rc: rc}
}

// StripeFromConfig builds the processor from the payment.* keys.
func StripeFromConfig() *Stripe {
	return NewStripe(
		config.GetString("payment.base_url"),
		config.GetString("payment.publishable_key"),
		config.GetSeconds("api.timeout"),
	)
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (s *Stripe) post(ctx context.Context, path string, form map[string]string, result interface{}) error {
	resp, err := s.rc.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetFormData(form).
		Post(path)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		var se stripeError
		if json.Unmarshal(resp.Body(), &se) == nil && se.Error.Message != "" {
			return &api.APIError{Code: se.Error.Code, Message: se.Error.Message, StatusCode: resp.StatusCode()}
		}
		return api.ParseError(resp)
	}
	return json.Unmarshal(resp.Body(), result)
}

// CreatePaymentMethod tokenizes card and returns the payment method id.
func (s *Stripe) CreatePaymentMethod(ctx context.Context, card Card, billing Billing) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := s.post(ctx, "/payment_methods", map[string]string{
		"type":                   "card",
		"card[number]":           digits(card.Number),
		"card[exp_month]":        strconv.Itoa(card.ExpMonth),
		"card[exp_year]":         strconv.Itoa(card.fullYear()),
		"card[cvc]":              card.CVC,
		"billing_details[name]":  billing.Name,
		"billing_details[email]": billing.Email,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("create payment method: %w", err)
	}
	logger.Debug("Payment method created", "id", out.ID)
	return out.ID, nil
}

// intentID extracts "pi_123" from "pi_123_secret_abc".
func intentID(clientSecret string) string {
	if i := strings.Index(clientSecret, "_secret_"); i > 0 {
		return clientSecret[:i]
	}
	return clientSecret
}

// ConfirmIntent confirms the intent behind clientSecret.
func (s *Stripe) ConfirmIntent(ctx context.Context, clientSecret, paymentMethodID string) (*Intent, error) {
	var out Intent
	err := s.post(ctx, "/payment_intents/"+intentID(clientSecret)+"/confirm", map[string]string{
		"client_secret":  clientSecret,
		"payment_method": paymentMethodID,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	return &out, nil
}
