package api

import (
	"context"
	"net/http"
)

// CreatePaymentIntent asks the backend for a client secret for amount
// (in whole dollars).
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int) (string, error) {
	var response struct {
		ClientSecret string `json:"clientSecret"`
	}
	err := c.secure(ctx, call{
		method: http.MethodPost,
		path:   "/create-payment-intent",
		body:   map[string]int{"amount": amount},
	}, &response)
	return response.ClientSecret, err
}

// RecordPayment stores a confirmed payment and upgrades the payer's badge.
// An empty insertedId means the payment had already been recorded.
func (c *Client) RecordPayment(ctx context.Context, p Payment) (string, error) {
	if p.PaidAt == "" {
		p.PaidAt = now()
	}
	var response struct {
		PaymentResult struct {
			InsertedID string `json:"insertedId"`
		} `json:"paymentResult"`
	}
	err := c.secure(ctx, call{
		method: http.MethodPost,
		path:   "/payments",
		body:   p,
	}, &response)
	return response.PaymentResult.InsertedID, err
}
