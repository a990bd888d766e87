package api

import (
	"context"
	"net/http"
)

// IssueToken exchanges a signed-in identity's email for a backend bearer.
func (c *Client) IssueToken(ctx context.Context, email string) (string, error) {
	var response struct {
		Token string `json:"token"`
	}
	err := c.public(ctx, call{
		method: http.MethodPost,
		path:   "/jwt",
		body:   map[string]string{"email": email},
	}, &response)
	if err != nil {
		return "", err
	}
	return response.Token, nil
}
