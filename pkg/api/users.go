package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GetUser returns the backend record for email.
func (c *Client) GetUser(ctx context.Context, email string) (*User, error) {
	var user User
	err := c.secure(ctx, call{
		method: http.MethodGet,
		path:   "/users/" + url.PathEscape(email),
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser upserts the backend record after registration or sign-in.
func (c *Client) CreateUser(ctx context.Context, user User) error {
	if user.Role == "" {
		user.Role = RoleUser
	}
	ts := now()
	if user.CreatedAt == "" {
		user.CreatedAt = ts
	}
	user.LastLogIn = ts
	return c.secure(ctx, call{
		method: http.MethodPost,
		path:   "/users",
		body:   user,
	}, nil)
}

// UpdateProfile patches the caller's own record.
func (c *Client) UpdateProfile(ctx context.Context, email string, update ProfileUpdate) error {
	return c.secure(ctx, call{
		method: http.MethodPatch,
		path:   "/users/" + url.PathEscape(email),
		body:   update,
	}, nil)
}

// ToggleAdmin flips a user between the user and admin roles.
func (c *Client) ToggleAdmin(ctx context.Context, userID string) error {
	return c.secure(ctx, call{
		method: http.MethodPatch,
		path:   "/users/" + url.PathEscape(userID) + "/toggle-admin",
	}, nil)
}

// ListUsers returns one page of users whose name or email matches search.
func (c *Client) ListUsers(ctx context.Context, search string, page, limit int) (*UserPage, error) {
	var result UserPage
	err := c.secure(ctx, call{
		method: http.MethodGet,
		path:   "/users",
		query: map[string]string{
			"search": search,
			"page":   strconv.Itoa(page),
			"limit":  strconv.Itoa(limit),
		},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
