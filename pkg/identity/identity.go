// Package identity talks to the third-party identity provider. It signs
// users in and up and returns the Identity held by the session.
package identity

import (
	"context"
)

// Identity is the signed-in user as the identity provider describes it.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`

	// IDToken is the provider's own token. It is never persisted.
	IDToken string `json:"-"`
}

// Provider is the identity provider surface the session needs.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	UpdateProfile(ctx context.Context, id *Identity, displayName, photoURL string) (*Identity, error)
	SignInWithGoogle(ctx context.Context) (*Identity, error)
}
