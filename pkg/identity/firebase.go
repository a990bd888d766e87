package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/codestack/cli/pkg/config"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// Firebase implements Provider against the Identity Toolkit REST API.
type Firebase struct {
	rc     *resty.Client
	apiKey string
	google *LoopbackFlow
}

// NewFirebase creates a provider. google may be nil, in which case
// federated sign-in is unavailable.
func NewFirebase(baseURL, apiKey string, timeout time.Duration, google *LoopbackFlow) *Firebase {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &Firebase{rc: rc, apiKey: apiKey, google: google}
}

// FirebaseFromConfig reads identity.* and oauth.* settings.
func FirebaseFromConfig() *Firebase {
	var flow *LoopbackFlow
	if id := config.GetString("oauth.client_id"); id != "" {
		flow = NewGoogleFlow(id, config.GetString("oauth.client_secret"))
	}
	return NewFirebase(
		config.GetString("identity.base_url"),
		config.GetString("identity.api_key"),
		config.GetSeconds("api.timeout"),
		flow,
	)
}

type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
}

func (a *accountResponse) identity() *Identity {
	return &Identity{
		UID:         a.LocalID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
		IDToken:     a.IDToken,
	}
}

type providerError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Firebase) post(ctx context.Context, method string, body interface{}, result interface{}) error {
	var perr providerError
	resp, err := f.rc.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(body).
		SetResult(result).
		SetError(&perr).
		Post("/accounts:" + method)
	if err != nil {
		return clierrors.CategorizeError(err)
	}
	if resp.IsError() {
		logger.Debug("Identity provider rejected request", "method", method, "code", perr.Error.Message)
		e := clierrors.AuthError(friendlyMessage(perr.Error.Message))
		e.StatusCode = resp.StatusCode()
		return e
	}
	return nil
}

// friendlyMessage maps the provider's error codes to readable text. Codes
// can carry a suffix such as "WEAK_PASSWORD : Password should be ...".
func friendlyMessage(code string) string {
	head := strings.TrimSpace(strings.SplitN(code, ":", 2)[0])
	switch head {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "Invalid email or password"
	case "EMAIL_EXISTS":
		return "An account with this email already exists"
	case "USER_DISABLED":
		return "This account has been disabled"
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return "Too many attempts, try again later"
	case "WEAK_PASSWORD":
		return "Password is too weak"
	case "INVALID_EMAIL":
		return "Invalid email address"
	case "":
		return "Identity provider request failed"
	}
	return fmt.Sprintf("Identity provider error: %s", head)
}

// SignInWithPassword signs in with email and password and loads the
// profile fields the sign-in response omits.
func (f *Firebase) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	var acct accountResponse
	err := f.post(ctx, "signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &acct)
	if err != nil {
		return nil, err
	}

	id := acct.identity()
	if err := f.lookup(ctx, id); err != nil {
		logger.Warn("Profile lookup failed", "error", err)
	}
	return id, nil
}

func (f *Firebase) lookup(ctx context.Context, id *Identity) error {
	var resp struct {
		Users []accountResponse `json:"users"`
	}
	if err := f.post(ctx, "lookup", map[string]string{"idToken": id.IDToken}, &resp); err != nil {
		return err
	}
	if len(resp.Users) == 0 {
		return nil
	}
	u := resp.Users[0]
	if u.DisplayName != "" {
		id.DisplayName = u.DisplayName
	}
	if u.PhotoURL != "" {
		id.PhotoURL = u.PhotoURL
	}
	return nil
}

// SignUp creates an account.
func (f *Firebase) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	var acct accountResponse
	err := f.post(ctx, "signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &acct)
	if err != nil {
		return nil, err
	}
	return acct.identity(), nil
}

// UpdateProfile sets the display name and avatar on the account.
func (f *Firebase) UpdateProfile(ctx context.Context, id *Identity, displayName, photoURL string) (*Identity, error) {
	var acct accountResponse
	err := f.post(ctx, "update", map[string]interface{}{
		"idToken":           id.IDToken,
		"displayName":       displayName,
		"photoUrl":          photoURL,
		"returnSecureToken": true,
	}, &acct)
	if err != nil {
		return nil, err
	}

	updated := *id
	updated.DisplayName = displayName
	updated.PhotoURL = photoURL
	if acct.IDToken != "" {
		updated.IDToken = acct.IDToken
	}
	return &updated, nil
}

// SignInWithGoogle runs the browser consent flow and trades the Google id
// token for a provider account.
func (f *Firebase) SignInWithGoogle(ctx context.Context) (*Identity, error) {
	if f.google == nil {
		return nil, clierrors.AuthError("Google sign-in is not configured").
			WithSuggestion("Set oauth.client_id in your config file.")
	}

	tok, err := f.google.Token(ctx)
	if err != nil {
		return nil, err
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, clierrors.AuthError("Google did not return an id token")
	}

	postBody := url.Values{
		"id_token":   {idToken},
		"providerId": {"google.com"},
	}
	var acct accountResponse
	err = f.post(ctx, "signInWithIdp", map[string]interface{}{
		"postBody":            postBody.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &acct)
	if err != nil {
		return nil, err
	}
	return acct.identity(), nil
}
