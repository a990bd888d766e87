package identity

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"

	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// GoogleEndpoint is Google's OAuth2 authorization server.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// LoopbackFlow is the installed-app OAuth2 flow: a one-shot listener on
// 127.0.0.1 receives the authorization code, exchanged with PKCE.
type LoopbackFlow struct {
	Config  oauth2.Config
	OpenURL func(string) error
}

// NewGoogleFlow returns a flow for Google sign-in.
func NewGoogleFlow(clientID, clientSecret string) *LoopbackFlow {
	return &LoopbackFlow{
		Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     GoogleEndpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		OpenURL: openBrowser,
	}
}

type callbackResult struct {
	code string
	err  error
}

// Token runs the flow and returns the exchanged token.
func (f *LoopbackFlow) Token(ctx context.Context) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	cfg := f.Config
	cfg.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr().String())

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = clierrors.AuthError("OAuth state mismatch")
		case q.Get("error") != "":
			res.err = clierrors.AuthError("Sign-in was cancelled: " + q.Get("error"))
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Signed in. You can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Debug("OAuth callback server stopped", "error", err)
		}
	}()
	defer srv.Close()

	logger.Debug("Opening browser for sign-in", "url", authURL)
	if f.OpenURL != nil {
		if err := f.OpenURL(authURL); err != nil {
			logger.Warn("Could not open browser", "error", err)
			fmt.Printf("Open this URL to sign in:\n%s\n", authURL)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, clierrors.NewCLIError(clierrors.ErrorTypeAuth, "Token exchange failed", err)
		}
		return tok, nil
	}
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
