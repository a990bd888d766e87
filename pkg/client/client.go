package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/codestack/cli/pkg/config"
	"github.com/codestack/cli/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const userAgent = "CodeStack-CLI/0.1.0"

// TokenStore is the credential slot the secure client reads from and
// clears on authorization failure.
type TokenStore interface {
	Token() string
	Delete() error
}

// Options configures both gateway clients.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// OptionsFromConfig reads api.base_url and api.timeout.
func OptionsFromConfig() Options {
	return Options{
		BaseURL:   config.GetString("api.base_url"),
		Timeout:   config.GetSeconds("api.timeout"),
		UserAgent: userAgent,
	}
}

// Gateway is the remote data gateway: a public client for anonymous reads
// and a secure client that attaches the stored bearer and owns all
// 401/403 handling.
type Gateway struct {
	public *resty.Client
	secure *resty.Client
	store  TokenStore

	mu                sync.RWMutex
	unauthorizedHooks []func(status int)
}

// New creates a gateway. store may be nil for a public-only gateway.
func New(opts Options, store TokenStore) *Gateway {
	if opts.UserAgent == "" {
		opts.UserAgent = userAgent
	}
	g := &Gateway{store: store}
	g.public = newRestyClient(opts)
	g.secure = newRestyClient(opts)

	g.secure.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		if g.store == nil {
			return nil
		}
		if token := g.store.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	})

	g.secure.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		status := resp.StatusCode()
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			g.handleUnauthorized(status)
		}
		return nil
	})

	return g
}

func newRestyClient(opts Options) *resty.Client {
	c := resty.New()
	c.SetBaseURL(opts.BaseURL)
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	c.SetHeader("User-Agent", opts.UserAgent)
	c.SetHeader("Accept", "application/json")

	c.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		req.Header.Set("X-Request-ID", uuid.NewString())
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		return nil
	})

	c.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response",
			"status", resp.StatusCode(),
			"url", resp.Request.URL,
			"elapsed", resp.Time())
		return nil
	})

	return c
}

func (g *Gateway) handleUnauthorized(status int) {
	logger.Warn("Authorization failed, clearing credential", "status", status)

	if g.store != nil {
		if err := g.store.Delete(); err != nil {
			logger.Error("Failed to clear credential", "error", err)
		}
	}

	g.mu.RLock()
	hooks := append([]func(int){}, g.unauthorizedHooks...)
	g.mu.RUnlock()

	for _, hook := range hooks {
		hook(status)
	}
}

// OnUnauthorized registers a hook run after the credential has been
// cleared because a secure request came back 401 or 403.
func (g *Gateway) OnUnauthorized(hook func(status int)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unauthorizedHooks = append(g.unauthorizedHooks, hook)
}

// Public returns the client for unauthenticated reads.
func (g *Gateway) Public() *resty.Client {
	return g.public
}

// Secure returns the client that carries the bearer credential.
func (g *Gateway) Secure() *resty.Client {
	return g.secure
}
