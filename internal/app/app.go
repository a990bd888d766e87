// Package app builds the client state layer and the views from config
// and registers the routes.
package app

import (
	"context"

	"github.com/codestack/cli/internal/router"
	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/client"
	"github.com/codestack/cli/pkg/config"
	"github.com/codestack/cli/pkg/credentials"
	"github.com/codestack/cli/pkg/guard"
	"github.com/codestack/cli/pkg/identity"
	"github.com/codestack/cli/pkg/imagehost"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/payment"
	"github.com/codestack/cli/pkg/prompter"
	"github.com/codestack/cli/pkg/query"
	"github.com/codestack/cli/pkg/role"
	"github.com/codestack/cli/pkg/service"
	"github.com/codestack/cli/pkg/session"
)

// Options override the parts that talk to the outside world. Nil fields
// are built from config.
type Options struct {
	Gateway     client.Options
	Credentials *credentials.Store
	Provider    identity.Provider
	Images      imagehost.Uploader
	Processor   payment.Processor
	SessionPath string
	Out         *output.Printer
	Prompt      *prompter.Prompter
	Notify      output.Notifier
	Router      router.Options
}

// App is one running client.
type App struct {
	Credentials *credentials.Store
	Gateway     *client.Gateway
	API         *api.Client
	Cache       *query.Cache
	Session     *session.Manager
	Roles       *role.Resolver
	Views       *service.Views
	Router      *router.Router

	stopRoles func()
}

// FromConfig builds an App from the loaded configuration.
func FromConfig() *App {
	return New(Options{Prompt: prompter.Stdin()})
}

// New wires the gateway, cache, session, role resolver, views and router.
func New(opts Options) *App {
	if opts.Gateway.BaseURL == "" {
		opts.Gateway = client.OptionsFromConfig()
	}
	if opts.Credentials == nil {
		opts.Credentials = credentials.Default()
	}
	if opts.Provider == nil {
		opts.Provider = identity.FirebaseFromConfig()
	}
	if opts.Images == nil {
		opts.Images = imagehost.FromConfig()
	}
	if opts.Processor == nil {
		opts.Processor = payment.StripeFromConfig()
	}
	if opts.SessionPath == "" {
		opts.SessionPath = config.GetSessionPath()
	}
	if opts.Out == nil {
		opts.Out = output.Stdout()
	}
	if opts.Notify == nil {
		opts.Notify = output.Console{P: opts.Out}
	}

	a := &App{Credentials: opts.Credentials}
	a.Gateway = client.New(opts.Gateway, a.Credentials)
	a.API = api.New(a.Gateway)
	a.Cache = query.New(query.Options{})
	a.Session = session.New(session.Options{
		Provider:    opts.Provider,
		Issuer:      a.API,
		Users:       a.API,
		Credentials: a.Credentials,
		Notifier:    opts.Notify,
		Path:        opts.SessionPath,
	})
	a.Roles = role.New(a.Cache, a.API)

	checkout := payment.NewCheckout(a.API, opts.Processor, config.GetInt("payment.membership_amount"))

	a.Views = service.New(service.Deps{
		Backend:  a.API,
		Cache:    a.Cache,
		Session:  a.Session,
		Images:   opts.Images,
		Checkout: checkout,
		Out:      opts.Out,
		Notify:   opts.Notify,
		Prompt:   opts.Prompt,
	})

	ropts := opts.Router
	if ropts.OnChecking == nil {
		ropts.OnChecking = func(path string) {
			logger.Debug("Checking access", "path", path)
		}
	}
	a.Router = router.New(a.Session, a.Roles, ropts)
	a.routes()

	// Every sign-out drops cached data so the next user never sees it.
	a.Session.OnSignOut(a.Cache.Purge)
	a.Gateway.OnUnauthorized(func(status int) {
		a.Session.Expire()
		a.Cache.Purge()
		a.Router.RedirectToLogin()
	})

	return a
}

// Start restores the persisted session and begins following it with
// the role resolver.
func (a *App) Start(ctx context.Context) error {
	a.stopRoles = a.Roles.Watch(ctx, a.Session)
	return a.Session.Restore(ctx)
}

// Role returns the current role, waiting for nothing.
func (a *App) Role() string {
	id := a.Session.Current()
	if id == nil {
		return ""
	}
	r, _ := a.Roles.For(id.Email)
	return r
}

// Close stops background work and logs what the query cache did.
func (a *App) Close() {
	if a.stopRoles != nil {
		a.stopRoles()
	}
	a.Roles.Close()
	a.Cache.Close()
	a.logCacheStats()
}

func (a *App) logCacheStats() {
	s, err := a.Cache.Stats()
	if err != nil {
		logger.Debug("Query cache stats unavailable", "error", err)
		return
	}
	logger.Debug("Query cache",
		"hits", s.Hits,
		"stale_hits", s.StaleHits,
		"misses", s.Misses,
		"fetches", s.Fetches,
		"fetch_errors", s.FetchErrors,
		"invalidations", s.Invalidations,
		"purges", s.Purges,
	)
}

func (a *App) routes() {
	v, r := a.Views, a.Router

	r.Handle("/", v.Home)
	r.Handle("/posts", v.AllPosts)
	r.Handle("/post-details/:id", v.PostDetails)
	r.Protect("/membership", guard.RequireAuth, v.Membership)
	r.Handle(guard.ForbiddenPath, v.Forbidden)
	r.Handle(guard.LoginPath, a.afterSignIn(v.Login))
	r.Handle("/register", a.afterSignIn(v.Register))

	r.Protect("/dashboard/user-profile", guard.RequireUser, v.UserProfile)
	r.Protect("/dashboard/add-post", guard.RequireUser, v.AddPost)
	r.Protect("/dashboard/my-posts", guard.RequireUser, v.MyPosts)
	r.Protect("/dashboard/post-commented/:postId", guard.RequireUser, v.PostCommented)

	r.Protect("/dashboard/admin-profile", guard.RequireAdmin, v.AdminProfile)
	r.Protect("/dashboard/manage-users", guard.RequireAdmin, v.ManageUsers)
	r.Protect("/dashboard/reported-comments", guard.RequireAdmin, v.ReportedComments)
	r.Protect("/dashboard/make-announcement", guard.RequireAdmin, v.MakeAnnouncement)
}

// afterSignIn sends an interactive visitor back where they came from
// once the wrapped auth view has signed them in.
func (a *App) afterSignIn(h router.Handler) router.Handler {
	return func(ctx context.Context, req service.Request) error {
		before := a.Session.Current()
		if err := h(ctx, req); err != nil {
			return err
		}
		after := a.Session.Current()
		if !req.Interactive || after == nil || after == before {
			return nil
		}
		return &service.Redirect{To: a.Router.From()}
	}
}
