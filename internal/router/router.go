// Package router maps paths to views and enforces the guard of each
// route before rendering it.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/guard"
	"github.com/codestack/cli/pkg/identity"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/service"
)

// MaxRedirects bounds how many redirects one navigation may follow.
const MaxRedirects = 5

// HomePath is where a login returns when nothing else was attempted.
const HomePath = "/"

// ErrTooManyRedirects is returned when redirects loop.
var ErrTooManyRedirects = errors.New("too many redirects")

// Handler renders one view.
type Handler func(ctx context.Context, req service.Request) error

// Session is the session state the router reads.
type Session interface {
	Loading() bool
	Current() *identity.Identity
	Changed() <-chan struct{}
}

// Roles resolves the role of the signed-in email.
type Roles interface {
	For(email string) (role string, loading bool)
	Changed() <-chan struct{}
}

type route struct {
	pattern  string
	segments []string
	guarded  bool
	req      guard.Requirement
	handler  Handler
}

// match returns the route parameters when path fits the pattern.
func (rt *route) match(segments []string) (map[string]string, bool) {
	if len(segments) != len(rt.segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range rt.segments {
		if strings.HasPrefix(seg, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[seg[1:]] = segments[i]
			continue
		}
		if seg != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Options configure a Router.
type Options struct {
	// OnChecking runs when a guard has to wait for the session or role.
	OnChecking func(path string)
}

// Router holds the route table and the navigation state.
type Router struct {
	session Session
	roles   Roles
	opts    Options
	routes  []*route

	mu      sync.Mutex
	current string
	from    string
	pending string
}

// New creates an empty router.
func New(session Session, roles Roles, opts Options) *Router {
	return &Router{session: session, roles: roles, opts: opts}
}

// Handle registers a public route.
func (r *Router) Handle(pattern string, h Handler) {
	r.routes = append(r.routes, &route{pattern: pattern, segments: split(pattern), handler: h})
}

// Protect registers a route behind the guard.
func (r *Router) Protect(pattern string, req guard.Requirement, h Handler) {
	r.routes = append(r.routes, &route{
		pattern:  pattern,
		segments: split(pattern),
		guarded:  true,
		req:      req,
		handler:  h,
	})
}

// Patterns lists the registered patterns in registration order.
func (r *Router) Patterns() []string {
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.pattern
	}
	return out
}

// Match finds the route for path.
func (r *Router) Match(path string) (pattern string, params map[string]string, ok bool) {
	rt, params, ok := r.lookup(path)
	if !ok {
		return "", nil, false
	}
	return rt.pattern, params, true
}

func (r *Router) lookup(path string) (*route, map[string]string, bool) {
	segments := split(path)
	for _, rt := range r.routes {
		if params, ok := rt.match(segments); ok {
			return rt, params, true
		}
	}
	return nil, nil, false
}

// Current returns the last path that rendered.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// From returns and forgets the path a login should return to.
func (r *Router) From() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := r.from
	r.from = ""
	if from == "" || from == guard.LoginPath {
		return HomePath
	}
	return from
}

// RedirectToLogin makes the running navigation continue at the login
// page once its view returns. The current path is kept as the place to
// come back to.
func (r *Router) RedirectToLogin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = guard.LoginPath
	if r.current != "" && r.current != guard.LoginPath {
		r.from = r.current
	}
}

func (r *Router) takePending() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.pending
	r.pending = ""
	return p
}

// snapshot reads the guard input for path.
func (r *Router) snapshot(path string) guard.Snapshot {
	return func() guard.Input {
		in := guard.Input{
			SessionLoading: r.session.Loading(),
			Identity:       r.session.Current(),
			Path:           path,
		}
		if in.Identity != nil && r.roles != nil {
			in.Role, in.RoleLoading = r.roles.For(in.Identity.Email)
		}
		return in
	}
}

// changes fires when either the session or the role resolution moves.
func (r *Router) changes(ctx context.Context) <-chan struct{} {
	session := r.session.Changed()
	if r.roles == nil {
		return session
	}
	roles := r.roles.Changed()

	out := make(chan struct{})
	go func() {
		defer close(out)
		select {
		case <-session:
		case <-roles:
		case <-ctx.Done():
		}
	}()
	return out
}

// Navigate renders the view for req.Path, following guard denials and
// view redirects.
func (r *Router) Navigate(ctx context.Context, req service.Request) error {
	path := req.Path
	if path == "" {
		path = HomePath
	}

	for hops := 0; ; hops++ {
		if hops > MaxRedirects {
			return fmt.Errorf("%w: stopped at %s", ErrTooManyRedirects, path)
		}

		rt, params, ok := r.lookup(path)
		if !ok {
			return clierrors.NotFoundError("Page", path)
		}

		if rt.guarded {
			st, err := guard.Wait(ctx, r.snapshot(path), rt.req, r.changes, func() {
				if r.opts.OnChecking != nil {
					r.opts.OnChecking(path)
				}
			})
			if err != nil {
				return err
			}
			if denied, ok := st.(guard.Denied); ok {
				logger.Debug("Route denied", "path", path, "reason", denied.Reason, "redirect", denied.Redirect)
				if denied.Redirect == guard.LoginPath {
					r.mu.Lock()
					r.from = denied.From
					r.mu.Unlock()
				}
				path = denied.Redirect
				continue
			}
		}

		r.mu.Lock()
		r.current = path
		r.mu.Unlock()

		req.Path = path
		req.Params = params
		err := rt.handler(ctx, req)

		if next := r.takePending(); next != "" {
			logger.Debug("Navigation interrupted", "path", path, "next", next)
			path = next
			continue
		}

		var redirect *service.Redirect
		if errors.As(err, &redirect) {
			path = redirect.To
			continue
		}
		return err
	}
}

// Check evaluates req for path without rendering anything.
func (r *Router) Check(ctx context.Context, path string, req guard.Requirement) (guard.State, error) {
	return guard.Wait(ctx, r.snapshot(path), req, r.changes, nil)
}
