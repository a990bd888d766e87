package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codestack/cli/pkg/broadcast"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/guard"
	"github.com/codestack/cli/pkg/identity"
	"github.com/codestack/cli/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu      sync.Mutex
	loading bool
	id      *identity.Identity
	changed broadcast.Signal
}

func (s *fakeSession) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *fakeSession) Current() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *fakeSession) Changed() <-chan struct{} {
	return s.changed.Changed()
}

func (s *fakeSession) set(id *identity.Identity) {
	s.mu.Lock()
	s.loading = false
	s.id = id
	s.mu.Unlock()
	s.changed.Notify()
}

type fakeRoles struct {
	mu      sync.Mutex
	role    string
	loading bool
	changed broadcast.Signal
}

func (r *fakeRoles) For(email string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.role, r.loading
}

func (r *fakeRoles) Changed() <-chan struct{} {
	return r.changed.Changed()
}

func (r *fakeRoles) resolve(role string) {
	r.mu.Lock()
	r.role = role
	r.loading = false
	r.mu.Unlock()
	r.changed.Notify()
}

// visits records which views rendered.
type visits struct {
	mu    sync.Mutex
	paths []string
}

func (v *visits) view(name string) Handler {
	return func(ctx context.Context, req service.Request) error {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.paths = append(v.paths, name)
		return nil
	}
}

func (v *visits) list() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.paths...)
}

func newTestRouter(s Session, roles Roles) (*Router, *visits) {
	v := &visits{}
	r := New(s, roles, Options{})
	r.Handle("/", v.view("home"))
	r.Handle(guard.LoginPath, v.view("login"))
	r.Handle(guard.ForbiddenPath, v.view("forbidden"))
	r.Handle("/post-details/:id", v.view("post"))
	r.Protect("/membership", guard.RequireAuth, v.view("membership"))
	r.Protect("/dashboard/add-post", guard.RequireUser, v.view("add-post"))
	r.Protect("/dashboard/manage-users", guard.RequireAdmin, v.view("manage-users"))
	return r, v
}

var alice = &identity.Identity{UID: "u1", Email: "alice@example.com"}

func TestMatch(t *testing.T) {
	r, _ := newTestRouter(&fakeSession{}, &fakeRoles{})

	tests := []struct {
		path    string
		pattern string
		params  map[string]string
		ok      bool
	}{
		{"/", "/", map[string]string{}, true},
		{"/post-details/abc", "/post-details/:id", map[string]string{"id": "abc"}, true},
		{"/post-details/abc?x=1", "/post-details/:id", map[string]string{"id": "abc"}, true},
		{"/dashboard/add-post/", "/dashboard/add-post", map[string]string{}, true},
		{"/post-details", "", nil, false},
		{"/nope", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			pattern, params, ok := r.Match(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.pattern, pattern)
			if tt.ok {
				assert.Equal(t, tt.params, params)
			}
		})
	}
}

func TestParamsReachView(t *testing.T) {
	r := New(&fakeSession{}, nil, Options{})
	var got service.Request
	r.Handle("/post-details/:id", func(ctx context.Context, req service.Request) error {
		got = req
		return nil
	})

	require.NoError(t, r.Navigate(context.Background(), service.Request{Path: "/post-details/42"}))
	assert.Equal(t, "42", got.Param("id"))
	assert.Equal(t, "/post-details/42", got.Path)
}

func TestAnonymousVisitorGoesToLoginAndBack(t *testing.T) {
	r, v := newTestRouter(&fakeSession{}, &fakeRoles{})

	err := r.Navigate(context.Background(), service.Request{Path: "/dashboard/add-post"})
	require.NoError(t, err)

	assert.Equal(t, []string{"login"}, v.list())
	assert.Equal(t, guard.LoginPath, r.Current())
	assert.Equal(t, "/dashboard/add-post", r.From())
	assert.Equal(t, HomePath, r.From(), "from is forgotten once read")
}

func TestUserNeverSeesAdminRoute(t *testing.T) {
	roles := &fakeRoles{loading: true}
	s := &fakeSession{id: alice}
	r, v := newTestRouter(s, roles)

	var checking int
	r.opts.OnChecking = func(string) { checking++ }

	go func() {
		time.Sleep(30 * time.Millisecond)
		roles.resolve("user")
	}()

	err := r.Navigate(context.Background(), service.Request{Path: "/dashboard/manage-users"})
	require.NoError(t, err)

	assert.Equal(t, []string{"forbidden"}, v.list())
	assert.Equal(t, guard.ForbiddenPath, r.Current())
	assert.Equal(t, 1, checking)
}

func TestAdminRendersAdminRoute(t *testing.T) {
	r, v := newTestRouter(&fakeSession{id: alice}, &fakeRoles{role: "admin"})

	require.NoError(t, r.Navigate(context.Background(), service.Request{Path: "/dashboard/manage-users"}))
	assert.Equal(t, []string{"manage-users"}, v.list())
}

func TestAdminIsNotAUser(t *testing.T) {
	r, v := newTestRouter(&fakeSession{id: alice}, &fakeRoles{role: "admin"})

	require.NoError(t, r.Navigate(context.Background(), service.Request{Path: "/dashboard/add-post"}))
	assert.Equal(t, []string{"forbidden"}, v.list())
}

func TestAuthRouteIgnoresRole(t *testing.T) {
	r, v := newTestRouter(&fakeSession{id: alice}, &fakeRoles{loading: true})

	require.NoError(t, r.Navigate(context.Background(), service.Request{Path: "/membership"}))
	assert.Equal(t, []string{"membership"}, v.list())
}

func TestSessionLoadingWaits(t *testing.T) {
	s := &fakeSession{loading: true}
	r, v := newTestRouter(s, &fakeRoles{role: "user"})

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.set(alice)
	}()

	require.NoError(t, r.Navigate(context.Background(), service.Request{Path: "/dashboard/add-post"}))
	assert.Equal(t, []string{"add-post"}, v.list())
}

func TestCancelledWhileChecking(t *testing.T) {
	r, v := newTestRouter(&fakeSession{loading: true}, &fakeRoles{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Navigate(ctx, service.Request{Path: "/dashboard/add-post"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, v.list())
}

func TestViewRedirect(t *testing.T) {
	r, v := newTestRouter(&fakeSession{id: alice}, &fakeRoles{role: "user"})
	r.Handle("/upsell", func(ctx context.Context, req service.Request) error {
		return &service.Redirect{To: "/membership"}
	})

	require.NoError(t, r.Navigate(context.Background(), service.Request{Path: "/upsell"}))
	assert.Equal(t, []string{"membership"}, v.list())
	assert.Equal(t, "/membership", r.Current())
}

func TestRedirectLoopStops(t *testing.T) {
	r := New(&fakeSession{}, nil, Options{})
	r.Handle("/a", func(ctx context.Context, req service.Request) error {
		return &service.Redirect{To: "/b"}
	})
	r.Handle("/b", func(ctx context.Context, req service.Request) error {
		return &service.Redirect{To: "/a"}
	})

	err := r.Navigate(context.Background(), service.Request{Path: "/a"})
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestRedirectToLoginInterruptsView(t *testing.T) {
	s := &fakeSession{id: alice}
	r, v := newTestRouter(s, &fakeRoles{role: "user"})
	rejected := errors.New("rejected")
	r.Protect("/dashboard/my-posts", guard.RequireUser, func(ctx context.Context, req service.Request) error {
		s.set(nil)
		r.RedirectToLogin()
		return rejected
	})

	require.NoError(t, r.Navigate(context.Background(), service.Request{Path: "/dashboard/my-posts"}))
	assert.Equal(t, []string{"login"}, v.list())
	assert.Equal(t, "/dashboard/my-posts", r.From())
}

func TestUnknownPath(t *testing.T) {
	r, _ := newTestRouter(&fakeSession{}, nil)

	err := r.Navigate(context.Background(), service.Request{Path: "/missing"})
	var cliErr *clierrors.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, clierrors.ErrorTypeNotFound, cliErr.Type)
}

func TestEmptyPathIsHome(t *testing.T) {
	r, v := newTestRouter(&fakeSession{}, nil)

	require.NoError(t, r.Navigate(context.Background(), service.Request{}))
	assert.Equal(t, []string{"home"}, v.list())
}
