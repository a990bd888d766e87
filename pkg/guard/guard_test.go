package guard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/broadcast"
	"github.com/codestack/cli/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dev = &identity.Identity{Email: "dev@codestack.io"}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		req  Requirement
		want State
	}{
		{"session loading", Input{SessionLoading: true, Identity: dev, Role: api.RoleAdmin}, RequireAdmin, Checking{}},
		{"session loading auth only", Input{SessionLoading: true}, RequireAuth, Checking{}},
		{"anonymous", Input{Path: "/dashboard/add-post"}, RequireUser,
			Denied{Reason: ReasonUnauthenticated, Redirect: LoginPath, From: "/dashboard/add-post"}},
		{"anonymous auth route", Input{Path: "/membership"}, RequireAuth,
			Denied{Reason: ReasonUnauthenticated, Redirect: LoginPath, From: "/membership"}},
		{"role loading", Input{Identity: dev, RoleLoading: true}, RequireUser, Checking{}},
		{"auth route ignores role loading", Input{Identity: dev, RoleLoading: true}, RequireAuth, Allowed{}},
		{"user on user route", Input{Identity: dev, Role: api.RoleUser}, RequireUser, Allowed{Role: api.RoleUser}},
		{"admin on admin route", Input{Identity: dev, Role: api.RoleAdmin}, RequireAdmin, Allowed{Role: api.RoleAdmin}},
		{"user on admin route", Input{Identity: dev, Role: api.RoleUser, Path: "/dashboard/manage-users"}, RequireAdmin,
			Denied{Reason: ReasonForbidden, Redirect: ForbiddenPath, From: "/dashboard/manage-users"}},
		{"admin on user route", Input{Identity: dev, Role: api.RoleAdmin}, RequireUser,
			Denied{Reason: ReasonForbidden, Redirect: ForbiddenPath}},
		{"unresolved role", Input{Identity: dev}, RequireAdmin,
			Denied{Reason: ReasonForbidden, Redirect: ForbiddenPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.in, tt.req))
		})
	}
}

// A role-gated route never renders while the role is unknown, whatever
// the role field happens to hold.
func TestNeverAllowedWhileRoleLoading(t *testing.T) {
	for _, req := range []Requirement{RequireUser, RequireAdmin} {
		for _, role := range []string{"", api.RoleUser, api.RoleAdmin} {
			for _, sessionLoading := range []bool{true, false} {
				in := Input{SessionLoading: sessionLoading, Identity: dev, RoleLoading: true, Role: role}
				st := Evaluate(in, req)
				_, allowed := st.(Allowed)
				assert.False(t, allowed, "%s with role %q rendered while loading", req, role)
			}
		}
	}
}

func TestRequirementRole(t *testing.T) {
	assert.Equal(t, "", RequireAuth.Role())
	assert.Equal(t, api.RoleUser, RequireUser.Role())
	assert.Equal(t, api.RoleAdmin, RequireAdmin.Role())
	assert.Equal(t, "admin", RequireAdmin.String())
}

func TestWaitSettles(t *testing.T) {
	var reads int32
	snap := func() Input {
		if atomic.AddInt32(&reads, 1) < 3 {
			return Input{Identity: dev, RoleLoading: true}
		}
		return Input{Identity: dev, Role: api.RoleAdmin}
	}

	spinners := 0
	st, err := Wait(context.Background(), snap, RequireAdmin, Every(time.Millisecond), func() { spinners++ })
	require.NoError(t, err)
	assert.Equal(t, Allowed{Role: api.RoleAdmin}, st)
	assert.Equal(t, 1, spinners)
}

func TestWaitImmediate(t *testing.T) {
	called := false
	st, err := Wait(context.Background(), func() Input { return Input{} }, RequireAuth, nil, func() { called = true })
	require.NoError(t, err)
	assert.IsType(t, Denied{}, st)
	assert.False(t, called)
}

func TestWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	st, err := Wait(ctx, func() Input { return Input{SessionLoading: true} }, RequireUser, never, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Checking{}, st)
}

func never(ctx context.Context) <-chan struct{} {
	return nil
}

func TestWaitWakesOnChange(t *testing.T) {
	var (
		sig   broadcast.Signal
		role  atomic.Value
		reads int32
	)
	role.Store("")

	snap := func() Input {
		atomic.AddInt32(&reads, 1)
		r := role.Load().(string)
		return Input{Identity: dev, Role: r, RoleLoading: r == ""}
	}
	changes := func(ctx context.Context) <-chan struct{} { return sig.Changed() }

	go func() {
		time.Sleep(10 * time.Millisecond)
		role.Store(api.RoleUser)
		sig.Notify()
	}()

	st, err := Wait(context.Background(), snap, RequireAdmin, changes, nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonForbidden, st.(Denied).Reason)
	assert.Equal(t, int32(2), atomic.LoadInt32(&reads), "re-read only when notified")
}
