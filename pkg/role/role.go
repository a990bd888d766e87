// Package role resolves the signed-in identity's role from the backend
// user record.
package role

import (
	"context"
	"sync"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/broadcast"
	"github.com/codestack/cli/pkg/identity"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/query"
)

// UserFetcher reads one backend user record.
type UserFetcher interface {
	GetUser(ctx context.Context, email string) (*api.User, error)
}

// Observer is the part of the session the resolver follows.
type Observer interface {
	Observe() (<-chan *identity.Identity, func())
}

// Resolver maps an identity to its role. A role is never assumed: until
// the lookup completes it is loading, and a failed lookup yields "".
type Resolver struct {
	cache *query.Cache
	users UserFetcher

	mu      sync.Mutex
	email   string
	role    string
	loading bool
	seq     uint64
	sub     *query.Subscription

	changed broadcast.Signal
}

// New creates a resolver that reads through cache.
func New(cache *query.Cache, users UserFetcher) *Resolver {
	return &Resolver{cache: cache, users: users, loading: true}
}

// Key is the cache coordinate for email's role.
func Key(email string) query.Key {
	return query.NewKey(query.ResUserRole, email)
}

// Role returns the last resolved role.
func (r *Resolver) Role() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.role
}

// Loading reports whether a resolution is outstanding.
func (r *Resolver) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Changed returns a channel closed at the next change of the resolution.
func (r *Resolver) Changed() <-chan struct{} {
	return r.changed.Changed()
}

// For returns the role for email. It reports loading while the resolver
// has not caught up with that email yet.
func (r *Resolver) For(email string) (role string, loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if email == "" {
		return "", false
	}
	if r.email != email {
		return "", true
	}
	return r.role, r.loading
}

// Resolve looks up id's role and blocks until it is known. A nil id
// clears the resolution.
func (r *Resolver) Resolve(ctx context.Context, id *identity.Identity) string {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.closeSubLocked()

	if id == nil || id.Email == "" {
		r.email, r.role, r.loading = "", "", false
		r.changed.Notify()
		r.mu.Unlock()
		return ""
	}
	if r.email != id.Email {
		r.role = ""
	}
	r.email = id.Email
	r.loading = true
	r.changed.Notify()
	r.mu.Unlock()

	email := id.Email
	key := Key(email)
	val, err := r.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		return r.users.GetUser(ctx, email)
	})
	role := roleOf(val, err)
	if err != nil {
		logger.Warn("Role lookup failed", "email", email, "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq {
		return role
	}
	r.role = role
	r.loading = false
	r.changed.Notify()

	// Role changes made elsewhere (toggle-admin) arrive through the cache.
	r.sub = r.cache.Subscribe(key)
	go r.follow(seq, r.sub)

	logger.Debug("Role resolved", "email", email, "role", role)
	return role
}

func (r *Resolver) follow(seq uint64, sub *query.Subscription) {
	for u := range sub.Updates() {
		r.mu.Lock()
		if seq == r.seq {
			r.role = roleOf(u.Value, u.Err)
			r.changed.Notify()
		}
		r.mu.Unlock()
	}
}

// Watch resolves every identity the session reports until the returned
// stop function is called.
func (r *Resolver) Watch(ctx context.Context, obs Observer) (stop func()) {
	ch, cancel := obs.Observe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for id := range ch {
			r.Resolve(ctx, id)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Close drops the resolution and its subscription.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.closeSubLocked()
	r.changed.Notify()
}

func (r *Resolver) closeSubLocked() {
	if r.sub != nil {
		r.sub.Close()
		r.sub = nil
	}
}

func roleOf(val interface{}, err error) string {
	if err != nil {
		return ""
	}
	user, ok := val.(*api.User)
	if !ok || user == nil {
		return ""
	}
	switch user.Role {
	case api.RoleUser, api.RoleAdmin:
		return user.Role
	}
	return ""
}
