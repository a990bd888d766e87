// Package guard decides whether a route may render for the current
// session and role.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/identity"
)

const (
	LoginPath     = "/login"
	ForbiddenPath = "/forbidden"
)

// Requirement is what a protected route asks of the visitor.
type Requirement int

const (
	// RequireAuth admits any signed-in identity regardless of role.
	RequireAuth Requirement = iota
	RequireUser
	RequireAdmin
)

// Role returns the role the requirement needs, or "" for RequireAuth.
func (r Requirement) Role() string {
	switch r {
	case RequireUser:
		return api.RoleUser
	case RequireAdmin:
		return api.RoleAdmin
	}
	return ""
}

func (r Requirement) String() string {
	switch r {
	case RequireUser:
		return "user"
	case RequireAdmin:
		return "admin"
	}
	return "auth"
}

// Reason says why access was denied.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// State is the outcome of an evaluation: Checking, Denied or Allowed.
type State interface {
	state()
	String() string
}

// Checking means the session or the role is still loading.
type Checking struct{}

// Denied means the route must not render. Redirect is where to go
// instead; From is the path that was attempted.
type Denied struct {
	Reason   Reason
	Redirect string
	From     string
}

// Allowed means the route may render.
type Allowed struct {
	Role string
}

func (Checking) state() {}
func (Denied) state()   {}
func (Allowed) state()  {}

func (Checking) String() string { return "checking" }

func (d Denied) String() string {
	return fmt.Sprintf("denied(%s) -> %s", d.Reason, d.Redirect)
}

func (a Allowed) String() string {
	if a.Role == "" {
		return "allowed"
	}
	return "allowed(" + a.Role + ")"
}

// Input is a snapshot of everything the decision depends on.
type Input struct {
	SessionLoading bool
	Identity       *identity.Identity
	RoleLoading    bool
	Role           string
	Path           string
}

// Evaluate decides access for one navigation. It keeps no state, so
// every navigation sees the current session and role.
func Evaluate(in Input, req Requirement) State {
	needRole := req.Role()

	if in.SessionLoading {
		return Checking{}
	}
	if in.Identity == nil {
		return Denied{Reason: ReasonUnauthenticated, Redirect: LoginPath, From: in.Path}
	}
	if needRole == "" {
		return Allowed{Role: in.Role}
	}
	if in.RoleLoading {
		return Checking{}
	}
	if in.Role != needRole {
		return Denied{Reason: ReasonForbidden, Redirect: ForbiddenPath, From: in.Path}
	}
	return Allowed{Role: in.Role}
}

// Snapshot reads the current Input.
type Snapshot func() Input

// Changes returns a channel closed at the next change of anything the
// snapshot reads. Wait takes it before every read. ctx ends when Wait
// returns, so helpers started for one call do not outlive it.
type Changes func(ctx context.Context) <-chan struct{}

// Every wakes on a fixed interval. It is the fallback for inputs that
// have no change notification.
func Every(d time.Duration) Changes {
	return func(ctx context.Context) <-chan struct{} {
		ch := make(chan struct{})
		time.AfterFunc(d, func() { close(ch) })
		return ch
	}
}

// DefaultPoll is the interval Wait falls back to when changes is nil.
const DefaultPoll = 50 * time.Millisecond

// Wait evaluates until the state is no longer Checking, re-reading the
// snapshot each time changes fires. onChecking runs once, the first time
// the state is Checking, so the caller can show a spinner. If ctx ends
// first Wait returns Checking and the ctx error.
func Wait(ctx context.Context, snap Snapshot, req Requirement, changes Changes, onChecking func()) (State, error) {
	if changes == nil {
		changes = Every(DefaultPoll)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for first := true; ; first = false {
		wake := changes(ctx)
		st := Evaluate(snap(), req)
		if _, checking := st.(Checking); !checking {
			return st, nil
		}
		if first && onChecking != nil {
			onChecking()
		}

		select {
		case <-ctx.Done():
			return Checking{}, ctx.Err()
		case <-wake:
		}
	}
}
