// Package service holds one view per page of the forum: it reads through
// the query cache, runs mutations, and renders to the terminal.
package service

import (
	"context"
	"fmt"

	"github.com/codestack/cli/pkg/api"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/identity"
	"github.com/codestack/cli/pkg/imagehost"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/payment"
	"github.com/codestack/cli/pkg/prompter"
	"github.com/codestack/cli/pkg/query"
	"github.com/codestack/cli/pkg/session"
)

// Backend is the backend API as the views use it.
type Backend interface {
	HomePosts(ctx context.Context, p api.FeedParams) (*api.PostPage, error)
	SearchPosts(ctx context.Context, tag string) ([]api.Post, error)
	GetPost(ctx context.Context, id string) (*api.Post, error)
	PostsByAuthor(ctx context.Context, email string) ([]api.Post, error)
	PostCount(ctx context.Context, email string) (int, error)
	CreatePost(ctx context.Context, post api.Post) (string, error)
	DeletePost(ctx context.Context, id string) error
	Vote(ctx context.Context, postID, voteType, email string) error

	Comments(ctx context.Context, postID string) ([]api.Comment, error)
	RecentComments(ctx context.Context) ([]api.Comment, error)
	CreateComment(ctx context.Context, comment api.Comment) error
	ReportComment(ctx context.Context, commentID, feedback string) error
	ReportedComments(ctx context.Context) ([]api.Comment, error)
	DismissReport(ctx context.Context, commentID string) error
	DeleteReportedComment(ctx context.Context, commentID string) error

	GetUser(ctx context.Context, email string) (*api.User, error)
	CreateUser(ctx context.Context, user api.User) error
	UpdateProfile(ctx context.Context, email string, update api.ProfileUpdate) error
	ToggleAdmin(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, search string, page, limit int) (*api.UserPage, error)

	Tags(ctx context.Context) ([]api.Tag, error)
	CreateTag(ctx context.Context, tag, addedBy string) error
	Announcements(ctx context.Context) ([]api.Announcement, error)
	CreateAnnouncement(ctx context.Context, a api.Announcement) error
	SiteStats(ctx context.Context) (*api.SiteStats, error)
}

// Session is the session state as the views use it.
type Session interface {
	Current() *identity.Identity
	SignIn(ctx context.Context, email, password string) (*identity.Identity, error)
	SignInWithProvider(ctx context.Context) (*identity.Identity, error)
	Register(ctx context.Context, req session.RegisterRequest) (*identity.Identity, error)
	SignOut(ctx context.Context) error
}

// Payer runs the membership checkout.
type Payer interface {
	Amount() int
	Pay(ctx context.Context, payer payment.Billing, card payment.Card) (*payment.Receipt, error)
}

// Deps wires the views.
type Deps struct {
	Backend  Backend
	Cache    *query.Cache
	Session  Session
	Images   imagehost.Uploader
	Checkout Payer
	Out      *output.Printer
	Notify   output.Notifier
	Prompt   *prompter.Prompter
}

// Views renders pages and performs their actions.
type Views struct {
	Deps
}

// New creates the views.
func New(d Deps) *Views {
	if d.Notify == nil {
		d.Notify = output.Discard{}
	}
	if d.Out == nil {
		d.Out = output.Stdout()
	}
	return &Views{Deps: d}
}

// fetch reads key through the cache.
func fetch[T any](ctx context.Context, c *query.Cache, key query.Key, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %s holds %T", key, v)
	}
	return out, nil
}

// signedIn returns the current identity or an unauthorized error.
func (v *Views) signedIn() (*identity.Identity, error) {
	id := v.Session.Current()
	if id == nil {
		return nil, clierrors.UnauthorizedError()
	}
	return id, nil
}

// mutation describes one write and the notices around it.
type mutation struct {
	kind     query.MutationKind
	success  string
	failure  string
	conflict string
}

// mutate runs fn as a mutation. Failures become a notification; 401 and
// 403 are left to the gateway, which has already signed the user out.
func (v *Views) mutate(ctx context.Context, m mutation, fn func(ctx context.Context) error) error {
	err := v.Cache.Mutate(ctx, m.kind, fn)
	if err == nil {
		if m.success != "" {
			v.Notify.Notify(output.LevelSuccess, m.success)
		}
		return nil
	}

	logger.Debug("Mutation failed", "kind", m.kind, "error", err)
	return v.report(err, m.failure, m.conflict)
}

// report turns err into a notification and a categorized error.
func (v *Views) report(err error, failure, conflict string) error {
	if api.IsUnauthorized(err) || api.IsForbidden(err) {
		return clierrors.CategorizeError(err)
	}

	cliErr := clierrors.CategorizeError(err)
	switch {
	case cliErr.Type == clierrors.ErrorTypeConflict && conflict != "":
		cliErr = clierrors.ConflictError(conflict)
		cliErr.Cause = err
		v.Notify.Notify(output.LevelWarning, conflict)
	case cliErr.Type == clierrors.ErrorTypeConflict,
		cliErr.Type == clierrors.ErrorTypeValidation:
		v.Notify.Notify(output.LevelError, cliErr.Message)
	case failure != "":
		v.Notify.Notify(output.LevelError, failure)
	default:
		v.Notify.Notify(output.LevelError, cliErr.Message)
	}
	return cliErr
}

// invalid notifies a validation error and returns it.
func (v *Views) invalid(err error) error {
	v.Notify.Notify(output.LevelError, err.Error())
	return err
}

func nameOr(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
