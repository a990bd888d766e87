package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/codestack/cli/pkg/api"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/formatter"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/query"
	"golang.org/x/sync/errgroup"
)

// PostLimitMessage is the membership upsell shown at the bronze limit.
const PostLimitMessage = "You have reached the post limit (5 posts). Become a member to add more."

// MembershipPath is where the upsell leads.
const MembershipPath = "/membership"

// Quota is a user's post allowance.
type Quota struct {
	Count int
	Badge string
}

// Exhausted reports whether the user may not create another post.
func (q Quota) Exhausted() bool {
	return q.Badge == api.BadgeBronze && q.Count >= api.BronzePostLimit
}

func (q Quota) String() string {
	if q.Badge != api.BadgeBronze {
		return fmt.Sprintf("%d posts (%s, unlimited)", q.Count, q.Badge)
	}
	return fmt.Sprintf("%d of %d posts (%s)", q.Count, api.BronzePostLimit, q.Badge)
}

// errPostLimit is returned when the quota blocks a submission.
func errPostLimit() *clierrors.CLIError {
	return clierrors.NewCLIError(clierrors.ErrorTypeForbidden, PostLimitMessage, nil).
		WithSuggestion("Run 'codestack membership' to become a gold member.")
}

// quota reads the post count and badge together. The entry is
// invalidated first so every check sees the backend's current numbers.
func (v *Views) quota(ctx context.Context, email string) (Quota, error) {
	v.Cache.Invalidate(query.ResQuota)
	return fetch(ctx, v.Cache, query.NewKey(query.ResQuota, email), func(ctx context.Context) (Quota, error) {
		var q Quota
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			n, err := v.Backend.PostCount(gctx, email)
			q.Count = n
			return err
		})
		g.Go(func() error {
			u, err := v.Backend.GetUser(gctx, email)
			q.Badge = u.BadgeOrDefault()
			return err
		})
		if err := g.Wait(); err != nil {
			return Quota{}, err
		}
		return q, nil
	})
}

// upsell shows the post limit notice.
func (v *Views) upsell() error {
	v.Notify.Notify(output.LevelWarning, PostLimitMessage)
	v.Out.Line("Become a Member: codestack open %s", MembershipPath)
	return errPostLimit()
}

// AddPost shows the allowance and, when interactive, the post form. At
// the limit only the upsell is shown.
func (v *Views) AddPost(ctx context.Context, req Request) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}

	q, err := v.quota(ctx, id.Email)
	if err != nil {
		return v.report(err, "", "")
	}
	if q.Exhausted() {
		err := v.upsell()
		if req.Interactive {
			if ok, _ := v.Prompt.Confirm("Become a member now?"); ok {
				return &Redirect{To: MembershipPath}
			}
		}
		return err
	}

	v.Out.Heading("Add New Post")
	v.Out.Line("Allowance: %s", q)
	if !req.Interactive {
		v.Out.Line("Use 'codestack post create' or 'codestack open --interactive %s' to write a post.", req.Path)
		return nil
	}

	form, err := v.promptPost(ctx)
	if err != nil {
		return err
	}
	return v.submitPost(ctx, id.Email, id.DisplayName, form, q)
}

func (v *Views) promptPost(ctx context.Context) (PostForm, error) {
	var f PostForm
	var err error
	if f.Title, err = v.Prompt.String("Title: "); err != nil {
		return f, err
	}
	if f.Description, err = v.Prompt.Multiline("Description", 50); err != nil {
		return f, err
	}

	tags, err := fetch(ctx, v.Cache, query.NewKey(query.ResTags), v.Backend.Tags)
	if err == nil && len(tags) > 0 {
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = t.Tag
		}
		i, err := v.Prompt.Select("Tag:", names)
		if err != nil {
			return f, err
		}
		f.Tag = names[i]
	} else if f.Tag, err = v.Prompt.String("Tag: "); err != nil {
		return f, err
	}

	f.ImagePath, err = v.Prompt.String("Image file: ")
	return f, err
}

// CreatePost validates form, checks the allowance, uploads the image and
// creates the post. Nothing is uploaded or created past the limit.
func (v *Views) CreatePost(ctx context.Context, form PostForm) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}
	if err := form.Validate(); err != nil {
		return v.invalid(err)
	}

	q, err := v.quota(ctx, id.Email)
	if err != nil {
		return v.report(err, "", "")
	}
	return v.submitPost(ctx, id.Email, id.DisplayName, form, q)
}

func (v *Views) submitPost(ctx context.Context, email, name string, form PostForm, q Quota) error {
	if q.Exhausted() {
		return v.upsell()
	}
	if err := form.Validate(); err != nil {
		return v.invalid(err)
	}

	imageURL, err := v.Images.Upload(ctx, form.ImagePath)
	if err != nil {
		return v.report(err, "Image upload failed", "")
	}

	post := api.Post{
		AuthorName:  name,
		AuthorEmail: email,
		AuthorImage: imageURL,
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		Tag:         api.NormalizeTag(form.Tag),
	}

	var postID string
	err = v.mutate(ctx, mutation{
		kind:    query.MutCreatePost,
		success: "successfully saved post!",
		failure: "Failed to save post",
	}, func(ctx context.Context) error {
		created, err := v.Backend.CreatePost(ctx, post)
		postID = created
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("Post created", "post_id", postID)
	if postID != "" {
		v.Out.Line("Post %s: codestack open /post-details/%s", formatter.Bold.Sprint(post.Title), postID)
	}
	return nil
}
