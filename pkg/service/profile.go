package service

import (
	"context"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/formatter"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/query"
)

// recentPostsShown is how many of the user's posts the profile lists.
const recentPostsShown = 3

func (v *Views) profile(ctx context.Context, email string) (*api.User, error) {
	return fetch(ctx, v.Cache, query.NewKey(query.ResUserProfile, email), func(ctx context.Context) (*api.User, error) {
		return v.Backend.GetUser(ctx, email)
	})
}

func (v *Views) renderProfile(u *api.User) error {
	return v.Out.PrintRecord(u.Name, []output.Field{
		{Key: "Email", Value: u.Email},
		{Key: "Role", Value: formatter.Role(u.Role)},
		{Key: "Badge", Value: formatter.Badge(u.BadgeOrDefault())},
		{Key: "Phone", Value: orDash(u.Phone)},
		{Key: "Address", Value: orDash(u.Address)},
		{Key: "About me", Value: orDash(u.AboutMe)},
		{Key: "Member since", Value: formatter.FormatTime(u.CreatedAt)},
		{Key: "Last login", Value: formatter.FormatTime(u.LastLogIn)},
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// UserProfile shows the user's record, badge and most recent posts.
func (v *Views) UserProfile(ctx context.Context, req Request) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}

	u, err := v.profile(ctx, id.Email)
	if err != nil {
		return v.report(err, "", "")
	}
	if err := v.renderProfile(u); err != nil {
		return err
	}

	posts, err := fetch(ctx, v.Cache, query.NewKey(query.ResMyPosts, id.Email, "recent"), func(ctx context.Context) ([]api.Post, error) {
		return v.Backend.PostsByAuthor(ctx, id.Email)
	})
	if err == nil && len(posts) > 0 {
		if len(posts) > recentPostsShown {
			posts = posts[:recentPostsShown]
		}
		v.Out.Heading("Recent posts")
		if err := v.Out.PrintTable(formatter.PostHeaders, formatter.PostRows(posts), posts); err != nil {
			return err
		}
	}

	if !req.Interactive {
		return nil
	}
	if ok, _ := v.Prompt.Confirm("Edit About Me?"); !ok {
		return nil
	}
	text, err := v.Prompt.Multiline("About me", 20)
	if err != nil {
		return nil
	}
	return v.UpdateAboutMe(ctx, text)
}

// UpdateAboutMe replaces the about-me text.
func (v *Views) UpdateAboutMe(ctx context.Context, text string) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}
	return v.mutate(ctx, mutation{
		kind:    query.MutUpdateProfile,
		success: "About Me updated successfully!",
		failure: "Failed to update About Me",
	}, func(ctx context.Context) error {
		return v.Backend.UpdateProfile(ctx, id.Email, api.ProfileUpdate{AboutMe: text})
	})
}

// UpdateProfile patches the signed-in user's contact details.
func (v *Views) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}
	return v.mutate(ctx, mutation{
		kind:    query.MutUpdateProfile,
		success: "Profile updated successfully!",
		failure: "Failed to update profile",
	}, func(ctx context.Context) error {
		return v.Backend.UpdateProfile(ctx, id.Email, update)
	})
}
