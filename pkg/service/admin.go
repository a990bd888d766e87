package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/formatter"
	"github.com/codestack/cli/pkg/listview"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/query"
)

// TagExistsMessage is shown when the backend already has the tag.
const TagExistsMessage = "This tag already exists!"

// AdminProfile shows the admin's record and the site totals. Interactive
// mode can add tags.
func (v *Views) AdminProfile(ctx context.Context, req Request) error {
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

	stats, err := fetch(ctx, v.Cache, query.NewKey(query.ResSiteStats), v.Backend.SiteStats)
	if err != nil {
		return v.report(err, "", "")
	}
	v.renderStats(stats)

	if !req.Interactive {
		return nil
	}
	for {
		tag, err := v.Prompt.String("New tag (empty to go back): ")
		if err != nil || tag == "" {
			return nil
		}
		_ = v.AddTag(ctx, tag)
	}
}

// statsBarWidth is the longest bar in the totals chart.
const statsBarWidth = 30

func (v *Views) renderStats(s *api.SiteStats) {
	v.Out.Heading("Site stats")
	rows := []struct {
		label string
		n     int
	}{
		{"Posts", s.PostsCount},
		{"Comments", s.CommentsCount},
		{"Users", s.UsersCount},
	}
	peak := 0
	for _, r := range rows {
		if r.n > peak {
			peak = r.n
		}
	}
	for _, r := range rows {
		width := 0
		if peak > 0 {
			width = r.n * statsBarWidth / peak
		}
		v.Out.Line("%-9s %6d %s", r.label, r.n, strings.Repeat("█", width))
	}
}

// AddTag creates a tag. An existing tag is reported as such.
func (v *Views) AddTag(ctx context.Context, tag string) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}
	normalized, err := ValidateTag(tag)
	if err != nil {
		return v.invalid(err)
	}
	return v.mutate(ctx, mutation{
		kind:     query.MutCreateTag,
		success:  "Successfully added a tag",
		failure:  "Failed to add tag",
		conflict: TagExistsMessage,
	}, func(ctx context.Context) error {
		return v.Backend.CreateTag(ctx, normalized, id.Email)
	})
}

func (v *Views) usersLoader(ctx context.Context, p listview.Params) (listview.Result[api.User], error) {
	page, err := v.Backend.ListUsers(ctx, p.Search, p.Page, p.PageSize)
	if err != nil {
		return listview.Result[api.User]{}, err
	}
	return listview.Result[api.User]{Items: page.Users, Total: page.Total}, nil
}

// ManageUsers pages through users with a debounced search and can
// toggle admin rights.
func (v *Views) ManageUsers(ctx context.Context, req Request) error {
	b := newBrowser[api.User](v, nil)
	b.search = true
	b.actions["a"] = action{
		help: "ID toggle admin",
		run: func(ctx context.Context, userID string) error {
			return v.ToggleAdmin(ctx, userID)
		},
	}

	err := b.mount(ctx, listview.Config[api.User]{
		Resource:    query.ResUserList,
		PageSize:    listview.UsersPageSize,
		Cache:       v.Cache,
		Load:        v.usersLoader,
		SearchDelay: listview.UserSearchDelay,
	}, ListOptions{Page: req.List.Page, Search: req.List.Search})
	if err != nil {
		logger.Debug("User list load failed", "error", err)
	}

	b.render = func() error {
		p := b.c.Params()
		title := "Users"
		if p.Search != "" {
			title = fmt.Sprintf("Users matching %q", p.Search)
		}
		v.Out.Heading(title)
		users := b.c.Items()
		if len(users) == 0 {
			v.Out.Line("No users found.")
			return nil
		}
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, formatter.UserRow(u))
		}
		if err := v.Out.PrintTable(formatter.UserHeaders, rows, users); err != nil {
			return err
		}
		v.Out.Line("%s (%d user%s)", formatter.Pager(p.Page, b.c.TotalPages()), b.c.Total(), pluralize(b.c.Total()))
		return nil
	}

	if !req.Interactive {
		defer b.c.Close()
		if err := b.show(); err != nil {
			return err
		}
		return b.c.Err()
	}
	return b.run(ctx)
}

// ToggleAdmin flips a user between the user and admin roles.
func (v *Views) ToggleAdmin(ctx context.Context, userID string) error {
	return v.mutate(ctx, mutation{
		kind:    query.MutToggleAdmin,
		success: "User role updated",
		failure: "User role failed to update",
	}, func(ctx context.Context) error {
		return v.Backend.ToggleAdmin(ctx, userID)
	})
}

// MakeAnnouncement prompts for and publishes an announcement.
func (v *Views) MakeAnnouncement(ctx context.Context, req Request) error {
	if _, err := v.signedIn(); err != nil {
		return v.invalid(err)
	}
	v.Out.Heading("Make Announcement")
	if !req.Interactive {
		v.Out.Line("Use 'codestack admin announce' or 'codestack open --interactive %s'.", req.Path)
		return nil
	}

	var f AnnouncementForm
	var err error
	if f.Title, err = v.Prompt.String("Title: "); err != nil {
		return nil
	}
	if f.Description, err = v.Prompt.Multiline("Description", 50); err != nil {
		return nil
	}
	if f.ImagePath, err = v.Prompt.String("Author image file: "); err != nil {
		return nil
	}
	return v.CreateAnnouncement(ctx, f)
}

// CreateAnnouncement uploads the author image and publishes.
func (v *Views) CreateAnnouncement(ctx context.Context, f AnnouncementForm) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}
	if err := f.Validate(); err != nil {
		return v.invalid(err)
	}

	imageURL, err := v.Images.Upload(ctx, f.ImagePath)
	if err != nil {
		return v.report(err, "Image upload failed", "")
	}

	return v.mutate(ctx, mutation{
		kind:    query.MutCreateAnnouncement,
		success: "Announcement posted successfully",
		failure: "Failed to post",
	}, func(ctx context.Context) error {
		return v.Backend.CreateAnnouncement(ctx, api.Announcement{
			AuthorName:  id.DisplayName,
			AuthorImage: imageURL,
			Title:       strings.TrimSpace(f.Title),
			Description: strings.TrimSpace(f.Description),
		})
	})
}
