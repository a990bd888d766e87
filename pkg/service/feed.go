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

// feedLoader loads one page of the home feed. A tag filter returns the
// whole matching set, which is paged here.
func (v *Views) feedLoader(ctx context.Context, p listview.Params) (listview.Result[api.Post], error) {
	if p.Tag != "" {
		posts, err := v.Backend.SearchPosts(ctx, p.Tag)
		if err != nil {
			return listview.Result[api.Post]{}, err
		}
		return listview.Result[api.Post]{
			Items: listview.Page(posts, p.Page, p.PageSize),
			Total: len(posts),
		}, nil
	}

	page, err := v.Backend.HomePosts(ctx, api.FeedParams{
		Page:    p.Page,
		Limit:   p.PageSize,
		Popular: p.Sort == listview.SortPopular,
	})
	if err != nil {
		return listview.Result[api.Post]{}, err
	}
	return listview.Result[api.Post]{Items: page.Posts, Total: page.Total}, nil
}

// postList renders the controller's current page of posts.
func (v *Views) postList(c *listview.Controller[api.Post], title string) func() error {
	return func() error {
		p := c.Params()
		heading := fmt.Sprintf("%s (%s)", title, p.Sort)
		if p.Tag != "" {
			heading = fmt.Sprintf("%s tagged %q", title, p.Tag)
		}
		v.Out.Heading(heading)

		posts := c.Items()
		if len(posts) == 0 {
			v.Out.Line("No posts found.")
			return nil
		}
		if err := v.Out.PrintTable(formatter.PostHeaders, formatter.PostRows(posts), posts); err != nil {
			return err
		}
		v.Out.Line("%s (%d post%s)", formatter.Pager(p.Page, c.TotalPages()), c.Total(), pluralize(c.Total()))
		return nil
	}
}

// openPost is the browse action that opens a post's details.
func (v *Views) openPost() action {
	return action{
		help: "ID open post",
		run: func(ctx context.Context, id string) error {
			return v.PostDetails(ctx, Request{Params: map[string]string{"id": id}})
		},
	}
}

// Home is the landing page: announcements, tags, the feed and the
// popular and recent widgets.
func (v *Views) Home(ctx context.Context, req Request) error {
	logger.Debug("Rendering home", "page", req.List.Page, "tag", req.List.Tag)

	// Widgets fail on their own; the feed still renders.
	if err := v.renderAnnouncements(ctx); err != nil {
		logger.Warn("Announcements unavailable", "error", err)
	}
	if err := v.renderTags(ctx); err != nil {
		logger.Warn("Tags unavailable", "error", err)
	}

	b := newBrowser[api.Post](v, nil)
	b.sorting, b.tags = true, true
	b.actions["o"] = v.openPost()
	err := b.mount(ctx, listview.Config[api.Post]{
		Resource: query.ResHomePosts,
		PageSize: listview.HomePageSize,
		Cache:    v.Cache,
		Load:     v.feedLoader,
	}, ListOptions{Page: req.List.Page, Sort: req.List.Sort, Tag: api.NormalizeTag(req.List.Tag)})
	if err != nil {
		logger.Debug("Feed load failed", "error", err)
	}
	b.render = v.postList(b.c, "Posts")

	if !req.Interactive {
		defer b.c.Close()
		if err := b.show(); err != nil {
			return err
		}
		if err := v.renderPopular(ctx); err != nil {
			logger.Warn("Popular posts unavailable", "error", err)
		}
		if err := v.renderRecentComments(ctx); err != nil {
			logger.Warn("Recent comments unavailable", "error", err)
		}
		return b.c.Err()
	}

	if err := v.renderPopular(ctx); err != nil {
		logger.Warn("Popular posts unavailable", "error", err)
	}
	return b.run(ctx)
}

// AllPosts is the full post listing, eight per page.
func (v *Views) AllPosts(ctx context.Context, req Request) error {
	b := newBrowser[api.Post](v, nil)
	b.sorting = true
	b.actions["o"] = v.openPost()
	err := b.mount(ctx, listview.Config[api.Post]{
		Resource: query.ResAllPosts,
		PageSize: listview.AllPostsPageSize,
		Cache:    v.Cache,
		Load:     v.feedLoader,
	}, ListOptions{Page: req.List.Page, Sort: req.List.Sort})
	if err != nil {
		logger.Debug("All posts load failed", "error", err)
	}
	b.render = v.postList(b.c, "All posts")

	if !req.Interactive {
		defer b.c.Close()
		if err := b.show(); err != nil {
			return err
		}
		return b.c.Err()
	}
	return b.run(ctx)
}

func (v *Views) renderAnnouncements(ctx context.Context) error {
	items, err := fetch(ctx, v.Cache, query.NewKey(query.ResAnnouncements), v.Backend.Announcements)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	v.Out.Heading(fmt.Sprintf("Announcements (%d)", len(items)))
	return v.Out.PrintTable(formatter.AnnouncementHeaders, announcementRows(items), items)
}

func announcementRows(items []api.Announcement) [][]string {
	rows := make([][]string, 0, len(items))
	for _, a := range items {
		rows = append(rows, formatter.AnnouncementRow(a))
	}
	return rows
}

func (v *Views) renderTags(ctx context.Context) error {
	tags, err := fetch(ctx, v.Cache, query.NewKey(query.ResTags), v.Backend.Tags)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, "#"+t.Tag)
	}
	v.Out.Heading("Tags")
	v.Out.Line("%s", strings.Join(names, "  "))
	return nil
}

func (v *Views) renderPopular(ctx context.Context) error {
	key := query.NewKey(query.ResPopularPosts, 1, listview.PopularPageSize)
	page, err := fetch(ctx, v.Cache, key, func(ctx context.Context) (*api.PostPage, error) {
		return v.Backend.HomePosts(ctx, api.FeedParams{Page: 1, Limit: listview.PopularPageSize, Popular: true})
	})
	if err != nil {
		return err
	}
	if len(page.Posts) == 0 {
		return nil
	}
	v.Out.Heading("Popular")
	return v.Out.PrintTable(formatter.PostHeaders, formatter.PostRows(page.Posts), page.Posts)
}

// recentShown is how many site-wide comments the home page lists.
const recentShown = 5

func (v *Views) renderRecentComments(ctx context.Context) error {
	comments, err := fetch(ctx, v.Cache, query.NewKey(query.ResRecent), v.Backend.RecentComments)
	if err != nil {
		return err
	}
	if len(comments) > recentShown {
		comments = comments[:recentShown]
	}
	if len(comments) == 0 {
		return nil
	}
	v.Out.Heading("Recent comments")
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, []string{c.Name, formatter.Truncate(c.Text, 60), formatter.FormatTime(c.CreatedAt)})
	}
	return v.Out.PrintTable([]string{"By", "Comment", "Posted"}, rows, comments)
}
