package service

import (
	"context"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/listview"
	"github.com/codestack/cli/pkg/query"
)

// myPostsPageSize pages the author's own posts.
const myPostsPageSize = 10

// myPostsLoader loads every post by email and pages it locally.
func (v *Views) myPostsLoader(email string) listview.Loader[api.Post] {
	return func(ctx context.Context, p listview.Params) (listview.Result[api.Post], error) {
		posts, err := v.Backend.PostsByAuthor(ctx, email)
		if err != nil {
			return listview.Result[api.Post]{}, err
		}
		return listview.Result[api.Post]{
			Items: listview.Page(posts, p.Page, p.PageSize),
			Total: len(posts),
		}, nil
	}
}

// MyPosts lists the signed-in user's posts. Interactive mode can delete
// and open comment threads.
func (v *Views) MyPosts(ctx context.Context, req Request) error {
	id, err := v.signedIn()
	if err != nil {
		return v.invalid(err)
	}

	b := newBrowser[api.Post](v, nil)
	b.actions["o"] = v.openPost()
	b.actions["d"] = action{
		help: "ID delete",
		run: func(ctx context.Context, postID string) error {
			if ok, _ := v.Prompt.Confirm("Delete this post?"); !ok {
				return nil
			}
			return v.DeletePost(ctx, postID)
		},
	}
	b.actions["c"] = action{
		help: "ID comments",
		run: func(ctx context.Context, postID string) error {
			return v.PostCommented(ctx, Request{Params: map[string]string{"postId": postID}})
		},
	}

	err = b.mount(ctx, listview.Config[api.Post]{
		Resource: query.ResMyPosts,
		Scope:    id.Email,
		PageSize: myPostsPageSize,
		Cache:    v.Cache,
		Load:     v.myPostsLoader(id.Email),
	}, ListOptions{Page: req.List.Page})
	if err != nil {
		v.report(err, "", "")
	}
	b.render = v.postList(b.c, "My posts")

	if !req.Interactive {
		defer b.c.Close()
		if err := b.show(); err != nil {
			return err
		}
		return b.c.Err()
	}
	return b.run(ctx)
}

// DeletePost deletes one of the user's posts.
func (v *Views) DeletePost(ctx context.Context, postID string) error {
	if _, err := v.signedIn(); err != nil {
		return v.invalid(err)
	}
	return v.mutate(ctx, mutation{
		kind:    query.MutDeletePost,
		success: "Post deleted",
		failure: "Failed to delete post",
	}, func(ctx context.Context) error {
		return v.Backend.DeletePost(ctx, postID)
	})
}
