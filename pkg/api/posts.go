package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/json-iterator/go"
)

// FeedParams selects one page of the home feed.
type FeedParams struct {
	Page    int
	Limit   int
	Popular bool
}

// HomePosts returns a page of posts ordered by newest or by popularity.
func (c *Client) HomePosts(ctx context.Context, p FeedParams) (*PostPage, error) {
	path := "/posts/home"
	if p.Popular {
		path = "/posts/home/popular"
	}

	var page PostPage
	err := c.public(ctx, call{
		method: http.MethodGet,
		path:   path,
		query: map[string]string{
			"page":  strconv.Itoa(p.Page),
			"limit": strconv.Itoa(p.Limit),
		},
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchPosts returns every post carrying tag. The result is unpaginated.
func (c *Client) SearchPosts(ctx context.Context, tag string) ([]Post, error) {
	var posts []Post
	err := c.public(ctx, call{
		method: http.MethodGet,
		path:   "/posts/search",
		query:  map[string]string{"tag": tag},
	}, &posts)
	return posts, err
}

// GetPost returns one post.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	err := c.public(ctx, call{
		method: http.MethodGet,
		path:   "/posts/" + url.PathEscape(id),
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// PostsByAuthor returns the posts written by email.
func (c *Client) PostsByAuthor(ctx context.Context, email string) ([]Post, error) {
	var posts []Post
	err := c.secure(ctx, call{
		method: http.MethodGet,
		path:   "/posts",
		query:  map[string]string{"email": email},
	}, &posts)
	return posts, err
}

// PostCount returns how many posts email has written. The backend answers
// with either a bare number or {"count": n}.
func (c *Client) PostCount(ctx context.Context, email string) (int, error) {
	var raw json.RawMessage
	err := c.secure(ctx, call{
		method: http.MethodGet,
		path:   "/posts/count",
		query:  map[string]string{"email": email},
	}, &raw)
	if err != nil {
		return 0, err
	}
	return decodeCount(raw)
}

func decodeCount(raw []byte) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var wrapped struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return 0, err
	}
	return wrapped.Count, nil
}

// CreatePost stores a new post. Vote counters start at zero and createdAt
// is stamped here.
func (c *Client) CreatePost(ctx context.Context, post Post) (string, error) {
	post.UpVote, post.DownVote = 0, 0
	if post.CreatedAt == "" {
		post.CreatedAt = now()
	}

	var response struct {
		InsertedID string `json:"insertedId"`
	}
	err := c.secure(ctx, call{
		method: http.MethodPost,
		path:   "/posts",
		body:   post,
	}, &response)
	return response.InsertedID, err
}

// DeletePost removes one of the caller's posts.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.secure(ctx, call{
		method: http.MethodDelete,
		path:   "/posts/" + url.PathEscape(id),
	}, nil)
}

// Vote records an up or down vote by email.
func (c *Client) Vote(ctx context.Context, postID, voteType, email string) error {
	return c.secure(ctx, call{
		method: http.MethodPatch,
		path:   "/posts/vote/" + url.PathEscape(postID),
		body: map[string]string{
			"voteType":  voteType,
			"userEmail": email,
		},
	}, nil)
}
