package api

import (
	"context"
	"net/http"
	"strings"
)

// NormalizeTag is the stored form of a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Tags returns every tag.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	err := c.public(ctx, call{
		method: http.MethodGet,
		path:   "/tags",
	}, &tags)
	return tags, err
}

// CreateTag adds a tag. A tag that already exists comes back as a 409.
func (c *Client) CreateTag(ctx context.Context, tag, addedBy string) error {
	return c.secure(ctx, call{
		method: http.MethodPost,
		path:   "/tags",
		body: Tag{
			Tag:       NormalizeTag(tag),
			AddedBy:   addedBy,
			CreatedAt: now(),
		},
	}, nil)
}
