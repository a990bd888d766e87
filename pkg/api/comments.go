package api

import (
	"context"
	"net/http"
	"net/url"
)

// ReportFeedback lists the reasons a comment can be reported for.
var ReportFeedback = []string{
	"Inappropriate Language",
	"Spam or Irrelevant",
	"Offensive or Harassment",
}

// Comments returns the comments on a post.
func (c *Client) Comments(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	err := c.secure(ctx, call{
		method: http.MethodGet,
		path:   "/comments",
		query:  map[string]string{"postId": postID},
	}, &comments)
	return comments, err
}

// RecentComments returns the latest comments site-wide for the home page.
func (c *Client) RecentComments(ctx context.Context) ([]Comment, error) {
	var comments []Comment
	err := c.public(ctx, call{
		method: http.MethodGet,
		path:   "/all-comments",
	}, &comments)
	return comments, err
}

// CreateComment posts a comment. A second comment by the same author on
// the same post comes back as a 409 carrying the backend's message.
func (c *Client) CreateComment(ctx context.Context, comment Comment) error {
	if comment.CreatedAt == "" {
		comment.CreatedAt = now()
	}
	return c.secure(ctx, call{
		method: http.MethodPost,
		path:   "/comments",
		body:   comment,
	}, nil)
}

// ReportComment flags a comment with one of ReportFeedback.
func (c *Client) ReportComment(ctx context.Context, commentID, feedback string) error {
	return c.secure(ctx, call{
		method: http.MethodPatch,
		path:   "/comments/report",
		body: map[string]string{
			"commentId": commentID,
			"feedback":  feedback,
		},
	}, nil)
}

// ReportedComments lists comments awaiting moderation.
func (c *Client) ReportedComments(ctx context.Context) ([]Comment, error) {
	var comments []Comment
	err := c.secure(ctx, call{
		method: http.MethodGet,
		path:   "/reported-comments",
	}, &comments)
	return comments, err
}

// DismissReport marks a report reviewed and keeps the comment.
func (c *Client) DismissReport(ctx context.Context, commentID string) error {
	return c.secure(ctx, call{
		method: http.MethodPatch,
		path:   "/comments/" + url.PathEscape(commentID) + "/dismiss-report",
	}, nil)
}

// DeleteReportedComment removes a reported comment.
func (c *Client) DeleteReportedComment(ctx context.Context, commentID string) error {
	return c.secure(ctx, call{
		method: http.MethodDelete,
		path:   "/comments/" + url.PathEscape(commentID) + "/delete-report",
	}, nil)
}
