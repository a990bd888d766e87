package api

import (
	"context"
	"net/http"
)

// Announcements returns the admin announcements, newest first.
func (c *Client) Announcements(ctx context.Context) ([]Announcement, error) {
	var out []Announcement
	err := c.public(ctx, call{
		method: http.MethodGet,
		path:   "/announcements",
	}, &out)
	return out, err
}

// CreateAnnouncement publishes an announcement.
func (c *Client) CreateAnnouncement(ctx context.Context, a Announcement) error {
	if a.CreatedAt == "" {
		a.CreatedAt = now()
	}
	return c.secure(ctx, call{
		method: http.MethodPost,
		path:   "/announcements",
		body:   a,
	}, nil)
}

// SiteStats returns the aggregate counts shown to admins.
func (c *Client) SiteStats(ctx context.Context) (*SiteStats, error) {
	var stats SiteStats
	err := c.secure(ctx, call{
		method: http.MethodGet,
		path:   "/site-stats",
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
