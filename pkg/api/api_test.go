package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codestack/cli/pkg/client"
	"github.com/codestack/cli/pkg/errors"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }
func (s staticToken) Delete() error { return nil }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	gw := client.New(client.Options{BaseURL: srv.URL, Timeout: 5 * time.Second}, staticToken("tok"))
	return New(gw)
}

func decodeBody(t *testing.T, r *http.Request, v interface{}) {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestHomePostsPaths(t *testing.T) {
	tests := []struct {
		name    string
		popular bool
		path    string
	}{
		{"newest", false, "/posts/home"},
		{"popular", true, "/posts/home/popular"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, "2", r.URL.Query().Get("page"))
				assert.Equal(t, "5", r.URL.Query().Get("limit"))
				assert.Empty(t, r.Header.Get("Authorization"), "feed is read anonymously")
				_, _ = w.Write([]byte(`{"posts":[{"_id":"p6","title":"six"}],"total":11}`))
			})

			page, err := c.HomePosts(context.Background(), FeedParams{Page: 2, Limit: 5, Popular: tt.popular})
			require.NoError(t, err)
			assert.Equal(t, 11, page.Total)
			require.Len(t, page.Posts, 1)
			assert.Equal(t, "p6", page.Posts[0].ID)
		})
	}
}

func TestPostCountShapes(t *testing.T) {
	for _, body := range []string{`5`, `{"count":5}`} {
		t.Run(body, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/posts/count", r.URL.Path)
				assert.Equal(t, "dev@codestack.io", r.URL.Query().Get("email"))
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(body))
			})

			n, err := c.PostCount(context.Background(), "dev@codestack.io")
			require.NoError(t, err)
			assert.Equal(t, 5, n)
		})
	}
}

func TestCreatePostResetsCounters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var got Post
		decodeBody(t, r, &got)
		assert.Equal(t, "Go generics", got.Title)
		assert.Zero(t, got.UpVote)
		assert.NotEmpty(t, got.CreatedAt)
		_, _ = w.Write([]byte(`{"insertedId":"new-id"}`))
	})

	id, err := c.CreatePost(context.Background(), Post{Title: "Go generics", UpVote: 9})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
}

func TestCreateTagNormalizes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var got Tag
		decodeBody(t, r, &got)
		assert.Equal(t, "golang", got.Tag)
		assert.Equal(t, "admin@codestack.io", got.AddedBy)
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, c.CreateTag(context.Background(), "  GoLang ", "admin@codestack.io"))
}

func TestConflictCarriesBackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"You already commented on this post"}`))
	})

	err := c.CreateComment(context.Background(), Comment{PostID: "p1", Email: "dev@codestack.io", Text: "again"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, "You already commented on this post", err.Error())
}

func TestParseErrorFallsBackToStatusText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetPost(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, IsServerError(err))
	assert.Equal(t, "Internal Server Error", err.Error())
}

func TestVoteBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/posts/vote/p1", r.URL.Path)
		var got map[string]string
		decodeBody(t, r, &got)
		assert.Equal(t, VoteUp, got["voteType"])
		assert.Equal(t, "dev@codestack.io", got["userEmail"])
	})

	require.NoError(t, c.Vote(context.Background(), "p1", VoteUp, "dev@codestack.io"))
}

func TestRecordPaymentInsertedID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"paymentResult":{"insertedId":""}}`))
	})

	id, err := c.RecordPayment(context.Background(), Payment{UserEmail: "dev@codestack.io", Amount: 20})
	require.NoError(t, err)
	assert.Empty(t, id, "an already recorded payment has no inserted id")
}

func TestListUsersQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ann", q.Get("search"))
		assert.Equal(t, "3", q.Get("page"))
		assert.Equal(t, "10", q.Get("limit"))
		_, _ = w.Write([]byte(`{"users":[{"_id":"u1","email":"ann@codestack.io","role":"admin"}],"total":21}`))
	})

	page, err := c.ListUsers(context.Background(), "ann", 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 21, page.Total)
	assert.Equal(t, RoleAdmin, page.Users[0].Role)
}

func TestBadgeOrDefault(t *testing.T) {
	var nilUser *User
	assert.Equal(t, BadgeBronze, nilUser.BadgeOrDefault())
	assert.Equal(t, BadgeBronze, (&User{}).BadgeOrDefault())
	assert.Equal(t, BadgeGold, (&User{Badge: BadgeGold}).BadgeOrDefault())
}
