package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/identity"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/payment"
	"github.com/codestack/cli/pkg/query"
	"github.com/codestack/cli/pkg/session"
)

// fakeBackend is an in-memory forum backend.
type fakeBackend struct {
	mu       sync.Mutex
	posts    []api.Post
	users    map[string]*api.User
	comments []api.Comment
	tags     []api.Tag
	nextID   int
	calls    map[string]int
	fail     map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users: make(map[string]*api.User),
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (b *fakeBackend) hit(name string) error {
	b.calls[name]++
	return b.fail[name]
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) id() string {
	b.nextID++
	return fmt.Sprintf("id-%d", b.nextID)
}

func conflict(msg string) error {
	return &api.APIError{StatusCode: http.StatusConflict, Message: msg}
}

func (b *fakeBackend) addPosts(email string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < n; i++ {
		b.posts = append(b.posts, api.Post{ID: b.id(), AuthorEmail: email, Title: fmt.Sprintf("post %d", i)})
	}
}

func (b *fakeBackend) HomePosts(ctx context.Context, p api.FeedParams) (*api.PostPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("HomePosts"); err != nil {
		return nil, err
	}
	return &api.PostPage{Posts: b.posts, Total: len(b.posts)}, nil
}

func (b *fakeBackend) SearchPosts(ctx context.Context, tag string) ([]api.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("SearchPosts"); err != nil {
		return nil, err
	}
	var out []api.Post
	for _, p := range b.posts {
		if p.Tag == tag {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *fakeBackend) GetPost(ctx context.Context, id string) (*api.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("GetPost"); err != nil {
		return nil, err
	}
	for _, p := range b.posts {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, &api.APIError{StatusCode: http.StatusNotFound, Message: "post not found"}
}

func (b *fakeBackend) PostsByAuthor(ctx context.Context, email string) ([]api.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("PostsByAuthor"); err != nil {
		return nil, err
	}
	var out []api.Post
	for _, p := range b.posts {
		if p.AuthorEmail == email {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *fakeBackend) PostCount(ctx context.Context, email string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("PostCount"); err != nil {
		return 0, err
	}
	n := 0
	for _, p := range b.posts {
		if p.AuthorEmail == email {
			n++
		}
	}
	return n, nil
}

func (b *fakeBackend) CreatePost(ctx context.Context, post api.Post) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("CreatePost"); err != nil {
		return "", err
	}
	post.ID = b.id()
	b.posts = append(b.posts, post)
	return post.ID, nil
}

func (b *fakeBackend) DeletePost(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("DeletePost"); err != nil {
		return err
	}
	for i, p := range b.posts {
		if p.ID == id {
			b.posts = append(b.posts[:i], b.posts[i+1:]...)
			return nil
		}
	}
	return &api.APIError{StatusCode: http.StatusNotFound, Message: "post not found"}
}

func (b *fakeBackend) Vote(ctx context.Context, postID, voteType, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hit("Vote")
}

func (b *fakeBackend) Comments(ctx context.Context, postID string) ([]api.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("Comments"); err != nil {
		return nil, err
	}
	var out []api.Comment
	for _, c := range b.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (b *fakeBackend) RecentComments(ctx context.Context) ([]api.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.comments, b.hit("RecentComments")
}

// CreateComment allows one comment per author and post, like the backend.
func (b *fakeBackend) CreateComment(ctx context.Context, c api.Comment) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("CreateComment"); err != nil {
		return err
	}
	for _, existing := range b.comments {
		if existing.PostID == c.PostID && existing.Email == c.Email {
			return conflict("You already commented on this post")
		}
	}
	c.ID = b.id()
	b.comments = append(b.comments, c)
	return nil
}

func (b *fakeBackend) ReportComment(ctx context.Context, commentID, feedback string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hit("ReportComment")
}

func (b *fakeBackend) ReportedComments(ctx context.Context) ([]api.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return nil, b.hit("ReportedComments")
}

func (b *fakeBackend) DismissReport(ctx context.Context, commentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hit("DismissReport")
}

func (b *fakeBackend) DeleteReportedComment(ctx context.Context, commentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hit("DeleteReportedComment")
}

func (b *fakeBackend) GetUser(ctx context.Context, email string) (*api.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("GetUser"); err != nil {
		return nil, err
	}
	u, ok := b.users[email]
	if !ok {
		return nil, &api.APIError{StatusCode: http.StatusNotFound, Message: "user not found"}
	}
	out := *u
	return &out, nil
}

func (b *fakeBackend) CreateUser(ctx context.Context, user api.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("CreateUser"); err != nil {
		return err
	}
	if _, ok := b.users[user.Email]; !ok {
		b.users[user.Email] = &user
	}
	return nil
}

func (b *fakeBackend) UpdateProfile(ctx context.Context, email string, update api.ProfileUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("UpdateProfile"); err != nil {
		return err
	}
	if u, ok := b.users[email]; ok && update.AboutMe != "" {
		u.AboutMe = update.AboutMe
	}
	return nil
}

func (b *fakeBackend) ToggleAdmin(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hit("ToggleAdmin")
}

func (b *fakeBackend) ListUsers(ctx context.Context, search string, page, limit int) (*api.UserPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("ListUsers"); err != nil {
		return nil, err
	}
	return &api.UserPage{}, nil
}

func (b *fakeBackend) Tags(ctx context.Context) ([]api.Tag, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tags, b.hit("Tags")
}

func (b *fakeBackend) CreateTag(ctx context.Context, tag, addedBy string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("CreateTag"); err != nil {
		return err
	}
	for _, t := range b.tags {
		if t.Tag == tag {
			return conflict("tag exists")
		}
	}
	b.tags = append(b.tags, api.Tag{Tag: tag})
	return nil
}

func (b *fakeBackend) Announcements(ctx context.Context) ([]api.Announcement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return nil, b.hit("Announcements")
}

func (b *fakeBackend) CreateAnnouncement(ctx context.Context, a api.Announcement) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hit("CreateAnnouncement")
}

func (b *fakeBackend) SiteStats(ctx context.Context) (*api.SiteStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &api.SiteStats{}, b.hit("SiteStats")
}

type fakeSession struct {
	mu sync.Mutex
	id *identity.Identity
}

func (s *fakeSession) Current() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *fakeSession) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = &identity.Identity{UID: "uid-" + email, Email: email}
	return s.id, nil
}

func (s *fakeSession) SignInWithProvider(ctx context.Context) (*identity.Identity, error) {
	return s.SignIn(ctx, "google@example.com", "")
}

func (s *fakeSession) Register(ctx context.Context, req session.RegisterRequest) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = &identity.Identity{UID: "uid-" + req.Email, Email: req.Email, DisplayName: req.Name, PhotoURL: req.PhotoURL}
	return s.id, nil
}

func (s *fakeSession) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = nil
	return nil
}

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (u *fakeUploader) Upload(ctx context.Context, path string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, path)
	if u.err != nil {
		return "", u.err
	}
	return "https://img.example/" + path, nil
}

func (u *fakeUploader) uploads() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.paths)
}

type fakePayer struct {
	err   error
	calls int
}

func (p *fakePayer) Amount() int { return 20 }

func (p *fakePayer) Pay(ctx context.Context, payer payment.Billing, card payment.Card) (*payment.Receipt, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &payment.Receipt{TransactionID: "pi_123", PaymentID: "pay-1", Amount: 20}, nil
}

const (
	alice = "alice@example.com"
	admin = "admin@example.com"
)

type fixture struct {
	v       *Views
	backend *fakeBackend
	session *fakeSession
	images  *fakeUploader
	payer   *fakePayer
	notes   *output.Recorder
	out     *bytes.Buffer
}

// newFixture signs in alice, a bronze user.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: newFakeBackend(),
		session: &fakeSession{id: &identity.Identity{UID: "u1", Email: alice, DisplayName: "Alice"}},
		images:  &fakeUploader{},
		payer:   &fakePayer{},
		notes:   &output.Recorder{},
		out:     &bytes.Buffer{},
	}
	f.backend.users[alice] = &api.User{ID: "u1", Email: alice, Name: "Alice", Role: api.RoleUser, Badge: api.BadgeBronze}
	f.backend.users[admin] = &api.User{ID: "u2", Email: admin, Name: "Admin", Role: api.RoleAdmin, Badge: api.BadgeGold}

	cache := query.New(query.Options{})
	t.Cleanup(cache.Close)

	f.v = New(Deps{
		Backend:  f.backend,
		Cache:    cache,
		Session:  f.session,
		Images:   f.images,
		Checkout: f.payer,
		Out:      output.New(f.out, output.FormatText),
		Notify:   f.notes,
	})
	return f
}

func (f *fixture) signInAs(email, name string) {
	f.session.mu.Lock()
	defer f.session.mu.Unlock()
	f.session.id = &identity.Identity{UID: "uid-" + email, Email: email, DisplayName: name}
}

func (f *fixture) signOut() {
	f.session.mu.Lock()
	defer f.session.mu.Unlock()
	f.session.id = nil
}
