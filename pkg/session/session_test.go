package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/credentials"
	"github.com/codestack/cli/pkg/identity"
	"github.com/codestack/cli/pkg/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	signInErr error
	google    *identity.Identity
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Identity, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &identity.Identity{UID: "uid-1", Email: email, DisplayName: "Dev", IDToken: "idt"}, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	return &identity.Identity{UID: "uid-2", Email: email, IDToken: "idt"}, nil
}

func (f *fakeProvider) UpdateProfile(ctx context.Context, id *identity.Identity, name, photo string) (*identity.Identity, error) {
	out := *id
	out.DisplayName, out.PhotoURL = name, photo
	return &out, nil
}

func (f *fakeProvider) SignInWithGoogle(ctx context.Context) (*identity.Identity, error) {
	if f.google == nil {
		return nil, errors.New("popup closed")
	}
	return f.google, nil
}

type fakeIssuer struct {
	err    error
	emails []string
}

func (f *fakeIssuer) IssueToken(ctx context.Context, email string) (string, error) {
	f.emails = append(f.emails, email)
	if f.err != nil {
		return "", f.err
	}
	return "bearer-for-" + email, nil
}

type fakeUsers struct {
	mu      sync.Mutex
	created []api.User
}

func (f *fakeUsers) CreateUser(ctx context.Context, u api.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, u)
	return nil
}

type fixture struct {
	m        *Manager
	provider *fakeProvider
	issuer   *fakeIssuer
	users    *fakeUsers
	store    *credentials.Store
	notes    *output.Recorder
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		provider: &fakeProvider{},
		issuer:   &fakeIssuer{},
		users:    &fakeUsers{},
		store:    credentials.NewStore(filepath.Join(dir, "credentials")),
		notes:    &output.Recorder{},
		dir:      dir,
	}
	f.m = f.newManager()
	return f
}

func (f *fixture) newManager() *Manager {
	return New(Options{
		Provider:    f.provider,
		Issuer:      f.issuer,
		Users:       f.users,
		Credentials: f.store,
		Notifier:    f.notes,
		Path:        filepath.Join(f.dir, "session.json"),
	})
}

func TestStartsLoading(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.m.Loading())
	assert.Nil(t, f.m.Current())

	require.NoError(t, f.m.Restore(context.Background()))
	assert.False(t, f.m.Loading())
	assert.Nil(t, f.m.Current())
}

func TestSignInStoresBearerAndIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.m.SignIn(ctx, "dev@codestack.io", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "dev@codestack.io", id.Email)
	assert.Equal(t, id, f.m.Current())
	assert.False(t, f.m.Loading())

	assert.Equal(t, "bearer-for-dev@codestack.io", f.store.Token())
	assert.Equal(t, []string{"dev@codestack.io"}, f.issuer.emails)
	assert.Equal(t, output.LevelSuccess, f.notes.Last().Level)
	assert.Contains(t, f.notes.Last().Message, "Dev")

	_, err = os.Stat(filepath.Join(f.dir, "session.json"))
	assert.NoError(t, err)
}

func TestSignInFailureNotifies(t *testing.T) {
	f := newFixture(t)
	f.provider.signInErr = errors.New("Invalid email or password")

	_, err := f.m.SignIn(context.Background(), "dev@codestack.io", "nope")
	require.Error(t, err)
	assert.Nil(t, f.m.Current())
	assert.Equal(t, output.Note{Level: output.LevelError, Message: "Invalid email or password"}, f.notes.Last())
	assert.Empty(t, f.store.Token())
}

func TestTokenIssueFailureLeavesSignedOut(t *testing.T) {
	f := newFixture(t)
	f.issuer.err = errors.New("connection refused")

	_, err := f.m.SignIn(context.Background(), "dev@codestack.io", "Secret1!")
	require.Error(t, err)
	assert.Nil(t, f.m.Current())
	assert.Equal(t, output.LevelError, f.notes.Last().Level)
}

func TestRestoreNeedsValidCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.SignIn(ctx, "dev@codestack.io", "Secret1!")
	require.NoError(t, err)

	restored := f.newManager()
	require.NoError(t, restored.Restore(ctx))
	require.NotNil(t, restored.Current())
	assert.Equal(t, "dev@codestack.io", restored.Current().Email)
	assert.Empty(t, restored.Current().IDToken, "provider token is never persisted")

	require.NoError(t, f.store.Delete())
	again := f.newManager()
	require.NoError(t, again.Restore(ctx))
	assert.Nil(t, again.Current())
	_, err = os.Stat(filepath.Join(f.dir, "session.json"))
	assert.True(t, os.IsNotExist(err), "orphaned session file is removed")
}

func TestSignOutRunsHooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.m.SignIn(ctx, "dev@codestack.io", "Secret1!")

	hooked := 0
	f.m.OnSignOut(func() { hooked++ })

	require.NoError(t, f.m.SignOut(ctx))
	assert.Nil(t, f.m.Current())
	assert.Empty(t, f.store.Token())
	assert.Equal(t, 1, hooked)
}

func TestExpireIsQuietWhenSignedOut(t *testing.T) {
	f := newFixture(t)
	hooked := 0
	f.m.OnSignOut(func() { hooked++ })

	f.m.Expire()
	assert.Equal(t, 0, hooked)
	assert.Empty(t, f.notes.Notes())

	_, _ = f.m.SignIn(context.Background(), "dev@codestack.io", "Secret1!")
	f.m.Expire()
	assert.Equal(t, 1, hooked)
	assert.Nil(t, f.m.Current())
	assert.Equal(t, output.LevelWarning, f.notes.Last().Level)
}

func TestObserveDeliversCurrentThenTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, cancel := f.m.Observe()
	defer cancel()

	assert.Nil(t, <-ch, "initial value is delivered at once")

	_, _ = f.m.SignIn(ctx, "dev@codestack.io", "Secret1!")
	select {
	case id := <-ch:
		require.NotNil(t, id)
		assert.Equal(t, "dev@codestack.io", id.Email)
	case <-time.After(time.Second):
		t.Fatal("no transition delivered")
	}

	_ = f.m.SignOut(ctx)
	assert.Nil(t, <-ch)
}

func TestObserveCancelClosesChannel(t *testing.T) {
	f := newFixture(t)
	ch, cancel := f.m.Observe()
	<-ch
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	_, _ = f.m.SignIn(context.Background(), "dev@codestack.io", "Secret1!")
}

func TestRegisterSetsProfileAndRecordsUser(t *testing.T) {
	f := newFixture(t)

	id, err := f.m.Register(context.Background(), RegisterRequest{
		Name:     "New Dev",
		Email:    "new@codestack.io",
		Password: "Secret1!",
		PhotoURL: "https://img/new.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Dev", id.DisplayName)
	assert.Equal(t, "https://img/new.png", id.PhotoURL)

	require.Len(t, f.users.created, 1)
	assert.Equal(t, "new@codestack.io", f.users.created[0].Email)
	assert.Equal(t, api.RoleUser, f.users.created[0].Role)
	assert.Contains(t, f.notes.Last().Message, "registered")
}

func TestSignInWithProvider(t *testing.T) {
	f := newFixture(t)
	f.provider.google = &identity.Identity{Email: "g@codestack.io", DisplayName: "G"}

	id, err := f.m.SignInWithProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "g@codestack.io", id.Email)
	assert.Len(t, f.users.created, 1)

	f.provider.google = nil
	_, err = f.newManager().SignInWithProvider(context.Background())
	require.Error(t, err)
}

func TestRestoreSignalsChangeOnceLoaded(t *testing.T) {
	f := newFixture(t)

	changed := f.m.Changed()
	require.NoError(t, f.m.Restore(context.Background()))

	select {
	case <-changed:
		assert.False(t, f.m.Loading(), "the change is visible once signalled")
	default:
		t.Fatal("restore should signal a change")
	}
}
