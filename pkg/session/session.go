// Package session holds the signed-in identity for the lifetime of the
// application and performs the sign-in and sign-out transitions.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/codestack/cli/pkg/api"
	"github.com/codestack/cli/pkg/broadcast"
	"github.com/codestack/cli/pkg/credentials"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/identity"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/output"
	json "github.com/json-iterator/go"
)

// TokenIssuer exchanges an identity's email for a backend bearer.
type TokenIssuer interface {
	IssueToken(ctx context.Context, email string) (string, error)
}

// UserRecorder upserts the backend user record after sign-up or
// federated sign-in.
type UserRecorder interface {
	CreateUser(ctx context.Context, user api.User) error
}

// CredentialStore is where the bearer lives.
type CredentialStore interface {
	Load() (*credentials.Credentials, error)
	Save(*credentials.Credentials) error
	Delete() error
}

// Options wires a Manager.
type Options struct {
	Provider    identity.Provider
	Issuer      TokenIssuer
	Users       UserRecorder
	Credentials CredentialStore
	Notifier    output.Notifier
	// Path is the persisted identity file. Empty disables persistence.
	Path string
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	PhotoURL string
}

// Manager is the session state. It starts in the loading state until
// Restore completes.
type Manager struct {
	provider identity.Provider
	issuer   TokenIssuer
	users    UserRecorder
	creds    CredentialStore
	notifier output.Notifier
	path     string

	mu        sync.RWMutex
	current   *identity.Identity
	loading   bool
	observers map[int]chan *identity.Identity
	nextObs   int
	onSignOut []func()

	changed broadcast.Signal
}

// New creates a Manager in the loading state.
func New(opts Options) *Manager {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = output.Discard{}
	}
	return &Manager{
		provider:  opts.Provider,
		issuer:    opts.Issuer,
		users:     opts.Users,
		creds:     opts.Credentials,
		notifier:  notifier,
		path:      opts.Path,
		loading:   true,
		observers: make(map[int]chan *identity.Identity),
	}
}

// Current returns the signed-in identity or nil.
func (m *Manager) Current() *identity.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Loading reports whether the persisted session is still being restored.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Changed returns a channel closed at the next change of Loading or
// Current.
func (m *Manager) Changed() <-chan struct{} {
	return m.changed.Changed()
}

// OnSignOut registers a hook run after every sign-out, including the
// forced one after an authorization failure.
func (m *Manager) OnSignOut(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSignOut = append(m.onSignOut, hook)
}

// Observe returns a channel that yields the current identity at once and
// then every transition. Slow readers see only the latest value.
func (m *Manager) Observe() (<-chan *identity.Identity, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextObs++
	id := m.nextObs
	ch := make(chan *identity.Identity, 1)
	ch <- m.current
	m.observers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.observers, id)
			close(ch)
		})
	}
	return ch, cancel
}

// setLocked changes the identity and notifies observers.
func (m *Manager) setLocked(id *identity.Identity) {
	m.current = id
	defer m.changed.Notify()
	for _, ch := range m.observers {
		select {
		case ch <- id:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- id
		}
	}
}

// Restore loads the persisted identity. It is kept only while a valid
// bearer exists; otherwise the stale file is removed.
func (m *Manager) Restore(ctx context.Context) error {
	id, err := m.readPersisted()

	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		m.loading = false
		m.changed.Notify()
	}()

	if err != nil {
		logger.Warn("Could not read persisted session", "error", err)
		m.setLocked(nil)
		return nil
	}
	if id == nil {
		m.setLocked(nil)
		return nil
	}

	creds, err := m.creds.Load()
	if err != nil || !creds.IsValid() || creds.Email != id.Email {
		logger.Debug("Persisted session has no valid credential", "email", id.Email)
		m.removePersisted()
		m.setLocked(nil)
		return nil
	}

	logger.Debug("Session restored", "email", id.Email)
	m.setLocked(id)
	return nil
}

// SignIn signs in with email and password.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	id, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, m.fail(err)
	}
	if err := m.establish(ctx, id); err != nil {
		return nil, m.fail(err)
	}
	m.notifier.Notify(output.LevelSuccess, fmt.Sprintf("successfully logged in user: %s", displayName(id)))
	return id, nil
}

// SignInWithProvider runs federated (Google) sign-in.
func (m *Manager) SignInWithProvider(ctx context.Context) (*identity.Identity, error) {
	id, err := m.provider.SignInWithGoogle(ctx)
	if err != nil {
		return nil, m.fail(err)
	}
	if err := m.establish(ctx, id); err != nil {
		return nil, m.fail(err)
	}
	m.recordUser(ctx, id)
	m.notifier.Notify(output.LevelSuccess, fmt.Sprintf("successfully logged in user: %s", displayName(id)))
	return id, nil
}

// Register creates an account, sets its profile and signs it in.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*identity.Identity, error) {
	id, err := m.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, m.fail(err)
	}

	updated, err := m.provider.UpdateProfile(ctx, id, req.Name, req.PhotoURL)
	if err != nil {
		logger.Warn("Profile update after sign-up failed", "error", err)
	} else {
		id = updated
	}

	if err := m.establish(ctx, id); err != nil {
		return nil, m.fail(err)
	}
	m.recordUser(ctx, id)
	m.notifier.Notify(output.LevelSuccess, fmt.Sprintf("successfully registered to user:%s", displayName(id)))
	return id, nil
}

// SignOut clears the bearer and the identity.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.clear(); err != nil {
		return m.fail(err)
	}
	m.notifier.Notify(output.LevelSuccess, "Signed out")
	return nil
}

// Expire is the forced sign-out after the backend rejected the bearer.
// The gateway has already deleted the credential.
func (m *Manager) Expire() {
	if m.Current() == nil {
		return
	}
	if err := m.clear(); err != nil {
		logger.Error("Failed to clear expired session", "error", err)
	}
	m.notifier.Notify(output.LevelWarning, clierrors.SessionExpiredError().Message)
}

func (m *Manager) clear() error {
	var firstErr error
	if err := m.creds.Delete(); err != nil {
		firstErr = err
	}
	m.removePersisted()

	m.mu.Lock()
	m.loading = false
	m.setLocked(nil)
	hooks := append([]func(){}, m.onSignOut...)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	return firstErr
}

// establish gets a bearer for id and makes it the current identity.
func (m *Manager) establish(ctx context.Context, id *identity.Identity) error {
	token, err := m.issuer.IssueToken(ctx, id.Email)
	if err != nil {
		return fmt.Errorf("obtain access token: %w", err)
	}
	if token == "" {
		return clierrors.AuthError("Backend did not issue an access token")
	}
	if err := m.creds.Save(credentials.New(id.Email, token)); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	if err := m.persist(id); err != nil {
		logger.Warn("Could not persist session", "error", err)
	}

	m.mu.Lock()
	m.loading = false
	m.setLocked(id)
	m.mu.Unlock()

	logger.Info("Signed in", "email", id.Email)
	return nil
}

func (m *Manager) recordUser(ctx context.Context, id *identity.Identity) {
	if m.users == nil {
		return
	}
	err := m.users.CreateUser(ctx, api.User{
		Name:  id.DisplayName,
		Email: id.Email,
		Photo: id.PhotoURL,
		Role:  api.RoleUser,
	})
	if err != nil {
		logger.Warn("Could not record user", "email", id.Email, "error", err)
	}
}

// fail turns any error into a notification and a categorized error.
func (m *Manager) fail(err error) error {
	cliErr := clierrors.CategorizeError(err)
	m.notifier.Notify(output.LevelError, cliErr.Message)
	return cliErr
}

func displayName(id *identity.Identity) string {
	if id.DisplayName != "" {
		return id.DisplayName
	}
	return id.Email
}

func (m *Manager) persist(id *identity.Identity) error {
	if m.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

func (m *Manager) readPersisted() (*identity.Identity, error) {
	if m.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var id identity.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, err
	}
	if id.Email == "" {
		return nil, nil
	}
	return &id, nil
}

func (m *Manager) removePersisted() {
	if m.path == "" {
		return
	}
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Could not remove session file", "error", err)
	}
}
