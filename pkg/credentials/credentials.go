package credentials

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codestack/cli/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the bearer issued by the backend in exchange for an
// identity's email.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	Email       string    `json:"email"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// New builds credentials for token, reading the expiry from the JWT
// payload when there is one. The signature is not checked; only the
// backend can do that.
func New(email, token string) *Credentials {
	c := &Credentials{
		AccessToken: token,
		Email:       email,
		IssuedAt:    time.Now(),
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			c.ExpiresAt = exp.Time
		}
	}
	return c
}

// IsExpired checks if the access token is expired. Tokens without an
// expiry never expire locally; the backend still decides.
func (c *Credentials) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt)
}

// IsValid checks if credentials are valid
func (c *Credentials) IsValid() bool {
	return c != nil && c.AccessToken != "" && !c.IsExpired()
}

// Store is the one persisted credential slot. Writes replace the file
// wholesale (temp file + rename) so readers never see a partial value.
type Store struct {
	mu     sync.RWMutex
	path   string
	cached *Credentials
	loaded bool
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Default returns a store at the configured credentials path.
func Default() *Store {
	return NewStore(config.GetCredentialsPath())
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored credentials, or nil when none are stored.
func (s *Store) Load() (*Credentials, error) {
	s.mu.RLock()
	if s.loaded {
		c := s.cached
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	s.cached = &creds
	s.loaded = true
	return s.cached, nil
}

// Save replaces the stored credentials.
func (s *Store) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("credentials: nil value")
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}

	copied := *creds
	s.cached = &copied
	s.loaded = true
	return nil
}

// Delete removes the stored credentials. Deleting an empty store is not
// an error.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	s.loaded = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Token returns the current bearer, or "" when there is none or it has
// expired.
func (s *Store) Token() string {
	creds, err := s.Load()
	if err != nil || !creds.IsValid() {
		return ""
	}
	return creds.AccessToken
}
