// package session keeps the in-memory view of who is logged in
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/services"
	"github.com/desertthunder/anima/internal/shared"
	"github.com/desertthunder/anima/internal/store"
)

// AuthAPI is the slice of the auth client the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, creds services.Credentials) (*models.Session, error)
	Register(ctx context.Context, payload services.Registration) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)
	Logout()
	StoredUser() *models.User
}

// OpResult is the translated outcome of login/register: the thrown error
// becomes a message instead of propagating.
type OpResult struct {
	Success bool
	Error   string
}

// Manager holds the current user in memory and keeps it in sync with the
// durable store. It is the single in-process answer to "who is logged in".
//
// Construction does not touch the store; call [Manager.Load] to hydrate.
type Manager struct {
	mu       sync.RWMutex
	auth     AuthAPI
	sessions store.Store
	logger   *log.Logger
	user     *models.User
	loaded   bool
}

// NewManager creates a manager over the given auth client and session store.
func NewManager(auth AuthAPI, sessions store.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{auth: auth, sessions: sessions, logger: logger}
}

// Load hydrates the in-memory user from the store. No network call is made;
// a stored record is trusted until something refreshes or clears it.
func (m *Manager) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.user = m.auth.StoredUser()
	m.loaded = true
}

// Loaded reports whether Load has run.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// User returns the current in-memory user, or nil when logged out.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// IsAuthenticated reports whether a user is present in memory.
func (m *Manager) IsAuthenticated() bool {
	return m.User() != nil
}

// Token returns the stored access token, or "" when absent.
func (m *Manager) Token() string {
	token, _ := m.sessions.Get(store.KeyToken)
	return token
}

// SetToken persists an access token without touching the user record. Used
// by the direct-token OAuth callback, which receives the token before it can
// fetch the user.
func (m *Manager) SetToken(token string) error {
	return m.sessions.Set(store.KeyToken, token)
}

// Login delegates to the auth client and keeps the returned user in memory.
// Thrown errors are translated into the result shape.
func (m *Manager) Login(ctx context.Context, creds services.Credentials) OpResult {
	sess, err := m.auth.Login(ctx, creds)
	if err != nil {
		return OpResult{Error: err.Error()}
	}

	m.mu.Lock()
	m.user = sess.User
	m.mu.Unlock()

	return OpResult{Success: true}
}

// Register delegates to the auth client. The in-memory user is untouched;
// registering is not logging in.
func (m *Manager) Register(ctx context.Context, payload services.Registration) OpResult {
	if _, err := m.auth.Register(ctx, payload); err != nil {
		return OpResult{Error: err.Error()}
	}
	return OpResult{Success: true}
}

// Logout clears the stored session and the in-memory user.
func (m *Manager) Logout() {
	m.auth.Logout()

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
}

// RefreshUser fetches the canonical user record. On success the record is
// kept in memory and mirrored to the store; on failure the in-memory user is
// cleared, since an unfetchable identity is treated as logged out.
func (m *Manager) RefreshUser(ctx context.Context) (*models.User, error) {
	user, err := m.auth.Me(ctx)
	if err != nil {
		m.logger.Warn("failed to refresh user", "error", err)
		m.mu.Lock()
		m.user = nil
		m.mu.Unlock()
		return nil, err
	}

	if setErr := m.SetUser(user); setErr != nil {
		m.logger.Warn("failed to persist refreshed user", "error", setErr)
	}
	return user, nil
}

// SetUser installs a server-confirmed user record directly, mirroring it to
// the store: JSON for a user, key removal for nil.
func (m *Manager) SetUser(user *models.User) error {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	if user == nil {
		return m.sessions.Delete(store.KeyUser)
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return m.sessions.Set(store.KeyUser, string(data))
}
