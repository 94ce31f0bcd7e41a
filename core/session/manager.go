package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Yahoo0976095579/accounting-go/core/apiclient"
	"github.com/Yahoo0976095579/accounting-go/core/credentials"
	"github.com/Yahoo0976095579/accounting-go/core/logger"
	"github.com/Yahoo0976095579/accounting-go/core/notify"
)

// Backend endpoints owned by this package.
const (
	PathLogin    = "/login"
	PathRegister = "/register"
	PathLogout   = "/logout"
	PathUser     = "/user"
)

// View paths the manager redirects to.
const (
	ViewHome     = "/"
	ViewLogin    = "/login"
	ViewRegister = "/register"
)

// Logout state machine states.
const (
	logoutIdle int32 = iota
	logoutInProgress
)

// Redirector commits a view change requested by the session lifecycle.
// The navigator implements it; a nil redirector disables redirects.
type Redirector interface {
	Push(path string)
}

// Manager is the single source of truth for the authenticated session.
// It is safe for concurrent use and is injected into every domain store.
type Manager struct {
	client   *apiclient.Client
	creds    credentials.Store
	notifier *notify.Notifier
	log      *slog.Logger

	mu      sync.RWMutex
	user    *User
	token   string
	loading bool
	lastErr string

	redirectMu sync.RWMutex
	redirector Redirector

	logoutState atomic.Int32
	epoch       atomic.Uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger configures structured logging for the manager.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithRedirector sets the navigation target for lifecycle redirects.
func WithRedirector(r Redirector) Option {
	return func(m *Manager) {
		m.redirector = r
	}
}

// NewManager creates a session manager backed by the given client and
// credential store. A persisted bearer credential is restored immediately,
// but the user record is only populated once FetchCurrentUser (or a login)
// confirms the credential with the backend.
func NewManager(client *apiclient.Client, creds credentials.Store, notifier *notify.Notifier, opts ...Option) *Manager {
	m := &Manager{
		client:   client,
		creds:    creds,
		notifier: notifier,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}

	if stored, err := creds.Load(); err == nil {
		m.token = stored.AccessToken
	} else if !errors.Is(err, credentials.ErrNotFound) {
		m.log.Warn("failed to restore persisted credential", logger.Error(err))
	}

	return m
}

// SetRedirector wires the navigator after construction. The navigator
// depends on the manager, so it cannot exist before it.
func (m *Manager) SetRedirector(r Redirector) {
	m.redirectMu.Lock()
	defer m.redirectMu.Unlock()
	m.redirector = r
}

// Token returns the current bearer credential, or "" when anonymous.
// Pass it to apiclient.WithTokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// IsAuthenticated reports whether a user record is present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// HasCredential reports whether a bearer credential is available for
// rehydration.
func (m *Manager) HasCredential() bool {
	return m.Token() != ""
}

// CurrentUser returns a copy of the current user record, or nil.
func (m *Manager) CurrentUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// IsLoading reports whether a session operation is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// LastError returns the most recent user-facing session error, or "".
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// IsLoggingOut reports whether a logout sequence is currently executing.
func (m *Manager) IsLoggingOut() bool {
	return m.logoutState.Load() == logoutInProgress
}

// Epoch identifies the current session generation. It changes on every
// login, registration, and invalidation.
func (m *Manager) Epoch() uint64 {
	return m.epoch.Load()
}

type authCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// Login authenticates with the backend. On success it stores and persists
// the returned token and user record and redirects to the home view.
// On failure it records a user-facing error; it never panics past this
// boundary.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.setLoading(true)
	defer m.setLoading(false)
	m.setLastError("")

	var resp authResponse
	err := m.client.Post(ctx, PathLogin, authCredentials{username, password}, &resp,
		apiclient.WithoutAuth())
	if err != nil {
		m.setLastError(apiclient.Message(err))
		m.log.Warn("login failed", logger.Error(err))
		return err
	}

	m.establish(resp.AccessToken, resp.User)
	m.log.Info("login succeeded", logger.UserID(resp.User.ID), logger.Event("login"))
	m.redirect(ViewHome)
	return nil
}

// Register creates an account. When the backend accepts registration
// without returning a usable credential, it falls back to a regular login
// with the same credentials.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	m.setLoading(true)
	m.setLastError("")

	var resp authResponse
	err := m.client.Post(ctx, PathRegister, authCredentials{username, password}, &resp,
		apiclient.WithoutAuth())
	if err != nil {
		m.setLoading(false)
		m.setLastError(apiclient.Message(err))
		m.log.Warn("registration failed", logger.Error(err))
		return err
	}

	if resp.AccessToken == "" {
		m.setLoading(false)
		return m.Login(ctx, username, password)
	}

	m.establish(resp.AccessToken, resp.User)
	m.setLoading(false)
	m.log.Info("registration succeeded", logger.UserID(resp.User.ID), logger.Event("register"))
	m.redirect(ViewHome)
	return nil
}

// Logout tears down the session and reports whether this call performed
// the teardown. It is re-entrancy guarded: while one logout sequence is in
// flight every other call returns false immediately with no side effects.
// The backend is notified best-effort; local state is cleared exactly once
// per executed sequence regardless of backend reachability, and the caller
// is redirected to the login view.
func (m *Manager) Logout(ctx context.Context) bool {
	if !m.logoutState.CompareAndSwap(logoutIdle, logoutInProgress) {
		return false
	}
	defer m.logoutState.Store(logoutIdle)

	m.teardown(ctx)
	return true
}

// logoutIfCurrent tears the session down only if the generation observed
// when the caller decided to log out is still current once it wins the
// guard. A caller that passed its checks, got parked behind an in-flight
// teardown, and then won the now-idle guard would otherwise log out the
// next session a second time. The teardown bumps the epoch before
// releasing the guard, so such a latecomer always sees a mismatch.
func (m *Manager) logoutIfCurrent(ctx context.Context, epoch uint64) bool {
	if !m.logoutState.CompareAndSwap(logoutIdle, logoutInProgress) {
		return false
	}
	defer m.logoutState.Store(logoutIdle)

	if m.epoch.Load() != epoch {
		return false
	}
	m.teardown(ctx)
	return true
}

// teardown runs the logout sequence. Callers must hold the logout guard.
func (m *Manager) teardown(ctx context.Context) {
	if err := m.client.Get(ctx, PathLogout, nil); err != nil {
		// Best-effort only. An unreachable or already-expired backend
		// session must not block local cleanup.
		m.log.Warn("backend logout failed", logger.Error(err), logger.Event("logout"))
	} else {
		m.log.Info("logged out", logger.Event("logout"))
	}

	m.invalidate()
	m.redirect(ViewLogin)
}

// FetchCurrentUser rehydrates the user record from the persisted
// credential. On any failure (expired credential, network error) it clears
// local session state and returns the error; redirecting is left to the
// caller that detected the failure, so a single failure never produces two
// redirects.
func (m *Manager) FetchCurrentUser(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)
	m.setLastError("")

	if !m.HasCredential() {
		m.clearLocal()
		return ErrNoCredential
	}

	epoch := m.epoch.Load()

	var user User
	if err := m.client.Get(ctx, PathUser, &user); err != nil {
		if m.epoch.Load() != epoch {
			// The session this call belonged to is already gone;
			// don't clobber whatever replaced it.
			return err
		}
		m.clearLocal()
		m.log.Warn("session rehydration failed", logger.Error(err), logger.Event("rehydrate"))
		return err
	}

	if m.epoch.Load() != epoch {
		return ErrStaleEpoch
	}

	m.mu.Lock()
	m.user = &user
	token := m.token
	m.mu.Unlock()

	m.persist(token, &user)
	m.log.Info("session rehydrated", logger.UserID(user.ID), logger.Event("rehydrate"))
	return nil
}

// UpdateUsername changes the account's username. On success the local user
// record is updated and a success notification is emitted.
func (m *Manager) UpdateUsername(ctx context.Context, newUsername string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	var resp struct {
		User *User `json:"user"`
	}
	err := m.client.Put(ctx, PathUser+"/username", map[string]string{"new_username": newUsername}, &resp)
	if err != nil {
		m.notifier.Show(apiclient.Message(err), notify.KindError)
		return err
	}

	m.mu.Lock()
	if resp.User != nil {
		m.user = resp.User
	} else if m.user != nil {
		m.user.Username = newUsername
	}
	token := m.token
	user := m.user
	m.mu.Unlock()

	m.persist(token, user)
	m.notifier.Show("Username updated successfully.", notify.KindSuccess)
	return nil
}

// UpdatePassword changes the account password.
func (m *Manager) UpdatePassword(ctx context.Context, oldPassword, newPassword string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	payload := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	if err := m.client.Put(ctx, PathUser+"/password", payload, nil); err != nil {
		m.notifier.Show(apiclient.Message(err), notify.KindError)
		return err
	}

	m.notifier.Show("Password updated successfully.", notify.KindSuccess)
	return nil
}

// DeleteAccount removes the account, clears the session, and redirects to
// the registration view.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.client.Delete(ctx, PathUser, nil); err != nil {
		m.notifier.Show(apiclient.Message(err), notify.KindError)
		return err
	}

	m.invalidate()
	m.notifier.Show("Account deleted.", notify.KindSuccess)
	m.redirect(ViewRegister)
	return nil
}

// establish installs a fresh authenticated session and persists it.
func (m *Manager) establish(token string, user *User) {
	m.epoch.Add(1)

	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()

	m.persist(token, user)
}

// invalidate clears the in-memory session and the persisted credential.
// Called from logout and account deletion.
func (m *Manager) invalidate() {
	m.epoch.Add(1)
	m.clearLocal()
}

func (m *Manager) clearLocal() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()

	if err := m.creds.Clear(); err != nil {
		m.log.Warn("failed to clear persisted credentials", logger.Error(err))
	}
}

// persist writes both durable keys together. A persistence failure leaves
// the in-memory session intact; it is logged, not returned.
func (m *Manager) persist(token string, user *User) {
	if token == "" {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		m.log.Warn("failed to encode user record", logger.Error(err))
		return
	}
	if err := m.creds.Save(credentials.Credentials{AccessToken: token, User: raw}); err != nil {
		m.log.Warn("failed to persist credentials", logger.Error(err))
	}
}

func (m *Manager) redirect(path string) {
	m.redirectMu.RLock()
	r := m.redirector
	m.redirectMu.RUnlock()
	if r != nil {
		r.Push(path)
	}
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) setLastError(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
}
