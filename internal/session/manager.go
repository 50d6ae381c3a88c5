// Package session owns the authentication credential and its lifecycle:
// login, registration, logout, account maintenance, and the persisted
// token that survives process restarts.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/webmail/internal/api"
	"github.com/nhle/webmail/internal/credential"
	"github.com/nhle/webmail/internal/logging"
	"github.com/nhle/webmail/internal/model"
)

// State is the authentication state of the manager.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Deauthenticating
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Deauthenticating:
		return "deauthenticating"
	default:
		return "unknown"
	}
}

// tokenKey is the credential-store key under which the session token lives.
const tokenKey = "auth-token"

// ErrBusy is returned when a session operation is invoked while another one
// is still in flight. Callers are expected to serialize these; overlapping
// calls are a caller error, not a race the manager resolves.
var ErrBusy = errors.New("another session operation is in progress")

// Manager is the session state machine. A single instance is shared
// process-wide; its credential gates every authenticated transport call.
type Manager struct {
	client *api.Client
	creds  credential.Store

	mu    chan struct{} // busy flag; see begin/end
	state State
	user  *model.User
}

// New creates a Manager in the Anonymous state.
func New(client *api.Client, creds credential.Store) *Manager {
	m := &Manager{
		client: client,
		creds:  creds,
		mu:     make(chan struct{}, 1),
		state:  Anonymous,
	}
	return m
}

// begin acquires the busy flag, failing immediately when an operation is
// already in flight.
func (m *Manager) begin() error {
	select {
	case m.mu <- struct{}{}:
		return nil
	default:
		return ErrBusy
	}
}

func (m *Manager) end() {
	<-m.mu
}

// State returns the current authentication state.
func (m *Manager) State() State {
	return m.state
}

// Authenticated reports whether a credential is currently held.
func (m *Manager) Authenticated() bool {
	return m.state == Authenticated
}

// User returns the cached identity, or nil when anonymous or when the
// identity has not been fetched yet.
func (m *Manager) User() *model.User {
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Restore loads a previously persisted token at startup. No network call is
// made; a stale token surfaces as an authorization failure on the first
// authenticated fetch. Returns whether a token was found.
func (m *Manager) Restore() bool {
	token, err := m.creds.Get(tokenKey)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			logging.Log().WithError(err).Warn("could not read persisted token")
		}
		return false
	}
	if token == "" {
		return false
	}

	m.client.SetToken(token)
	m.state = Authenticated
	return true
}

// Login authenticates against the backend, persists the token, and loads
// the identity. On authorization or validation failures the server message
// is surfaced verbatim when present; the state returns to Anonymous.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	m.state = Authenticating

	var resp api.LoginResponse
	err := m.client.Post(ctx, "/login", api.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		m.state = Anonymous
		return loginError(err)
	}
	if resp.Token == "" {
		m.state = Anonymous
		return errors.New("server did not return a token")
	}

	if err := m.creds.Set(tokenKey, resp.Token); err != nil {
		logging.Log().WithError(err).Warn("could not persist token; session will not survive restart")
	}
	m.client.SetToken(resp.Token)
	m.state = Authenticated

	if resp.User != nil {
		m.user = resp.User
	} else if err := m.fetchIdentity(ctx); err != nil {
		// The session itself is established; a failed identity fetch
		// right after login is not fatal.
		logging.Log().WithError(err).Warn("could not load identity after login")
	}

	logging.Log().WithField("email", email).Info("logged in")
	return nil
}

// loginError converts a transport error into the user-facing login failure.
// The server message, when present, wins over the generic text for both
// authorization and validation rejections.
func loginError(err error) error {
	if msg := api.ValidationMessage(err); msg != "" {
		return errors.New(msg)
	}
	if msg := api.AuthMessage(err); msg != "" {
		return errors.New(msg)
	}
	if api.IsAuthError(err) || api.IsValidationError(err) {
		return errors.New("invalid email or password")
	}
	if api.IsNetworkError(err) {
		return errors.New("could not reach the server")
	}
	return errors.New("login failed")
}

// Register creates a new account. It never authenticates; on success the
// caller proceeds to Login.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	err := m.client.Post(ctx, "/usuarios", api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, nil)
	if err != nil {
		if msg := api.ValidationMessage(err); msg != "" {
			return errors.New(msg)
		}
		return errors.New("registration failed")
	}
	return nil
}

// RefreshIdentity fetches the current identity from the server. An
// authorization failure means the credential went stale; it is absorbed
// into a forced logout instead of being surfaced.
func (m *Manager) RefreshIdentity(ctx context.Context) error {
	if m.state != Authenticated {
		return fmt.Errorf("refresh identity: not authenticated (%s)", m.state)
	}

	if err := m.fetchIdentity(ctx); err != nil {
		if api.IsAuthError(err) {
			logging.Log().Info("credential rejected by server, logging out")
			m.Logout(ctx)
			return nil
		}
		return errors.New("could not load account data")
	}
	return nil
}

func (m *Manager) fetchIdentity(ctx context.Context) error {
	var user model.User
	if err := m.client.Get(ctx, "/usuarios", &user); err != nil {
		return err
	}
	m.user = &user
	return nil
}

// UpdateAccount performs a partial account update: the name is always sent,
// the password only when non-empty. The server's returned fields are merged
// into the cached identity, then a full refresh runs.
func (m *Manager) UpdateAccount(ctx context.Context, name, password string) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	if m.state != Authenticated {
		return fmt.Errorf("update account: not authenticated (%s)", m.state)
	}

	var updated model.User
	err := m.client.Put(ctx, "/usuarios", api.UpdateAccountRequest{
		Name:     name,
		Password: password,
	}, &updated)
	if err != nil {
		if msg := api.ValidationMessage(err); msg != "" {
			return errors.New(msg)
		}
		return errors.New("could not update account")
	}

	if m.user == nil {
		m.user = &updated
	} else {
		if updated.Name != "" {
			m.user.Name = updated.Name
		}
		if updated.Email != "" {
			m.user.Email = updated.Email
		}
		if updated.ID != "" {
			m.user.ID = updated.ID
		}
	}

	if err := m.fetchIdentity(ctx); err != nil {
		logging.Log().WithError(err).Warn("could not refresh identity after update")
	}
	return nil
}

// DeleteAccount deletes the account server-side and then logs out
// unconditionally, so the session is never left pointing at a deleted
// identity even when the delete call itself failed.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}

	if m.state != Authenticated {
		m.end()
		return fmt.Errorf("delete account: not authenticated (%s)", m.state)
	}

	err := m.client.Delete(ctx, "/usuarios", nil)
	m.end()
	m.Logout(ctx)

	if err != nil {
		if msg := api.ValidationMessage(err); msg != "" {
			return errors.New(msg)
		}
		return errors.New("could not delete account")
	}
	return nil
}

// Logout notifies the server best-effort (a failure is logged, never
// surfaced or retried), then clears the persisted token, the cached
// identity, and the transport credential.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.begin(); err != nil {
		return
	}
	defer m.end()

	m.state = Deauthenticating

	if m.client.HasToken() {
		if err := m.client.Post(ctx, "/logout", nil, nil); err != nil {
			logging.Log().WithError(err).Warn("server logout failed")
		}
	}

	m.clearLocked()
	logging.Log().Info("logged out")
}

// Invalidate drops the credential without notifying the server. On an
// endpoint change the old token belongs to a different backend instance;
// on a rejected authenticated fetch the server already considers the token
// invalid. Either way a logout POST would be pointless.
func (m *Manager) Invalidate() {
	if err := m.begin(); err != nil {
		return
	}
	defer m.end()

	m.clearLocked()
}

func (m *Manager) clearLocked() {
	if err := m.creds.Delete(tokenKey); err != nil {
		logging.Log().WithError(err).Warn("could not delete persisted token")
	}
	m.client.ClearToken()
	m.user = nil
	m.state = Anonymous
}
