package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/api"
	"github.com/nhle/webmail/internal/credential"
	"github.com/nhle/webmail/internal/endpoint"
	"github.com/nhle/webmail/internal/model"
)

// fakeBackend is a minimal in-memory stand-in for the webmail server's
// account endpoints.
type fakeBackend struct {
	t *testing.T

	token    string
	user     model.User
	requests []string

	loginStatus  int
	loginMessage string
	userStatus   int
	deleteStatus int
	logoutStatus int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{
		t:     t,
		token: "tok-abc",
		user:  model.User{ID: "u1", Name: "Ana", Email: "ana@x.com"},
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, "POST /login")
		if b.loginStatus != 0 {
			w.WriteHeader(b.loginStatus)
			if b.loginMessage != "" {
				json.NewEncoder(w).Encode(map[string]string{"message": b.loginMessage})
			}
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"token": b.token})
	})
	mux.HandleFunc("GET /usuarios", func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, "GET /usuarios auth="+r.Header.Get("Authorization"))
		if b.userStatus != 0 {
			w.WriteHeader(b.userStatus)
			return
		}
		json.NewEncoder(w).Encode(b.user)
	})
	mux.HandleFunc("PUT /usuarios", func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, "PUT /usuarios")
		var req map[string]string
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&req))
		if name, ok := req["nome"]; ok {
			b.user.Name = name
		}
		json.NewEncoder(w).Encode(b.user)
	})
	mux.HandleFunc("POST /usuarios", func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, "POST /usuarios")
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("DELETE /usuarios", func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, "DELETE /usuarios")
		if b.deleteStatus != 0 {
			w.WriteHeader(b.deleteStatus)
		}
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, "POST /logout")
		if b.logoutStatus != 0 {
			w.WriteHeader(b.logoutStatus)
		}
	})
	return mux
}

func newTestManager(t *testing.T) (*Manager, *fakeBackend, *credential.Memory) {
	t.Helper()
	backend := newFakeBackend(t)
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	creds := credential.NewMemory()
	m := New(api.NewClient(srv.URL), creds)
	return m, backend, creds
}

func TestLogin_PersistsTokenAndLoadsIdentity(t *testing.T) {
	m, backend, creds := newTestManager(t)

	err := m.Login(context.Background(), "ana@x.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, Authenticated, m.State())
	require.NotNil(t, m.User())
	assert.Equal(t, "ana@x.com", m.User().Email)

	stored, err := creds.Get("auth-token")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", stored)

	// The identity fetch after login carried the freshly issued token.
	assert.Contains(t, backend.requests, "GET /usuarios auth=Bearer tok-abc")
}

func TestLogin_ServerMessageSurfacedVerbatim(t *testing.T) {
	m, backend, _ := newTestManager(t)
	backend.loginStatus = http.StatusBadRequest
	backend.loginMessage = "conta bloqueada"

	err := m.Login(context.Background(), "ana@x.com", "pw")
	require.Error(t, err)
	assert.Equal(t, "conta bloqueada", err.Error())
	assert.Equal(t, Anonymous, m.State())
}

func TestLogin_AuthFailureServerMessageSurfacedVerbatim(t *testing.T) {
	m, backend, _ := newTestManager(t)
	backend.loginStatus = http.StatusUnauthorized
	backend.loginMessage = "conta temporariamente bloqueada"

	err := m.Login(context.Background(), "ana@x.com", "pw")
	require.Error(t, err)
	assert.Equal(t, "conta temporariamente bloqueada", err.Error())
	assert.Equal(t, Anonymous, m.State())
}

func TestLogin_AuthFailureWithoutMessageGetsGenericText(t *testing.T) {
	m, backend, creds := newTestManager(t)
	backend.loginStatus = http.StatusUnauthorized

	err := m.Login(context.Background(), "ana@x.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "invalid email or password", err.Error())
	assert.Equal(t, Anonymous, m.State())

	_, err = creds.Get("auth-token")
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestRegister_DoesNotAuthenticate(t *testing.T) {
	m, backend, _ := newTestManager(t)

	err := m.Register(context.Background(), "Ana", "ana@x.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, Anonymous, m.State())
	assert.Contains(t, backend.requests, "POST /usuarios")
}

func TestRestore_LoadsTokenWithoutNetworkCalls(t *testing.T) {
	m, backend, creds := newTestManager(t)
	require.NoError(t, creds.Set("auth-token", "tok-old"))

	found := m.Restore()
	assert.True(t, found)
	assert.Equal(t, Authenticated, m.State())
	assert.Empty(t, backend.requests, "restore must not touch the network")
}

func TestRestore_NothingPersisted(t *testing.T) {
	m, backend, _ := newTestManager(t)

	assert.False(t, m.Restore())
	assert.Equal(t, Anonymous, m.State())
	assert.Empty(t, backend.requests)
}

func TestRefreshIdentity_AuthFailureForcesLogout(t *testing.T) {
	m, backend, creds := newTestManager(t)
	require.NoError(t, m.Login(context.Background(), "ana@x.com", "pw"))

	backend.userStatus = http.StatusUnauthorized
	err := m.RefreshIdentity(context.Background())

	assert.NoError(t, err, "the auth failure is absorbed, not surfaced")
	assert.Equal(t, Anonymous, m.State())
	assert.Nil(t, m.User())
	_, err = creds.Get("auth-token")
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestUpdateAccount_MergesAndRefreshes(t *testing.T) {
	m, backend, _ := newTestManager(t)
	require.NoError(t, m.Login(context.Background(), "ana@x.com", "pw"))

	err := m.UpdateAccount(context.Background(), "Ana Maria", "")
	require.NoError(t, err)

	require.NotNil(t, m.User())
	assert.Equal(t, "Ana Maria", m.User().Name)
	assert.Contains(t, backend.requests, "PUT /usuarios")
}

func TestDeleteAccount_AlwaysLogsOut(t *testing.T) {
	tests := []struct {
		name         string
		deleteStatus int
		wantErr      bool
	}{
		{name: "delete succeeds", deleteStatus: 0, wantErr: false},
		{name: "delete fails server-side", deleteStatus: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, backend, creds := newTestManager(t)
			require.NoError(t, m.Login(context.Background(), "ana@x.com", "pw"))
			backend.deleteStatus = tt.deleteStatus

			err := m.DeleteAccount(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, Anonymous, m.State())
			assert.Nil(t, m.User())
			_, err = creds.Get("auth-token")
			assert.ErrorIs(t, err, credential.ErrNotFound)
		})
	}
}

func TestLogout_ClearsStateEvenWhenServerFails(t *testing.T) {
	m, backend, creds := newTestManager(t)
	require.NoError(t, m.Login(context.Background(), "ana@x.com", "pw"))
	backend.logoutStatus = http.StatusInternalServerError

	m.Logout(context.Background())

	assert.Equal(t, Anonymous, m.State())
	assert.Nil(t, m.User())
	_, err := creds.Get("auth-token")
	assert.ErrorIs(t, err, credential.ErrNotFound)
	assert.Contains(t, backend.requests, "POST /logout")
}

func TestEndpointChange_InvalidatesAuthenticatedSession(t *testing.T) {
	backend := newFakeBackend(t)
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL)
	m := New(client, credential.NewMemory())

	cfg := endpoint.New(filepath.Join(t.TempDir(), "config.yaml"), client)
	_, _, err := cfg.Load()
	require.NoError(t, err)
	cfg.OnInvalidate(m.Invalidate)

	// Point the transport back at the fake backend; Load aimed it at the
	// compiled-in default address.
	client.SetBaseURL(srv.URL)

	require.NoError(t, m.Login(context.Background(), "ana@x.com", "pw"))
	require.Equal(t, Authenticated, m.State())

	require.NoError(t, cfg.Save(model.EndpointSettings{Host: "other.example.com", Port: "9000"}))

	assert.Equal(t, Anonymous, m.State())
	assert.False(t, client.HasToken())
}
