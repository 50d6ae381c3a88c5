package app

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
	"github.com/nhle/webmail/internal/mailbox"
	"github.com/nhle/webmail/internal/session"
)

// newRestoredApp builds a root model over a restored session pointed at the
// given backend, the same situation as a startup with a persisted token.
func newRestoredApp(t *testing.T, handler http.Handler) (Model, *api.Client, *credential.Memory) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL)
	creds := credential.NewMemory()
	require.NoError(t, creds.Set("auth-token", "tok-stale"))

	sess := session.New(client, creds)
	require.True(t, sess.Restore())

	cfg := endpoint.New(filepath.Join(t.TempDir(), "config.yaml"), client)
	box := mailbox.New(client)

	m := New(cfg, sess, box)
	require.Equal(t, ViewMailList, m.currentView)
	return m, client, creds
}

func TestMailboxAuthFailureDestroysCredentialAndShowsLogin(t *testing.T) {
	m, client, creds := newRestoredApp(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

	err := m.mailbox.FetchMessages(context.Background())
	require.Error(t, err)

	updated, _ := m.Update(mailboxLoadedMsg{err: err})
	root := updated.(Model)

	assert.Equal(t, ViewLogin, root.currentView)
	assert.False(t, root.session.Authenticated())
	assert.False(t, client.HasToken())
	_, err = creds.Get("auth-token")
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestMailboxNonAuthFailureKeepsSession(t *testing.T) {
	m, client, _ := newRestoredApp(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

	err := m.mailbox.FetchMessages(context.Background())
	require.Error(t, err)

	updated, _ := m.Update(mailboxLoadedMsg{err: err})
	root := updated.(Model)

	assert.Equal(t, ViewMailList, root.currentView)
	assert.True(t, root.session.Authenticated())
	assert.True(t, client.HasToken())
	assert.Equal(t, err.Error(), root.errText)
}

func TestRefreshIdentityStaleTokenFallsBackToLogin(t *testing.T) {
	m, _, _ := newRestoredApp(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

	msg := m.refreshIdentity()()
	require.IsType(t, loggedOutMsg{}, msg)

	updated, _ := m.Update(msg)
	assert.Equal(t, ViewLogin, updated.(Model).currentView)
}

func TestSendFromDraftPushesCurrentFieldsFirst(t *testing.T) {
	var calls []string
	var patched api.DraftPatchRequest

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/rascunhos/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "PUT /rascunhos/"+r.PathValue("id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
	})
	mux.HandleFunc("POST /api/emails/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "POST /emails/"+r.PathValue("id"))
	})
	mux.HandleFunc("GET /api/emails", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.MessageListResponse{})
	})
	mux.HandleFunc("GET /api/rascunhos", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.DraftListResponse{})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := api.NewClient(srv.URL + "/api")
	box := mailbox.New(client)
	m := Model{mailbox: box}

	fields := mailbox.DraftFields{
		Recipient: "bob@x.com",
		Subject:   "edited subject",
		Body:      "edited body",
	}
	msg := m.send(fields, 7)()

	result, ok := msg.(sendResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)

	// The edits reach the draft before it is promoted.
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, "PUT /rascunhos/7", calls[0])
	assert.Equal(t, "POST /emails/7", calls[1])
	require.NotNil(t, patched.Subject)
	assert.Equal(t, "edited subject", *patched.Subject)
	require.NotNil(t, patched.Body)
	assert.Equal(t, "edited body", *patched.Body)
	require.NotNil(t, patched.Recipient)
	assert.Equal(t, "bob@x.com", *patched.Recipient)
}

func TestSendWithoutDraftPostsDirectly(t *testing.T) {
	var calls []string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/emails", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "POST /emails")
	})
	mux.HandleFunc("GET /api/emails", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.MessageListResponse{})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := Model{mailbox: mailbox.New(api.NewClient(srv.URL + "/api"))}

	msg := m.send(mailbox.DraftFields{Recipient: "bob@x.com", Subject: "s", Body: "b"}, 0)()
	result, ok := msg.(sendResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)
	assert.Equal(t, []string{"POST /emails"}, calls)
}
