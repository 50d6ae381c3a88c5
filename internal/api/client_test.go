package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_AttachesBearerTokenWhenSet(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	err := c.Get(context.Background(), "/emails", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "no token set, no Authorization header expected")

	c.SetToken("tok-123")
	err = c.Get(context.Background(), "/emails", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	c.ClearToken()
	err = c.Get(context.Background(), "/emails", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestDo_SetsRequestID(t *testing.T) {
	ids := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[r.Header.Get("X-Request-ID")] = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.Get(context.Background(), "/a", nil))
	require.NoError(t, c.Get(context.Background(), "/b", nil))

	assert.Len(t, ids, 2, "each request carries a fresh correlation id")
	assert.False(t, ids[""])
}

func TestDo_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@x.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	var resp LoginResponse
	err := c.Post(context.Background(), "/login", LoginRequest{Email: "a@x.com", Password: "pw"}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Nil(t, resp.User)
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 is an auth error",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuthError(err))
			},
		},
		{
			name:   "403 is an auth error",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuthError(err))
			},
		},
		{
			name:   "404 is not-found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				assert.True(t, IsNotFound(err))
			},
		},
		{
			name:   "500 is a server error",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var srvErr *ServerError
				require.ErrorAs(t, err, &srvErr)
				assert.Equal(t, http.StatusInternalServerError, srvErr.StatusCode)
			},
		},
		{
			name:   "other 4xx carries the server message",
			status: http.StatusBadRequest,
			body:   `{"message":"email already registered"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidationError(err))
				assert.Equal(t, "email already registered", ValidationMessage(err))
				assert.Equal(t, "email already registered", err.Error())
			},
		},
		{
			name:   "4xx without message still a validation error",
			status: http.StatusConflict,
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidationError(err))
				assert.Empty(t, ValidationMessage(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			defer srv.Close()

			err := NewClient(srv.URL).Get(context.Background(), "/x", nil)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDo_UnreachableHostIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	err := NewClient(srv.URL).Get(context.Background(), "/emails", nil)
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestSetBaseURL_SwitchesTarget(t *testing.T) {
	hit := map[string]int{}
	handler := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			hit[name]++
			w.WriteHeader(http.StatusOK)
		}
	}
	first := httptest.NewServer(handler("first"))
	defer first.Close()
	second := httptest.NewServer(handler("second"))
	defer second.Close()

	c := NewClient(first.URL + "/")
	require.NoError(t, c.Get(context.Background(), "/emails", nil))

	c.SetBaseURL(second.URL)
	require.NoError(t, c.Get(context.Background(), "/emails", nil))
	require.NoError(t, c.Get(context.Background(), "/emails", nil))

	assert.Equal(t, 1, hit["first"])
	assert.Equal(t, 2, hit["second"])
	assert.Equal(t, second.URL, c.BaseURL())
}
