package endpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/webmail/internal/api"
	"github.com/nhle/webmail/internal/model"
)

func newTestConfig(t *testing.T) (*Config, *api.Client) {
	t.Helper()
	client := api.NewClient("http://unset")
	path := filepath.Join(t.TempDir(), "config.yaml")
	return New(path, client), client
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, client := newTestConfig(t)

	s, configured, err := cfg.Load()
	require.NoError(t, err)

	assert.Equal(t, model.DefaultEndpointSettings(), s)
	assert.False(t, configured)
	assert.Equal(t, s.BaseURL(), client.BaseURL())
}

func TestSave_RejectsEmptyAndWhitespaceFields(t *testing.T) {
	cfg, _ := newTestConfig(t)
	_, _, err := cfg.Load()
	require.NoError(t, err)

	err = cfg.Save(model.EndpointSettings{Host: "", Port: "9000"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = cfg.Save(model.EndpointSettings{Host: "mail.example.com", Port: "   "})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// Nothing was applied.
	assert.Equal(t, model.DefaultEndpointSettings(), cfg.Settings())
	assert.False(t, cfg.Configured())
}

func TestSave_PersistsAndReconfiguresTransport(t *testing.T) {
	client := api.NewClient("http://unset")
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := New(path, client)
	_, _, err := cfg.Load()
	require.NoError(t, err)

	err = cfg.Save(model.EndpointSettings{Host: "mail.example.com", Port: "9000"})
	require.NoError(t, err)

	assert.Equal(t, "http://mail.example.com:9000/api", client.BaseURL())
	assert.True(t, cfg.Configured())

	// A fresh Config over the same file sees the saved values.
	cfg2 := New(path, api.NewClient("http://unset"))
	s, configured, err := cfg2.Load()
	require.NoError(t, err)
	assert.Equal(t, model.EndpointSettings{Host: "mail.example.com", Port: "9000"}, s)
	assert.True(t, configured)
}

func TestSave_ChangedAddressFiresInvalidationHook(t *testing.T) {
	cfg, _ := newTestConfig(t)
	_, _, err := cfg.Load()
	require.NoError(t, err)

	fired := 0
	cfg.OnInvalidate(func() { fired++ })

	require.NoError(t, cfg.Save(model.EndpointSettings{Host: "a.example.com", Port: "9000"}))
	assert.Equal(t, 1, fired)

	// Re-saving identical settings must not invalidate the session.
	require.NoError(t, cfg.Save(model.EndpointSettings{Host: "a.example.com", Port: "9000"}))
	assert.Equal(t, 1, fired)

	// A port change alone is a different backend instance.
	require.NoError(t, cfg.Save(model.EndpointSettings{Host: "a.example.com", Port: "9001"}))
	assert.Equal(t, 2, fired)
}
