// Package endpoint manages the backend server address: loading it at
// startup, validating and persisting changes, and keeping the shared
// transport pointed at the last saved address. Changing the address
// invalidates any held session, since a token issued by one backend
// instance is assumed worthless on another.
package endpoint

import (
	"errors"
	"strings"
	"sync"

	"github.com/nhle/webmail/internal/api"
	"github.com/nhle/webmail/internal/logging"
	"github.com/nhle/webmail/internal/model"
)

// ErrInvalidConfig is returned by Save when host or port is empty or
// whitespace. It is raised before any network or disk activity.
var ErrInvalidConfig = errors.New("server host and port must not be empty")

// Config owns the endpoint settings and their persistence.
type Config struct {
	mu           sync.Mutex
	path         string
	client       *api.Client
	settings     model.EndpointSettings
	configured   bool
	onInvalidate func()
}

// New creates a Config persisting to the YAML file at path and
// reconfiguring the given client on every change. Call Load before use.
func New(path string, client *api.Client) *Config {
	return &Config{path: path, client: client}
}

// OnInvalidate registers the hook fired after a save that changed the
// address. The session layer uses it to drop its credential.
func (c *Config) OnInvalidate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInvalidate = fn
}

// Load reads the persisted settings, falling back to the compiled-in
// default when absent or incomplete, and points the transport at the
// result. The returned flag is true only when the effective settings
// differ from the bare default, i.e. the user explicitly configured them.
func (c *Config) Load() (model.EndpointSettings, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := model.LoadEndpointSettings(c.path)
	if err != nil {
		return model.EndpointSettings{}, false, err
	}

	c.settings = s
	c.configured = s != model.DefaultEndpointSettings()
	c.client.SetBaseURL(s.BaseURL())

	return s, c.configured, nil
}

// Save validates, persists, and applies new settings. The transport is
// updated synchronously; when either field changed, the invalidation hook
// runs so a credential issued by the old backend is not reused.
func (c *Config) Save(s model.EndpointSettings) error {
	s.Host = strings.TrimSpace(s.Host)
	s.Port = strings.TrimSpace(s.Port)
	if !s.Complete() {
		return ErrInvalidConfig
	}

	c.mu.Lock()
	changed := s != c.settings

	if err := model.SaveEndpointSettings(c.path, s); err != nil {
		c.mu.Unlock()
		return err
	}

	c.settings = s
	c.configured = true
	c.client.SetBaseURL(s.BaseURL())
	hook := c.onInvalidate
	c.mu.Unlock()

	if changed && hook != nil {
		logging.Log().WithField("base_url", s.BaseURL()).
			Info("endpoint changed, invalidating session")
		hook()
	}

	return nil
}

// Settings returns the current effective settings.
func (c *Config) Settings() model.EndpointSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Configured reports whether the settings were explicitly set by the user.
func (c *Config) Configured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configured
}
